package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"newshub/internal/adapter/fetcher"
	"newshub/internal/adapter/parser"
	"newshub/internal/adapter/provider"
	"newshub/internal/cache"
	"newshub/internal/config"
	"newshub/internal/migrations"
	"newshub/internal/usecase"
	"newshub/storage"
)

// NewProviders создает клиентов провайдеров в порядке их перечисления в конфигурации.
func NewProviders(cfg config.AppConfig, log *slog.Logger) ([]provider.Client, error) {
	httpFetcher := fetcher.NewHTTPFetcher(log, cfg.ProviderTimeoutDuration())
	jsonParser := parser.NewJSONParser(log)
	rssParser := parser.NewRSSParser(log)
	clients := make([]provider.Client, 0, len(cfg.Providers))
	for i, p := range cfg.Providers {
		switch p.Kind {
		case config.ProviderGNews:
			clients = append(clients, provider.NewGNews(provider.GNewsConfig{
				Name:     p.DisplayName(),
				BaseURL:  p.BaseURL,
				APIKey:   p.APIKey,
				Language: p.Language,
			}, httpFetcher, jsonParser, log))
		case config.ProviderNewsAPI:
			clients = append(clients, provider.NewNewsAPI(provider.NewsAPIConfig{
				Name:     p.DisplayName(),
				BaseURL:  p.BaseURL,
				APIKey:   p.APIKey,
				Language: p.Language,
				Country:  p.Country,
			}, httpFetcher, jsonParser, log))
		case config.ProviderRSS:
			clients = append(clients, provider.NewRSS(p.DisplayName(), p.URL, httpFetcher, rssParser, log))
		case config.ProviderMock:
			clients = append(clients, provider.NewMock(p.DisplayName()))
		default:
			return nil, fmt.Errorf("app.providers[%d]: unknown provider kind %q", i, p.Kind)
		}
	}
	return clients, nil
}

// NewAggregator создает агрегатор над провайдерами из конфигурации.
func NewAggregator(cfg config.AppConfig, log *slog.Logger) (*usecase.Aggregator, error) {
	clients, err := NewProviders(cfg, log)
	if err != nil {
		return nil, err
	}
	opts := []usecase.AggregatorOption{
		usecase.WithProviderTimeout(cfg.ProviderTimeoutDuration()),
		usecase.WithAggregatorLogger(log),
	}
	if cfg.DedupeByURL {
		opts = append(opts, usecase.WithURLDedup())
	}
	return usecase.NewAggregator(clients, opts...)
}

// NewCache создает кэш результатов выбранного драйвера.
func NewCache(cfg config.CacheConfig) (cache.Store, error) {
	opts := []cache.Option{
		cache.WithTTL(cfg.TTLDuration()),
		cache.WithMaxEntries(cfg.MaxEntries),
	}
	switch cfg.Driver {
	case config.CacheMemory:
		return cache.NewMemory(opts...), nil
	case config.CacheSQLite:
		store, err := cache.NewSQLite(cfg.Path, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// NewStorage создает хранилище пользовательских данных. Для Postgres
// проверяет соединение и применяет миграции.
func NewStorage(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DatabaseMemory:
		return storage.NewMemoryUserDB(log), nil
	case config.DatabasePostgres:
		pool, err := OpenPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := migrations.Apply(ctx, log, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		return storage.NewPostgresUserDB(pool, log), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// OpenPostgres открывает пул соединений и проверяет его ping-запросом.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("Database connection established", slog.String("component", "database"))
	return pool, nil
}
