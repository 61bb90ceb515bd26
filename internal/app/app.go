package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"newshub/internal/cache"
	"newshub/internal/config"
	server "newshub/internal/transport/http"
	"newshub/internal/usecase"
	"newshub/internal/worker"
	"newshub/storage"
)

// App представляет основное приложение: HTTP API поверх агрегатора новостей,
// кэш результатов, хранилище пользовательских данных и воркер прогрева кэша.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	worker   *worker.Worker
	cache    cache.Store
	users    storage.Storage
	stopChan chan os.Signal
	wg       sync.WaitGroup
}

// New инициализирует все компоненты приложения. Конфигурация без провайдеров
// или с недоступным хранилищем - фатальная ошибка старта.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	aggregator, err := NewAggregator(cfg.App, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregator: %w", err)
	}
	resultCache, err := NewCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	users, err := NewStorage(ctx, cfg.Database, log)
	if err != nil {
		resultCache.Close()
		return nil, err
	}
	news := usecase.NewNewsService(aggregator, resultCache, users, log)
	handler := server.NewHandler(log, news, users, server.HeaderIdentity{})
	router := server.NewServer(log, handler)

	a := &App{
		config: cfg,
		logger: log.With(slog.String("component", "app")),
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cache:    resultCache,
		users:    users,
		stopChan: make(chan os.Signal, 1),
	}
	if interval := cfg.App.WarmIntervalDuration(); interval > 0 {
		a.worker = worker.New(news, cfg.App.WarmKeywords, interval, log)
	}
	log.Info("Application initialized",
		slog.Any("providers", aggregator.Providers()),
		slog.String("cache", cfg.Cache.Driver),
		slog.String("database", cfg.Database.Driver),
	)
	return a, nil
}

// Run запускает воркер прогрева и HTTP-сервер и блокируется до сигнала
// завершения или отмены ctx, после чего выполняет graceful shutdown.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		a.Shutdown()
		return fmt.Errorf("failed to create listener: %w", err)
	}
	if a.worker != nil {
		a.worker.Start()
	}
	a.logger.Info("HTTP server ready", slog.String("address", listener.Addr().String()))
	serverErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
			serverErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)
	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("Context cancelled, initiating shutdown")
	case runErr = <-serverErr:
	}
	if err := a.Shutdown(); err != nil {
		return err
	}
	return runErr
}

// Shutdown останавливает воркер и HTTP-сервер, закрывает кэш и хранилище
// и ожидает завершения всех горутин.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown")
	if a.worker != nil {
		a.worker.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeoutDuration())
	defer cancel()
	var shutdownErr error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
		shutdownErr = fmt.Errorf("http server shutdown: %w", err)
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("Cache close failed", slog.Any("error", err))
	}
	a.users.Close()
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully")
	return shutdownErr
}
