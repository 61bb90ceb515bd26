package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newshub/internal/adapter/provider"
	"newshub/internal/domain"
)

// ErrNoProviders возвращается при создании агрегатора без провайдеров.
// Это ошибка конфигурации, фатальная при старте.
var ErrNoProviders = errors.New("no news providers configured")

const defaultProviderTimeout = 10 * time.Second

// Aggregator рассылает запрос всем провайдерам параллельно и склеивает ответы
// в порядке регистрации провайдеров, а внутри провайдера - в порядке его ответа.
// Сбой или таймаут провайдера не влияет на остальных.
type Aggregator struct {
	clients []provider.Client
	timeout time.Duration
	dedup   bool
	log     *slog.Logger
}

// AggregatorOption настраивает Aggregator.
type AggregatorOption func(*Aggregator)

// WithProviderTimeout ограничивает время ответа каждого провайдера.
func WithProviderTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithURLDedup оставляет только первое вхождение статьи с одинаковым URL.
// По умолчанию дубликаты между провайдерами сохраняются.
func WithURLDedup() AggregatorOption {
	return func(a *Aggregator) {
		a.dedup = true
	}
}

// WithAggregatorLogger задает логгер агрегатора.
func WithAggregatorLogger(log *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAggregator создает агрегатор над неизменяемой копией списка провайдеров.
func NewAggregator(clients []provider.Client, opts ...AggregatorOption) (*Aggregator, error) {
	if len(clients) == 0 {
		return nil, ErrNoProviders
	}
	for i, c := range clients {
		if c == nil {
			return nil, fmt.Errorf("provider #%d is nil", i)
		}
	}
	a := &Aggregator{
		clients: append([]provider.Client(nil), clients...),
		timeout: defaultProviderTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(slog.String("component", "aggregator"))
	return a, nil
}

// Providers возвращает имена провайдеров в порядке регистрации.
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.clients))
	for i, c := range a.clients {
		names[i] = c.Name()
	}
	return names
}

// Aggregate опрашивает всех провайдеров и возвращает объединенный список.
// Никогда не возвращает ошибку: если все провайдеры упали, результат пустой.
func (a *Aggregator) Aggregate(ctx context.Context, spec domain.QuerySpec) []domain.Article {
	start := time.Now()
	outcomes := make([]domain.Outcome, len(a.clients))
	var wg sync.WaitGroup
	for i, client := range a.clients {
		wg.Add(1)
		go func(i int, c provider.Client) {
			defer wg.Done()
			outcomes[i] = a.fetchOne(ctx, c, spec)
		}(i, client)
	}
	wg.Wait()

	total := 0
	failures := 0
	for _, o := range outcomes {
		if o.Failed() {
			failures++
			continue
		}
		total += len(o.Articles)
	}
	articles := make([]domain.Article, 0, total)
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		articles = append(articles, o.Articles...)
	}
	if a.dedup {
		articles = dedupByURL(articles)
	}
	a.log.Info("Aggregation completed",
		slog.String("key", domain.Key(spec)),
		slog.Int("providers", len(a.clients)),
		slog.Int("failed", failures),
		slog.Int("count", len(articles)),
		slog.Duration("duration", time.Since(start)),
	)
	return articles
}

// fetchOne вызывает провайдера с собственным таймаутом. Провайдер, игнорирующий
// контекст, не задерживает агрегацию дольше таймаута; паника превращается в сбой.
func (a *Aggregator) fetchOne(ctx context.Context, c provider.Client, spec domain.QuerySpec) domain.Outcome {
	name := c.Name()
	opCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	done := make(chan domain.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("Provider panicked", slog.String("provider", name), slog.Any("panic", r))
				done <- domain.Outcome{Provider: name, Err: fmt.Errorf("provider %s panicked: %v", name, r)}
			}
		}()
		done <- c.Fetch(opCtx, spec)
	}()
	var outcome domain.Outcome
	select {
	case outcome = <-done:
	case <-opCtx.Done():
		select {
		case outcome = <-done:
		default:
			outcome = domain.Outcome{Provider: name, Err: fmt.Errorf("provider %s: %w", name, opCtx.Err())}
		}
	}
	if outcome.Failed() {
		a.log.Warn("Provider contributed no articles",
			slog.String("provider", name),
			slog.Any("error", outcome.Err),
		)
	}
	return outcome
}

func dedupByURL(articles []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if a.URL != "" {
			if _, ok := seen[a.URL]; ok {
				continue
			}
			seen[a.URL] = struct{}{}
		}
		out = append(out, a)
	}
	return out
}
