// Package cache хранит результаты агрегации по ключу запроса.
package cache

import (
	"context"
	"time"

	"newshub/internal/domain"
)

const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 256
)

// Store - кэш результатов агрегации. Реализации безопасны для конкурентного использования.
// Get возвращает found=false для отсутствующих и просроченных записей.
type Store interface {
	Get(ctx context.Context, key string) (articles []domain.Article, found bool, err error)
	Put(ctx context.Context, key string, articles []domain.Article) error
	Stats(ctx context.Context) (Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats - статистика кэша. Счетчики попаданий ведутся с момента открытия хранилища.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Option настраивает политику хранения.
type Option func(*policy)

type policy struct {
	ttl        time.Duration
	maxEntries int
	clock      func() time.Time
}

func newPolicy(opts []Option) policy {
	p := policy{ttl: DefaultTTL, maxEntries: DefaultMaxEntries, clock: time.Now}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithTTL задает время жизни записи.
func WithTTL(ttl time.Duration) Option {
	return func(p *policy) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithMaxEntries ограничивает число записей; лишние вытесняются по LRU.
func WithMaxEntries(n int) Option {
	return func(p *policy) {
		if n > 0 {
			p.maxEntries = n
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) Option {
	return func(p *policy) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func clone(articles []domain.Article) []domain.Article {
	return append(make([]domain.Article, 0, len(articles)), articles...)
}
