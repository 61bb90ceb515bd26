package worker

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"newshub/internal/domain"
)

const defaultRefreshTimeout = 30 * time.Second

// Refresher обновляет запись кэша для одного запроса.
type Refresher interface {
	Refresh(ctx context.Context, spec domain.QuerySpec) error
}

// Worker периодически прогревает кэш: главные новости и заданные ключевые слова.
// Запросы одного цикла выполняются параллельно, каждый со своим таймаутом.
type Worker struct {
	refresher Refresher
	specs     []domain.QuerySpec
	interval  time.Duration
	timeout   time.Duration
	log       *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// New создает воркер прогрева. Главные новости прогреваются всегда,
// пустые и повторяющиеся ключевые слова пропускаются.
func New(refresher Refresher, keywords []string, interval time.Duration, log *slog.Logger) *Worker {
	specs := []domain.QuerySpec{{}}
	seen := make(map[string]bool)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		specs = append(specs, domain.QuerySpec{Keyword: kw})
	}
	return &Worker{
		refresher: refresher,
		specs:     specs,
		interval:  interval,
		timeout:   defaultRefreshTimeout,
		log:       log.With(slog.String("component", "worker")),
	}
}

// Start запускает воркер в отдельной горутине. Первый цикл выполняется сразу.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop отменяет текущий цикл и ждет завершения воркера.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	w.log.Info("Cache warm-up worker started",
		slog.String("interval", w.interval.String()),
		slog.Int("query_count", len(w.specs)),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.refreshAll(ctx)
	for {
		select {
		case <-ticker.C:
			w.refreshAll(ctx)
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

// refreshAll обновляет все запросы параллельно и логирует итоги цикла.
func (w *Worker) refreshAll(ctx context.Context) {
	start := time.Now()
	var wg sync.WaitGroup
	var successCount, errorCount atomic.Int64
	for _, spec := range w.specs {
		wg.Add(1)
		go func(spec domain.QuerySpec) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			opCtx, opCancel := context.WithTimeout(ctx, w.timeout)
			defer opCancel()
			if err := w.refresher.Refresh(opCtx, spec); err != nil {
				errorCount.Add(1)
				w.log.Error("Cache refresh failed",
					slog.String("key", domain.Key(spec)),
					slog.Any("error", err),
				)
				return
			}
			successCount.Add(1)
		}(spec)
	}
	wg.Wait()
	w.log.Info("Cache warm-up cycle completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("errors", errorCount.Load()),
		slog.Int("total", len(w.specs)),
		slog.Duration("duration", time.Since(start)),
	)
}

// Specs возвращает запросы, которые прогревает воркер.
func (w *Worker) Specs() []domain.QuerySpec { return w.specs }

// Interval возвращает период прогрева.
func (w *Worker) Interval() time.Duration { return w.interval }
