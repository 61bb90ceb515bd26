package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"newshub/internal/domain"
)

type fakeRefresher struct {
	mu    sync.Mutex
	keys  []string
	fails map[string]bool
}

func (f *fakeRefresher) Refresh(_ context.Context, spec domain.QuerySpec) error {
	key := domain.Key(spec)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.fails[key] {
		return errors.New("refresh failed")
	}
	return nil
}

func (f *fakeRefresher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_BuildsSpecs(t *testing.T) {
	w := New(&fakeRefresher{}, []string{"election", " ", "climate", "election"}, time.Minute, newTestLogger())

	keys := make([]string, 0, len(w.Specs()))
	for _, s := range w.Specs() {
		keys = append(keys, domain.Key(s))
	}
	assert.Equal(t, []string{domain.HeadlinesKey, "election", "climate"}, keys)
	assert.Equal(t, time.Minute, w.Interval())
}

func TestWorker_RefreshesOnStart(t *testing.T) {
	defer goleak.VerifyNone(t)
	refresher := &fakeRefresher{fails: map[string]bool{"climate": true}}
	w := New(refresher, []string{"election", "climate"}, time.Hour, newTestLogger())

	w.Start()
	require.Eventually(t, func() bool { return len(refresher.calls()) == 3 }, time.Second, 10*time.Millisecond)
	w.Stop()

	assert.ElementsMatch(t, []string{domain.HeadlinesKey, "election", "climate"}, refresher.calls())
}

func TestWorker_RefreshesPeriodically(t *testing.T) {
	defer goleak.VerifyNone(t)
	refresher := &fakeRefresher{}
	w := New(refresher, nil, 20*time.Millisecond, newTestLogger())

	w.Start()
	require.Eventually(t, func() bool { return len(refresher.calls()) >= 3 }, time.Second, 5*time.Millisecond)
	w.Stop()

	for _, key := range refresher.calls() {
		assert.Equal(t, domain.HeadlinesKey, key)
	}
}

func TestWorker_StopWithoutStart(t *testing.T) {
	w := New(&fakeRefresher{}, nil, time.Minute, newTestLogger())

	assert.NotPanics(t, w.Stop)
}
