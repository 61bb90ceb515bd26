package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "newshub/1.0 (+https://github.com/newshub)"
)

// HTTPFetcher выполняет GET-запросы к API провайдеров новостей.
// Общий для всех провайдеров транспорт с таймаутом на уровне клиента,
// чтобы медленный провайдер не задерживал агрегацию бесконечно.
type HTTPFetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewHTTPFetcher создает загрузчик с указанным таймаутом.
// Неположительный таймаут заменяется значением по умолчанию.
func NewHTTPFetcher(log *slog.Logger, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		log:    log.With(slog.String("component", "fetcher")),
	}
}

// Fetch выполняет GET по rawURL и возвращает тело ответа, которое нужно закрыть.
// Любой статус кроме 200 считается ошибкой.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	log := f.log.With(slog.String("url", redact(rawURL)))
	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		log.Debug("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", redact(rawURL), err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, application/xml;q=0.9, */*;q=0.8")
	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch url %s: %w", redact(rawURL), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		log.Debug("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("unexpected status code: %d for url %s", resp.StatusCode, redact(rawURL))
	}
	log.Debug("Successfully fetched URL")
	return resp.Body, nil
}

// redact скрывает значения API-ключей в URL перед логированием.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, k := range []string{"token", "apiKey", "apikey", "key"} {
		if q.Has(k) {
			q.Set(k, "***")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
