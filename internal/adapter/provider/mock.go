package provider

import (
	"context"
	"time"

	"newshub/internal/domain"
)

// Mock - провайдер без сети для локальной разработки и тестов.
// Возвращает фиксированный набор статей независимо от запроса.
type Mock struct {
	name     string
	articles []domain.Article
	delay    time.Duration
	err      error
}

// MockOption настраивает Mock.
type MockOption func(*Mock)

// WithArticles заменяет набор статей по умолчанию.
func WithArticles(articles ...domain.Article) MockOption {
	return func(m *Mock) {
		m.articles = append([]domain.Article(nil), articles...)
	}
}

// WithDelay добавляет искусственную задержку перед ответом.
func WithDelay(d time.Duration) MockOption {
	return func(m *Mock) {
		m.delay = d
	}
}

// WithFailure заставляет провайдер имитировать сбой.
func WithFailure(err error) MockOption {
	return func(m *Mock) {
		m.err = err
	}
}

func NewMock(name string, opts ...MockOption) *Mock {
	if name == "" {
		name = "mock"
	}
	m := &Mock{name: name, articles: DefaultMockArticles()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) Name() string { return m.name }

func (m *Mock) Fetch(ctx context.Context, _ domain.QuerySpec) domain.Outcome {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return failed(m.name, ctx.Err())
		}
	}
	if m.err != nil {
		return failed(m.name, m.err)
	}
	return domain.Outcome{
		Provider: m.name,
		Articles: append([]domain.Article(nil), m.articles...),
	}
}

// DefaultMockArticles возвращает статьи, которые Mock отдает без настройки.
func DefaultMockArticles() []domain.Article {
	return []domain.Article{
		{
			ID:          "https://example.com/tech-news-1",
			Title:       "Tech News: AI Revolution",
			Description: "Artificial intelligence is transforming the world",
			URL:         "https://example.com/tech-news-1",
			Source:      "Mock News",
			PublishedAt: "2024-01-01",
		},
		{
			ID:          "https://example.com/science-news-1",
			Title:       "Science Discovery: New Planet Found",
			Description: "Scientists discover a new exoplanet",
			URL:         "https://example.com/science-news-1",
			Source:      "Mock News",
			PublishedAt: "2024-01-02",
		},
		{
			ID:          "https://example.com/business-news-1",
			Title:       "Business Update: Market Growth",
			Description: "Stock market shows positive growth",
			URL:         "https://example.com/business-news-1",
			Source:      "Mock News",
			PublishedAt: "2024-01-03",
		},
	}
}
