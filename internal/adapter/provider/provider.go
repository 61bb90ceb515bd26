package provider

import (
	"context"
	"io"
	"log/slog"
	"time"

	"newshub/internal/domain"
)

// Client - источник новостей. Fetch никогда не возвращает ошибку вызывающему:
// сбой транспорта или разбора дает Outcome без статей с заполненным Err.
type Client interface {
	Name() string
	Fetch(ctx context.Context, spec domain.QuerySpec) domain.Outcome
}

// Fetcher загружает тело ответа по URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// ArticleParser разбирает JSON-ответ API в статьи.
type ArticleParser interface {
	Parse(ctx context.Context, reader io.Reader) ([]domain.Article, error)
}

// FeedParser разбирает RSS/Atom-ленту в статьи.
type FeedParser interface {
	Parse(ctx context.Context, reader io.Reader, source string) ([]domain.Article, error)
}

// fetchArticles выполняет общий для JSON-провайдеров цикл: загрузка, разбор, логирование.
// Ошибка любого этапа превращается в неуспешный Outcome.
func fetchArticles(
	ctx context.Context,
	log *slog.Logger,
	name string,
	query domain.Query,
	target string,
	fetcher Fetcher,
	parser ArticleParser,
) domain.Outcome {
	start := time.Now()
	log = log.With(
		slog.String("provider", name),
		slog.String("mode", string(query.Mode)),
		slog.String("query", query.Text),
	)
	reader, err := fetcher.Fetch(ctx, target)
	if err != nil {
		log.Warn("Provider fetch failed", slog.String("stage", "fetch"), slog.Any("error", err))
		return failed(name, err)
	}
	defer reader.Close()
	articles, err := parser.Parse(ctx, reader)
	if err != nil {
		log.Warn("Provider response parsing failed", slog.String("stage", "parse"), slog.Any("error", err))
		return failed(name, err)
	}
	log.Debug("Provider fetch completed",
		slog.Int("count", len(articles)),
		slog.Duration("duration", time.Since(start)),
	)
	return domain.Outcome{Provider: name, Articles: articles}
}

func failed(name string, err error) domain.Outcome {
	return domain.Outcome{Provider: name, Articles: []domain.Article{}, Err: err}
}
