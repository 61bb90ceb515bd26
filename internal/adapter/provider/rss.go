package provider

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"newshub/internal/domain"
)

// RSS - провайдер поверх одной RSS/Atom-ленты. Лента не умеет искать,
// поэтому в режиме поиска статьи отбираются локально: заголовок или описание
// должны содержать хотя бы один из термов запроса без учета регистра.
type RSS struct {
	name    string
	feedURL string
	fetcher Fetcher
	parser  FeedParser
	log     *slog.Logger
}

func NewRSS(name, feedURL string, fetcher Fetcher, parser FeedParser, log *slog.Logger) *RSS {
	if name == "" {
		name = feedURL
	}
	return &RSS{
		name:    name,
		feedURL: feedURL,
		fetcher: fetcher,
		parser:  parser,
		log:     log.With(slog.String("component", "provider"), slog.String("provider", name)),
	}
}

func (c *RSS) Name() string { return c.name }

func (c *RSS) Fetch(ctx context.Context, spec domain.QuerySpec) domain.Outcome {
	start := time.Now()
	query := domain.Resolve(spec)
	log := c.log.With(slog.String("mode", string(query.Mode)), slog.String("query", query.Text))
	reader, err := c.fetcher.Fetch(ctx, c.feedURL)
	if err != nil {
		log.Warn("Provider fetch failed", slog.String("stage", "fetch"), slog.Any("error", err))
		return failed(c.name, err)
	}
	defer reader.Close()
	articles, err := c.parser.Parse(ctx, reader, c.name)
	if err != nil {
		log.Warn("Provider response parsing failed", slog.String("stage", "parse"), slog.Any("error", err))
		return failed(c.name, err)
	}
	if query.Mode == domain.ModeSearch {
		articles = matching(articles, query.Terms())
	}
	log.Debug("Provider fetch completed",
		slog.Int("count", len(articles)),
		slog.Duration("duration", time.Since(start)),
	)
	return domain.Outcome{Provider: c.name, Articles: articles}
}

func matching(articles []domain.Article, terms []string) []domain.Article {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		lowered = append(lowered, strings.ToLower(t))
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		haystack := strings.ToLower(a.Title + " " + a.Description)
		for _, t := range lowered {
			if strings.Contains(haystack, t) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
