package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"newshub/internal/domain"
)

// RSSParser разбирает RSS/Atom-ленты в нормализованные статьи.
type RSSParser struct {
	log *slog.Logger
}

func NewRSSParser(log *slog.Logger) *RSSParser {
	return &RSSParser{log: log.With(slog.String("component", "rss-parser"))}
}

// Parse разбирает ленту. source задает имя источника; если оно пустое,
// используется заголовок ленты. Дата публикации сохраняется в исходном формате.
func (p *RSSParser) Parse(ctx context.Context, reader io.Reader, source string) ([]domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		p.log.Debug("Error decoding feed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	if source == "" {
		source = feed.Title
	}
	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		published := item.Published
		if published == "" {
			published = item.Updated
		}
		articles = append(articles, domain.Article{
			ID:          item.Link,
			Title:       item.Title,
			Description: item.Description,
			URL:         item.Link,
			Source:      source,
			PublishedAt: published,
		})
	}
	return articles, nil
}
