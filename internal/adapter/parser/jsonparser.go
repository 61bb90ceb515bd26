package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tidwall/gjson"

	"newshub/internal/domain"
)

// ErrUpstream означает, что провайдер вернул корректный JSON с описанием ошибки.
var ErrUpstream = errors.New("upstream reported an error")

// JSONParser разбирает ответы API вида {"articles": [...]} (GNews, NewsAPI).
// Отсутствующие, null и нестроковые поля превращаются в пустые строки.
type JSONParser struct {
	log *slog.Logger
}

func NewJSONParser(log *slog.Logger) *JSONParser {
	return &JSONParser{log: log.With(slog.String("component", "json-parser"))}
}

// Parse читает тело ответа и возвращает нормализованные статьи.
// Если поле articles отсутствует или не является массивом, возвращается пустой список.
func (p *JSONParser) Parse(ctx context.Context, reader io.Reader) ([]domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if !gjson.ValidBytes(body) {
		p.log.Debug("Error decoding JSON", slog.Int("bytes", len(body)))
		return nil, fmt.Errorf("failed to decode JSON: invalid document")
	}
	doc := gjson.ParseBytes(body)
	if msg := upstreamError(doc); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	articlesNode := doc.Get("articles")
	if !articlesNode.IsArray() {
		p.log.Warn("Response has no articles array")
		return []domain.Article{}, nil
	}
	items := articlesNode.Array()
	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		link := text(item.Get("url"))
		articles = append(articles, domain.Article{
			ID:          link,
			Title:       text(item.Get("title")),
			Description: text(item.Get("description")),
			URL:         link,
			Source:      text(item.Get("source.name")),
			PublishedAt: text(item.Get("publishedAt")),
		})
	}
	return articles, nil
}

// text возвращает скалярное значение как строку; объекты, массивы и null дают "".
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String()
	default:
		return ""
	}
}

// upstreamError извлекает сообщение об ошибке из ответа NewsAPI ({"status":"error"})
// или GNews ({"errors": [...]}).
func upstreamError(doc gjson.Result) string {
	if doc.Get("status").String() == "error" {
		if msg := doc.Get("message").String(); msg != "" {
			return msg
		}
		return "status error"
	}
	if errs := doc.Get("errors"); errs.Exists() {
		if errs.IsArray() && len(errs.Array()) > 0 {
			return errs.Array()[0].String()
		}
		if errs.IsObject() {
			return errs.Raw
		}
	}
	return ""
}
