package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"newshub/internal/domain"
)

// DefaultGNewsBaseURL - базовый адрес GNews API v4.
const DefaultGNewsBaseURL = "https://gnews.io/api/v4"

// GNews - клиент https://gnews.io.
type GNews struct {
	name     string
	baseURL  string
	apiKey   string
	language string
	fetcher  Fetcher
	parser   ArticleParser
	log      *slog.Logger
}

// GNewsConfig - параметры клиента GNews.
type GNewsConfig struct {
	Name     string
	BaseURL  string
	APIKey   string
	Language string
}

func NewGNews(cfg GNewsConfig, fetcher Fetcher, parser ArticleParser, log *slog.Logger) *GNews {
	if cfg.Name == "" {
		cfg.Name = "gnews"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGNewsBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &GNews{
		name:     cfg.Name,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		fetcher:  fetcher,
		parser:   parser,
		log:      log.With(slog.String("component", "provider")),
	}
}

func (c *GNews) Name() string { return c.name }

func (c *GNews) Fetch(ctx context.Context, spec domain.QuerySpec) domain.Outcome {
	query := domain.Resolve(spec)
	return fetchArticles(ctx, c.log, c.name, query, c.requestURL(query), c.fetcher, c.parser)
}

// requestURL строит /search?q=... для поиска и /top-headlines для главных новостей.
func (c *GNews) requestURL(query domain.Query) string {
	params := url.Values{}
	params.Set("token", c.apiKey)
	params.Set("lang", c.language)
	path := "/top-headlines"
	if query.Mode == domain.ModeSearch {
		path = "/search"
		params.Set("q", query.Text)
	}
	return c.baseURL + path + "?" + params.Encode()
}
