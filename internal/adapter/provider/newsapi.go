package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"newshub/internal/domain"
)

// DefaultNewsAPIBaseURL - базовый адрес NewsAPI v2.
const DefaultNewsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPI - клиент https://newsapi.org. Поиск идет через /everything,
// главные новости - через /top-headlines, который фильтрует по стране, а не по языку.
type NewsAPI struct {
	name     string
	baseURL  string
	apiKey   string
	language string
	country  string
	fetcher  Fetcher
	parser   ArticleParser
	log      *slog.Logger
}

// NewsAPIConfig - параметры клиента NewsAPI.
type NewsAPIConfig struct {
	Name     string
	BaseURL  string
	APIKey   string
	Language string
	Country  string
}

func NewNewsAPI(cfg NewsAPIConfig, fetcher Fetcher, parser ArticleParser, log *slog.Logger) *NewsAPI {
	if cfg.Name == "" {
		cfg.Name = "newsapi"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNewsAPIBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	return &NewsAPI{
		name:     cfg.Name,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		country:  cfg.Country,
		fetcher:  fetcher,
		parser:   parser,
		log:      log.With(slog.String("component", "provider")),
	}
}

func (c *NewsAPI) Name() string { return c.name }

func (c *NewsAPI) Fetch(ctx context.Context, spec domain.QuerySpec) domain.Outcome {
	query := domain.Resolve(spec)
	return fetchArticles(ctx, c.log, c.name, query, c.requestURL(query), c.fetcher, c.parser)
}

func (c *NewsAPI) requestURL(query domain.Query) string {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	if query.Mode == domain.ModeSearch {
		params.Set("language", c.language)
		params.Set("q", query.Text)
		return c.baseURL + "/everything?" + params.Encode()
	}
	params.Set("country", c.country)
	return c.baseURL + "/top-headlines?" + params.Encode()
}
