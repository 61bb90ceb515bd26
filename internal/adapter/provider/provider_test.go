package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/internal/adapter/fetcher"
	"newshub/internal/adapter/parser"
	"newshub/internal/domain"
)

const twoArticles = `{"articles":[
	{"title":"A1","description":"first","url":"https://a.example/1","publishedAt":"2024-05-01T00:00:00Z","source":{"name":"A"}},
	{"title":"A2","url":"https://a.example/2","source":{"name":"A"}}
]}`

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedRequest struct {
	path  string
	query url.Values
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.requests = append(rec.requests, recordedRequest{path: r.URL.Path, query: r.URL.Query()})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newGNews(baseURL string) *GNews {
	log := newTestLogger()
	return NewGNews(
		GNewsConfig{BaseURL: baseURL + "/api/v4", APIKey: "secret", Language: "en"},
		fetcher.NewHTTPFetcher(log, time.Second),
		parser.NewJSONParser(log),
		log,
	)
}

func TestGNews_Fetch_Modes(t *testing.T) {
	tests := []struct {
		name     string
		spec     domain.QuerySpec
		wantPath string
		wantQ    string
	}{
		{name: "keyword", spec: domain.QuerySpec{Keyword: "election"}, wantPath: "/api/v4/search", wantQ: "election"},
		{name: "preferences", spec: domain.QuerySpec{Preferences: []string{"tech", "science"}}, wantPath: "/api/v4/search", wantQ: "tech OR science"},
		{name: "headlines", spec: domain.QuerySpec{}, wantPath: "/api/v4/top-headlines", wantQ: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, requests := newUpstream(t, http.StatusOK, twoArticles)
			client := newGNews(srv.URL)

			outcome := client.Fetch(context.Background(), tt.spec)

			require.NoError(t, outcome.Err)
			assert.Equal(t, "gnews", outcome.Provider)
			require.Len(t, outcome.Articles, 2)
			assert.Equal(t, "https://a.example/1", outcome.Articles[0].ID)
			assert.Equal(t, "", outcome.Articles[1].Description)
			reqs := requests.all()
			require.Len(t, reqs, 1)
			req := reqs[0]
			assert.Equal(t, tt.wantPath, req.path)
			assert.Equal(t, "secret", req.query.Get("token"))
			assert.Equal(t, "en", req.query.Get("lang"))
			assert.Equal(t, tt.wantQ, req.query.Get("q"))
			assert.Equal(t, tt.wantQ != "", req.query.Has("q"))
		})
	}
}

func TestGNews_Fetch_FailuresAreContained(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "malformed json", status: http.StatusOK, body: `{"articles": [`},
		{name: "upstream error", status: http.StatusOK, body: `{"errors":["bad token"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, tt.body)

			outcome := newGNews(srv.URL).Fetch(context.Background(), domain.QuerySpec{Keyword: "go"})

			assert.True(t, outcome.Failed())
			assert.NotNil(t, outcome.Articles)
			assert.Empty(t, outcome.Articles)
		})
	}
}

func TestGNews_Fetch_Unreachable(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, twoArticles)
	base := srv.URL
	srv.Close()

	outcome := newGNews(base).Fetch(context.Background(), domain.QuerySpec{})

	assert.True(t, outcome.Failed())
	assert.Empty(t, outcome.Articles)
}

func TestNewsAPI_Fetch_Modes(t *testing.T) {
	srv, requests := newUpstream(t, http.StatusOK, twoArticles)
	log := newTestLogger()
	client := NewNewsAPI(
		NewsAPIConfig{Name: "newsapi-main", BaseURL: srv.URL + "/v2/", APIKey: "k", Language: "de", Country: "de"},
		fetcher.NewHTTPFetcher(log, time.Second),
		parser.NewJSONParser(log),
		log,
	)

	search := client.Fetch(context.Background(), domain.QuerySpec{Preferences: []string{"tech", "science"}})
	headlines := client.Fetch(context.Background(), domain.QuerySpec{})

	require.NoError(t, search.Err)
	require.NoError(t, headlines.Err)
	assert.Equal(t, "newsapi-main", client.Name())
	assert.Len(t, search.Articles, 2)
	reqs := requests.all()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/v2/everything", reqs[0].path)
	assert.Equal(t, "tech OR science", reqs[0].query.Get("q"))
	assert.Equal(t, "de", reqs[0].query.Get("language"))
	assert.Equal(t, "k", reqs[0].query.Get("apiKey"))
	assert.Equal(t, "/v2/top-headlines", reqs[1].path)
	assert.Equal(t, "de", reqs[1].query.Get("country"))
	assert.False(t, reqs[1].query.Has("q"))
}

func TestRSS_Fetch(t *testing.T) {
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
<item><title>Go 1.24 released</title><link>https://f.example/go</link></item>
<item><title>Rust news</title><description>about SCIENCE</description><link>https://f.example/rust</link></item>
<item><title>Cooking</title><link>https://f.example/cook</link></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()
	log := newTestLogger()
	client := NewRSS("blog", srv.URL, fetcher.NewHTTPFetcher(log, time.Second), parser.NewRSSParser(log), log)

	all := client.Fetch(context.Background(), domain.QuerySpec{})
	some := client.Fetch(context.Background(), domain.QuerySpec{Preferences: []string{"go", "science"}})
	none := client.Fetch(context.Background(), domain.QuerySpec{Keyword: "election"})

	require.NoError(t, all.Err)
	assert.Len(t, all.Articles, 3)
	assert.Equal(t, "blog", all.Articles[0].Source)
	require.Len(t, some.Articles, 2)
	assert.Equal(t, "https://f.example/go", some.Articles[0].ID)
	assert.Equal(t, "https://f.example/rust", some.Articles[1].ID)
	assert.NoError(t, none.Err)
	assert.Empty(t, none.Articles)
}

func TestRSS_Fetch_SameKeySameArticles(t *testing.T) {
	feed := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
<item><title>Tech roundup</title><link>https://f.example/tech</link></item>
<item><title>Space</title><description>new science results</description><link>https://f.example/space</link></item>
<item><title>Cooking</title><link>https://f.example/cook</link></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed))
	}))
	defer srv.Close()
	log := newTestLogger()
	client := NewRSS("blog", srv.URL, fetcher.NewHTTPFetcher(log, time.Second), parser.NewRSSParser(log), log)
	byKeyword := domain.QuerySpec{Keyword: "tech OR science"}
	byPrefs := domain.QuerySpec{Preferences: []string{"tech", "science"}}
	require.Equal(t, domain.Key(byKeyword), domain.Key(byPrefs))

	keyword := client.Fetch(context.Background(), byKeyword)
	prefs := client.Fetch(context.Background(), byPrefs)

	require.NoError(t, keyword.Err)
	require.NoError(t, prefs.Err)
	require.Len(t, prefs.Articles, 2)
	assert.Equal(t, prefs.Articles, keyword.Articles)
}

func TestMock_Fetch(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		outcome := NewMock("").Fetch(context.Background(), domain.QuerySpec{Keyword: "anything"})
		assert.Equal(t, "mock", outcome.Provider)
		assert.Equal(t, DefaultMockArticles(), outcome.Articles)
	})
	t.Run("failure", func(t *testing.T) {
		outcome := NewMock("broken", WithFailure(errors.New("boom"))).Fetch(context.Background(), domain.QuerySpec{})
		assert.True(t, outcome.Failed())
		assert.Empty(t, outcome.Articles)
	})
	t.Run("delay honours context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		outcome := NewMock("slow", WithDelay(time.Second)).Fetch(ctx, domain.QuerySpec{})
		assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	})
}
