package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newshub/internal/adapter/provider"
	"newshub/internal/cache"
	"newshub/internal/domain"
	"newshub/internal/usecase"
	"newshub/storage"
)

type testEnv struct {
	server *httptest.Server
	users  *storage.MemoryUserDB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg, err := usecase.NewAggregator(
		[]provider.Client{provider.NewMock("mock")},
		usecase.WithAggregatorLogger(log),
	)
	require.NoError(t, err)
	users := storage.NewMemoryUserDB(log)
	news := usecase.NewNewsService(agg, cache.NewMemory(), users, log)
	server := httptest.NewServer(NewServer(log, NewHandler(log, news, users, HeaderIdentity{})))
	t.Cleanup(server.Close)
	return &testEnv{server: server, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, userID, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeArticles(t *testing.T, resp *http.Response) []domain.Article {
	t.Helper()
	var articles []domain.Article
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&articles))
	return articles
}

func TestHandler_Health(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/health", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestHandler_RequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestHandler_NewsRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/news", "/api/news/read", "/api/news/favorites", "/api/preferences"} {
		resp := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestHandler_GetNews(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/news", "u1", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	articles := decodeArticles(t, resp)
	assert.Len(t, articles, len(provider.DefaultMockArticles()))
}

func TestHandler_Search(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/news/search/election", "", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeArticles(t, resp), len(provider.DefaultMockArticles()))
}

func TestHandler_SearchBlankKeyword(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/news/search/%20", "", "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Preferences(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/preferences", "u1", `{"preferences":["tech","science"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/preferences", "u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body preferencesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"tech", "science"}, body.Preferences)
}

func TestHandler_PreferencesEmptyForNewUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/preferences", "new-user", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"preferences":[]}`, string(data))
}

func TestHandler_PreferencesInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/preferences", "u1", `{"preferences":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_ReadAndFavorites(t *testing.T) {
	env := newTestEnv(t)
	mock := provider.DefaultMockArticles()
	readBody := `{"id":"` + mock[1].ID + `"}`
	favoriteBody := `{"id":"` + mock[2].ID + `"}`

	resp := env.do(t, http.MethodPost, "/api/news/read", "u1", readBody)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/news/read", "u1", readBody)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/news/favorites", "u1", favoriteBody)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/news/read", "u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	read := decodeArticles(t, resp)
	require.Len(t, read, 1)
	assert.Equal(t, mock[1].ID, read[0].ID)

	resp = env.do(t, http.MethodGet, "/api/news/favorites", "u1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	favorites := decodeArticles(t, resp)
	require.Len(t, favorites, 1)
	assert.Equal(t, mock[2].ID, favorites[0].ID)
}

func TestHandler_MarkValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/news/read", "u1", `{"id":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/news/favorites", "u1", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/news/favorites", "", `{"id":"a"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_FavoritesEmptyForNewUser(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/news/favorites", "u2", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeArticles(t, resp))
}

func TestHandler_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodOptions, "/api/news", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodDelete, "/api/news", "u1", "")

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHeaderIdentity(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := HeaderIdentity{}.UserID(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	r.Header.Set(UserIDHeader, " u1 ")
	id, err := HeaderIdentity{}.UserID(r)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
}
