package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"newshub/internal/domain"
	"newshub/storage"
)

type newsService interface {
	News(ctx context.Context, userID string) ([]domain.Article, error)
	Search(ctx context.Context, keyword string) []domain.Article
	ReadArticles(ctx context.Context, userID string) ([]domain.Article, error)
	FavoriteArticles(ctx context.Context, userID string) ([]domain.Article, error)
}

type userStore interface {
	GetPreferences(ctx context.Context, userID string) ([]string, error)
	UpdatePreferences(ctx context.Context, userID string, preferences []string) error
	MarkRead(ctx context.Context, userID, articleID string) error
	MarkFavorite(ctx context.Context, userID, articleID string) error
}

type Handler struct {
	log      *slog.Logger
	news     newsService
	users    userStore
	identity IdentityProvider
}

func NewHandler(log *slog.Logger, news newsService, users userStore, identity IdentityProvider) *Handler {
	if identity == nil {
		identity = HeaderIdentity{}
	}
	return &Handler{
		log:      log.With(slog.String("component", "http")),
		news:     news,
		users:    users,
		identity: identity,
	}
}

type preferencesRequest struct {
	Preferences []string `json:"preferences"`
}

type markRequest struct {
	ID string `json:"id"`
}

type preferencesResponse struct {
	Preferences []string `json:"preferences"`
}

// getNews - хендлер для эндпоинта GET /api/news
func (h *Handler) getNews(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getNews"
	log, userID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	news, err := h.news.News(r.Context(), userID)
	if err != nil {
		h.respondWithStoreError(w, log, "Failed to get news", err)
		return
	}
	respondWithJSON(w, http.StatusOK, news)
}

// searchNews - хендлер для эндпоинта GET /api/news/search/{keyword}
func (h *Handler) searchNews(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/searchNews"
	log := h.requestLog(r, op)
	keyword := strings.TrimSpace(r.PathValue("keyword"))
	if keyword == "" {
		log.Warn("empty search keyword")
		respondWithError(w, http.StatusBadRequest, "Keyword must not be empty")
		return
	}
	respondWithJSON(w, http.StatusOK, h.news.Search(r.Context(), keyword))
}

// markRead - хендлер для эндпоинта POST /api/news/read
func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, "transport.http/markRead", h.users.MarkRead)
}

// markFavorite - хендлер для эндпоинта POST /api/news/favorites
func (h *Handler) markFavorite(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, "transport.http/markFavorite", h.users.MarkFavorite)
}

func (h *Handler) mark(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	markFn func(ctx context.Context, userID, articleID string) error,
) {
	log, userID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request body", slog.Any("error", err))
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	articleID := strings.TrimSpace(req.ID)
	if articleID == "" {
		log.Warn("empty article id")
		respondWithError(w, http.StatusBadRequest, "Article id must not be empty")
		return
	}
	if err := markFn(r.Context(), userID, articleID); err != nil {
		h.respondWithStoreError(w, log, "Failed to mark article", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getReadNews - хендлер для эндпоинта GET /api/news/read
func (h *Handler) getReadNews(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getReadNews"
	log, userID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	news, err := h.news.ReadArticles(r.Context(), userID)
	if err != nil {
		h.respondWithStoreError(w, log, "Failed to get read news", err)
		return
	}
	respondWithJSON(w, http.StatusOK, news)
}

// getFavoriteNews - хендлер для эндпоинта GET /api/news/favorites
func (h *Handler) getFavoriteNews(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getFavoriteNews"
	log, userID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	news, err := h.news.FavoriteArticles(r.Context(), userID)
	if err != nil {
		h.respondWithStoreError(w, log, "Failed to get favorite news", err)
		return
	}
	respondWithJSON(w, http.StatusOK, news)
}

// getPreferences - хендлер для эндпоинта GET /api/preferences
func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getPreferences"
	log, userID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	prefs, err := h.users.GetPreferences(r.Context(), userID)
	if err != nil {
		h.respondWithStoreError(w, log, "Failed to get preferences", err)
		return
	}
	if prefs == nil {
		prefs = []string{}
	}
	respondWithJSON(w, http.StatusOK, preferencesResponse{Preferences: prefs})
}

// updatePreferences - хендлер для эндпоинта PUT /api/preferences
func (h *Handler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/updatePreferences"
	log, userID, ok := h.authorize(w, r, op)
	if !ok {
		return
	}
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request body", slog.Any("error", err))
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.users.UpdatePreferences(r.Context(), userID, req.Preferences); err != nil {
		h.respondWithStoreError(w, log, "Failed to update preferences", err)
		return
	}
	prefs, err := h.users.GetPreferences(r.Context(), userID)
	if err != nil {
		h.respondWithStoreError(w, log, "Failed to get preferences", err)
		return
	}
	respondWithJSON(w, http.StatusOK, preferencesResponse{Preferences: prefs})
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) requestLog(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
}

// authorize определяет пользователя запроса; при неудаче ответ уже отправлен.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, string, bool) {
	log := h.requestLog(r, op)
	userID, err := h.identity.UserID(r)
	if err != nil {
		log.Warn("unauthenticated request", slog.Any("error", err))
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return log, "", false
	}
	return log.With(slog.String("user_id", userID)), userID, true
}

func (h *Handler) respondWithStoreError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	if errors.Is(err, storage.ErrInvalidUser) {
		log.Warn(msg, slog.Any("error", err))
		respondWithError(w, http.StatusBadRequest, "Invalid user")
		return
	}
	log.Error(msg, slog.Any("error", err))
	respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
