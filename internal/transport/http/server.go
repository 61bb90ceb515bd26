package http

import (
	"log/slog"
	"net/http"
)

// NewServer создает HTTP-роутер с эндпоинтами API и middleware
// идентификатора запроса, логирования и CORS.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/news", h.getNews)
	mux.HandleFunc("GET /api/news/search/{keyword}", h.searchNews)
	mux.HandleFunc("GET /api/news/read", h.getReadNews)
	mux.HandleFunc("GET /api/news/favorites", h.getFavoriteNews)
	mux.HandleFunc("POST /api/news/read", h.markRead)
	mux.HandleFunc("POST /api/news/favorites", h.markFavorite)
	mux.HandleFunc("GET /api/preferences", h.getPreferences)
	mux.HandleFunc("PUT /api/preferences", h.updatePreferences)
	mux.HandleFunc("GET /api/health", h.healthCheck)
	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = requestIDMiddleware()(handler)
	handler = corsMiddleware()(handler)
	return handler
}
