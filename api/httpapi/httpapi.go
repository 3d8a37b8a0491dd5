// Package httpapi exposes the leaderboard over REST plus the WebSocket
// notification channel.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	wsadapter "scorekit/adapters/websocket"
	"scorekit/auth"
	"scorekit/core"
	"scorekit/engine"
	"scorekit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewRouter builds the http.Handler.
// Routes:
//   - POST {prefix}/scores                  (auth)
//   - GET  {prefix}/leaderboard?limit=n
//   - GET  {prefix}/leaderboard/top
//   - GET  {prefix}/leaderboard/stats
//   - GET  {prefix}/users/me/scores        (auth)
//   - GET  {prefix}/users/me/scores/best   (auth)
//   - GET  {prefix}/users/me/ranking       (auth)
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewRouter(svc *engine.LeaderboardService, reg *realtime.Registry, authn auth.Authenticator, logger *slog.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{svc: svc, logger: logger}

	r := mux.NewRouter()
	api := r.PathPrefix(opts.PathPrefix).Subrouter()

	api.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	api.Handle("/ws", wsadapter.Handler(reg, logger)).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", h.topScores).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/top", h.topScore).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/stats", h.stats).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(withAuth(authn))
	protected.HandleFunc("/scores", h.submitScore).Methods(http.MethodPost)
	protected.HandleFunc("/users/me/scores", h.userScores).Methods(http.MethodGet)
	protected.HandleFunc("/users/me/scores/best", h.userBestScore).Methods(http.MethodGet)
	protected.HandleFunc("/users/me/ranking", h.userRanking).Methods(http.MethodGet)

	var handler http.Handler = r
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

type handlers struct {
	svc    *engine.LeaderboardService
	logger *slog.Logger
}

type submitRequest struct {
	Score *int `json:"score"`
}

func (h *handlers) submitScore(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Score == nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "body must be {\"score\": integer}", nil)
		return
	}
	rec, err := h.svc.SubmitScore(r.Context(), ident.UserID, ident.Name, *req.Score)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rec)
}

func (h *handlers) topScores(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	top, err := h.svc.GetTopScores(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, emptyAsList(top))
}

func (h *handlers) topScore(w http.ResponseWriter, r *http.Request) {
	top, err := h.svc.GetTopScore(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, emptyAsList(top))
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.GetStats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, st)
}

func (h *handlers) userScores(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.FromContext(r.Context())
	scores, err := h.svc.GetUserScores(r.Context(), ident.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, emptyAsList(scores))
}

func (h *handlers) userBestScore(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.FromContext(r.Context())
	best, err := h.svc.GetUserBestScore(r.Context(), ident.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, best)
}

func (h *handlers) userRanking(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.FromContext(r.Context())
	ranking, err := h.svc.GetUserRanking(r.Context(), ident.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, ranking)
}

// health verifies the storage path with a lightweight read.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	_, err := h.svc.GetStats(r.Context())

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
		_ = json.NewEncoder(w).Encode(status)
		return
	}
	writeJSON(w, status)
}

func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "invalid_score", err.Error(), nil)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, core.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "backend unavailable, retry later", nil)
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

// emptyAsList keeps empty results as [] instead of null on the wire.
func emptyAsList(recs []core.ScoreRecord) []core.ScoreRecord {
	if recs == nil {
		return []core.ScoreRecord{}
	}
	return recs
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}
