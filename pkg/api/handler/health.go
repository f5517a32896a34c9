package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dskvich/openrouter-telegram-bot/pkg/api/response"
	"github.com/dskvich/openrouter-telegram-bot/pkg/logger"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status  string `json:"status"`
	History string `json:"history"`
}

type health struct {
	history Pinger
	backend string
	writer  response.JSONResponseWriter
}

func NewHealth(history Pinger, backend string) *health {
	return &health{history: history, backend: backend}
}

// Register mounts GET /healthz on r.
func (h *health) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Check).Methods(http.MethodGet)
}

func (h *health) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.history.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "History store is unhealthy", "backend", h.backend, logger.Err(err))
		h.writer.Write(w, http.StatusServiceUnavailable, HealthStatus{Status: "unhealthy", History: h.backend})
		return
	}

	h.writer.Write(w, http.StatusOK, HealthStatus{Status: "healthy", History: h.backend})
}

// NewRouter builds the HTTP surface of the bot.
func NewRouter(health *health) *mux.Router {
	r := mux.NewRouter()
	health.Register(r)
	return r
}
