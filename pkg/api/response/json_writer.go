package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dskvich/openrouter-telegram-bot/pkg/logger"
)

type JSONResponseWriter struct{}

func (j *JSONResponseWriter) Write(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", logger.Err(err))
	}
}

func (j *JSONResponseWriter) WriteError(w http.ResponseWriter, statusCode int, message string) {
	j.Write(w, statusCode, ErrorResponse{Error: message})
}

type ErrorResponse struct {
	Error string `json:"error"`
}
