package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type HealthHandler struct {
	logger *slog.Logger
}

func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	status := map[string]string{"status": "ok"}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.logger.Error("Failed to write health check response", "error", err)
	}
}
