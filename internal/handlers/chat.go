package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Davincible/llmwire/internal/wire"
	"github.com/Davincible/llmwire/internal/wire/openai"
)

// ChatHandler serves the chat-completions surface: decode to canonical,
// dispatch upstream, project back onto the same wire shape.
type ChatHandler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewChatHandler(dispatcher *Dispatcher, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher, logger: logger}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, h.logger, http.StatusBadRequest, "failed to read request body: %v", err)
		return
	}

	req, err := openai.DecodeRequest(body)
	if err != nil {
		writeDecodeError(w, h.logger, err)
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		httpError(w, h.logger, http.StatusBadGateway, "dispatch failed: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(openai.EncodeResponse(resp)); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}

// writeDecodeError maps a typed decode failure to a 400 with the field
// path and tag in the body; anything else is a 400 with the raw error.
func writeDecodeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var decErr *wire.DecodeError
	if errors.As(err, &decErr) {
		httpError(w, logger, http.StatusBadRequest, "%v", decErr)
		return
	}

	httpError(w, logger, http.StatusBadRequest, "invalid request: %v", err)
}

func httpError(w http.ResponseWriter, logger *slog.Logger, code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("HTTP Error", "code", code, "message", msg)
	http.Error(w, msg, code)
}
