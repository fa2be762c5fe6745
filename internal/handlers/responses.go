package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/stream"
	"github.com/Davincible/llmwire/internal/wire/responses"
)

// ResponsesHandler serves the item-based surface. Non-streamed calls
// return a completed envelope; streamed calls emit the ordered event
// sequence over SSE.
type ResponsesHandler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewResponsesHandler(dispatcher *Dispatcher, logger *slog.Logger) *ResponsesHandler {
	return &ResponsesHandler{dispatcher: dispatcher, logger: logger}
}

func (h *ResponsesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, h.logger, http.StatusBadRequest, "failed to read request body: %v", err)
		return
	}

	req, err := responses.DecodeRequest(body)
	if err != nil {
		writeDecodeError(w, h.logger, err)
		return
	}

	if req.Stream {
		h.serveStream(w, r, req)
		return
	}

	resp, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		httpError(w, h.logger, http.StatusBadGateway, "dispatch failed: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(responses.ProjectResponse(resp)); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}

// serveStream decomposes the upstream response into the ordered event
// stream. The upstream call itself is synchronous; the sequencer
// replays its choices as item lifecycles.
func (h *ResponsesHandler) serveStream(w http.ResponseWriter, r *http.Request, req *canonical.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	seq := stream.NewSequencer("", req.Model, 0)

	events, err := seq.Start()
	if err != nil {
		h.logger.Error("Stream start failed", "error", err)
		return
	}

	h.writeEvents(w, events)

	resp, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		failed, seqErr := seq.Fail("upstream_error", err.Error())
		if seqErr != nil {
			h.logger.Error("Stream failure emission failed", "error", seqErr)
			return
		}

		h.writeEvents(w, failed)

		return
	}

	for _, choice := range resp.Choices {
		if err := h.streamChoice(w, seq, choice); err != nil {
			h.logger.Error("Stream emission failed", "error", err)
			return
		}
	}

	var usage *responses.Usage
	if resp.Usage != nil {
		normalized := resp.Usage.Normalized()
		usage = &responses.Usage{
			InputTokens:  normalized.InputTokens,
			OutputTokens: normalized.OutputTokens,
			TotalTokens:  normalized.TotalTokens,
		}
	}

	done, err := seq.Complete(usage)
	if err != nil {
		h.logger.Error("Stream completion failed", "error", err)
		return
	}

	h.writeEvents(w, done)
}

func (h *ResponsesHandler) streamChoice(w http.ResponseWriter, seq *stream.Sequencer, choice canonical.Choice) error {
	if choice.Message.Content != "" || len(choice.Message.ToolCalls) == 0 {
		events, err := seq.BeginMessage()
		if err != nil {
			return err
		}
		h.writeEvents(w, events)

		if choice.Message.Content != "" {
			ev, err := seq.TextDelta(choice.Message.Content)
			if err != nil {
				return err
			}
			h.writeEvents(w, []responses.Event{ev})
		}

		events, err = seq.EndItem()
		if err != nil {
			return err
		}
		h.writeEvents(w, events)
	}

	for _, tc := range choice.Message.ToolCalls {
		events, err := seq.BeginFunctionCall(tc.ID, tc.Function.Name)
		if err != nil {
			return err
		}
		h.writeEvents(w, events)

		if tc.Function.Arguments != "" {
			ev, err := seq.ArgumentsDelta(tc.Function.Arguments)
			if err != nil {
				return err
			}
			h.writeEvents(w, []responses.Event{ev})
		}

		events, err = seq.EndItem()
		if err != nil {
			return err
		}
		h.writeEvents(w, events)
	}

	return nil
}

func (h *ResponsesHandler) writeEvents(w http.ResponseWriter, events []responses.Event) {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("Failed to marshal event", "type", ev.EventType(), "error", err)
			continue
		}

		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.EventType(), payload)
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
