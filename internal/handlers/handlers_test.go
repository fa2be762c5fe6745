package handlers

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llmwire/internal/config"
	"github.com/Davincible/llmwire/internal/providers"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testDispatcher wires a dispatcher against a stub upstream serving the
// chat-completions wire format.
func testDispatcher(t *testing.T, upstream http.HandlerFunc) *Dispatcher {
	t.Helper()

	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	host := strings.TrimPrefix(ts.URL, "http://")

	mgr := config.NewManager(t.TempDir())
	err := mgr.Save(&config.Config{
		Providers: []config.Provider{
			{
				Name:     "up",
				Kind:     "openai",
				Scheme:   "http",
				Host:     host,
				BasePath: "/v1",
				Auth:     "none",
			},
		},
		Router: config.RouterConfig{Default: "up,test-model"},
	})
	require.NoError(t, err)

	return NewDispatcher(mgr, providers.NewRegistry(), testLogger())
}

func chatCompletionBody(content string) []byte {
	body := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
	}

	data, _ := json.Marshal(body)

	return data
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	NewHealthHandler(testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatHandler_EndToEnd(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.Write(chatCompletionBody("hello back"))
	})

	handler := NewChatHandler(dispatcher, testLogger())

	body := `{"model": "gpt-4o", "messages": [{"role": "user", "content": "hello"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "chat.completion", resp["object"])

	choices := resp["choices"].([]any)
	msg := choices[0].(map[string]any)["message"].(map[string]any)
	assert.Equal(t, "hello back", msg["content"])
}

func TestChatHandler_DecodeError(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be reached on decode failure")
	})

	handler := NewChatHandler(dispatcher, testLogger())

	body := `{"model": "m", "messages": [{"role": "user", "content": [{"type": "video"}]}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "video")
}

func TestChatHandler_UpstreamFailure(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	handler := NewChatHandler(dispatcher, testLogger())

	body := `{"model": "gpt-4o", "messages": [{"role": "user", "content": "hello"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestResponsesHandler_Sync(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatCompletionBody("the answer"))
	})

	handler := NewResponsesHandler(dispatcher, testLogger())

	body := `{"model": "gpt-4o", "input": "question"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/responses", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "response", resp["object"])
	assert.Equal(t, "completed", resp["status"])

	usage := resp["usage"].(map[string]any)
	assert.Equal(t, float64(5), usage["total_tokens"])
}

func TestResponsesHandler_Stream(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(chatCompletionBody("streamed text"))
	})

	handler := NewResponsesHandler(dispatcher, testLogger())

	body := `{"model": "gpt-4o", "input": "question", "stream": true}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/responses", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	out := rec.Body.String()

	wantOrder := []string{
		"event: response.created",
		"event: response.in_progress",
		"event: response.output_item.added",
		"event: response.content_part.added",
		"event: response.output_text.delta",
		"event: response.output_text.done",
		"event: response.output_item.done",
		"event: response.completed",
	}

	pos := -1
	for _, marker := range wantOrder {
		idx := strings.Index(out, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %s", marker)
		assert.Greater(t, idx, pos, "%s out of order", marker)
		pos = idx
	}

	assert.Contains(t, out, `"delta":"streamed text"`)
}

func TestResponsesHandler_StreamUpstreamFailure(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	handler := NewResponsesHandler(dispatcher, testLogger())

	body := `{"model": "gpt-4o", "input": "question", "stream": true}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/responses", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	out := rec.Body.String()
	assert.Contains(t, out, "event: response.created")
	assert.Contains(t, out, "event: response.failed")
	assert.Contains(t, out, `"code":"upstream_error"`)
}

func TestDispatcher_GzipUpstream(t *testing.T) {
	dispatcher := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write(chatCompletionBody("compressed"))
		gz.Close()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	})

	handler := NewChatHandler(dispatcher, testLogger())

	body := `{"model": "gpt-4o", "messages": [{"role": "user", "content": "hi"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compressed")
}
