// Package openai implements the OpenAI-style chat-completions wire
// format. It is structurally equal to the canonical model and serves as
// the default wire format for dispatching upstream.
package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/wire"
)

// ChatRequest mirrors the canonical request on the wire. Message content
// may arrive as a plain string or as an array of typed parts.
type ChatRequest struct {
	Model       string                     `json:"model"`
	Messages    []ChatMessage              `json:"messages"`
	Tools       []canonical.ToolDefinition `json:"tools,omitempty"`
	ToolChoice  *canonical.ToolChoice      `json:"tool_choice,omitempty"`
	MaxTokens   int                        `json:"max_tokens,omitempty"`
	Temperature *float64                   `json:"temperature,omitempty"`
	TopP        *float64                   `json:"top_p,omitempty"`
	Stream      bool                       `json:"stream,omitempty"`
}

// ChatMessage is one wire message. Tool calls and tool-result linkage
// use the canonical shapes directly.
type ChatMessage struct {
	Role       string               `json:"role"`
	Content    MessageContent       `json:"content"`
	ToolCalls  []canonical.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
}

// MessageContent is the string-or-parts polymorphic content field,
// modeled as a two-variant sum so both branches are handled explicitly.
type MessageContent struct {
	text    string
	parts   []ContentPart
	isParts bool
}

// TextContent wraps a plain string content value.
func TextContent(s string) MessageContent {
	return MessageContent{text: s}
}

// PartsContent wraps an array-of-parts content value.
func PartsContent(parts []ContentPart) MessageContent {
	return MessageContent{parts: parts, isParts: true}
}

// IsParts reports whether the array branch is active.
func (c MessageContent) IsParts() bool { return c.isParts }

// Parts returns the typed parts; nil for the text branch.
func (c MessageContent) Parts() []ContentPart { return c.parts }

// Flatten projects the content to plain text. Text parts are joined in
// order; image parts are dropped from this projection (a documented
// lossy conversion) but survive when converting to a part-typed format.
func (c MessageContent) Flatten() string {
	if !c.isParts {
		return c.text
	}

	var b strings.Builder

	for _, p := range c.parts {
		if p.Type == ContentPartText {
			b.WriteString(p.Text)
		}
	}

	return b.String()
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.isParts {
		return json.Marshal(c.parts)
	}

	return json.Marshal(c.text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = MessageContent{}
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}

		*c = MessageContent{parts: parts, isParts: true}

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return wire.NewDecodeError("content", "expected string or part array: %v", err)
	}

	*c = MessageContent{text: s}

	return nil
}

const (
	ContentPartText  = "text"
	ContentPartImage = "image_url"
)

// ContentPart is one typed entry of an array-form content field.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func (p *ContentPart) UnmarshalJSON(data []byte) error {
	type raw ContentPart

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	switch r.Type {
	case ContentPartText, ContentPartImage:
		*p = ContentPart(r)
		return nil
	default:
		return wire.NewTagError("content[].type", r.Type)
	}
}

// ChatResponse mirrors the canonical response on the wire.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// Usage uses the OpenAI-style field names; conversion recomputes the
// canonical total from input + output.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *Usage) String() string {
	return fmt.Sprintf("prompt=%d completion=%d total=%d", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}
