// Package responses implements the Responses-style wire protocol:
// item-based requests, a status-carrying response envelope and the
// multi-event streaming catalogue.
package responses

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Davincible/llmwire/internal/wire"
)

// Request is the inbound Responses-style request. Input is either a
// plain string or an array of typed items.
type Request struct {
	Model           string      `json:"model"`
	Instructions    string      `json:"instructions,omitempty"`
	Input           Input       `json:"input"`
	Tools           []Tool      `json:"tools,omitempty"`
	ToolChoice      *ToolChoice `json:"tool_choice,omitempty"`
	Temperature     *float64    `json:"temperature,omitempty"`
	TopP            *float64    `json:"top_p,omitempty"`
	MaxOutputTokens int         `json:"max_output_tokens,omitempty"`
	Stream          bool        `json:"stream,omitempty"`
}

// Input is the string-or-items polymorphic request input, modeled as a
// two-variant sum.
type Input struct {
	text    string
	items   []InputItem
	isItems bool
}

// TextInput wraps a plain string input.
func TextInput(s string) Input { return Input{text: s} }

// ItemsInput wraps an item-array input.
func ItemsInput(items []InputItem) Input { return Input{items: items, isItems: true} }

// IsItems reports whether the item-array branch is active.
func (in Input) IsItems() bool { return in.isItems }

// Text returns the plain-string input; empty for the items branch.
func (in Input) Text() string { return in.text }

// Items returns the typed items; nil for the text branch.
func (in Input) Items() []InputItem { return in.items }

func (in Input) MarshalJSON() ([]byte, error) {
	if in.isItems {
		return json.Marshal(in.items)
	}

	return json.Marshal(in.text)
}

func (in *Input) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "[") {
		var items []InputItem
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}

		*in = Input{items: items, isItems: true}

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return wire.NewDecodeError("input", "expected string or item array: %v", err)
	}

	*in = Input{text: s}

	return nil
}

// Input item discriminators. The type tags are literal wire strings and
// must be preserved exactly.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"
)

// InputItem is the discriminated union of request items, keyed by the
// "type" field.
type InputItem struct {
	Type string `json:"type"`

	// message
	Role    string       `json:"role,omitempty"`
	Content *ItemContent `json:"content,omitempty"`

	// function_call (assistant echo) and function_call_output
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

func (it *InputItem) UnmarshalJSON(data []byte) error {
	type raw InputItem

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	// A bare role+content object counts as a message item.
	if r.Type == "" && r.Role != "" {
		r.Type = ItemTypeMessage
	}

	switch r.Type {
	case ItemTypeMessage, ItemTypeFunctionCall, ItemTypeFunctionCallOutput:
		*it = InputItem(r)
		return nil
	default:
		return wire.NewTagError("input[].type", r.Type)
	}
}

// ItemContent is the string-or-parts content of a message item.
type ItemContent struct {
	text    string
	parts   []ContentPart
	isParts bool
}

func TextItemContent(s string) *ItemContent { return &ItemContent{text: s} }

func PartsItemContent(parts []ContentPart) *ItemContent {
	return &ItemContent{parts: parts, isParts: true}
}

func (c *ItemContent) IsParts() bool { return c != nil && c.isParts }

func (c *ItemContent) Parts() []ContentPart {
	if c == nil {
		return nil
	}

	return c.parts
}

// Flatten projects the content to plain text; input_image parts are
// dropped from this projection.
func (c *ItemContent) Flatten() string {
	if c == nil {
		return ""
	}

	if !c.isParts {
		return c.text
	}

	var b strings.Builder

	for _, p := range c.parts {
		if p.Type == ContentTypeInputText {
			b.WriteString(p.Text)
		}
	}

	return b.String()
}

func (c ItemContent) MarshalJSON() ([]byte, error) {
	if c.isParts {
		return json.Marshal(c.parts)
	}

	return json.Marshal(c.text)
}

func (c *ItemContent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*c = ItemContent{}
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}

		*c = ItemContent{parts: parts, isParts: true}

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return wire.NewDecodeError("input[].content", "expected string or part array: %v", err)
	}

	*c = ItemContent{text: s}

	return nil
}

const (
	ContentTypeInputText  = "input_text"
	ContentTypeInputImage = "input_image"
	ContentTypeOutputText = "output_text"
)

// ContentPart is one typed entry of a message item's content array.
type ContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (p *ContentPart) UnmarshalJSON(data []byte) error {
	type raw ContentPart

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	switch r.Type {
	case ContentTypeInputText, ContentTypeInputImage, ContentTypeOutputText:
		*p = ContentPart(r)
		return nil
	default:
		return wire.NewTagError("content[].type", r.Type)
	}
}

// Tool is a flat function declaration; the parameter schema passes
// through opaque.
type Tool struct {
	Type        string          `json:"type"` // "function"
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Item lifecycle and envelope statuses. Terminal envelope states are
// completed, failed and cancelled.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
	StatusIncomplete = "incomplete"
)

// TerminalStatus reports whether an envelope status is terminal.
func TerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// OutputItem is the discriminated union of response items: a message
// with output_text content or a function call.
type OutputItem struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`

	// message
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

func (it *OutputItem) UnmarshalJSON(data []byte) error {
	type raw OutputItem

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	switch r.Type {
	case ItemTypeMessage, ItemTypeFunctionCall:
		*it = OutputItem(r)
		return nil
	default:
		return wire.NewTagError("output[].type", r.Type)
	}
}

// Usage carries the envelope token counters; total is always
// input + output.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ErrorDetail is the error payload of a failed envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the Responses-style envelope.
type Response struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"` // "response"
	CreatedAt int64        `json:"created_at"`
	Status    string       `json:"status"`
	Model     string       `json:"model"`
	Output    []OutputItem `json:"output"`
	Usage     *Usage       `json:"usage,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

func (r *Response) String() string {
	return fmt.Sprintf("response %s status=%s items=%d", r.ID, r.Status, len(r.Output))
}
