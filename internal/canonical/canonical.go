// Package canonical defines the provider-agnostic chat-completion
// vocabulary. Every supported wire protocol normalizes into these types
// and every outbound payload is projected back out of them. Instances
// are immutable value data created per inbound call.
package canonical

import (
	"encoding/json"
	"fmt"
)

// Role tags a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation turn. A tool-result message
// (Role == RoleTool) always carries a ToolCallID matching an earlier
// assistant ToolCalls[].ID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is an assistant request to invoke a tool.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its raw JSON argument
// string. ThoughtSignature is an opaque continuation token from a
// reasoning-capable provider; it is carried verbatim and echoed back on
// the next request containing this call, never parsed.
type FunctionCall struct {
	Name             string `json:"name"`
	Arguments        string `json:"arguments"`
	ThoughtSignature string `json:"thought_signature,omitempty"`
}

// ToolDefinition declares a tool the model may call. Names are unique
// within one request's tool list.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition holds the tool name and its JSON-Schema parameters.
// The schema is opaque to this layer and passed through unchanged.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Request is the canonical chat-completion request.
type Request struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  *ToolChoice      `json:"tool_choice,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	TopP        *float64         `json:"top_p,omitempty"`
	Stream      bool             `json:"stream,omitempty"`
}

// Validate checks the request invariants: tool names unique, tool-result
// messages linked to a previously emitted tool call.
func (r *Request) Validate() error {
	names := make(map[string]struct{}, len(r.Tools))
	for _, t := range r.Tools {
		if _, dup := names[t.Function.Name]; dup {
			return fmt.Errorf("duplicate tool name %q", t.Function.Name)
		}

		names[t.Function.Name] = struct{}{}
	}

	emitted := make(map[string]struct{})

	for i, m := range r.Messages {
		for _, tc := range m.ToolCalls {
			emitted[tc.ID] = struct{}{}
		}

		if m.Role != RoleTool {
			continue
		}

		if m.ToolCallID == "" {
			return fmt.Errorf("messages[%d]: tool message missing tool_call_id", i)
		}

		if _, ok := emitted[m.ToolCallID]; !ok {
			return fmt.Errorf("messages[%d]: tool_call_id %q does not match any earlier tool call", i, m.ToolCallID)
		}
	}

	return nil
}

// Usage holds token counters for one completed call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Normalized returns the usage with the total recomputed as
// input + output, regardless of what the source reported.
func (u Usage) Normalized() Usage {
	u.TotalTokens = u.InputTokens + u.OutputTokens
	return u
}

// Choice is one generated output alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Response is the canonical chat-completion response.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Created int64    `json:"created"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}
