package openai

import (
	"encoding/json"
	"errors"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/wire"
)

// DecodeRequest normalizes an inbound OpenAI-style request into the
// canonical form. Array-form message content is flattened to plain text.
func DecodeRequest(data []byte) (*canonical.Request, error) {
	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		if decErr, ok := asDecodeError(err); ok {
			return nil, decErr
		}

		return nil, wire.NewDecodeError("request", "invalid JSON: %v", err)
	}

	out := &canonical.Request{
		Model:       req.Model,
		Messages:    make([]canonical.Message, 0, len(req.Messages)),
		Tools:       req.Tools,
		ToolChoice:  req.ToolChoice,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
	}

	for _, m := range req.Messages {
		out.Messages = append(out.Messages, canonical.Message{
			Role:       canonical.Role(m.Role),
			Content:    m.Content.Flatten(),
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}

	if err := out.Validate(); err != nil {
		return nil, wire.NewDecodeError("request", "%v", err)
	}

	return out, nil
}

// EncodeRequest projects a canonical request onto the OpenAI-style wire
// shape. The two forms are structurally equal, so this is a field copy.
func EncodeRequest(req *canonical.Request) *ChatRequest {
	out := &ChatRequest{
		Model:       req.Model,
		Messages:    make([]ChatMessage, 0, len(req.Messages)),
		Tools:       req.Tools,
		ToolChoice:  req.ToolChoice,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
	}

	for _, m := range req.Messages {
		out.Messages = append(out.Messages, ChatMessage{
			Role:       string(m.Role),
			Content:    TextContent(m.Content),
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
		})
	}

	return out
}

// DecodeResponse converts an upstream OpenAI-style response to the
// canonical form. The usage total is recomputed, never trusted.
func DecodeResponse(data []byte) (*canonical.Response, error) {
	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		if decErr, ok := asDecodeError(err); ok {
			return nil, decErr
		}

		return nil, wire.NewDecodeError("response", "invalid JSON: %v", err)
	}

	out := &canonical.Response{
		ID:      resp.ID,
		Model:   resp.Model,
		Created: resp.Created,
		Choices: make([]canonical.Choice, 0, len(resp.Choices)),
	}

	for _, c := range resp.Choices {
		out.Choices = append(out.Choices, canonical.Choice{
			Index: c.Index,
			Message: canonical.Message{
				Role:       canonical.Role(c.Message.Role),
				Content:    c.Message.Content.Flatten(),
				ToolCalls:  c.Message.ToolCalls,
				ToolCallID: c.Message.ToolCallID,
			},
			FinishReason: c.FinishReason,
		})
	}

	if resp.Usage != nil {
		usage := canonical.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}.Normalized()
		out.Usage = &usage
	}

	return out, nil
}

// EncodeResponse projects a canonical response onto the wire shape.
func EncodeResponse(resp *canonical.Response) *ChatResponse {
	out := &ChatResponse{
		ID:      resp.ID,
		Object:  "chat.completion",
		Created: resp.Created,
		Model:   resp.Model,
		Choices: make([]ChatChoice, 0, len(resp.Choices)),
	}

	for _, c := range resp.Choices {
		out.Choices = append(out.Choices, ChatChoice{
			Index: c.Index,
			Message: ChatMessage{
				Role:       string(c.Message.Role),
				Content:    TextContent(c.Message.Content),
				ToolCalls:  c.Message.ToolCalls,
				ToolCallID: c.Message.ToolCallID,
			},
			FinishReason: c.FinishReason,
		})
	}

	if resp.Usage != nil {
		normalized := resp.Usage.Normalized()
		out.Usage = &Usage{
			PromptTokens:     normalized.InputTokens,
			CompletionTokens: normalized.OutputTokens,
			TotalTokens:      normalized.TotalTokens,
		}
	}

	return out
}

// asDecodeError surfaces a typed decode error raised inside a custom
// UnmarshalJSON so callers see the original path and tag.
func asDecodeError(err error) (*wire.DecodeError, bool) {
	var decErr *wire.DecodeError
	if errors.As(err, &decErr) {
		return decErr, true
	}

	return nil, false
}
