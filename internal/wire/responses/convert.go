package responses

import (
	"encoding/json"
	"errors"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/wire"
)

// DecodeRequest normalizes an inbound Responses-style request into the
// canonical form. The top-level instructions field becomes a synthetic
// leading system message; function_call_output items become role=tool
// messages carrying the call linkage.
func DecodeRequest(data []byte) (*canonical.Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		if decErr, ok := asDecodeError(err); ok {
			return nil, decErr
		}

		return nil, wire.NewDecodeError("request", "invalid JSON: %v", err)
	}

	out := &canonical.Request{
		Model:       req.Model,
		Tools:       make([]canonical.ToolDefinition, 0, len(req.Tools)),
		ToolChoice:  req.ToolChoice.ToCanonical(),
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
	}

	if req.Instructions != "" {
		out.Messages = append(out.Messages, canonical.Message{
			Role:    canonical.RoleSystem,
			Content: req.Instructions,
		})
	}

	if !req.Input.IsItems() {
		out.Messages = append(out.Messages, canonical.Message{
			Role:    canonical.RoleUser,
			Content: req.Input.Text(),
		})
	} else {
		for _, item := range req.Input.Items() {
			msg, err := messageFromItem(item)
			if err != nil {
				return nil, err
			}

			out.Messages = append(out.Messages, msg)
		}
	}

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, canonical.ToolDefinition{
			Type: "function",
			Function: canonical.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	if err := out.Validate(); err != nil {
		return nil, wire.NewDecodeError("request", "%v", err)
	}

	return out, nil
}

func messageFromItem(item InputItem) (canonical.Message, error) {
	switch item.Type {
	case ItemTypeMessage:
		role := canonical.Role(item.Role)
		if role == "" {
			role = canonical.RoleUser
		}

		return canonical.Message{Role: role, Content: item.Content.Flatten()}, nil

	case ItemTypeFunctionCall:
		// An assistant turn echoed back as part of the conversation.
		return canonical.Message{
			Role: canonical.RoleAssistant,
			ToolCalls: []canonical.ToolCall{{
				ID:   item.CallID,
				Type: "function",
				Function: canonical.FunctionCall{
					Name:      item.Name,
					Arguments: item.Arguments,
				},
			}},
		}, nil

	case ItemTypeFunctionCallOutput:
		return canonical.Message{
			Role:       canonical.RoleTool,
			Content:    item.Output,
			ToolCallID: item.CallID,
		}, nil

	default:
		return canonical.Message{}, wire.NewTagError("input[].type", item.Type)
	}
}

// EncodeRequest projects a canonical request onto the Responses-style
// item shape. A leading system message becomes the instructions field;
// assistant tool calls and tool results become typed items.
func EncodeRequest(req *canonical.Request) *Request {
	out := &Request{
		Model:           req.Model,
		ToolChoice:      FromCanonical(req.ToolChoice),
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		MaxOutputTokens: req.MaxTokens,
		Stream:          req.Stream,
	}

	items := make([]InputItem, 0, len(req.Messages))

	for i, m := range req.Messages {
		if i == 0 && m.Role == canonical.RoleSystem {
			out.Instructions = m.Content
			continue
		}

		switch {
		case m.Role == canonical.RoleTool:
			items = append(items, InputItem{
				Type:   ItemTypeFunctionCallOutput,
				CallID: m.ToolCallID,
				Output: m.Content,
			})

		case m.Role == canonical.RoleAssistant && len(m.ToolCalls) > 0:
			if m.Content != "" {
				items = append(items, InputItem{
					Type:    ItemTypeMessage,
					Role:    string(m.Role),
					Content: TextItemContent(m.Content),
				})
			}

			for _, tc := range m.ToolCalls {
				items = append(items, InputItem{
					Type:      ItemTypeFunctionCall,
					CallID:    tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}

		default:
			items = append(items, InputItem{
				Type:    ItemTypeMessage,
				Role:    string(m.Role),
				Content: TextItemContent(m.Content),
			})
		}
	}

	out.Input = ItemsInput(items)

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, Tool{
			Type:        "function",
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}

	return out
}

// DecodeResponse converts a Responses-style envelope to the canonical
// form. Message and function-call items of one envelope fold into a
// single choice.
func DecodeResponse(data []byte) (*canonical.Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		if decErr, ok := asDecodeError(err); ok {
			return nil, decErr
		}

		return nil, wire.NewDecodeError("response", "invalid JSON: %v", err)
	}

	msg := canonical.Message{Role: canonical.RoleAssistant}

	for _, item := range resp.Output {
		switch item.Type {
		case ItemTypeMessage:
			for _, p := range item.Content {
				if p.Type == ContentTypeOutputText {
					msg.Content += p.Text
				}
			}

		case ItemTypeFunctionCall:
			msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{
				ID:   item.CallID,
				Type: "function",
				Function: canonical.FunctionCall{
					Name:      item.Name,
					Arguments: item.Arguments,
				},
			})
		}
	}

	finish := "stop"
	if len(msg.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	out := &canonical.Response{
		ID:      resp.ID,
		Model:   resp.Model,
		Created: resp.CreatedAt,
		Choices: []canonical.Choice{{Index: 0, Message: msg, FinishReason: finish}},
	}

	if resp.Usage != nil {
		usage := canonical.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}.Normalized()
		out.Usage = &usage
	}

	return out, nil
}

func asDecodeError(err error) (*wire.DecodeError, bool) {
	var decErr *wire.DecodeError
	if errors.As(err, &decErr) {
		return decErr, true
	}

	return nil, false
}
