package google

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/wire"
)

// lenientParts counts part objects that matched none of the four known
// variants and were decoded as empty text instead of failing. The
// leniency is preserved behavior from the original protocol handling;
// the counter keeps it visible instead of silently averaged away.
var lenientParts atomic.Int64

// requiredAsAuto counts canonical "required" tool choices that were
// approximated as AUTO on this wire. Whether required truly means auto
// downstream is an open question; counting keeps the ambiguity visible.
var requiredAsAuto atomic.Int64

// LenientPartCount returns the number of unrecognized parts decoded
// leniently since process start.
func LenientPartCount() int64 { return lenientParts.Load() }

// RequiredAsAutoCount returns the number of "required" tool choices
// downgraded to AUTO since process start.
func RequiredAsAutoCount() int64 { return requiredAsAuto.Load() }

// functionResponseBody is the structured wrapper for plain-string tool
// output, required for protobuf compatibility on this wire.
type functionResponseBody struct {
	Content string `json:"content"`
}

// EncodeRequest projects a canonical request onto the Google-style wire
// shape. Leading system messages become the systemInstruction; tool
// result messages become functionResponse parts named by their call id.
func EncodeRequest(req *canonical.Request) (*GenerateContentRequest, error) {
	out := &GenerateContentRequest{}

	for _, m := range req.Messages {
		switch m.Role {
		case canonical.RoleSystem:
			if out.SystemInstruction == nil && len(out.Contents) == 0 {
				out.SystemInstruction = &SystemInstruction{Parts: []Part{TextPart(m.Content)}}
				continue
			}
			// A system message after the first turn has no slot on
			// this wire; carry it as a user turn.
			out.Contents = append(out.Contents, Content{Role: "user", Parts: []Part{TextPart(m.Content)}})

		case canonical.RoleUser:
			out.Contents = append(out.Contents, Content{Role: "user", Parts: []Part{TextPart(m.Content)}})

		case canonical.RoleAssistant:
			var parts []Part
			if m.Content != "" {
				parts = append(parts, TextPart(m.Content))
			}

			for _, tc := range m.ToolCalls {
				parts = append(parts, Part{
					FunctionCall: &FunctionCall{
						Name: tc.Function.Name,
						Args: argsRaw(tc.Function.Arguments),
					},
					ThoughtSignature: tc.Function.ThoughtSignature,
				})
			}

			out.Contents = append(out.Contents, Content{Role: "model", Parts: parts})

		case canonical.RoleTool:
			body, err := json.Marshal(functionResponseBody{Content: m.Content})
			if err != nil {
				return nil, fmt.Errorf("marshal function response: %w", err)
			}

			out.Contents = append(out.Contents, Content{
				Role: "user",
				Parts: []Part{{
					FunctionResponse: &FunctionResponse{
						Name:     m.ToolCallID,
						Response: body,
					},
				}},
			})
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, FunctionDeclaration{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			})
		}

		out.Tools = []Tool{{FunctionDeclarations: decls}}
	}

	if req.ToolChoice != nil {
		cfg, err := encodeToolChoice(req.ToolChoice)
		if err != nil {
			return nil, err
		}

		out.ToolConfig = &ToolConfig{FunctionCallingConfig: cfg}
	}

	if req.MaxTokens > 0 || req.Temperature != nil || req.TopP != nil {
		gc := &GenerationConfig{Temperature: req.Temperature, TopP: req.TopP}
		if req.MaxTokens > 0 {
			max := req.MaxTokens
			gc.MaxOutputTokens = &max
		}

		out.GenerationConfig = gc
	}

	return out, nil
}

func encodeToolChoice(tc *canonical.ToolChoice) (*FunctionCallingConfig, error) {
	switch tc.Kind {
	case canonical.ToolChoiceAuto:
		return &FunctionCallingConfig{Mode: "AUTO"}, nil
	case canonical.ToolChoiceNone:
		return &FunctionCallingConfig{Mode: "NONE"}, nil
	case canonical.ToolChoiceRequired:
		// Approximated as AUTO on this wire. This loses the "must call
		// a tool" constraint; counted and logged until the intended
		// downstream meaning is settled.
		requiredAsAuto.Add(1)
		slog.Warn("tool_choice required approximated as AUTO on google-style wire")

		return &FunctionCallingConfig{Mode: "AUTO"}, nil
	case canonical.ToolChoiceFunction:
		return &FunctionCallingConfig{Mode: "ANY", AllowedFunctionNames: []string{tc.FunctionName}}, nil
	default:
		return nil, &wire.UnsupportedToolChoiceError{Choice: string(tc.Kind), Target: "google-style"}
	}
}

// DecodeRequest normalizes an inbound Google-style request. Function
// calls receive synthetic call ids (this wire does not carry them);
// function responses keep their name field as the tool_call_id, since
// that is where the call id travels on this wire.
func DecodeRequest(data []byte) (*canonical.Request, error) {
	var req GenerateContentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, wire.NewDecodeError("request", "invalid JSON: %v", err)
	}

	out := &canonical.Request{}

	if req.SystemInstruction != nil {
		out.Messages = append(out.Messages, canonical.Message{
			Role:    canonical.RoleSystem,
			Content: flattenParts(req.SystemInstruction.Parts, "systemInstruction"),
		})
	}

	callSeq := 0

	for i, c := range req.Contents {
		path := fmt.Sprintf("contents[%d]", i)

		role := canonical.RoleUser
		if c.Role == "model" {
			role = canonical.RoleAssistant
		}

		msg := canonical.Message{Role: role}

		var toolResults []canonical.Message

		for j, p := range c.Parts {
			switch {
			case p.FunctionCall != nil:
				callSeq++
				msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{
					ID:   fmt.Sprintf("call_%d", callSeq),
					Type: "function",
					Function: canonical.FunctionCall{
						Name:             p.FunctionCall.Name,
						Arguments:        string(p.FunctionCall.Args),
						ThoughtSignature: p.ThoughtSignature,
					},
				})

			case p.FunctionResponse != nil:
				toolResults = append(toolResults, canonical.Message{
					Role:       canonical.RoleTool,
					Content:    functionResponseText(p.FunctionResponse.Response),
					ToolCallID: p.FunctionResponse.Name,
				})

			case p.InlineData != nil:
				// Binary content has no slot in the plain-text
				// projection; dropped, same as image parts elsewhere.

			case p.Text != "":
				if !p.Thought {
					msg.Content += p.Text
				}

			default:
				lenientParts.Add(1)
				slog.Debug("unrecognized content part decoded as empty text",
					"path", fmt.Sprintf("%s.parts[%d]", path, j))
			}
		}

		// Parallel tool calls return as multiple functionResponse parts
		// in one content. Each becomes its own tool message; sibling
		// text and functionCall parts stay on the surrounding turn.
		if msg.Content != "" || len(msg.ToolCalls) > 0 || len(toolResults) == 0 {
			out.Messages = append(out.Messages, msg)
		}

		out.Messages = append(out.Messages, toolResults...)
	}

	for _, t := range req.Tools {
		for _, d := range t.FunctionDeclarations {
			out.Tools = append(out.Tools, canonical.ToolDefinition{
				Type: "function",
				Function: canonical.FunctionDefinition{
					Name:        d.Name,
					Description: d.Description,
					Parameters:  d.Parameters,
				},
			})
		}
	}

	if req.ToolConfig != nil && req.ToolConfig.FunctionCallingConfig != nil {
		tc, err := decodeToolChoice(req.ToolConfig.FunctionCallingConfig)
		if err != nil {
			return nil, err
		}

		out.ToolChoice = tc
	}

	if gc := req.GenerationConfig; gc != nil {
		out.Temperature = gc.Temperature
		out.TopP = gc.TopP

		if gc.MaxOutputTokens != nil {
			out.MaxTokens = *gc.MaxOutputTokens
		}
	}

	return out, nil
}

func decodeToolChoice(cfg *FunctionCallingConfig) (*canonical.ToolChoice, error) {
	switch cfg.Mode {
	case "", "AUTO":
		return &canonical.ToolChoice{Kind: canonical.ToolChoiceAuto}, nil
	case "NONE":
		return &canonical.ToolChoice{Kind: canonical.ToolChoiceNone}, nil
	case "ANY":
		if len(cfg.AllowedFunctionNames) == 1 {
			return canonical.NamedToolChoice(cfg.AllowedFunctionNames[0]), nil
		}

		return &canonical.ToolChoice{Kind: canonical.ToolChoiceRequired}, nil
	default:
		return nil, wire.NewTagError("toolConfig.functionCallingConfig.mode", cfg.Mode)
	}
}

// DecodeResponse converts an upstream Google-style response into the
// canonical form. Thought-flagged text stays out of the user-facing
// content; thought signatures ride along on the converted tool calls.
func DecodeResponse(data []byte) (*canonical.Response, error) {
	var resp GenerateContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, wire.NewDecodeError("response", "invalid JSON: %v", err)
	}

	out := &canonical.Response{
		ID:    resp.ResponseID,
		Model: resp.ModelVersion,
	}

	for i, cand := range resp.Candidates {
		msg := canonical.Message{Role: canonical.RoleAssistant}

		if cand.Content != nil {
			for j, p := range cand.Content.Parts {
				switch {
				case p.FunctionCall != nil:
					msg.ToolCalls = append(msg.ToolCalls, canonical.ToolCall{
						ID:   fmt.Sprintf("call_%d_%d", i, j),
						Type: "function",
						Function: canonical.FunctionCall{
							Name:             p.FunctionCall.Name,
							Arguments:        string(p.FunctionCall.Args),
							ThoughtSignature: p.ThoughtSignature,
						},
					})

				case p.InlineData != nil, p.FunctionResponse != nil:
					// Not expected in model output; dropped.

				case p.Text != "":
					if !p.Thought {
						msg.Content += p.Text
					}

				default:
					lenientParts.Add(1)
					slog.Debug("unrecognized content part decoded as empty text",
						"path", fmt.Sprintf("candidates[%d].content.parts[%d]", i, j))
				}
			}
		}

		out.Choices = append(out.Choices, canonical.Choice{
			Index:        cand.Index,
			Message:      msg,
			FinishReason: finishReasonFromWire(cand.FinishReason),
		})
	}

	if resp.UsageMetadata != nil {
		usage := canonical.Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		}.Normalized()
		out.Usage = &usage
	}

	return out, nil
}

// EncodeResponse projects a canonical response onto the Google-style
// wire shape.
func EncodeResponse(resp *canonical.Response) *GenerateContentResponse {
	out := &GenerateContentResponse{
		ResponseID:   resp.ID,
		ModelVersion: resp.Model,
	}

	for _, c := range resp.Choices {
		var parts []Part
		if c.Message.Content != "" {
			parts = append(parts, TextPart(c.Message.Content))
		}

		for _, tc := range c.Message.ToolCalls {
			parts = append(parts, Part{
				FunctionCall: &FunctionCall{
					Name: tc.Function.Name,
					Args: argsRaw(tc.Function.Arguments),
				},
				ThoughtSignature: tc.Function.ThoughtSignature,
			})
		}

		out.Candidates = append(out.Candidates, Candidate{
			Content:      &Content{Role: "model", Parts: parts},
			FinishReason: finishReasonToWire(c.FinishReason),
			Index:        c.Index,
		})
	}

	if resp.Usage != nil {
		normalized := resp.Usage.Normalized()
		out.UsageMetadata = &UsageMetadata{
			PromptTokenCount:     normalized.InputTokens,
			CandidatesTokenCount: normalized.OutputTokens,
			TotalTokenCount:      normalized.TotalTokens,
		}
	}

	return out
}

// lenient reports whether the part matches none of the four variants
// and carries no text, i.e. an unrecognized shape.
func lenient(p Part) bool {
	return p.Text == "" && p.FunctionCall == nil && p.FunctionResponse == nil && p.InlineData == nil
}

func flattenParts(parts []Part, path string) string {
	var s string

	for i, p := range parts {
		switch {
		case p.Text != "":
			s += p.Text
		case lenient(p):
			lenientParts.Add(1)
			slog.Debug("unrecognized content part decoded as empty text",
				"path", fmt.Sprintf("%s.parts[%d]", path, i))
		}
	}

	return s
}

func functionResponseText(raw json.RawMessage) string {
	var body functionResponseBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Content != "" {
		return body.Content
	}

	return string(raw)
}

func argsRaw(arguments string) json.RawMessage {
	if arguments == "" {
		return nil
	}

	return json.RawMessage(arguments)
}

func finishReasonFromWire(reason string) string {
	switch reason {
	case "STOP", "":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "MALFORMED_FUNCTION_CALL":
		return "tool_calls"
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return "content_filter"
	default:
		return "stop"
	}
}

func finishReasonToWire(reason string) string {
	switch reason {
	case "length":
		return "MAX_TOKENS"
	case "content_filter":
		return "SAFETY"
	default:
		return "STOP"
	}
}
