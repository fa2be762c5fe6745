package responses

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Davincible/llmwire/internal/canonical"
)

// newItemID builds a synthetic item id with the given prefix.
func newItemID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// ProjectResponse builds a completed Responses-style envelope from a
// canonical response. Each tool call becomes its own function_call item;
// a choice without tool calls becomes a single message item. The usage
// total is recomputed from input + output, never trusted. Failure and
// cancellation statuses are set only by the streaming path.
func ProjectResponse(resp *canonical.Response) *Response {
	out := &Response{
		ID:        resp.ID,
		Object:    "response",
		CreatedAt: resp.Created,
		Status:    StatusCompleted,
		Model:     resp.Model,
		Output:    make([]OutputItem, 0, len(resp.Choices)),
	}

	if out.ID == "" {
		out.ID = newItemID("resp")
	}

	for _, c := range resp.Choices {
		if len(c.Message.ToolCalls) == 0 {
			out.Output = append(out.Output, OutputItem{
				Type:   ItemTypeMessage,
				ID:     newItemID("msg"),
				Status: StatusCompleted,
				Role:   string(canonical.RoleAssistant),
				Content: []ContentPart{{
					Type: ContentTypeOutputText,
					Text: c.Message.Content,
				}},
			})

			continue
		}

		if c.Message.Content != "" {
			out.Output = append(out.Output, OutputItem{
				Type:   ItemTypeMessage,
				ID:     newItemID("msg"),
				Status: StatusCompleted,
				Role:   string(canonical.RoleAssistant),
				Content: []ContentPart{{
					Type: ContentTypeOutputText,
					Text: c.Message.Content,
				}},
			})
		}

		for _, tc := range c.Message.ToolCalls {
			callID := tc.ID
			if callID == "" {
				callID = newItemID("call")
			}

			out.Output = append(out.Output, OutputItem{
				Type:      ItemTypeFunctionCall,
				ID:        newItemID("fc"),
				Status:    StatusCompleted,
				CallID:    callID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}

	if resp.Usage != nil {
		normalized := resp.Usage.Normalized()
		out.Usage = &Usage{
			InputTokens:  normalized.InputTokens,
			OutputTokens: normalized.OutputTokens,
			TotalTokens:  normalized.TotalTokens,
		}
	}

	return out
}
