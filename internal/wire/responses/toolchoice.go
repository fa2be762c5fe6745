package responses

import (
	"encoding/json"
	"strings"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/wire"
)

// ToolChoice is the flat Responses-style tool choice: modes encode as
// bare strings, a named choice as {"type":"function","name":...}
// without the nested function object.
type ToolChoice struct {
	Kind canonical.ToolChoiceKind
	Name string
}

// FromCanonical converts the canonical tool choice to the flat shape.
func FromCanonical(tc *canonical.ToolChoice) *ToolChoice {
	if tc == nil {
		return nil
	}

	return &ToolChoice{Kind: tc.Kind, Name: tc.FunctionName}
}

// ToCanonical converts the flat shape back to the canonical union.
func (tc *ToolChoice) ToCanonical() *canonical.ToolChoice {
	if tc == nil {
		return nil
	}

	return &canonical.ToolChoice{Kind: tc.Kind, FunctionName: tc.Name}
}

func (tc ToolChoice) MarshalJSON() ([]byte, error) {
	if tc.Kind == canonical.ToolChoiceFunction {
		return json.Marshal(struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}{Type: "function", Name: tc.Name})
	}

	return json.Marshal(string(tc.Kind))
}

func (tc *ToolChoice) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Type string `json:"type"`
			Name string `json:"name"`
		}

		if err := json.Unmarshal(data, &obj); err != nil {
			return wire.NewDecodeError("tool_choice", "invalid object: %v", err)
		}

		if obj.Type != "function" {
			return wire.NewTagError("tool_choice.type", obj.Type)
		}

		if obj.Name == "" {
			return wire.NewDecodeError("tool_choice", "named choice requires a function name")
		}

		*tc = ToolChoice{Kind: canonical.ToolChoiceFunction, Name: obj.Name}

		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return wire.NewDecodeError("tool_choice", "expected string or object: %v", err)
	}

	switch canonical.ToolChoiceKind(s) {
	case canonical.ToolChoiceAuto, canonical.ToolChoiceNone, canonical.ToolChoiceRequired:
		*tc = ToolChoice{Kind: canonical.ToolChoiceKind(s)}
		return nil
	default:
		return wire.NewTagError("tool_choice", s)
	}
}
