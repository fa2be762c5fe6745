package canonical

import (
	"encoding/json"

	"github.com/Davincible/llmwire/internal/wire"
)

// ToolChoiceKind selects one of the four tool-choice variants.
type ToolChoiceKind string

const (
	ToolChoiceAuto     ToolChoiceKind = "auto"
	ToolChoiceNone     ToolChoiceKind = "none"
	ToolChoiceRequired ToolChoiceKind = "required"
	ToolChoiceFunction ToolChoiceKind = "function"
)

// ToolChoice is the canonical 4-variant tool-choice selector. Individual
// wire protocols expose subsets or string/object encodings of it.
type ToolChoice struct {
	Kind ToolChoiceKind
	// FunctionName is set only when Kind == ToolChoiceFunction.
	FunctionName string
}

// NamedToolChoice returns the named-function variant.
func NamedToolChoice(name string) *ToolChoice {
	return &ToolChoice{Kind: ToolChoiceFunction, FunctionName: name}
}

// MarshalJSON emits the OpenAI-style encoding: the three mode variants
// as bare strings, the named variant as a function object.
func (tc ToolChoice) MarshalJSON() ([]byte, error) {
	switch tc.Kind {
	case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
		return json.Marshal(string(tc.Kind))
	case ToolChoiceFunction:
		return json.Marshal(map[string]any{
			"type": "function",
			"function": map[string]string{
				"name": tc.FunctionName,
			},
		})
	default:
		return nil, &wire.UnsupportedToolChoiceError{Choice: string(tc.Kind), Target: "canonical"}
	}
}

// UnmarshalJSON accepts both the string encoding ("auto", "none",
// "required") and the named-function object form.
func (tc *ToolChoice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch ToolChoiceKind(s) {
		case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
			tc.Kind = ToolChoiceKind(s)
			tc.FunctionName = ""

			return nil
		default:
			return wire.NewTagError("tool_choice", s)
		}
	}

	var obj struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	}

	if err := json.Unmarshal(data, &obj); err != nil {
		return wire.NewDecodeError("tool_choice", "expected string or object: %v", err)
	}

	if obj.Type != "function" {
		return wire.NewTagError("tool_choice.type", obj.Type)
	}

	if obj.Function.Name == "" {
		return wire.NewDecodeError("tool_choice.function.name", "missing function name")
	}

	tc.Kind = ToolChoiceFunction
	tc.FunctionName = obj.Function.Name

	return nil
}
