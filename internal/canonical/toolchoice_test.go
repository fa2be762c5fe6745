package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llmwire/internal/wire"
)

func TestToolChoice_RoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		choice ToolChoice
	}{
		{"auto", ToolChoice{Kind: ToolChoiceAuto}},
		{"none", ToolChoice{Kind: ToolChoiceNone}},
		{"required", ToolChoice{Kind: ToolChoiceRequired}},
		{"named", *NamedToolChoice("get_weather")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.choice)
			require.NoError(t, err)

			var decoded ToolChoice
			require.NoError(t, json.Unmarshal(data, &decoded))

			assert.Equal(t, tc.choice, decoded)
		})
	}
}

func TestToolChoice_StringEncoding(t *testing.T) {
	data, err := json.Marshal(ToolChoice{Kind: ToolChoiceAuto})
	require.NoError(t, err)
	assert.Equal(t, `"auto"`, string(data))
}

func TestToolChoice_NamedEncoding(t *testing.T) {
	data, err := json.Marshal(NamedToolChoice("lookup"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"function","function":{"name":"lookup"}}`, string(data))
}

func TestToolChoice_UnknownString(t *testing.T) {
	var tc ToolChoice
	err := json.Unmarshal([]byte(`"sometimes"`), &tc)
	require.Error(t, err)

	var decErr *wire.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "tool_choice", decErr.Path)
	assert.Equal(t, "sometimes", decErr.Tag)
}

func TestToolChoice_ObjectMissingName(t *testing.T) {
	var tc ToolChoice
	err := json.Unmarshal([]byte(`{"type":"function","function":{}}`), &tc)
	require.Error(t, err)
}
