package google

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/wire"
)

func TestEncodeRequest_SystemInstruction(t *testing.T) {
	req := &canonical.Request{
		Messages: []canonical.Message{
			{Role: canonical.RoleSystem, Content: "be brief"},
			{Role: canonical.RoleUser, Content: "hello"},
		},
	}

	wireReq, err := EncodeRequest(req)
	require.NoError(t, err)

	require.NotNil(t, wireReq.SystemInstruction)
	assert.Equal(t, "be brief", wireReq.SystemInstruction.Parts[0].Text)
	require.Len(t, wireReq.Contents, 1)
	assert.Equal(t, "user", wireReq.Contents[0].Role)
}

func TestEncodeRequest_LateSystemBecomesUserTurn(t *testing.T) {
	req := &canonical.Request{
		Messages: []canonical.Message{
			{Role: canonical.RoleUser, Content: "hello"},
			{Role: canonical.RoleSystem, Content: "change of plan"},
		},
	}

	wireReq, err := EncodeRequest(req)
	require.NoError(t, err)

	assert.Nil(t, wireReq.SystemInstruction)
	require.Len(t, wireReq.Contents, 2)
	assert.Equal(t, "user", wireReq.Contents[1].Role)
	assert.Equal(t, "change of plan", wireReq.Contents[1].Parts[0].Text)
}

func TestThoughtSignature_Echo(t *testing.T) {
	req := &canonical.Request{
		Messages: []canonical.Message{
			{Role: canonical.RoleAssistant, ToolCalls: []canonical.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: canonical.FunctionCall{
					Name:             "get_weather",
					Arguments:        `{"city":"Oslo"}`,
					ThoughtSignature: "sig-123",
				},
			}}},
		},
	}

	wireReq, err := EncodeRequest(req)
	require.NoError(t, err)

	data, err := json.Marshal(wireReq)
	require.NoError(t, err)

	decoded, err := DecodeRequest(data)
	require.NoError(t, err)

	require.Len(t, decoded.Messages, 1)
	require.Len(t, decoded.Messages[0].ToolCalls, 1)
	assert.Equal(t, "sig-123", decoded.Messages[0].ToolCalls[0].Function.ThoughtSignature)
}

func TestDecodeRequest_ToolResultLinkage(t *testing.T) {
	body := `{
		"contents": [
			{"role": "user", "parts": [{
				"functionResponse": {"name": "call_7", "response": {"content": "sunny"}}
			}]}
		]
	}`

	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, canonical.RoleTool, req.Messages[0].Role)
	assert.Equal(t, "call_7", req.Messages[0].ToolCallID)
	assert.Equal(t, "sunny", req.Messages[0].Content)
}

func TestDecodeRequest_ParallelToolResults(t *testing.T) {
	body := `{
		"contents": [
			{"role": "user", "parts": [
				{"functionResponse": {"name": "call_1", "response": {"content": "sunny"}}},
				{"functionResponse": {"name": "call_2", "response": {"content": "rainy"}}}
			]}
		]
	}`

	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, canonical.RoleTool, req.Messages[0].Role)
	assert.Equal(t, "call_1", req.Messages[0].ToolCallID)
	assert.Equal(t, "sunny", req.Messages[0].Content)
	assert.Equal(t, canonical.RoleTool, req.Messages[1].Role)
	assert.Equal(t, "call_2", req.Messages[1].ToolCallID)
	assert.Equal(t, "rainy", req.Messages[1].Content)
}

func TestDecodeRequest_ToolResultKeepsSiblingText(t *testing.T) {
	body := `{
		"contents": [
			{"role": "user", "parts": [
				{"text": "attaching the result"},
				{"functionResponse": {"name": "call_3", "response": {"content": "42"}}}
			]}
		]
	}`

	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, canonical.RoleUser, req.Messages[0].Role)
	assert.Equal(t, "attaching the result", req.Messages[0].Content)
	assert.Equal(t, canonical.RoleTool, req.Messages[1].Role)
	assert.Equal(t, "call_3", req.Messages[1].ToolCallID)
	assert.Equal(t, "42", req.Messages[1].Content)
}

func TestDecodeRequest_LenientUnknownPart(t *testing.T) {
	before := LenientPartCount()

	body := `{
		"contents": [
			{"role": "user", "parts": [{"videoMetadata": {"fps": 30}}]}
		]
	}`

	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, "", req.Messages[0].Content)
	assert.Greater(t, LenientPartCount(), before)
}

func TestDecodeRequest_ThoughtTextExcluded(t *testing.T) {
	body := `{
		"contents": [
			{"role": "model", "parts": [
				{"text": "internal reasoning", "thought": true},
				{"text": "the answer"}
			]}
		]
	}`

	req, err := DecodeRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "the answer", req.Messages[0].Content)
}

func TestEncodeToolChoice_RequiredDowngraded(t *testing.T) {
	before := RequiredAsAutoCount()

	req := &canonical.Request{
		Messages:   []canonical.Message{{Role: canonical.RoleUser, Content: "hi"}},
		ToolChoice: &canonical.ToolChoice{Kind: canonical.ToolChoiceRequired},
	}

	wireReq, err := EncodeRequest(req)
	require.NoError(t, err)

	require.NotNil(t, wireReq.ToolConfig)
	assert.Equal(t, "AUTO", wireReq.ToolConfig.FunctionCallingConfig.Mode)
	assert.Greater(t, RequiredAsAutoCount(), before)
}

func TestDecodeToolChoice(t *testing.T) {
	cases := []struct {
		name string
		cfg  FunctionCallingConfig
		want *canonical.ToolChoice
	}{
		{"auto", FunctionCallingConfig{Mode: "AUTO"}, &canonical.ToolChoice{Kind: canonical.ToolChoiceAuto}},
		{"empty mode", FunctionCallingConfig{}, &canonical.ToolChoice{Kind: canonical.ToolChoiceAuto}},
		{"none", FunctionCallingConfig{Mode: "NONE"}, &canonical.ToolChoice{Kind: canonical.ToolChoiceNone}},
		{"any", FunctionCallingConfig{Mode: "ANY"}, &canonical.ToolChoice{Kind: canonical.ToolChoiceRequired}},
		{
			"any single name",
			FunctionCallingConfig{Mode: "ANY", AllowedFunctionNames: []string{"lookup"}},
			canonical.NamedToolChoice("lookup"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeToolChoice(&tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeToolChoice_UnknownMode(t *testing.T) {
	_, err := decodeToolChoice(&FunctionCallingConfig{Mode: "MAYBE"})
	require.Error(t, err)

	var decErr *wire.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "MAYBE", decErr.Tag)
}

func TestDecodeResponse_FinishReasons(t *testing.T) {
	body := `{
		"responseId": "r1",
		"modelVersion": "gemini-2.0",
		"candidates": [
			{"content": {"role": "model", "parts": [{"text": "hi"}]}, "finishReason": "MAX_TOKENS", "index": 0}
		],
		"usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 2, "totalTokenCount": 100}
	}`

	resp, err := DecodeResponse([]byte(body))
	require.NoError(t, err)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "length", resp.Choices[0].FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestResponse_RoundTripToolCall(t *testing.T) {
	orig := &canonical.Response{
		ID:    "r1",
		Model: "gemini-2.0",
		Choices: []canonical.Choice{{
			Message: canonical.Message{
				Role: canonical.RoleAssistant,
				ToolCalls: []canonical.ToolCall{{
					ID:   "call_0_0",
					Type: "function",
					Function: canonical.FunctionCall{
						Name:             "get_weather",
						Arguments:        `{"city":"Oslo"}`,
						ThoughtSignature: "sig-abc",
					},
				}},
			},
			FinishReason: "stop",
		}},
	}

	data, err := json.Marshal(EncodeResponse(orig))
	require.NoError(t, err)

	decoded, err := DecodeResponse(data)
	require.NoError(t, err)

	require.Len(t, decoded.Choices, 1)
	call := decoded.Choices[0].Message.ToolCalls[0].Function
	assert.Equal(t, "get_weather", call.Name)
	assert.JSONEq(t, `{"city":"Oslo"}`, call.Arguments)
	assert.Equal(t, "sig-abc", call.ThoughtSignature)
}
