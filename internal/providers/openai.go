package providers

import (
	"encoding/json"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/connect"
	"github.com/Davincible/llmwire/internal/wire/openai"
)

// OpenAICodec speaks the chat-completions wire format. It also serves
// as the fallback for kinds without a dedicated codec.
type OpenAICodec struct{}

func (OpenAICodec) Kind() connect.ProviderKind { return connect.KindOpenAI }

func (OpenAICodec) EncodeRequest(req *canonical.Request) ([]byte, error) {
	return json.Marshal(openai.EncodeRequest(req))
}

func (OpenAICodec) DecodeResponse(data []byte) (*canonical.Response, error) {
	return openai.DecodeResponse(data)
}

func (OpenAICodec) EndpointSuffix(string) string {
	return "/chat/completions"
}
