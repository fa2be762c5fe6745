package providers

import (
	"encoding/json"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/connect"
	"github.com/Davincible/llmwire/internal/wire/responses"
)

// ResponsesCodec speaks the item-based Responses wire format.
type ResponsesCodec struct{}

func (ResponsesCodec) Kind() connect.ProviderKind { return connect.KindResponses }

func (ResponsesCodec) EncodeRequest(req *canonical.Request) ([]byte, error) {
	return json.Marshal(responses.EncodeRequest(req))
}

func (ResponsesCodec) DecodeResponse(data []byte) (*canonical.Response, error) {
	return responses.DecodeResponse(data)
}

func (ResponsesCodec) EndpointSuffix(string) string {
	return "/responses"
}
