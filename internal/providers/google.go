package providers

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/connect"
	"github.com/Davincible/llmwire/internal/wire/google"
)

// GoogleCodec speaks the generateContent wire format. The model name is
// part of the endpoint path, not the request body.
type GoogleCodec struct{}

func (GoogleCodec) Kind() connect.ProviderKind { return connect.KindGoogle }

func (GoogleCodec) EncodeRequest(req *canonical.Request) ([]byte, error) {
	wireReq, err := google.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireReq)
}

func (GoogleCodec) DecodeResponse(data []byte) (*canonical.Response, error) {
	return google.DecodeResponse(data)
}

func (GoogleCodec) EndpointSuffix(model string) string {
	return fmt.Sprintf("/models/%s:generateContent", model)
}
