// Package providers maps provider kinds to wire codecs. A codec turns
// canonical requests into provider wire bytes and provider responses
// back into canonical form; endpoint paths are codec-specific.
package providers

import (
	"github.com/Davincible/llmwire/internal/canonical"
	"github.com/Davincible/llmwire/internal/connect"
)

// Codec is the wire protocol of one provider family.
type Codec interface {
	Kind() connect.ProviderKind

	// EncodeRequest serializes a canonical request for dispatch.
	EncodeRequest(req *canonical.Request) ([]byte, error)

	// DecodeResponse parses an upstream response body.
	DecodeResponse(data []byte) (*canonical.Response, error)

	// EndpointSuffix returns the path appended to the resolved base
	// URL, with its leading slash.
	EndpointSuffix(model string) string
}

// Registry holds the codec per provider kind. Unknown kinds fall back
// to the OpenAI-style codec, the de facto compatibility format.
type Registry struct {
	codecs   map[connect.ProviderKind]Codec
	fallback Codec
}

func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[connect.ProviderKind]Codec)}

	openai := &OpenAICodec{}
	r.Register(openai)
	r.Register(&GoogleCodec{})
	r.Register(&ResponsesCodec{})
	r.fallback = openai

	return r
}

func (r *Registry) Register(c Codec) {
	r.codecs[c.Kind()] = c
}

// Get returns the codec for a kind, falling back to OpenAI-style.
func (r *Registry) Get(kind connect.ProviderKind) Codec {
	if c, ok := r.codecs[kind]; ok {
		return c
	}

	return r.fallback
}

// List returns the registered kinds.
func (r *Registry) List() []connect.ProviderKind {
	kinds := make([]connect.ProviderKind, 0, len(r.codecs))
	for k := range r.codecs {
		kinds = append(kinds, k)
	}

	return kinds
}
