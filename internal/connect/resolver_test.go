package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSecrets map[string]string

func (m mapSecrets) Secret(providerID, name string) (string, bool) {
	v, ok := m[providerID+"/"+name]
	return v, ok
}

func TestResolve_HostWithEmbeddedPortAndPath(t *testing.T) {
	d := &Descriptor{
		ID:       "local",
		Scheme:   SchemeHTTP,
		Host:     "localhost:8080/api",
		BasePath: "/v1",
		Auth:     AuthNone,
	}

	ep, err := Resolve(d, mapSecrets{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", ep.BaseURL)
}

func TestResolve_PlainHost(t *testing.T) {
	d := &Descriptor{
		ID:       "openai",
		Host:     "api.openai.com",
		BasePath: "/v1",
		Auth:     AuthNone,
	}

	ep, err := Resolve(d, mapSecrets{})
	require.NoError(t, err)

	// https and default port are implied.
	assert.Equal(t, "https://api.openai.com/v1", ep.BaseURL)
}

func TestResolve_ExplicitPortOverride(t *testing.T) {
	d := &Descriptor{
		ID:     "local",
		Scheme: SchemeHTTP,
		Host:   "localhost:8080",
		Port:   9090,
		Auth:   AuthNone,
	}

	ep, err := Resolve(d, mapSecrets{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9090", ep.BaseURL)
}

func TestResolve_SlashNormalization(t *testing.T) {
	d := &Descriptor{
		ID:       "x",
		Scheme:   SchemeHTTP,
		Host:     "localhost/api/",
		BasePath: "//v1/",
		Auth:     AuthNone,
	}

	ep, err := Resolve(d, mapSecrets{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/api/v1", ep.BaseURL)
}

func TestResolve_InvalidPort(t *testing.T) {
	d := &Descriptor{ID: "x", Host: "localhost:notaport"}

	_, err := Resolve(d, mapSecrets{})
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "x", resErr.ProviderID)
}

func TestResolve_EmptyHost(t *testing.T) {
	_, err := Resolve(&Descriptor{ID: "x"}, mapSecrets{})
	require.Error(t, err)
}

func TestResolve_BearerAuth(t *testing.T) {
	d := &Descriptor{
		ID:   "openai",
		Kind: KindOpenAI,
		Host: "api.openai.com",
		Auth: AuthAPIKey,
	}

	ep, err := Resolve(d, mapSecrets{"openai/api_key": "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", ep.Headers["Authorization"])
}

func TestResolve_GoogleAuthHeader(t *testing.T) {
	d := &Descriptor{
		ID:   "gemini",
		Kind: KindGoogle,
		Host: "generativelanguage.googleapis.com",
		Auth: AuthAPIKey,
	}

	ep, err := Resolve(d, mapSecrets{"gemini/api_key": "g-key"})
	require.NoError(t, err)

	assert.Equal(t, "g-key", ep.Headers["x-goog-api-key"])
	assert.Empty(t, ep.Headers["Authorization"])
}

func TestResolve_AnthropicAuthHeaders(t *testing.T) {
	d := &Descriptor{
		ID:   "anthropic",
		Kind: KindAnthropic,
		Host: "api.anthropic.com",
		Auth: AuthAPIKey,
	}

	ep, err := Resolve(d, mapSecrets{"anthropic/api_key": "a-key"})
	require.NoError(t, err)

	assert.Equal(t, "a-key", ep.Headers["x-api-key"])
	assert.Equal(t, defaultAnthropicVersion, ep.Headers["anthropic-version"])
}

func TestResolve_AnthropicVersionNotOverridden(t *testing.T) {
	d := &Descriptor{
		ID:      "anthropic",
		Kind:    KindAnthropic,
		Host:    "api.anthropic.com",
		Auth:    AuthAPIKey,
		Headers: map[string]string{"anthropic-version": "2024-10-22"},
	}

	ep, err := Resolve(d, mapSecrets{"anthropic/api_key": "a-key"})
	require.NoError(t, err)

	assert.Equal(t, "2024-10-22", ep.Headers["anthropic-version"])
}

func TestResolve_MissingKeyMeansNoAuthHeader(t *testing.T) {
	d := &Descriptor{
		ID:   "openai",
		Kind: KindOpenAI,
		Host: "api.openai.com",
		Auth: AuthAPIKey,
	}

	ep, err := Resolve(d, mapSecrets{})
	require.NoError(t, err)

	assert.Empty(t, ep.Headers["Authorization"])
}

func TestResolve_MissingSecretHeaderFails(t *testing.T) {
	d := &Descriptor{
		ID:            "x",
		Host:          "example.com",
		Auth:          AuthNone,
		SecretHeaders: map[string]string{"X-Org-Token": "org_token"},
	}

	_, err := Resolve(d, mapSecrets{})
	require.Error(t, err)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestEndpoint_URLSuffix(t *testing.T) {
	ep := &Endpoint{BaseURL: "http://localhost:8080/api/v1"}
	assert.Equal(t, "http://localhost:8080/api/v1/chat/completions", ep.URL("/chat/completions"))
}

func TestEnvSecretSource(t *testing.T) {
	t.Setenv("MY_PROVIDER_API_KEY", "env-val")

	var src EnvSecretSource

	v, ok := src.Secret("my-provider", "api_key")
	require.True(t, ok)
	assert.Equal(t, "env-val", v)

	_, ok = src.Secret("other", "api_key")
	assert.False(t, ok)
}
