package config

import "github.com/Davincible/llmwire/internal/connect"

// SecretSource resolves secrets from the config first, falling back to
// the environment. The inline api_key of a provider answers the
// default "api_key" lookup; everything else goes to the fallback.
type SecretSource struct {
	cfg      *Config
	fallback connect.SecretSource
}

func NewSecretSource(cfg *Config) *SecretSource {
	return &SecretSource{cfg: cfg, fallback: connect.EnvSecretSource{}}
}

func (s *SecretSource) Secret(providerID, name string) (string, bool) {
	if name == "api_key" {
		if p, ok := s.cfg.Provider(providerID); ok && p.APIKey != "" {
			return p.APIKey, true
		}
	}

	return s.fallback.Secret(providerID, name)
}
