package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Davincible/llmwire/internal/connect"
)

const (
	DefaultPort           = 6970
	DefaultConfigFilename = "config.json"
	DefaultHost           = "127.0.0.1"
)

// Provider is one configured upstream endpoint. Scheme, host, port and
// base path feed the connection resolver; the API key may be set inline
// or left to the secret source.
type Provider struct {
	Name          string            `json:"name"`
	Kind          string            `json:"kind,omitempty"`
	Scheme        string            `json:"scheme,omitempty"`
	Host          string            `json:"host"`
	Port          int               `json:"port,omitempty"`
	BasePath      string            `json:"base_path,omitempty"`
	Auth          string            `json:"auth,omitempty"`
	APIKey        string            `json:"api_key,omitempty"`
	APIKeyRef     string            `json:"api_key_ref,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	SecretHeaders map[string]string `json:"secret_headers,omitempty"`
	Models        []string          `json:"models,omitempty"`
}

// Descriptor converts the provider entry into a resolver descriptor.
func (p *Provider) Descriptor() *connect.Descriptor {
	kind := connect.ProviderKind(p.Kind)
	if kind == "" {
		kind = connect.KindOpenAI
	}

	scheme := connect.Scheme(p.Scheme)
	if scheme == "" {
		scheme = connect.SchemeHTTPS
	}

	auth := connect.AuthAPIKey
	if p.Auth == string(connect.AuthNone) {
		auth = connect.AuthNone
	}

	return &connect.Descriptor{
		ID:            p.Name,
		Kind:          kind,
		Scheme:        scheme,
		Host:          p.Host,
		Port:          p.Port,
		BasePath:      p.BasePath,
		Headers:       p.Headers,
		SecretHeaders: p.SecretHeaders,
		Auth:          auth,
		APIKeyRef:     p.APIKeyRef,
	}
}

// RouterConfig maps request classes to "provider,model" targets.
type RouterConfig struct {
	Default     string `json:"default"`
	Background  string `json:"background,omitempty"`
	LongContext string `json:"longContext,omitempty"`
}

type Config struct {
	Host      string       `json:"HOST,omitempty"`
	Port      int          `json:"PORT,omitempty"`
	APIKey    string       `json:"APIKEY,omitempty"`
	Providers []Provider   `json:"Providers"`
	Router    RouterConfig `json:"Router"`
}

// Provider looks up a provider entry by name.
func (c *Config) Provider(name string) (*Provider, bool) {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], true
		}
	}

	return nil, false
}

// Manager loads and persists the config file, caching the current
// value behind an atomic so concurrent readers never block writers.
type Manager struct {
	configPath  string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		configPath: filepath.Join(baseDir, DefaultConfigFilename),
	}
}

func (m *Manager) Load() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Set defaults
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}

	m.configValue.Store(&cfg)
	return &cfg, nil
}

func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		// Return a config with defaults if loading fails
		return &Config{
			Host: DefaultHost,
			Port: DefaultPort,
		}
	}
	return cfg
}

func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	m.configValue.Store(cfg)
	return nil
}

func (m *Manager) GetPath() string {
	return m.configPath
}

func (m *Manager) Exists() bool {
	_, err := os.Stat(m.configPath)
	return err == nil
}
