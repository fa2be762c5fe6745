package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Davincible/llmwire/internal/connect"
)

func TestConfig_LoadAndSave(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(tmpDir)

	cfg := &Config{
		Host:   "127.0.0.1",
		Port:   8080,
		APIKey: "test-key",
		Providers: []Provider{
			{
				Name:     "openai",
				Kind:     "openai",
				Host:     "api.openai.com",
				BasePath: "/v1",
				APIKey:   "test-provider-key",
				Models:   []string{"gpt-4o"},
			},
		},
		Router: RouterConfig{
			Default:     "openai,gpt-4o",
			LongContext: "openai,gpt-4o-long",
		},
	}

	if err := manager.Save(cfg); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if !manager.Exists() {
		t.Errorf("Config file should exist after saving")
	}

	loadedCfg, err := manager.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.Host != cfg.Host {
		t.Errorf("Expected host %s, got %s", cfg.Host, loadedCfg.Host)
	}

	if loadedCfg.Port != cfg.Port {
		t.Errorf("Expected port %d, got %d", cfg.Port, loadedCfg.Port)
	}

	if loadedCfg.APIKey != cfg.APIKey {
		t.Errorf("Expected API key %s, got %s", cfg.APIKey, loadedCfg.APIKey)
	}

	if len(loadedCfg.Providers) != 1 {
		t.Fatalf("Expected 1 provider, got %d", len(loadedCfg.Providers))
	}

	provider := loadedCfg.Providers[0]
	if provider.Name != "openai" {
		t.Errorf("Expected provider name 'openai', got %s", provider.Name)
	}

	if provider.Host != "api.openai.com" {
		t.Errorf("Expected host api.openai.com, got %s", provider.Host)
	}

	if loadedCfg.Router.Default != "openai,gpt-4o" {
		t.Errorf("Expected specific default router, got %s", loadedCfg.Router.Default)
	}
}

func TestConfig_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(tmpDir)

	cfg := &Config{
		Providers: []Provider{
			{
				Name:   "test",
				Host:   "example.com",
				APIKey: "key",
				Models: []string{"model"},
			},
		},
		Router: RouterConfig{
			Default: "test,model",
		},
	}

	manager.Save(cfg)
	loadedCfg, err := manager.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedCfg.Port != DefaultPort {
		t.Errorf("Expected default port %d, got %d", DefaultPort, loadedCfg.Port)
	}

	if loadedCfg.Host != DefaultHost {
		t.Errorf("Expected default host %s, got %s", DefaultHost, loadedCfg.Host)
	}
}

func TestConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(tmpDir)

	configPath := filepath.Join(tmpDir, DefaultConfigFilename)
	os.WriteFile(configPath, []byte("invalid json"), 0644)

	_, err := manager.Load()
	if err == nil {
		t.Errorf("Expected error when loading invalid JSON")
	}
}

func TestConfig_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	manager := NewManager(tmpDir)

	_, err := manager.Load()
	if err == nil {
		t.Errorf("Expected error when loading non-existent file")
	}

	if manager.Exists() {
		t.Errorf("Non-existent config should not exist")
	}
}

func TestProvider_Descriptor(t *testing.T) {
	p := Provider{
		Name:     "gemini",
		Kind:     "google",
		Host:     "generativelanguage.googleapis.com",
		BasePath: "/v1beta",
		APIKey:   "k",
	}

	d := p.Descriptor()

	if d.Kind != connect.KindGoogle {
		t.Errorf("Expected google kind, got %s", d.Kind)
	}

	if d.Scheme != connect.SchemeHTTPS {
		t.Errorf("Expected https default scheme, got %s", d.Scheme)
	}

	if d.Auth != connect.AuthAPIKey {
		t.Errorf("Expected api_key auth, got %s", d.Auth)
	}
}

func TestProvider_DescriptorDefaultsToOpenAI(t *testing.T) {
	p := Provider{Name: "local", Host: "localhost:8080"}

	d := p.Descriptor()

	if d.Kind != connect.KindOpenAI {
		t.Errorf("Expected openai fallback kind, got %s", d.Kind)
	}
}

func TestSecretSource_InlineKeyWins(t *testing.T) {
	cfg := &Config{
		Providers: []Provider{
			{Name: "openai", Host: "api.openai.com", APIKey: "inline-key"},
		},
	}

	src := NewSecretSource(cfg)

	key, ok := src.Secret("openai", "api_key")
	if !ok || key != "inline-key" {
		t.Errorf("Expected inline key, got %q ok=%v", key, ok)
	}
}

func TestSecretSource_EnvFallback(t *testing.T) {
	cfg := &Config{
		Providers: []Provider{
			{Name: "gemini", Host: "generativelanguage.googleapis.com"},
		},
	}

	t.Setenv("GEMINI_API_KEY", "env-key")

	src := NewSecretSource(cfg)

	key, ok := src.Secret("gemini", "api_key")
	if !ok || key != "env-key" {
		t.Errorf("Expected env key, got %q ok=%v", key, ok)
	}
}
