package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/llmwire/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the gateway configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long:  `Initialize configuration by prompting for provider details.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the current configuration for errors.`,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	color.Blue("%s Configuration Setup", AppName)
	color.Yellow("Follow the prompts to configure your LLM providers.")

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("\nProvider Name (e.g., openai, gemini): ")
	providerName, _ := reader.ReadString('\n')
	providerName = strings.TrimSpace(providerName)

	fmt.Print("Provider Kind (openai, google, anthropic, responses) [openai]: ")
	kind, _ := reader.ReadString('\n')
	kind = strings.TrimSpace(kind)

	fmt.Print("Host (e.g., api.openai.com): ")
	host, _ := reader.ReadString('\n')
	host = strings.TrimSpace(host)

	fmt.Print("Base Path (e.g., /v1): ")
	basePath, _ := reader.ReadString('\n')
	basePath = strings.TrimSpace(basePath)

	fmt.Print("API Key: ")
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)

	fmt.Print("Default Model: ")
	model, _ := reader.ReadString('\n')
	model = strings.TrimSpace(model)

	// Optional gateway API key
	fmt.Print("Gateway API Key (optional, for authentication): ")
	gatewayAPIKey, _ := reader.ReadString('\n')
	gatewayAPIKey = strings.TrimSpace(gatewayAPIKey)

	cfg := &config.Config{
		Host:   config.DefaultHost,
		Port:   config.DefaultPort,
		APIKey: gatewayAPIKey,
		Providers: []config.Provider{
			{
				Name:     providerName,
				Kind:     kind,
				Host:     host,
				BasePath: basePath,
				APIKey:   apiKey,
				Models:   []string{model},
			},
		},
		Router: config.RouterConfig{
			Default: fmt.Sprintf("%s,%s", providerName, model),
		},
	}

	if err := cfgMgr.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	color.Green("Configuration saved successfully to: %s", cfgMgr.GetPath())
	color.Cyan("You can now start the gateway with: %s start", AppName)

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if !cfgMgr.Exists() {
		color.Yellow("No configuration found. Run '%s config init' to create one.", AppName)
		return nil
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	color.Blue("Current Configuration:")
	fmt.Printf("  %-15s: %s\n", "Host", cfg.Host)
	fmt.Printf("  %-15s: %d\n", "Port", cfg.Port)
	fmt.Printf("  %-15s: %s\n", "API Key", maskString(cfg.APIKey))
	fmt.Printf("  %-15s: %s\n", "Config Path", cfgMgr.GetPath())

	fmt.Println("\nProviders:")
	for _, provider := range cfg.Providers {
		fmt.Printf("  - Name: %s\n", provider.Name)
		fmt.Printf("    Kind: %s\n", provider.Kind)
		fmt.Printf("    Host: %s\n", provider.Host)
		fmt.Printf("    Base Path: %s\n", provider.BasePath)
		fmt.Printf("    API Key: %s\n", maskString(provider.APIKey))
		fmt.Printf("    Models: %v\n", provider.Models)
		fmt.Println()
	}

	fmt.Println("Router Configuration:")
	fmt.Printf("  %-15s: %s\n", "Default", cfg.Router.Default)
	if cfg.Router.Background != "" {
		fmt.Printf("  %-15s: %s\n", "Background", cfg.Router.Background)
	}
	if cfg.Router.LongContext != "" {
		fmt.Printf("  %-15s: %s\n", "Long Context", cfg.Router.LongContext)
	}

	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	if !cfgMgr.Exists() {
		return fmt.Errorf("no configuration found")
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validation logic
	var problems []string

	if len(cfg.Providers) == 0 {
		problems = append(problems, "no providers configured")
	}

	for i, provider := range cfg.Providers {
		if provider.Name == "" {
			problems = append(problems, fmt.Sprintf("provider %d: name is required", i))
		}
		if provider.Host == "" {
			problems = append(problems, fmt.Sprintf("provider %d: host is required", i))
		}
	}

	if cfg.Router.Default == "" {
		problems = append(problems, "default router model is required")
	}

	if len(problems) > 0 {
		color.Red("Configuration validation failed:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration validation failed")
	}

	color.Green("Configuration is valid!")
	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
