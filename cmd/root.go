package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Davincible/llmwire/internal/config"
)

const (
	AppName = "llmwire"
	Version = "0.1.0"
)

var (
	logger  *slog.Logger
	homeDir string
	baseDir string
	cfgMgr  *config.Manager
)

func init() {
	// Initialize logger
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger = slog.New(handler)

	// Local .env files carry provider keys during development.
	_ = godotenv.Load()

	// Setup directories
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		logger.Error("Failed to get home directory", "error", err)
		os.Exit(1)
	}

	baseDir = filepath.Join(homeDir, "."+AppName)
	cfgMgr = config.NewManager(baseDir)
}

var rootCmd = &cobra.Command{
	Use:     AppName,
	Short:   "llmwire - LLM protocol translation gateway",
	Long:    `A gateway that translates chat-completion requests between provider wire protocols and dispatches them to configured upstreams.`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
}

func ensureConfigExists() error {
	if !cfgMgr.Exists() {
		color.Yellow("Configuration not found, starting setup...")
		return promptForConfig()
	}
	return nil
}

func promptForConfig() error {
	fmt.Printf("Please run '%s config init' to set up your configuration\n", AppName)
	return fmt.Errorf("configuration required")
}
