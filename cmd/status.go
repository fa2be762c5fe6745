package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/llmwire/internal/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway service status",
	Long:  `Display the current status of the protocol translation gateway.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) {
	procMgr := process.NewManager(baseDir)
	cfg := cfgMgr.Get()

	running := procMgr.IsRunning()
	pid := procMgr.ReadPID()

	color.Blue("Status for %s:", AppName)
	fmt.Printf("  %-15s: %v\n", "Running", running)
	fmt.Printf("  %-15s: %d\n", "PID", pid)

	if cfg != nil {
		fmt.Printf("  %-15s: %s\n", "Host", cfg.Host)
		fmt.Printf("  %-15s: %d\n", "Port", cfg.Port)
		fmt.Printf("  %-15s: %s\n", "Endpoint", fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port))
		fmt.Printf("  %-15s: %d\n", "Providers", len(cfg.Providers))
	}

	fmt.Printf("  %-15s: %s\n", "Config Path", cfgMgr.GetPath())
	fmt.Printf("  %-15s: v%s\n", "Version", Version)
}
