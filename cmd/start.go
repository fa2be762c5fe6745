package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Davincible/llmwire/internal/process"
	"github.com/Davincible/llmwire/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway service",
	Long:  `Start the protocol translation gateway in the foreground, or detached with --background.`,
	RunE:  runStart,
}

func init() {
	startCmd.Flags().BoolP("background", "b", false, "start the service in the background")
}

func runStart(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	// Ensure configuration exists
	if err := ensureConfigExists(); err != nil {
		return err
	}

	if background, _ := cmd.Flags().GetBool("background"); background {
		return startBackground()
	}

	cfg, err := cfgMgr.Load()
	if err != nil {
		return err
	}

	color.Green("Starting %s v%s...", AppName, Version)
	logger.Info("Starting server",
		"host", cfg.Host,
		"port", cfg.Port,
		"providers", len(cfg.Providers),
	)

	// Setup process management
	procMgr := process.NewManager(baseDir)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	srv := server.New(cfgMgr, logger)
	return srv.Start()
}

func startBackground() error {
	procMgr := process.NewManager(baseDir)

	started, err := procMgr.StartServiceIfNeeded()
	if err != nil {
		return err
	}

	if !started {
		color.Yellow("%s is already running (PID %d)", AppName, procMgr.ReadPID())
		return nil
	}

	color.Green("%s started in the background (PID %d)", AppName, procMgr.ReadPID())
	return nil
}
