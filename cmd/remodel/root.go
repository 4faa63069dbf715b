package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/remodel/internal/config"
	"github.com/aretw0/remodel/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "remodel",
	Short: "remodel orchestrates scan-to-paint AR sessions",
	Long: `remodel drives the scan, measure and paint workflows of an AR wall painting
engine. It serves sessions over HTTP and MCP, replays scripted scenarios against
a simulated engine and renders the workflow of each family as a diagram.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json); overrides the config file")
}

// loadConfig reads the configuration named by --config and builds the logger.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		if _, err := logging.ParseFormat(format); err != nil {
			return config.Config{}, nil, err
		}
		cfg.LogFormat = format
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(level, logging.WithFormat(cfg.LogFormat)), nil
}
