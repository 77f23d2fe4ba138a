// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/Aytsuu/Skwela/internal/config"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"http-addr":    "http.addr",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"auto-migrate": "database.auto_migrate",
}

// NewRootCmd creates the root command for the Skwela CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skwela",
		Short: "Skwela - authentication service for the Skwela learning platform",
		Long: `Skwela authenticates students and teachers with email and password,
emailed one-time verification codes, JWT access tokens with rotating
refresh tokens, and Google sign-in.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/skwela/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd prints build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("skwela %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads configuration for cmd. check may be nil for full validation.
func loadConfig(cmd *cobra.Command, check func(*config.Config) error) (*config.Config, error) {
	var envFiles []string
	if envFile != "" {
		envFiles = []string{envFile}
	}
	return config.Load(config.Options{
		ConfigFile: configFile,
		EnvFiles:   envFiles,
		Flags:      cmd.Flags(),
		FlagKeys:   flagKeys,
		Check:      check,
	})
}
