// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/recyclehub/recyclehub/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the RecycleHub CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recyclehub",
		Short: "RecycleHub - account and session service",
		Long: `RecycleHub serves account signup, email verification, login
and password reset for the RecycleHub apps over a JSON HTTP API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/recyclehub/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadOptions builds loader options from the --config flag and the
// command's own flags.
func loadOptions(cmd *cobra.Command) config.Options {
	return config.Options{Path: configFile, Flags: cmd.Flags()}
}
