// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/recyclehub/recyclehub/internal/config"
	"github.com/recyclehub/recyclehub/internal/xdg"
)

// NewConfigCmd creates the config inspection subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := config.Dump(loadOptions(cmd))
			if err != nil {
				return err
			}
			cmd.Print(string(out))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the merged configuration can start the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(loadOptions(cmd)); err != nil {
				return err
			}
			cmd.Println("Configuration is valid")
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(xdg.ConfigFile())
			return nil
		},
	}
}
