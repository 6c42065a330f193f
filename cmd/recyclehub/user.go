// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/config"
	"github.com/recyclehub/recyclehub/internal/notify"
)

// NewUserCmd creates the user administration subcommand.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
	}
	cmd.PersistentFlags().String("store", "", "storage backend (postgres or memory)")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")
	cmd.AddCommand(newSetRoleCmd(nil))
	return cmd
}

func newSetRoleCmd(deps *ServeDeps) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role of an account",
		Long: `Change the role carried in the account's future session tokens.
Tokens issued before the change keep their old role until they expire.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetRole(cmd, deps, email, role)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&role, "role", "", "new role: user or admin (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func runSetRole(cmd *cobra.Command, deps *ServeDeps, email, roleName string) error {
	role, err := auth.ParseRole(roleName)
	if err != nil {
		return err
	}

	deps = deps.withDefaults()
	cfg, err := config.Load(loadOptions(cmd))
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.StoreDriverMemory {
		return oops.Code("CONFIG_INVALID").
			With("key", "store.driver").
			Errorf("set-role needs a persistent store")
	}

	be, err := openBackend(cmd.Context(), cfg, deps)
	if err != nil {
		return err
	}
	defer be.close()

	logger := slog.Default()
	svc, err := newAuthService(cfg.Auth, be, notify.NewLogNotifier(logger), logger)
	if err != nil {
		return err
	}
	if err := svc.SetRole(cmd.Context(), email, role); err != nil {
		return err
	}
	cmd.Printf("Role of %s set to %s\n", auth.NormalizeEmail(email), role)
	return nil
}
