// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command tidectl is the operator tool for a Tideline deployment: schema
// migration and account bootstrap against the shared database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/config"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
	"github.com/TidelineMutual/TidelineCore/services/portal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tidectl",
		Short:         "Operator tool for Tideline Mutual services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("TIDELINE_CONFIG"),
		"path to the tideline config file")

	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newUserAddCmd(&configPath))
	return root
}

func openStore(configPath string) (*config.Config, *services.Users, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(store.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate store: %w", err)
	}

	log := logging.New(logging.Config{Service: "tidectl", Quiet: true})
	return &cfg, services.NewUsers(db, log), nil
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := openStore(*configPath)
			if err != nil {
				return err
			}
			cmd.Printf("schema up to date: %s\n", cfg.Database.Path)
			return nil
		},
	}
}

func newUserAddCmd(configPath *string) *cobra.Command {
	var (
		username string
		password string
		email    string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create an account, e.g. the first admin of a fresh deployment",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, users, err := openStore(*configPath)
			if err != nil {
				return err
			}

			user, err := users.Register(services.RegisterInput{
				Username: username,
				Password: password,
				Email:    email,
				Role:     domain.Role(role),
			})
			if err != nil {
				return err
			}
			cmd.Printf("created user %d (%s, %s)\n", user.ID, user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "account role: ADMIN, AGENT or CUSTOMER")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
