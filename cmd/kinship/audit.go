// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianKin/services/kinship"
	"github.com/AleutianAI/AleutianKin/services/kinship/config"
)

// errAuditFailed is returned when the audited graph has problems, so the
// exit status reflects the outcome.
var errAuditFailed = errors.New("graph failed audit")

func newAuditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check the graph for ancestry cycles and broken invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			cycles, err := svc.DetectCycles(cmd.Context(), account)
			if err != nil {
				return err
			}
			problems, err := svc.Audit(cmd.Context(), account)
			if err != nil {
				return err
			}
			for _, c := range cycles {
				a.printer.Warning("ancestry cycle: " + strings.Join(c, " -> "))
			}
			for _, p := range problems {
				a.printer.Warning(p)
			}
			if len(cycles) > 0 || len(problems) > 0 {
				return errAuditFailed
			}
			a.printer.Success("graph is consistent")
			return nil
		},
	}
}

func newAccountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with stored graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			accounts, err := svc.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(accounts))
			for _, acct := range accounts {
				rows = append(rows, []string{acct})
			}
			return a.printer.Table([]string{"Account"}, rows)
		},
	}

	var yes bool
	rmCmd := &cobra.Command{
		Use:   "rm ACCOUNT",
		Short: "Delete an account's stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("%w: refusing to delete %s without --yes", kinship.ErrInvalidRequest, args[0])
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := svc.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printer.Success("deleted " + args[0])
			return nil
		},
	}
	rmCmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")

	cmd.AddCommand(rmCmd)
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for --account signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.account == "" {
				return fmt.Errorf("%w: pass --account", kinship.ErrAccountRequired)
			}
			if a.cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("%w: auth.jwt_secret is not configured", config.ErrInvalidConfig)
			}
			token, err := kinship.IssueToken([]byte(a.cfg.Auth.JWTSecret), a.account, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime (0 never expires)")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the kin configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			a.printer.Success("wrote " + path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			secret := "(not set)"
			if c.Auth.JWTSecret != "" {
				secret = "(configured)"
			}
			return a.printer.Table([]string{"Setting", "Value"}, [][]string{
				{"server.addr", c.Server.Addr()},
				{"storage.path", c.Storage.Path},
				{"storage.in_memory", fmt.Sprint(c.Storage.InMemory)},
				{"cache.max_accounts", fmt.Sprint(c.Cache.MaxAccounts)},
				{"cache.ttl", c.Cache.TTL.String()},
				{"auth.account_header", c.Auth.AccountHeader},
				{"auth.jwt_secret", secret},
				{"auth.required", fmt.Sprint(c.Auth.Required)},
				{"rate_limit.requests_per_minute", fmt.Sprint(c.RateLimit.RequestsPerMinute)},
				{"log.level", c.Log.Level.String()},
				{"telemetry.trace_exporter", c.Telemetry.TraceExporter},
				{"telemetry.metric_exporter", c.Telemetry.MetricExporter},
			})
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
