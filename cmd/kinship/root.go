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
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianKin/pkg/logging"
	"github.com/AleutianAI/AleutianKin/pkg/ux"
	"github.com/AleutianAI/AleutianKin/services/kinship"
	"github.com/AleutianAI/AleutianKin/services/kinship/cache"
	"github.com/AleutianAI/AleutianKin/services/kinship/config"
	kinbadger "github.com/AleutianAI/AleutianKin/services/kinship/storage/badger"
)

// accountEnv supplies --account when the flag is not given.
const accountEnv = "KIN_ACCOUNT"

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath  string
	account     string
	dataDir     string
	personality string
	verbose     bool

	cfg     config.Config
	logger  *logging.Logger
	printer *ux.Printer

	db      *kinbadger.DB
	svc     *kinship.Service
	metrics *kinship.Metrics
}

func newRootCmd(out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "kin",
		Short: "Build and query household kinship graphs",
		Long: `kin stores people and their relationships per account and answers
kinship questions: how two people are related, their shortest path,
shared ancestors, generation gaps and cousin checks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, out, errOut)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.aleutian/kin/kin.yaml)")
	flags.StringVarP(&a.account, "account", "a", os.Getenv(accountEnv), "account to operate on (env "+accountEnv+")")
	flags.StringVar(&a.dataDir, "data-dir", "", "override storage.path")
	flags.StringVar(&a.personality, "personality", "", "output style: full, minimal or machine")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newServeCmd(a),
		newPersonCmd(a),
		newRelCmd(a),
		newQueryCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newMergeCmd(a),
		newAuditCmd(a),
		newAccountsCmd(a),
		newTokenCmd(a),
		newConfigCmd(a),
	)

	return root, a
}

// run executes one kin invocation and reports any error through the
// printer, so errors honour the personality level.
func run(args []string, out, errOut io.Writer) error {
	root, a := newRootCmd(out, errOut)
	root.SetArgs(args)

	err := root.Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if a.printer == nil {
			a.printer = ux.NewPrinter(out, errOut)
		}
		a.printer.Error(describeError(err))
	}
	return err
}

// describeError prefixes err with its stable code.
func describeError(err error) string {
	_, code := kinship.StatusFor(err)
	if code == "INTERNAL" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %v", code, err)
}

func (a *app) setup(cmd *cobra.Command, out, errOut io.Writer) error {
	if a.personality != "" {
		ux.SetPersonalityLevel(ux.ParsePersonalityLevel(a.personality))
	} else {
		ux.InitPersonality()
	}
	a.printer = ux.NewPrinter(out, errOut)

	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.LoadOptional(config.DefaultPath())
	}
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		a.cfg.Storage.Path = a.dataDir
		a.cfg.Storage.InMemory = false
	}

	logCfg := logging.Config{
		Level:   logging.LevelWarn,
		JSON:    a.cfg.Log.JSON,
		Service: "kin",
		LogDir:  a.cfg.Log.Dir,
		Output:  errOut,
	}
	if a.verbose {
		logCfg.Level = logging.LevelDebug
	}
	if cmd.Name() == "serve" {
		logCfg.Level = a.cfg.Log.Level
	}
	a.logger, err = logging.New(logCfg)
	if err != nil {
		return err
	}
	slog.SetDefault(a.logger.Logger)
	return nil
}

// service opens the store and builds the service on first use.
func (a *app) service() (*kinship.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	db, err := kinbadger.Open(kinbadger.Config{
		Path:           a.cfg.Storage.Path,
		InMemory:       a.cfg.Storage.InMemory,
		SyncWrites:     a.cfg.Storage.SyncWrites,
		Logger:         a.logger.Logger,
		GCInterval:     a.cfg.Storage.GCInterval,
		GCDiscardRatio: a.cfg.Storage.GCDiscardRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.db = db
	a.svc = kinship.NewService(kinbadger.NewSnapshotStore(db),
		kinship.WithLogger(a.logger.Logger),
		kinship.WithMetrics(a.metrics),
		kinship.WithCacheOptions(
			cache.WithMaxAccounts(a.cfg.Cache.MaxAccounts),
			cache.WithTTL(a.cfg.Cache.TTL),
		),
	)
	return a.svc, nil
}

// scoped returns the service and the --account value, which must be set.
func (a *app) scoped() (*kinship.Service, string, error) {
	if a.account == "" {
		return nil, "", fmt.Errorf("%w: pass --account or set %s", kinship.ErrAccountRequired, accountEnv)
	}
	if err := kinbadger.ValidateAccount(a.account); err != nil {
		return nil, "", err
	}
	svc, err := a.service()
	if err != nil {
		return nil, "", err
	}
	return svc, a.account, nil
}

func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db, a.svc = nil, nil
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
		a.logger = nil
	}
	return errors.Join(errs...)
}
