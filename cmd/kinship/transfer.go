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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianKin/services/kinship"
	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
	"github.com/AleutianAI/AleutianKin/services/kinship/render"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the graph as JSON, CSV or Graphviz DOT",
	}
	cmd.AddCommand(newExportJSONCmd(a), newExportCSVCmd(a), newExportDOTCmd(a))
	return cmd
}

// openOutput returns the file at path, or the command output for "" and "-".
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func newExportJSONCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Write the graph snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			snap, err := svc.Export(cmd.Context(), account)
			if err != nil {
				return err
			}
			w, closeFn, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(snap); err != nil {
				_ = closeFn()
				return fmt.Errorf("encode snapshot: %w", err)
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newExportCSVCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write members.csv and edges.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			snap, err := svc.Export(cmd.Context(), account)
			if err != nil {
				return err
			}
			tables, err := render.CSV(snap)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			members := filepath.Join(dir, "members.csv")
			edges := filepath.Join(dir, "edges.csv")
			if err := os.WriteFile(members, tables.Members, 0600); err != nil {
				return fmt.Errorf("write %s: %w", members, err)
			}
			if err := os.WriteFile(edges, tables.Edges, 0600); err != nil {
				return fmt.Errorf("write %s: %w", edges, err)
			}
			a.printer.Success(fmt.Sprintf("wrote %s and %s", members, edges))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory for the two CSV files")
	return cmd
}

func newExportDOTCmd(a *app) *cobra.Command {
	var (
		out   string
		start string
		depth int
	)
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Render the graph for Graphviz",
		Long: `Render the graph in DOT. Pipe into Graphviz to draw it:

  kin export dot | dot -Tpng > family.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			snap, err := svc.Export(cmd.Context(), account)
			if err != nil {
				return err
			}
			opts := render.DefaultDOTOptions()
			opts.Start = start
			if depth >= 0 {
				opts.MaxDepth = depth
			}
			dot, err := render.DOT(snap, opts)
			if err != nil {
				return err
			}
			w, closeFn, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, dot); err != nil {
				_ = closeFn()
				return fmt.Errorf("write dot: %w", err)
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&start, "start", "", "only render what is reachable from this person")
	cmd.Flags().IntVar(&depth, "depth", render.Unlimited, "maximum depth from each root (negative is unlimited)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var edgesPath string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the account's graph from a JSON snapshot or CSV tables",
		Long: `Replace the account's graph. FILE is a JSON snapshot, or a members CSV
when it ends in .csv; pass the matching edges table with --edges.
Every edge is checked as if added by hand. On any error the stored graph
is left unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0], edgesPath)
			if err != nil {
				return err
			}
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			rec, err := svc.Import(cmd.Context(), account, snap)
			if err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("imported %d persons and %d edges (revision %d)",
				len(rec.Snapshot.Persons), len(rec.Snapshot.Edges), rec.Revision))
			return nil
		},
	}
	cmd.Flags().StringVar(&edgesPath, "edges", "", "edges CSV to pair with a members CSV")
	return cmd
}

func readSnapshot(path, edgesPath string) (graph.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		var snap graph.Snapshot
		if err := json.NewDecoder(f).Decode(&snap); err != nil {
			return graph.Snapshot{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return snap, nil
	}

	var edges io.Reader = strings.NewReader("")
	if edgesPath != "" {
		ef, err := os.Open(edgesPath)
		if err != nil {
			return graph.Snapshot{}, fmt.Errorf("open %s: %w", edgesPath, err)
		}
		defer ef.Close()
		edges = ef
	}
	return render.ParseCSV(f, edges)
}

func newMergeCmd(a *app) *cobra.Command {
	var (
		from string
		link string
	)
	cmd := &cobra.Command{
		Use:   "merge --from ACCOUNT [--link A,B,RELATION]",
		Short: "Copy another account's graph into this one",
		Long: `Copy every person and relationship of --from into the current account.
Person ids must not overlap. --link adds one relationship joining the two
families once they are merged. The source account is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := kinship.MergeRequest{From: from}
			if link != "" {
				parts := strings.Split(link, ",")
				if len(parts) != 3 {
					return fmt.Errorf("%w: --link wants A,B,RELATION", kinship.ErrInvalidRequest)
				}
				req.Link = &kinship.LinkRequest{
					From:     strings.TrimSpace(parts[0]),
					To:       strings.TrimSpace(parts[1]),
					Relation: strings.TrimSpace(parts[2]),
				}
			}
			if err := req.Validate(); err != nil {
				return err
			}
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			rec, err := svc.Merge(cmd.Context(), account, req.From, req.GraphLink())
			if err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("merged %s into %s: %d persons, %d edges",
				from, account, len(rec.Snapshot.Persons), len(rec.Snapshot.Edges)))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "account to merge from")
	cmd.Flags().StringVar(&link, "link", "", "bridging relationship A,B,RELATION")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
