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
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianKin/services/kinship"
	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"q"},
		Short:   "Ask how two persons are related",
	}
	cmd.AddCommand(
		newPairCmd(a, "relationship A B", "What B is to A, with the path", runRelationship),
		newPairCmd(a, "path A B", "Shortest path from A to B", runPath),
		newPairCmd(a, "ancestors A B", "Ancestors A and B share", runAncestors),
		newPairCmd(a, "gap A B", "Parent/Child hops between A and B", runGap),
		newPairCmd(a, "cousins A B", "Whether A and B share a grandparent", runCousins),
		newPairCmd(a, "analyze A B", "Every pairwise query at once", runAnalyze),
	)
	return cmd
}

type pairFunc func(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error

func newPairCmd(a *app, use, short string, fn pairFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			return fn(cmd.Context(), a, svc, account, args[0], args[1])
		},
	}
}

func runRelationship(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error {
	res, err := svc.Relationship(ctx, account, p1, p2)
	if err != nil {
		return err
	}
	if !res.Related && p1 != p2 {
		a.printer.Info(fmt.Sprintf("%s and %s are not related", p1, p2))
		return nil
	}
	pairs := [][2]string{
		{"relationship", fmt.Sprintf("%s is %s's %s", p2, p1, res.Term)},
		{"path", formatPath(res.Path)},
	}
	if res.Narration != "" {
		pairs = append(pairs, [2]string{"narration", res.Narration})
	}
	a.printer.KeyValues(pairs)
	return nil
}

func runPath(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error {
	steps, found, err := svc.ShortestPath(ctx, account, p1, p2)
	if err != nil {
		return err
	}
	if !found {
		a.printer.Info(fmt.Sprintf("no path from %s to %s", p1, p2))
		return nil
	}
	rows := make([][]string, 0, len(steps))
	for i, s := range steps {
		rows = append(rows, []string{strconv.Itoa(i + 1), s.From, s.Relation.String(), s.To})
	}
	return a.printer.Table([]string{"Step", "From", "Is", "Of"}, rows)
}

func runAncestors(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error {
	ancestors, err := svc.CommonAncestors(ctx, account, p1, p2)
	if err != nil {
		return err
	}
	if len(ancestors) == 0 {
		a.printer.Info(fmt.Sprintf("%s and %s share no ancestors", p1, p2))
		return nil
	}
	return printPersons(a, ancestors)
}

func runGap(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error {
	gap, related, err := svc.GenerationGap(ctx, account, p1, p2)
	if err != nil {
		return err
	}
	if !related {
		a.printer.Info(fmt.Sprintf("%s and %s are not linked through parents and children", p1, p2))
		return nil
	}
	a.printer.KeyValues([][2]string{{"generation_gap", strconv.Itoa(gap)}})
	return nil
}

func runCousins(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error {
	ok, err := svc.AreCousins(ctx, account, p1, p2)
	if err != nil {
		return err
	}
	a.printer.KeyValues([][2]string{{"are_cousins", strconv.FormatBool(ok)}})
	return nil
}

func runAnalyze(ctx context.Context, a *app, svc *kinship.Service, account, p1, p2 string) error {
	an, err := svc.Comprehensive(ctx, account, p1, p2)
	if err != nil {
		return err
	}
	gap := "n/a"
	if an.GenerationGap != nil {
		gap = strconv.Itoa(*an.GenerationGap)
	}
	ancestors := make([]string, 0, len(an.CommonAncestors))
	for _, p := range an.CommonAncestors {
		ancestors = append(ancestors, p.ID)
	}
	term := an.Relationship
	if term == "" {
		term = "not related"
	}
	a.printer.Title(fmt.Sprintf("%s (%s) and %s (%s)", an.Person1.Name, an.Person1.ID, an.Person2.Name, an.Person2.ID))
	pairs := [][2]string{
		{"relationship", term},
		{"forward", an.Bidirectional.Forward},
		{"reverse", an.Bidirectional.Backward},
		{"path", formatPath(an.Path)},
		{"common_ancestors", strings.Join(ancestors, ", ")},
		{"generation_gap", gap},
		{"are_cousins", strconv.FormatBool(an.Cousins)},
	}
	if an.Narration != "" {
		pairs = append(pairs, [2]string{"narration", an.Narration})
	}
	a.printer.KeyValues(pairs)
	return nil
}

// formatPath renders steps as "K -Child-> P -Child-> G".
func formatPath(steps []graph.PathStep) string {
	if len(steps) == 0 {
		return "-"
	}
	var b strings.Builder
	b.WriteString(steps[0].From)
	for _, s := range steps {
		fmt.Fprintf(&b, " -%s-> %s", s.Relation, s.To)
	}
	return b.String()
}
