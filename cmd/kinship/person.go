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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianKin/services/kinship"
	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

func newPersonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"p"},
		Short:   "Add, edit, remove and look up persons",
	}
	cmd.AddCommand(
		newPersonAddCmd(a),
		newPersonListCmd(a),
		newPersonShowCmd(a),
		newPersonEditCmd(a),
		newPersonRmCmd(a),
		newPersonSearchCmd(a),
		newPersonFamilyCmd(a),
	)
	return cmd
}

func newPersonAddCmd(a *app) *cobra.Command {
	var req kinship.PersonRequest
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person (an id is generated when --id is omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			p, err := svc.AddPerson(cmd.Context(), account, req.Person())
			if err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("added %s (%s)", p.ID, p.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "person id")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "M, F or O")
	cmd.Flags().IntVar(&req.Age, "age", 0, "age in years")
	return cmd
}

func newPersonListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every person",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			persons, err := svc.Persons(cmd.Context(), account)
			if err != nil {
				return err
			}
			return printPersons(a, persons)
		},
	}
}

func newPersonShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			p, err := svc.Person(cmd.Context(), account, args[0])
			if err != nil {
				return err
			}
			a.printer.KeyValues([][2]string{
				{"id", p.ID},
				{"name", p.Name},
				{"gender", string(p.Gender)},
				{"age", strconv.Itoa(p.Age)},
			})
			return nil
		},
	}
}

func newPersonEditCmd(a *app) *cobra.Command {
	var (
		name, gender string
		age          int
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a person's name, gender or age",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req kinship.PersonPatchRequest
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if cmd.Flags().Changed("gender") {
				req.Gender = &gender
			}
			if cmd.Flags().Changed("age") {
				req.Age = &age
			}
			if err := req.Validate(); err != nil {
				return err
			}
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			p, err := svc.EditPerson(cmd.Context(), account, args[0], req.Patch())
			if err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("updated %s: %s, %s, %d", p.ID, p.Name, p.Gender, p.Age))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&gender, "gender", "", "new gender (M, F or O)")
	cmd.Flags().IntVar(&age, "age", 0, "new age")
	return cmd
}

func newPersonRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a person and all their relationships",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			if err := svc.RemovePerson(cmd.Context(), account, args[0]); err != nil {
				return err
			}
			a.printer.Success("removed " + args[0])
			return nil
		},
	}
}

func newPersonSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search PATTERN",
		Short: "Find persons whose name matches a glob pattern",
		Long: `Match names case-insensitively against a glob pattern such as "jo*"
or "*[ae]n". A pattern without wildcards matches anywhere in the name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			persons, err := svc.SearchPersons(cmd.Context(), account, args[0])
			if err != nil {
				return err
			}
			return printPersons(a, persons)
		},
	}
}

func newPersonFamilyCmd(a *app) *cobra.Command {
	var extended bool
	cmd := &cobra.Command{
		Use:   "family ID",
		Short: "Show a person's immediate (or, with --all, extended) family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			rel, err := svc.AllRelatives(cmd.Context(), account, args[0])
			if err != nil {
				return err
			}
			groups := []familyGroup{
				{"parent", rel.Parents},
				{"child", rel.Children},
				{"sibling", rel.Siblings},
				{"spouse", rel.Spouses},
				{"ex-spouse", rel.ExSpouses},
			}
			if extended {
				groups = append(groups,
					familyGroup{"grandparent", rel.Grandparents},
					familyGroup{"grandchild", rel.Grandchildren},
					familyGroup{"uncle/aunt", rel.UnclesAndAunts},
					familyGroup{"cousin", rel.Cousins},
					familyGroup{"niece/nephew", rel.NiecesAndNephews},
					familyGroup{"in-law", rel.InLaws},
				)
			}
			return printFamily(a, groups)
		},
	}
	cmd.Flags().BoolVar(&extended, "all", false, "include grandparents, cousins, in-laws and so on")
	return cmd
}

type familyGroup struct {
	label   string
	members []graph.Person
}

func printPersons(a *app, persons []graph.Person) error {
	rows := make([][]string, 0, len(persons))
	for _, p := range persons {
		rows = append(rows, []string{p.ID, p.Name, string(p.Gender), strconv.Itoa(p.Age)})
	}
	if err := a.printer.Table([]string{"ID", "Name", "Gender", "Age"}, rows); err != nil {
		return err
	}
	a.printer.Info(fmt.Sprintf("%d persons", len(persons)))
	return nil
}

func printFamily(a *app, groups []familyGroup) error {
	var rows [][]string
	for _, g := range groups {
		for _, p := range g.members {
			rows = append(rows, []string{g.label, p.ID, p.Name})
		}
	}
	if len(rows) == 0 {
		a.printer.Info("no relatives recorded")
		return nil
	}
	return a.printer.Table([]string{"Relation", "ID", "Name"}, rows)
}
