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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianKin/services/kinship"
)

func newRelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rel",
		Short: "Add, edit and remove relationships",
		Long: `A relationship reads "FROM is RELATION of TO". Relations are parent,
child, sibling, married and divorced; the reverse edge is created
automatically. Adding a parent also links the child to the parent's
other children as siblings.`,
	}
	cmd.AddCommand(newRelAddCmd(a), newRelEditCmd(a), newRelRmCmd(a))
	return cmd
}

func parseRelArgs(args []string) (kinship.RelationshipRequest, error) {
	req := kinship.RelationshipRequest{From: args[0], To: args[1], Relation: args[2]}
	return req, req.Validate()
}

func newRelAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add FROM TO RELATION",
		Short: "Record that FROM is RELATION of TO",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRelArgs(args)
			if err != nil {
				return err
			}
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			rel := req.ParsedRelation()
			if err := svc.AddRelationship(cmd.Context(), account, req.From, req.To, rel); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("%s is %s of %s", req.From, rel, req.To))
			return nil
		},
	}
}

func newRelEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit FROM TO RELATION",
		Short: "Replace the relationship between FROM and TO",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRelArgs(args)
			if err != nil {
				return err
			}
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			rel := req.ParsedRelation()
			if err := svc.EditRelationship(cmd.Context(), account, req.From, req.To, rel); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("%s is now %s of %s", req.From, rel, req.To))
			return nil
		},
	}
}

func newRelRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm FROM TO",
		Aliases: []string{"remove"},
		Short:   "Remove the relationship between FROM and TO",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, account, err := a.scoped()
			if err != nil {
				return err
			}
			if err := svc.DeleteRelationship(cmd.Context(), account, args[0], args[1]); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("removed relationship %s-%s", args[0], args[1]))
			return nil
		},
	}
}
