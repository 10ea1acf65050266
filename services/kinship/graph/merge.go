// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Merge copies every person and edge of other into g and optionally bridges
// the two with one new relationship.
//
// Description:
//
//	The identifier sets must be disjoint; no reconciliation of same-ID
//	records is attempted. The union is built on a private copy of g and
//	the link is added to that copy through the normal add checks. g is
//	only replaced once everything has succeeded. other is read under its
//	own read lock before g is locked, and is never modified.
//
// Inputs:
//
//	other - The graph to absorb.
//	link - Optional bridging relationship. May be nil.
//
// Outputs:
//
//	error - ErrIDCollision listing the shared IDs, or any AddRelationship
//	error raised by the link. Both graphs are unchanged on error.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) Merge(other *FamilyGraph, link *Link) error {
	if other == nil {
		return nil
	}
	if other == g {
		return fmt.Errorf("%w: cannot merge a graph into itself", ErrIDCollision)
	}

	incoming := other.Export()

	g.mu.Lock()
	defer g.mu.Unlock()

	var shared []string
	for _, p := range incoming.Persons {
		if g.persons.has(p.ID) {
			shared = append(shared, p.ID)
		}
	}
	if len(shared) > 0 {
		sort.Strings(shared)
		return fmt.Errorf("%w: %s", ErrIDCollision, strings.Join(shared, ", "))
	}

	work := g.cloneLocked()
	for _, p := range incoming.Persons {
		if err := work.persons.insert(p); err != nil {
			return err
		}
	}
	for _, e := range incoming.Edges {
		work.setEdge(e.From, e.To, e.Relation)
	}

	if link != nil {
		plan, err := work.planAdd(link.From, link.To, link.Relation)
		if err != nil {
			return fmt.Errorf("link %s→%s: %w", link.From, link.To, err)
		}
		work.commit(plan)
	}

	g.persons, g.out, g.in = work.persons, work.out, work.in
	return nil
}
