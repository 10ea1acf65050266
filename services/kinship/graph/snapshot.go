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

import "fmt"

// Snapshot is the serialized form of a FamilyGraph.
//
// Edges lists every stored edge, derived ones included, so the graph can be
// rebuilt without re-running sibling closure.
type Snapshot struct {
	Persons []Person `json:"persons"`
	Edges   []Edge   `json:"edges"`
}

// Export returns a snapshot of the graph. Persons follow insertion order and
// edges follow Edges().
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) Export() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.edgesLocked()
	if edges == nil {
		edges = []Edge{}
	}
	return Snapshot{Persons: g.persons.all(), Edges: edges}
}

// FromSnapshot rebuilds a graph from a snapshot.
//
// Description:
//
//	Persons are inserted first. Each edge then goes through the same
//	checks as AddRelationship: relation, self-loop, endpoints, conflicting
//	pair and ancestry cycle. An edge already present with the same
//	relation, typically a complement created by an earlier record, is
//	skipped. A missing complement or mirror is created, and parent edges
//	propagate sibling closure as they do when added live. Sibling records
//	already implied by earlier edges are skipped like complements.
//
// Outputs:
//
//	*FamilyGraph - The rebuilt graph.
//	error - The first failing record, wrapping the underlying sentinel.
func FromSnapshot(s Snapshot) (*FamilyGraph, error) {
	g := New()
	for i, p := range s.Persons {
		if p.Gender == "" {
			p.Gender = GenderOther
		}
		if err := g.persons.insert(p); err != nil {
			return nil, fmt.Errorf("person %d: %w", i, err)
		}
	}
	for i, e := range s.Edges {
		if existing, ok := g.edge(e.From, e.To); ok && existing == e.Relation {
			continue
		}
		plan, err := g.planAdd(e.From, e.To, e.Relation)
		if err != nil {
			return nil, fmt.Errorf("edge %d (%s→%s): %w", i, e.From, e.To, err)
		}
		g.commit(plan)
	}
	return g, nil
}

// Replace swaps the contents of g for the graph described by s. On error g
// is unchanged.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) Replace(s Snapshot) error {
	fresh, err := FromSnapshot(s)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.persons, g.out, g.in = fresh.persons, fresh.out, fresh.in
	return nil
}
