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

// addPlan is the full edge set an AddRelationship call would commit.
// Nothing is written until every check has passed.
type addPlan struct {
	edges []Edge
}

func (p *addPlan) stage(from, to string, r Relation) {
	p.edges = append(p.edges, Edge{From: from, To: to, Relation: r})
}

// AddRelationship adds the directed edge (a→b, r) and everything it implies.
//
// Description:
//
//	Parent and Child edges get their complement on the reverse pair and
//	trigger sibling closure among the children of the parent endpoint.
//	Sibling, Married and Divorced edges get an identical mirror. Every
//	derived edge is staged first; the graph is only written once all
//	checks pass.
//
// Inputs:
//
//	a, b - Endpoint IDs. Must exist and differ.
//	r - The relation a holds to b.
//
// Outputs:
//
//	error - ErrInvalidRelationship, ErrSelfRelationship, ErrNotFound,
//	ErrAlreadyExists or ErrCycleDetected. On error nothing is committed.
//
// Thread Safety: Safe for concurrent use. Holds the write lock throughout.
func (g *FamilyGraph) AddRelationship(a, b string, r Relation) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	plan, err := g.planAdd(a, b, r)
	if err != nil {
		return err
	}
	g.commit(plan)
	return nil
}

// AddParentChild records parent as a parent of child.
func (g *FamilyGraph) AddParentChild(parent, child string) error {
	return g.AddRelationship(parent, child, RelationParent)
}

// AddMarriage records a and b as married.
func (g *FamilyGraph) AddMarriage(a, b string) error {
	return g.AddRelationship(a, b, RelationMarried)
}

// AddSibling records a and b as siblings.
func (g *FamilyGraph) AddSibling(a, b string) error {
	return g.AddRelationship(a, b, RelationSibling)
}

// DeleteRelationship removes (a→b) and its complement or mirror.
//
// Description:
//
//	The reverse edge is removed only when it carries exactly the relation
//	the forward edge implies, so an unrelated reverse edge survives.
//	Sibling edges created by closure are left in place.
//
// Outputs:
//
//	bool - False if there was no (a→b) edge; the call is then a no-op.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) DeleteRelationship(a, b string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.deletePair(a, b)
	return ok
}

// EditRelationship replaces whatever relation (a→b) holds with r.
//
// Description:
//
//	Deletes the current pair and adds the new one. When the add fails the
//	deleted edges are put back, so the call either fully succeeds or leaves
//	the graph as it was.
//
// Outputs:
//
//	error - Same failure modes as AddRelationship.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) EditRelationship(a, b string, r Relation) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed, _ := g.deletePair(a, b)
	plan, err := g.planAdd(a, b, r)
	if err != nil {
		for _, e := range removed {
			g.setEdge(e.From, e.To, e.Relation)
		}
		return err
	}
	g.commit(plan)
	return nil
}

// deletePair removes (a→b) and a matching reverse edge, returning what was
// removed. Caller must hold the write lock.
func (g *FamilyGraph) deletePair(a, b string) ([]Edge, bool) {
	r, ok := g.removeEdge(a, b)
	if !ok {
		return nil, false
	}
	removed := []Edge{{From: a, To: b, Relation: r}}
	if back, ok := g.edge(b, a); ok && back == r.Complement() {
		g.removeEdge(b, a)
		removed = append(removed, Edge{From: b, To: a, Relation: back})
	}
	return removed, true
}

// planAdd validates (a→b, r) and stages every edge it implies.
// Caller must hold the lock.
func (g *FamilyGraph) planAdd(a, b string, r Relation) (*addPlan, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRelationship, int(r))
	}
	if a == b {
		return nil, fmt.Errorf("%w: %s", ErrSelfRelationship, a)
	}
	if err := g.requirePerson(a); err != nil {
		return nil, err
	}
	if err := g.requirePerson(b); err != nil {
		return nil, err
	}
	parent, child := ancestryPair(a, b, r)
	if r.IsAncestry() && g.isAncestorLocked(child, parent) {
		return nil, fmt.Errorf("%w: %s is already an ancestor of %s", ErrCycleDetected, child, parent)
	}
	if existing, ok := g.edge(a, b); ok {
		return nil, fmt.Errorf("%w: %s→%s is %s", ErrAlreadyExists, a, b, existing)
	}

	want := r.Complement()
	back, hasBack := g.edge(b, a)
	if hasBack && back != want {
		return nil, fmt.Errorf("%w: %s→%s is %s, cannot pair with %s", ErrAlreadyExists, b, a, back, r)
	}

	plan := &addPlan{}
	plan.stage(a, b, r)
	if !hasBack {
		plan.stage(b, a, want)
	}

	if r.IsAncestry() {
		if err := g.stageSiblingClosure(plan, parent, child); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// stageSiblingClosure stages Sibling edges in both directions between child
// and every existing child of parent. A pair already holding Sibling is
// skipped; a pair holding any other relation is a conflict.
func (g *FamilyGraph) stageSiblingClosure(plan *addPlan, parent, child string) error {
	for _, other := range g.childrenOf(parent) {
		if other == child {
			continue
		}
		for _, pair := range [2][2]string{{other, child}, {child, other}} {
			existing, ok := g.edge(pair[0], pair[1])
			switch {
			case !ok:
				plan.stage(pair[0], pair[1], RelationSibling)
			case existing != RelationSibling:
				return fmt.Errorf("%w: %s→%s is %s, siblings through %s",
					ErrAlreadyExists, pair[0], pair[1], existing, parent)
			}
		}
	}
	return nil
}

// ancestryPair orders the endpoints of a Parent or Child edge as
// (parent, child). Other relations return (a, b) unchanged.
func ancestryPair(a, b string, r Relation) (string, string) {
	if r == RelationChild {
		return b, a
	}
	return a, b
}

func (g *FamilyGraph) commit(plan *addPlan) {
	for _, e := range plan.edges {
		g.setEdge(e.From, e.To, e.Relation)
	}
}
