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

// Analysis aggregates every pairwise query for two persons.
type Analysis struct {
	Person1         Person        `json:"person1"`
	Person2         Person        `json:"person2"`
	Relationship    string        `json:"relationship"`
	Related         bool          `json:"is_related"`
	CommonAncestors []Person      `json:"common_ancestors"`
	Path            []PathStep    `json:"relationship_path"`
	Narration       string        `json:"narration,omitempty"`
	Bidirectional   Bidirectional `json:"bidirectional"`
	GenerationGap   *int          `json:"generation_gap"`
	Cousins         bool          `json:"are_cousins"`
}

// CommonAncestors returns every person who is an ancestor of both a and b,
// in insertion order.
//
// Description:
//
//	Collects the full ancestor set of each endpoint by walking Parent edges
//	upward without a depth limit, then intersects the two sets.
//
// Outputs:
//
//	[]Person - Shared ancestors. Empty, not nil, when there are none.
//	error - ErrNotFound when either ID is unknown.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) CommonAncestors(a, b string) ([]Person, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return nil, err
	}
	return g.commonAncestorsLocked(a, b), nil
}

func (g *FamilyGraph) commonAncestorsLocked(a, b string) []Person {
	left := g.ancestorsLocked(a)
	right := g.ancestorsLocked(b)
	shared := []Person{}
	for _, id := range g.persons.order {
		if left[id] && right[id] {
			p, _ := g.persons.get(id)
			shared = append(shared, p)
		}
	}
	return shared
}

// GenerationGap returns the number of Parent/Child hops between a and b.
//
// Sibling and marriage edges are not traversed, so in-laws have no gap.
//
// Outputs:
//
//	int - Hop count along the shortest ancestry-only path.
//	bool - False when no such path exists.
//	error - ErrNotFound when either ID is unknown.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) GenerationGap(a, b string) (int, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return 0, false, err
	}
	gap, ok := g.generationGapLocked(a, b)
	return gap, ok, nil
}

func (g *FamilyGraph) generationGapLocked(a, b string) (int, bool) {
	path, ok := g.shortestPathLocked(a, b, Relation.IsAncestry)
	if !ok {
		return 0, false
	}
	return len(path), true
}

// AreCousins reports whether a and b share at least one grandparent.
//
// Full siblings also share their grandparents and therefore also satisfy
// this test. A person is never their own cousin.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) AreCousins(a, b string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return false, err
	}
	return g.areCousinsLocked(a, b), nil
}

func (g *FamilyGraph) areCousinsLocked(a, b string) bool {
	if a == b {
		return false
	}
	left := make(map[string]bool)
	for _, gp := range g.grandparentsLocked(a) {
		left[gp] = true
	}
	for _, gp := range g.grandparentsLocked(b) {
		if left[gp] {
			return true
		}
	}
	return false
}

func (g *FamilyGraph) grandparentsLocked(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range g.parentsOf(id) {
		for _, gp := range g.parentsOf(p) {
			if !seen[gp] {
				seen[gp] = true
				out = append(out, gp)
			}
		}
	}
	return out
}

// ComprehensiveAnalysis runs every pairwise query for a and b under one
// read lock, so all fields describe the same graph state.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) ComprehensiveAnalysis(a, b string) (Analysis, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return Analysis{}, err
	}

	p1, _ := g.persons.get(a)
	p2, _ := g.persons.get(b)
	res := Analysis{
		Person1:         p1,
		Person2:         p2,
		CommonAncestors: g.commonAncestorsLocked(a, b),
		Path:            []PathStep{},
		Cousins:         g.areCousinsLocked(a, b),
	}

	if term, path, ok := g.classifyLocked(a, b); ok {
		res.Relationship = term
		res.Related = term != TermSelf
		res.Path = path
		if len(path) > 2 {
			res.Narration = g.narrateLocked(path)
		}
	}
	backward, _, _ := g.classifyLocked(b, a)
	res.Bidirectional = Bidirectional{Forward: res.Relationship, Backward: backward}

	if gap, ok := g.generationGapLocked(a, b); ok {
		res.GenerationGap = &gap
	}
	return res, nil
}
