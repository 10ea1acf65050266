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
	"sync"
)

// FamilyGraph is one account's kinship graph.
//
// Description:
//
//	Combines the person store with outgoing and incoming adjacency maps.
//	out[a][b] and in[b][a] always hold the same Relation.
//
// Thread Safety: Safe for concurrent use. See the package documentation.
type FamilyGraph struct {
	mu      sync.RWMutex
	persons *personStore
	out     map[string]map[string]Relation
	in      map[string]map[string]Relation
}

// New creates an empty FamilyGraph.
func New() *FamilyGraph {
	return &FamilyGraph{
		persons: newPersonStore(),
		out:     make(map[string]map[string]Relation),
		in:      make(map[string]map[string]Relation),
	}
}

// AddPerson inserts a person.
//
// Outputs:
//
//	error - ErrInvalidPerson for an empty ID, negative age or unknown
//	gender; ErrDuplicateID if the ID is taken.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) AddPerson(p Person) error {
	if p.Gender == "" {
		p.Gender = GenderOther
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.persons.insert(p)
}

// EditPerson applies the non-nil fields of patch to the person with id.
//
// Description:
//
//	The identifier itself cannot change. The patch is validated as a whole
//	before any field is written.
//
// Outputs:
//
//	Person - The updated record.
//	error - ErrNotFound if id is absent; ErrInvalidPerson if the patched
//	record would be invalid.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) EditPerson(id string, patch PersonPatch) (Person, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored, ok := g.persons.byID[id]
	if !ok {
		return Person{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := *stored
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Gender != nil {
		gender, err := ParseGender(string(*patch.Gender))
		if err != nil {
			return Person{}, err
		}
		updated.Gender = gender
	}
	if patch.Age != nil {
		updated.Age = *patch.Age
	}
	if err := updated.validate(); err != nil {
		return Person{}, err
	}

	*stored = updated
	return updated, nil
}

// RemovePerson deletes a person and every edge touching them.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) RemovePerson(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.persons.has(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for to := range g.out[id] {
		delete(g.in[to], id)
	}
	for from := range g.in[id] {
		delete(g.out[from], id)
	}
	delete(g.out, id)
	delete(g.in, id)
	g.persons.remove(id)
	return nil
}

// Person returns a copy of the person with id.
func (g *FamilyGraph) Person(id string) (Person, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.persons.get(id)
}

// Persons returns every person in insertion order.
func (g *FamilyGraph) Persons() []Person {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.persons.all()
}

// Len returns the number of persons.
func (g *FamilyGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.persons.len()
}

// SearchPersons returns persons whose name matches a glob pattern such as
// "ann*" or "*son". Matching is case-insensitive; a plain word matches as a
// substring.
func (g *FamilyGraph) SearchPersons(pattern string) ([]Person, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.persons.search(pattern)
}

// Relation returns the relation stored on the ordered pair (a→b).
func (g *FamilyGraph) Relation(a, b string) (Relation, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edge(a, b)
}

// Edges returns every stored edge. Sources follow person insertion order;
// targets of one source are sorted by ID.
func (g *FamilyGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked()
}

// EdgeCount returns the number of stored directed edges.
func (g *FamilyGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

// Clone returns a deep copy of the graph.
func (g *FamilyGraph) Clone() *FamilyGraph {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cloneLocked()
}

// =============================================================================
// Lock-held helpers
// =============================================================================

func (g *FamilyGraph) edgesLocked() []Edge {
	var edges []Edge
	for _, from := range g.persons.order {
		for _, to := range g.sortedTargets(from) {
			edges = append(edges, Edge{From: from, To: to, Relation: g.out[from][to]})
		}
	}
	return edges
}

func (g *FamilyGraph) cloneLocked() *FamilyGraph {
	c := New()
	for _, id := range g.persons.order {
		p := *g.persons.byID[id]
		c.persons.byID[id] = &p
	}
	c.persons.order = g.persons.ids()
	for from, targets := range g.out {
		for to, r := range targets {
			c.setEdge(from, to, r)
		}
	}
	return c
}

func (g *FamilyGraph) edge(a, b string) (Relation, bool) {
	r, ok := g.out[a][b]
	return r, ok
}

func (g *FamilyGraph) setEdge(a, b string, r Relation) {
	if g.out[a] == nil {
		g.out[a] = make(map[string]Relation)
	}
	if g.in[b] == nil {
		g.in[b] = make(map[string]Relation)
	}
	g.out[a][b] = r
	g.in[b][a] = r
}

func (g *FamilyGraph) removeEdge(a, b string) (Relation, bool) {
	r, ok := g.out[a][b]
	if !ok {
		return RelationUnknown, false
	}
	delete(g.out[a], b)
	delete(g.in[b], a)
	if len(g.out[a]) == 0 {
		delete(g.out, a)
	}
	if len(g.in[b]) == 0 {
		delete(g.in, b)
	}
	return r, true
}

// sortedTargets returns the outgoing neighbors of id in ascending order.
func (g *FamilyGraph) sortedTargets(id string) []string {
	targets := make([]string, 0, len(g.out[id]))
	for to := range g.out[id] {
		targets = append(targets, to)
	}
	sort.Strings(targets)
	return targets
}

// parentsOf returns the IDs holding a Parent edge into id, sorted.
func (g *FamilyGraph) parentsOf(id string) []string {
	var parents []string
	for from, r := range g.in[id] {
		if r == RelationParent {
			parents = append(parents, from)
		}
	}
	sort.Strings(parents)
	return parents
}

// childrenOf returns the targets of id's Parent edges, sorted.
func (g *FamilyGraph) childrenOf(id string) []string {
	var children []string
	for to, r := range g.out[id] {
		if r == RelationParent {
			children = append(children, to)
		}
	}
	sort.Strings(children)
	return children
}

// neighborsWith returns the targets of id's outgoing edges carrying r, sorted.
func (g *FamilyGraph) neighborsWith(id string, r Relation) []string {
	var out []string
	for to, rel := range g.out[id] {
		if rel == r {
			out = append(out, to)
		}
	}
	sort.Strings(out)
	return out
}

func (g *FamilyGraph) requirePerson(id string) error {
	if !g.persons.has(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
