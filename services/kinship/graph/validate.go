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
	"errors"
	"fmt"
	"strings"
)

// Validate checks every structural invariant and reports all violations.
//
// Description:
//
//	Verifies endpoint existence, self-loops, the adjacency index, Parent and
//	Child complements, symmetric mirrors, sibling closure per parent and
//	ancestry acyclicity. Intended as an audit after imports and merges.
//
// Outputs:
//
//	error - nil when the graph is consistent, otherwise errors.Join of one
//	ErrInvariantViolation per problem.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...)))
	}

	for _, e := range g.edgesUnordered() {
		if !g.persons.has(e.From) || !g.persons.has(e.To) {
			fail("edge %s→%s has a missing endpoint", e.From, e.To)
			continue
		}
		if e.From == e.To {
			fail("self-loop on %s", e.From)
			continue
		}
		if !e.Relation.Valid() {
			fail("edge %s→%s has invalid relation %d", e.From, e.To, int(e.Relation))
			continue
		}
		if r, ok := g.in[e.To][e.From]; !ok || r != e.Relation {
			fail("edge %s→%s missing from incoming index", e.From, e.To)
		}
		want := e.Relation.Complement()
		if back, ok := g.edge(e.To, e.From); !ok || back != want {
			fail("edge %s→%s (%s) lacks reverse %s", e.From, e.To, e.Relation, want)
		}
	}

	for _, parent := range g.persons.order {
		children := g.childrenOf(parent)
		for i := 0; i < len(children); i++ {
			for j := i + 1; j < len(children); j++ {
				a, b := children[i], children[j]
				if r, ok := g.edge(a, b); !ok || r != RelationSibling {
					fail("%s and %s share parent %s but are not siblings", a, b, parent)
				}
			}
		}
	}

	for _, cycle := range g.detectCyclesLocked() {
		fail("ancestry cycle %s", strings.Join(cycle, " → "))
	}

	return errors.Join(errs...)
}

// edgesUnordered returns every edge in the outgoing index, including edges
// whose source is not a stored person.
func (g *FamilyGraph) edgesUnordered() []Edge {
	var edges []Edge
	for from, targets := range g.out {
		for to, r := range targets {
			edges = append(edges, Edge{From: from, To: to, Relation: r})
		}
	}
	return edges
}
