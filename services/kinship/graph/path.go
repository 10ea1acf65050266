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

// ShortestPath finds one shortest path from a to b over every stored edge.
//
// Description:
//
//	Breadth-first search following outgoing edges only. Neighbors are
//	expanded in ascending ID order, so among equally short paths the one
//	whose hops are lexicographically smallest is returned, and repeated
//	calls on the same graph give the same answer.
//
// Outputs:
//
//	[]PathStep - The hops from a to b. Empty when a == b.
//	bool - False when either ID is unknown or b is unreachable.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) ShortestPath(a, b string) ([]PathStep, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.shortestPathLocked(a, b, nil)
}

// shortestPathLocked runs the BFS. When allow is non-nil only edges whose
// relation it accepts are followed. Caller must hold the lock.
func (g *FamilyGraph) shortestPathLocked(a, b string, allow func(Relation) bool) ([]PathStep, bool) {
	if !g.persons.has(a) || !g.persons.has(b) {
		return nil, false
	}
	if a == b {
		return []PathStep{}, true
	}

	parent := map[string]string{a: ""}
	queue := []string{a}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range g.sortedTargets(cur) {
			if _, seen := parent[next]; seen {
				continue
			}
			if allow != nil && !allow(g.out[cur][next]) {
				continue
			}
			parent[next] = cur
			if next == b {
				return g.buildPath(parent, a, b), true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

// buildPath walks the BFS parent map back from b and returns the hops in
// forward order.
func (g *FamilyGraph) buildPath(parent map[string]string, a, b string) []PathStep {
	var steps []PathStep
	for cur := b; cur != a; cur = parent[cur] {
		from := parent[cur]
		steps = append(steps, PathStep{From: from, To: cur, Relation: g.out[from][cur]})
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps
}
