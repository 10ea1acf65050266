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

// IsAncestor reports whether candidate is reachable from node by walking
// Parent edges upward, i.e. whether candidate is an ancestor of node.
//
// Unknown IDs are never ancestors.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) IsAncestor(candidate, node string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.isAncestorLocked(candidate, node)
}

// isAncestorLocked runs an explicit-stack DFS from node over incoming Parent
// edges. Caller must hold the lock.
func (g *FamilyGraph) isAncestorLocked(candidate, node string) bool {
	visited := map[string]bool{node: true}
	stack := g.parentsOf(node)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == candidate {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		stack = append(stack, g.parentsOf(id)...)
	}
	return false
}

// ancestorsLocked returns every ID reachable from id over incoming Parent
// edges. Caller must hold the lock.
func (g *FamilyGraph) ancestorsLocked(id string) map[string]bool {
	seen := make(map[string]bool)
	stack := g.parentsOf(id)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] || cur == id {
			continue
		}
		seen[cur] = true
		stack = append(stack, g.parentsOf(cur)...)
	}
	return seen
}

// DetectAncestryCycles returns every cycle found in the Parent-only
// subgraph.
//
// Description:
//
//	Runs a depth-first search from each person in insertion order, keeping
//	the current path on an explicit stack. Reaching a node that is already
//	on the path records the path suffix from that node, followed by the
//	node again, as one cycle. Each node is expanded once, so a cycle is
//	reported from the first node the search enters it by.
//
//	Graphs built only through AddRelationship never contain a cycle; this
//	is an audit for data that arrived some other way.
//
// Outputs:
//
//	[][]string - The cycles, empty when the ancestry subgraph is a DAG.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) DetectAncestryCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.detectCyclesLocked()
}

func (g *FamilyGraph) detectCyclesLocked() [][]string {
	const (
		unvisited = iota
		onPath
		done
	)

	// callFrame replaces one level of the recursive descent.
	type callFrame struct {
		id       string
		children []string
		next     int
	}

	state := make(map[string]int, g.persons.len())
	pathIndex := make(map[string]int)
	cycles := [][]string{}

	for _, root := range g.persons.order {
		if state[root] != unvisited {
			continue
		}

		var path []string
		push := func(id string) []callFrame {
			state[id] = onPath
			pathIndex[id] = len(path)
			path = append(path, id)
			return []callFrame{{id: id, children: g.childrenOf(id)}}
		}

		callStack := push(root)
		for len(callStack) > 0 {
			frame := &callStack[len(callStack)-1]

			if frame.next < len(frame.children) {
				child := frame.children[frame.next]
				frame.next++

				switch state[child] {
				case unvisited:
					callStack = append(callStack, push(child)...)
				case onPath:
					cycle := make([]string, 0, len(path)-pathIndex[child]+1)
					cycle = append(cycle, path[pathIndex[child]:]...)
					cycle = append(cycle, child)
					cycles = append(cycles, cycle)
				}
				continue
			}

			state[frame.id] = done
			delete(pathIndex, frame.id)
			path = path[:len(path)-1]
			callStack = callStack[:len(callStack)-1]
		}
	}
	return cycles
}
