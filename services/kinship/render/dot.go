// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package render turns family graph snapshots into export formats.
//
// Renderers work on graph.Snapshot values so they never hold the graph
// lock while producing output.
package render

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

// Unlimited disables the depth bound in DOTOptions.
const Unlimited = -1

// DOTOptions configures DOT generation.
type DOTOptions struct {
	// Start is the person the traversal begins at. Empty means every root.
	Start string

	// MaxDepth bounds how far the traversal recurses from each root.
	// Negative values mean no bound.
	MaxDepth int
}

// DefaultDOTOptions renders the whole graph.
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{MaxDepth: Unlimited}
}

var edgeColors = map[graph.Relation]string{
	graph.RelationParent:  "blue",
	graph.RelationChild:   "red",
	graph.RelationSibling: "green",
	graph.RelationMarried: "purple",
}

func edgeColor(r graph.Relation) string {
	if c, ok := edgeColors[r]; ok {
		return c
	}
	return "orange"
}

type dotFrame struct {
	id    string
	depth int
	next  int
}

// DOT renders a snapshot as a Graphviz digraph.
//
// Description:
//
//	Nodes are emitted in preorder. Without a start person the traversal
//	begins at every person lacking a parent, then picks up anything left
//	unvisited so disconnected people still appear. Each edge reachable
//	from a visited node is emitted once; recursion stops past MaxDepth.
//
// Inputs:
//
//	s - The snapshot to render.
//	opts - Traversal options.
//
// Outputs:
//
//	string - DOT source.
//	error - Wraps graph.ErrNotFound when opts.Start is unknown.
func DOT(s graph.Snapshot, opts DOTOptions) (string, error) {
	var sb strings.Builder

	if len(s.Persons) == 0 {
		sb.WriteString("digraph FamilyTree {\n")
		sb.WriteString("  node [shape=box];\n")
		sb.WriteString("  \"empty\" [label=\"No family members\"];\n")
		sb.WriteString("}\n")
		return sb.String(), nil
	}

	persons := make(map[string]graph.Person, len(s.Persons))
	for _, p := range s.Persons {
		persons[p.ID] = p
	}
	if opts.Start != "" {
		if _, ok := persons[opts.Start]; !ok {
			return "", fmt.Errorf("start person %q: %w", opts.Start, graph.ErrNotFound)
		}
	}

	out := make(map[string][]graph.Edge, len(s.Persons))
	hasParent := make(map[string]bool)
	for _, e := range s.Edges {
		out[e.From] = append(out[e.From], e)
		if e.Relation == graph.RelationParent {
			hasParent[e.To] = true
		}
	}

	sb.WriteString("digraph FamilyTree {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=ellipse, style=filled, fillcolor=lightblue, fontname=\"Arial\", fontsize=10];\n")
	sb.WriteString("  edge [fontname=\"Arial\", fontsize=8, color=gray];\n")
	sb.WriteString("  graph [bgcolor=white, ranksep=0.8, nodesep=0.5];\n")
	sb.WriteString("\n")

	visited := make(map[string]bool, len(s.Persons))
	walk := func(root string) {
		if visited[root] {
			return
		}
		visited[root] = true
		writeNode(&sb, persons[root])
		stack := []dotFrame{{id: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := out[top.id]
			if top.next >= len(edges) {
				stack = stack[:len(stack)-1]
				continue
			}
			e := edges[top.next]
			top.next++
			writeEdge(&sb, e)

			if visited[e.To] {
				continue
			}
			if opts.MaxDepth >= 0 && top.depth >= opts.MaxDepth {
				continue
			}
			visited[e.To] = true
			writeNode(&sb, persons[e.To])
			stack = append(stack, dotFrame{id: e.To, depth: top.depth + 1})
		}
	}

	if opts.Start != "" {
		walk(opts.Start)
	} else {
		for _, p := range s.Persons {
			if !hasParent[p.ID] {
				walk(p.ID)
			}
		}
		for _, p := range s.Persons {
			walk(p.ID)
		}
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

func writeNode(sb *strings.Builder, p graph.Person) {
	label := fmt.Sprintf("%s\\n(%s, %d)", escapeDOTLabel(p.Name), p.Gender, p.Age)
	sb.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", quoteDOTID(p.ID), label))
}

func writeEdge(sb *strings.Builder, e graph.Edge) {
	sb.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\", color=\"%s\"];\n",
		quoteDOTID(e.From), quoteDOTID(e.To), e.Relation, edgeColor(e.Relation)))
}

func quoteDOTID(s string) string {
	return "\"" + escapeDOTLabel(s) + "\""
}

func escapeDOTLabel(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", "\\n",
	)
	return replacer.Replace(s)
}
