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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAncestor(t *testing.T) {
	g := threeGenerations(t)

	tests := []struct {
		candidate, node string
		want            bool
	}{
		{"P", "K", true},
		{"G", "K", true},
		{"G", "Q", true},
		{"K", "G", false},
		{"U", "K", false},
		{"M", "K", false},
		{"K", "K", false},
		{"nobody", "K", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s of %s", tt.candidate, tt.node), func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsAncestor(tt.candidate, tt.node))
		})
	}
}

func TestIsAncestor_DeepChainDoesNotRecurse(t *testing.T) {
	g := New()
	const depth = 5000
	for i := 0; i < depth; i++ {
		require.NoError(t, g.AddPerson(other(fmt.Sprintf("n%04d", i))))
	}
	for i := 1; i < depth; i++ {
		g.setEdge(fmt.Sprintf("n%04d", i-1), fmt.Sprintf("n%04d", i), RelationParent)
		g.setEdge(fmt.Sprintf("n%04d", i), fmt.Sprintf("n%04d", i-1), RelationChild)
	}

	assert.True(t, g.IsAncestor("n0000", fmt.Sprintf("n%04d", depth-1)))
	assert.Empty(t, g.DetectAncestryCycles())
}

func TestDetectAncestryCycles(t *testing.T) {
	t.Run("acyclic graph", func(t *testing.T) {
		assert.Empty(t, threeGenerations(t).DetectAncestryCycles())
	})

	t.Run("empty graph", func(t *testing.T) {
		assert.Empty(t, New().DetectAncestryCycles())
	})

	t.Run("injected three-cycle", func(t *testing.T) {
		g := newTestGraph(t, other("A"), other("B"), other("C"), other("D"))
		g.setEdge("A", "B", RelationParent)
		g.setEdge("B", "C", RelationParent)
		g.setEdge("C", "A", RelationParent)
		g.setEdge("C", "D", RelationParent)

		cycles := g.DetectAncestryCycles()
		require.Len(t, cycles, 1)
		assert.Equal(t, []string{"A", "B", "C", "A"}, cycles[0])
	})

	t.Run("two disjoint cycles", func(t *testing.T) {
		g := newTestGraph(t, other("A"), other("B"), other("X"), other("Y"))
		g.setEdge("A", "B", RelationParent)
		g.setEdge("B", "A", RelationParent)
		g.setEdge("X", "Y", RelationParent)
		g.setEdge("Y", "X", RelationParent)

		cycles := g.DetectAncestryCycles()
		assert.Equal(t, [][]string{{"A", "B", "A"}, {"X", "Y", "X"}}, cycles)
	})

	t.Run("non-parent edges are ignored", func(t *testing.T) {
		g := newTestGraph(t, other("A"), other("B"))
		require.NoError(t, g.AddSibling("A", "B"))
		assert.Empty(t, g.DetectAncestryCycles())
	})
}
