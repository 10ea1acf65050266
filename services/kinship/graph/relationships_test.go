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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertEdge(t *testing.T, g *FamilyGraph, from, to string, want Relation) {
	t.Helper()
	got, ok := g.Relation(from, to)
	if assert.True(t, ok, "expected edge %s→%s", from, to) {
		assert.Equal(t, want, got, "edge %s→%s", from, to)
	}
}

func assertNoEdge(t *testing.T, g *FamilyGraph, from, to string) {
	t.Helper()
	_, ok := g.Relation(from, to)
	assert.False(t, ok, "unexpected edge %s→%s", from, to)
}

func TestAddRelationship_ParentCreatesComplement(t *testing.T) {
	g := newTestGraph(t, male("P1"), female("P2"), female("C1"))

	require.NoError(t, g.AddRelationship("P1", "C1", RelationParent))
	assertEdge(t, g, "P1", "C1", RelationParent)
	assertEdge(t, g, "C1", "P1", RelationChild)

	require.NoError(t, g.AddRelationship("P2", "C1", RelationParent))
	assertEdge(t, g, "C1", "P2", RelationChild)

	// Two parents of one child are not siblings of each other.
	assertNoEdge(t, g, "P1", "P2")
	assertNoEdge(t, g, "P2", "P1")
	assert.Equal(t, 4, g.EdgeCount())
}

func TestAddRelationship_ChildCreatesComplement(t *testing.T) {
	g := newTestGraph(t, male("P"), female("C"))

	require.NoError(t, g.AddRelationship("C", "P", RelationChild))
	assertEdge(t, g, "C", "P", RelationChild)
	assertEdge(t, g, "P", "C", RelationParent)
}

func TestAddRelationship_SiblingClosure(t *testing.T) {
	g := newTestGraph(t, male("P1"), female("C1"), male("C2"), female("C3"), male("C4"))

	require.NoError(t, g.AddParentChild("P1", "C1"))
	require.NoError(t, g.AddParentChild("P1", "C2"))
	assertEdge(t, g, "C1", "C2", RelationSibling)
	assertEdge(t, g, "C2", "C1", RelationSibling)

	// Child edges propagate through the target's children.
	require.NoError(t, g.AddRelationship("C3", "P1", RelationChild))
	for _, other := range []string{"C1", "C2"} {
		assertEdge(t, g, "C3", other, RelationSibling)
		assertEdge(t, g, other, "C3", RelationSibling)
	}

	t.Run("existing sibling pair is kept", func(t *testing.T) {
		require.NoError(t, g.AddSibling("C4", "C1"))
		require.NoError(t, g.AddParentChild("P1", "C4"))
		assertEdge(t, g, "C4", "C1", RelationSibling)
		assertEdge(t, g, "C4", "C3", RelationSibling)
		assert.NoError(t, g.Validate())
	})
}

func TestAddRelationship_SymmetricMirror(t *testing.T) {
	for _, r := range []Relation{RelationSibling, RelationMarried, RelationDivorced} {
		t.Run(r.String(), func(t *testing.T) {
			g := newTestGraph(t, male("A"), female("B"))
			require.NoError(t, g.AddRelationship("A", "B", r))
			assertEdge(t, g, "A", "B", r)
			assertEdge(t, g, "B", "A", r)
		})
	}
}

func TestAddRelationship_Failures(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		rel  Relation
		want error
	}{
		{"unknown relation", "K", "U", RelationUnknown, ErrInvalidRelationship},
		{"out of range relation", "K", "U", Relation(42), ErrInvalidRelationship},
		{"self", "K", "K", RelationSibling, ErrSelfRelationship},
		{"unknown source", "nobody", "K", RelationSibling, ErrNotFound},
		{"unknown target", "K", "nobody", RelationMarried, ErrNotFound},
		{"pair already related", "P", "M", RelationDivorced, ErrAlreadyExists},
		{"reverse pair conflicts", "M", "P", RelationParent, ErrAlreadyExists},
		{"direct cycle", "K", "P", RelationParent, ErrCycleDetected},
		{"deep cycle", "K", "G", RelationParent, ErrCycleDetected},
		{"cycle through child edge", "G", "Q", RelationChild, ErrCycleDetected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := threeGenerations(t)
			before := g.Edges()

			err := g.AddRelationship(tt.from, tt.to, tt.rel)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, g.Edges(), "nothing may be committed on failure")
		})
	}
}

func TestAddRelationship_SiblingClosureConflictCommitsNothing(t *testing.T) {
	g := newTestGraph(t, male("P"), female("C1"), male("C2"))
	require.NoError(t, g.AddParentChild("P", "C1"))
	require.NoError(t, g.AddMarriage("C1", "C2"))
	before := g.Edges()

	err := g.AddParentChild("P", "C2")
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, before, g.Edges())
	assertNoEdge(t, g, "P", "C2")
}

func TestDeleteRelationship(t *testing.T) {
	t.Run("removes edge and complement", func(t *testing.T) {
		g := threeGenerations(t)
		assert.True(t, g.DeleteRelationship("P", "K"))
		assertNoEdge(t, g, "P", "K")
		assertNoEdge(t, g, "K", "P")
	})

	t.Run("removes mirror", func(t *testing.T) {
		g := threeGenerations(t)
		assert.True(t, g.DeleteRelationship("M", "P"))
		assertNoEdge(t, g, "P", "M")
	})

	t.Run("missing edge is a no-op", func(t *testing.T) {
		g := threeGenerations(t)
		before := g.Edges()
		assert.False(t, g.DeleteRelationship("K", "Q"))
		assert.Equal(t, before, g.Edges())
	})

	t.Run("leaves non-matching reverse edge", func(t *testing.T) {
		g := newTestGraph(t, male("A"), female("B"))
		g.setEdge("A", "B", RelationMarried)
		g.setEdge("B", "A", RelationSibling)

		assert.True(t, g.DeleteRelationship("A", "B"))
		assertEdge(t, g, "B", "A", RelationSibling)
	})
}

func TestDeleteThenAdd_ReproducesEdges(t *testing.T) {
	g := newTestGraph(t, male("P"), female("C1"), male("C2"))
	require.NoError(t, g.AddParentChild("P", "C1"))
	require.NoError(t, g.AddParentChild("P", "C2"))
	want := g.Edges()

	require.True(t, g.DeleteRelationship("P", "C2"))
	require.NoError(t, g.AddRelationship("P", "C2", RelationParent))
	assert.Equal(t, want, g.Edges())
}

func TestEditRelationship(t *testing.T) {
	t.Run("married to divorced", func(t *testing.T) {
		g := threeGenerations(t)
		require.NoError(t, g.EditRelationship("P", "M", RelationDivorced))
		assertEdge(t, g, "P", "M", RelationDivorced)
		assertEdge(t, g, "M", "P", RelationDivorced)
	})

	t.Run("acts as add when no edge exists", func(t *testing.T) {
		g := threeGenerations(t)
		require.NoError(t, g.EditRelationship("K", "Q", RelationMarried))
		assertEdge(t, g, "Q", "K", RelationMarried)
	})

	t.Run("failure restores the original pair", func(t *testing.T) {
		g := threeGenerations(t)
		require.NoError(t, g.AddMarriage("K", "G"))
		before := g.Edges()

		err := g.EditRelationship("K", "G", RelationParent)
		assert.ErrorIs(t, err, ErrCycleDetected)
		assert.Equal(t, before, g.Edges())
		assertEdge(t, g, "G", "K", RelationMarried)
	})
}

func TestAddRelationship_BuildsValidGraphs(t *testing.T) {
	g := threeGenerations(t)
	require.NoError(t, g.AddPerson(female("S")))
	require.NoError(t, g.AddParentChild("P", "S"))
	require.NoError(t, g.AddRelationship("U", "M", RelationSibling))

	assert.NoError(t, g.Validate())
	assert.Empty(t, g.DetectAncestryCycles())
}
