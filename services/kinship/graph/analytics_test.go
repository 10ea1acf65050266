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

func ids(persons []Person) []string {
	out := make([]string, 0, len(persons))
	for _, p := range persons {
		out = append(out, p.ID)
	}
	return out
}

func TestCommonAncestors(t *testing.T) {
	g := threeGenerations(t)

	t.Run("cousins share the grandparent", func(t *testing.T) {
		got, err := g.CommonAncestors("K", "Q")
		require.NoError(t, err)
		assert.Equal(t, []string{"G"}, ids(got))
	})

	t.Run("siblings share every ancestor", func(t *testing.T) {
		require.NoError(t, g.AddPerson(male("K2")))
		require.NoError(t, g.AddParentChild("P", "K2"))
		got, err := g.CommonAncestors("K", "K2")
		require.NoError(t, err)
		assert.Equal(t, []string{"G", "P"}, ids(got))
	})

	t.Run("in-laws share nothing", func(t *testing.T) {
		got, err := g.CommonAncestors("M", "U")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("unknown ID", func(t *testing.T) {
		_, err := g.CommonAncestors("K", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGenerationGap(t *testing.T) {
	g := threeGenerations(t)

	tests := []struct {
		name     string
		from, to string
		want     int
		ok       bool
	}{
		{"self", "K", "K", 0, true},
		{"parent", "K", "P", 1, true},
		{"grandparent", "K", "G", 2, true},
		{"downward", "G", "K", 2, true},
		{"cousin through ancestry only", "K", "Q", 4, true},
		{"spouse is not traversed", "K", "M", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gap, ok, err := g.GenerationGap(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, gap)
		})
	}

	_, _, err := g.GenerationGap("nobody", "K")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAreCousins(t *testing.T) {
	g := threeGenerations(t)

	tests := []struct {
		from, to string
		want     bool
	}{
		{"K", "Q", true},
		{"Q", "K", true},
		{"K", "P", false},
		{"K", "K", false},
		{"P", "U", false},
		{"K", "M", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"/"+tt.to, func(t *testing.T) {
			got, err := g.AreCousins(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComprehensiveAnalysis(t *testing.T) {
	g := threeGenerations(t)

	res, err := g.ComprehensiveAnalysis("K", "Q")
	require.NoError(t, err)

	assert.Equal(t, "K", res.Person1.ID)
	assert.Equal(t, "Q", res.Person2.ID)
	assert.Equal(t, "cousin", res.Relationship)
	assert.True(t, res.Related)
	assert.Equal(t, []string{"G"}, ids(res.CommonAncestors))
	assert.Len(t, res.Path, 3)
	assert.NotEmpty(t, res.Narration)
	assert.Equal(t, Bidirectional{Forward: "cousin", Backward: "cousin"}, res.Bidirectional)
	require.NotNil(t, res.GenerationGap)
	assert.Equal(t, 4, *res.GenerationGap)
	assert.True(t, res.Cousins)

	t.Run("unrelated pair", func(t *testing.T) {
		require.NoError(t, g.AddPerson(other("loner")))
		res, err := g.ComprehensiveAnalysis("K", "loner")
		require.NoError(t, err)
		assert.False(t, res.Related)
		assert.Empty(t, res.Relationship)
		assert.Empty(t, res.Path)
		assert.Nil(t, res.GenerationGap)
	})

	t.Run("unknown ID", func(t *testing.T) {
		_, err := g.ComprehensiveAnalysis("K", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
