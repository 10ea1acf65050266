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

const (
	P = RelationParent
	C = RelationChild
	S = RelationSibling
	W = RelationMarried
	D = RelationDivorced
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		roles  []Relation
		gender Gender
		want   string
	}{
		{"self", nil, GenderMale, "self"},
		{"father", []Relation{P}, GenderMale, "father"},
		{"mother", []Relation{P}, GenderFemale, "mother"},
		{"neutral parent", []Relation{P}, GenderOther, "parent"},
		{"daughter", []Relation{C}, GenderFemale, "daughter"},
		{"brother", []Relation{S}, GenderMale, "brother"},
		{"wife", []Relation{W}, GenderFemale, "wife"},
		{"ex-husband", []Relation{D}, GenderMale, "ex-husband"},
		{"neutral ex", []Relation{D}, GenderOther, "ex-spouse"},
		{"grandmother", []Relation{P, P}, GenderFemale, "grandmother"},
		{"grandson", []Relation{C, C}, GenderMale, "grandson"},
		{"great-grandfather", []Relation{P, P, P}, GenderMale, "great-grandfather"},
		{"great-grandchild", []Relation{C, C, C}, GenderOther, "great-grandchild"},
		{"aunt", []Relation{P, S}, GenderFemale, "aunt"},
		{"nephew", []Relation{S, C}, GenderMale, "nephew"},
		{"cousin", []Relation{P, S, C}, GenderFemale, "cousin"},
		{"mother-in-law", []Relation{W, P}, GenderFemale, "mother-in-law"},
		{"brother-in-law via spouse", []Relation{W, S}, GenderMale, "brother-in-law"},
		{"sister-in-law via sibling", []Relation{S, W}, GenderFemale, "sister-in-law"},
		{"stepfather", []Relation{P, W}, GenderMale, "stepfather"},
		{"step-child", []Relation{C, W}, GenderOther, "step-child"},
		{"unmatched pair", []Relation{W, W}, GenderMale, "relative"},
		{"unmatched triple", []Relation{S, S, S}, GenderMale, "relative"},
		{"great-great-grandfather", []Relation{P, P, P, P}, GenderMale, "great-great-grandfather"},
		{"great-great-great-granddaughter", []Relation{C, C, C, C, C}, GenderFemale, "great-great-great-granddaughter"},
		{"mixed long path with three parents", []Relation{P, S, P, P}, GenderMale, "great-grandfather"},
		{"mixed long path", []Relation{P, S, C, C}, GenderMale, "distant relative"},
		{"parent count is checked first", []Relation{P, P, P, C, C, C, C}, GenderMale, "great-grandfather"},
		{"in-law chain", []Relation{S, W, S, W}, GenderFemale, "distant relative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.roles, tt.gender))
		})
	}
}

func TestRoles(t *testing.T) {
	path := []PathStep{
		{From: "K", To: "P", Relation: RelationChild},
		{From: "P", To: "U", Relation: RelationSibling},
		{From: "U", To: "Q", Relation: RelationParent},
	}
	assert.Equal(t, []Relation{P, S, C}, Roles(path))
}

func TestRelationship_ParentChildScenario(t *testing.T) {
	g := newTestGraph(t, male("P1"), female("P2"), female("C1"))
	require.NoError(t, g.AddRelationship("P1", "C1", RelationParent))
	require.NoError(t, g.AddRelationship("P2", "C1", RelationParent))

	tests := []struct {
		from, to string
		want     string
	}{
		{"C1", "P1", "father"},
		{"C1", "P2", "mother"},
		{"P1", "C1", "daughter"},
		{"C1", "C1", "self"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"→"+tt.to, func(t *testing.T) {
			term, related, err := g.Relationship(tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, related)
			assert.Equal(t, tt.want, term)
		})
	}

	t.Run("co-parents fall back to relative", func(t *testing.T) {
		term, related, err := g.Relationship("P1", "P2")
		require.NoError(t, err)
		assert.True(t, related)
		assert.Equal(t, "relative", term)
	})

	t.Run("ancestry cycle rejected", func(t *testing.T) {
		err := g.AddRelationship("C1", "P1", RelationParent)
		assert.ErrorIs(t, err, ErrCycleDetected)
	})
}

func TestRelationship_ExtendedFamily(t *testing.T) {
	g := threeGenerations(t)

	tests := []struct {
		from, to string
		want     string
	}{
		{"K", "G", "grandfather"},
		{"G", "K", "granddaughter"},
		{"K", "U", "uncle"},
		{"U", "K", "niece"},
		{"K", "Q", "cousin"},
		{"K", "M", "stepmother"},
		{"M", "U", "brother-in-law"},
		{"U", "M", "sister-in-law"},
		{"M", "G", "father-in-law"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"→"+tt.to, func(t *testing.T) {
			term, related, err := g.Relationship(tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, related)
			assert.Equal(t, tt.want, term)
		})
	}
}

func TestRelationship_NotRelatedIsNotAnError(t *testing.T) {
	g := threeGenerations(t)
	require.NoError(t, g.AddPerson(other("loner")))

	term, related, err := g.Relationship("K", "loner")
	require.NoError(t, err)
	assert.False(t, related)
	assert.Empty(t, term)

	_, _, err = g.Relationship("K", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelationshipWithPath(t *testing.T) {
	g := threeGenerations(t)

	t.Run("short path has no narration", func(t *testing.T) {
		res, err := g.RelationshipWithPath("K", "U")
		require.NoError(t, err)
		assert.Equal(t, "uncle", res.Term)
		assert.True(t, res.Related)
		assert.Len(t, res.Path, 2)
		assert.Empty(t, res.Narration)
	})

	t.Run("long path is narrated", func(t *testing.T) {
		res, err := g.RelationshipWithPath("K", "Q")
		require.NoError(t, err)
		assert.Equal(t, "cousin", res.Term)
		assert.Equal(t, "K is child of P → P is sibling of U → U is parent of Q", res.Narration)
	})

	t.Run("self", func(t *testing.T) {
		res, err := g.RelationshipWithPath("K", "K")
		require.NoError(t, err)
		assert.Equal(t, "self", res.Term)
		assert.False(t, res.Related)
		assert.Empty(t, res.Path)
	})

	t.Run("unknown ID", func(t *testing.T) {
		_, err := g.RelationshipWithPath("K", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBidirectionalRelationship(t *testing.T) {
	g := threeGenerations(t)

	res, err := g.BidirectionalRelationship("K", "U")
	require.NoError(t, err)
	assert.Equal(t, Bidirectional{Forward: "uncle", Backward: "niece"}, res)

	res, err = g.BidirectionalRelationship("Q", "G")
	require.NoError(t, err)
	assert.Equal(t, Bidirectional{Forward: "grandfather", Backward: "grandson"}, res)
}
