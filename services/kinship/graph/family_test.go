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

func TestImmediateFamily(t *testing.T) {
	g := threeGenerations(t)
	require.NoError(t, g.AddPerson(female("X")))
	require.NoError(t, g.AddRelationship("U", "X", RelationDivorced))

	fam, err := g.ImmediateFamily("P")
	require.NoError(t, err)
	assert.Equal(t, []string{"G"}, ids(fam.Parents))
	assert.Equal(t, []string{"K"}, ids(fam.Children))
	assert.Equal(t, []string{"U"}, ids(fam.Siblings))
	assert.Equal(t, []string{"M"}, ids(fam.Spouses))
	assert.Empty(t, fam.ExSpouses)

	fam, err = g.ImmediateFamily("U")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, ids(fam.ExSpouses))

	_, err = g.ImmediateFamily("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExtendedFamilyLookups(t *testing.T) {
	g := threeGenerations(t)
	require.NoError(t, g.AddPerson(female("UW")))
	require.NoError(t, g.AddMarriage("U", "UW"))

	tests := []struct {
		name   string
		lookup func(string) ([]Person, error)
		id     string
		want   []string
	}{
		{"grandparents", g.Grandparents, "K", []string{"G"}},
		{"grandchildren", g.Grandchildren, "G", []string{"K", "Q"}},
		{"uncles and aunts", g.UnclesAndAunts, "K", []string{"U"}},
		{"cousins", g.Cousins, "K", []string{"Q"}},
		{"nieces and nephews", g.NiecesAndNephews, "U", []string{"K"}},
		{"in-laws of spouse", g.InLaws, "M", []string{"G", "U"}},
		{"in-laws through sibling", g.InLaws, "P", []string{"UW"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestAllRelatives(t *testing.T) {
	g := threeGenerations(t)

	rel, err := g.AllRelatives("K")
	require.NoError(t, err)
	assert.Equal(t, []string{"P"}, ids(rel.Parents))
	assert.Equal(t, []string{"G"}, ids(rel.Grandparents))
	assert.Equal(t, []string{"U"}, ids(rel.UnclesAndAunts))
	assert.Equal(t, []string{"Q"}, ids(rel.Cousins))
	assert.Empty(t, rel.Grandchildren)

	_, err = g.AllRelatives("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
