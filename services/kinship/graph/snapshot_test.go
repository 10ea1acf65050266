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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	g := threeGenerations(t)
	require.NoError(t, g.AddPerson(female("K2")))
	require.NoError(t, g.AddParentChild("P", "K2"))
	want := g.Export()

	data, err := json.Marshal(want)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	rebuilt, err := FromSnapshot(decoded)
	require.NoError(t, err)
	assert.Equal(t, want, rebuilt.Export())
	assert.NoError(t, rebuilt.Validate())
}

func TestSnapshot_EdgeOrderDoesNotMatter(t *testing.T) {
	g := threeGenerations(t)
	want := g.Export()

	reversed := Snapshot{Persons: want.Persons}
	for i := len(want.Edges) - 1; i >= 0; i-- {
		reversed.Edges = append(reversed.Edges, want.Edges[i])
	}

	rebuilt, err := FromSnapshot(reversed)
	require.NoError(t, err)
	assert.Equal(t, want, rebuilt.Export())
}

func TestSnapshot_MissingComplementsAreCreated(t *testing.T) {
	s := Snapshot{
		Persons: []Person{male("P"), female("C")},
		Edges:   []Edge{{From: "P", To: "C", Relation: RelationParent}},
	}
	g, err := FromSnapshot(s)
	require.NoError(t, err)
	assertEdge(t, g, "C", "P", RelationChild)
}

func TestSnapshot_SiblingClosureIsDerived(t *testing.T) {
	s := Snapshot{
		Persons: []Person{male("P"), female("C1"), male("C2")},
		Edges: []Edge{
			{From: "P", To: "C1", Relation: RelationParent},
			{From: "P", To: "C2", Relation: RelationParent},
		},
	}
	g, err := FromSnapshot(s)
	require.NoError(t, err)
	assertEdge(t, g, "C1", "C2", RelationSibling)
	assertEdge(t, g, "C2", "C1", RelationSibling)
	assert.NoError(t, g.Validate())

	t.Run("conflicting pair is rejected", func(t *testing.T) {
		bad := s
		bad.Edges = append([]Edge{{From: "C1", To: "C2", Relation: RelationMarried}}, s.Edges...)
		_, err := FromSnapshot(bad)
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("explicit sibling records are skipped", func(t *testing.T) {
		withSiblings := s
		withSiblings.Edges = append(append([]Edge{}, s.Edges...),
			Edge{From: "C1", To: "C2", Relation: RelationSibling},
			Edge{From: "C2", To: "C1", Relation: RelationSibling},
		)
		rebuilt, err := FromSnapshot(withSiblings)
		require.NoError(t, err)
		assert.Equal(t, g.Export(), rebuilt.Export())
	})
}

func TestSnapshot_LegacyFormat(t *testing.T) {
	data := []byte(`{
		"persons": [
			{"mid": "p", "name": "Pat", "gender": "M", "age": 50},
			{"mid": "c", "name": "Cas", "gender": "female", "age": 20}
		],
		"edges": [
			{"from": "p", "to": "c", "relationship": "Parent"},
			{"from": "c", "to": "p", "relationship": "Son-Daughter"}
		]
	}`)

	var s Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	g, err := FromSnapshot(s)
	require.NoError(t, err)

	p, ok := g.Person("c")
	require.True(t, ok)
	assert.Equal(t, GenderFemale, p.Gender)
	assertEdge(t, g, "c", "p", RelationChild)

	t.Run("numeric codes", func(t *testing.T) {
		var s Snapshot
		require.NoError(t, json.Unmarshal([]byte(`{"persons":[{"id":"a"},{"id":"b"}],"edges":[{"from":"a","to":"b","relation":11}]}`), &s))
		g, err := FromSnapshot(s)
		require.NoError(t, err)
		assertEdge(t, g, "b", "a", RelationMarried)
	})
}

func TestSnapshot_ImportRunsAddChecks(t *testing.T) {
	people := []Person{other("A"), other("B"), other("C")}

	tests := []struct {
		name  string
		edges []Edge
		want  error
	}{
		{"unknown endpoint", []Edge{{From: "A", To: "Z", Relation: RelationSibling}}, ErrNotFound},
		{"self loop", []Edge{{From: "A", To: "A", Relation: RelationMarried}}, ErrSelfRelationship},
		{"conflicting pair", []Edge{
			{From: "A", To: "B", Relation: RelationMarried},
			{From: "A", To: "B", Relation: RelationSibling},
		}, ErrAlreadyExists},
		{"ancestry cycle", []Edge{
			{From: "A", To: "B", Relation: RelationParent},
			{From: "B", To: "C", Relation: RelationParent},
			{From: "C", To: "A", Relation: RelationParent},
		}, ErrCycleDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSnapshot(Snapshot{Persons: people, Edges: tt.edges})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("duplicate person", func(t *testing.T) {
		_, err := FromSnapshot(Snapshot{Persons: []Person{other("A"), other("A")}})
		assert.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("unknown relation label", func(t *testing.T) {
		var s Snapshot
		err := json.Unmarshal([]byte(`{"persons":[],"edges":[{"from":"a","to":"b","relation":"Cousin"}]}`), &s)
		assert.ErrorIs(t, err, ErrInvalidRelationship)
	})
}

func TestReplace(t *testing.T) {
	g := threeGenerations(t)
	before := g.Export()

	bad := Snapshot{Persons: []Person{other("A")}, Edges: []Edge{{From: "A", To: "A", Relation: RelationSibling}}}
	assert.Error(t, g.Replace(bad))
	assert.Equal(t, before, g.Export())

	require.NoError(t, g.Replace(Snapshot{Persons: []Person{other("A")}}))
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 0, g.EdgeCount())
}
