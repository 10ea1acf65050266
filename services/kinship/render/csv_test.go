// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

func TestCSV(t *testing.T) {
	out, err := CSV(parentAndChild(t))
	require.NoError(t, err)

	assert.Equal(t, "mid,name,age,gender\nP,Pat,50,M\nK,Kim,20,F\n", string(out.Members))
	assert.Equal(t, "from,to,relationship\nP,K,Parent\nK,P,Child\n", string(out.Edges))
}

func TestCSV_QuotesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMembersCSV(&buf, []graph.Person{{ID: "x", Name: "Smith, Jo", Gender: graph.GenderOther}}))
	assert.Contains(t, buf.String(), `x,"Smith, Jo",0,O`)
}

func TestParseCSV(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		want := parentAndChild(t)
		out, err := CSV(want)
		require.NoError(t, err)

		got, err := ParseCSV(bytes.NewReader(out.Members), bytes.NewReader(out.Edges))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("legacy labels", func(t *testing.T) {
		members := "mid,name,age,gender\na,Ann,,female\nb,Ben,3,\n"
		edges := "from,to,relationship\nb,a,Son-Daughter\n"
		got, err := ParseCSV(strings.NewReader(members), strings.NewReader(edges))
		require.NoError(t, err)
		assert.Equal(t, graph.GenderFemale, got.Persons[0].Gender)
		assert.Equal(t, graph.GenderOther, got.Persons[1].Gender)
		assert.Equal(t, graph.RelationChild, got.Edges[0].Relation)
	})

	tests := []struct {
		name    string
		members string
		edges   string
		want    error
	}{
		{"wrong header", "id,name,age,gender\n", "from,to,relationship\n", ErrMalformedCSV},
		{"empty members", "", "from,to,relationship\n", ErrMalformedCSV},
		{"bad age", "mid,name,age,gender\na,Ann,old,F\n", "from,to,relationship\n", ErrMalformedCSV},
		{"short row", "mid,name,age,gender\na,Ann\n", "from,to,relationship\n", ErrMalformedCSV},
		{"bad gender", "mid,name,age,gender\na,Ann,3,x\n", "from,to,relationship\n", graph.ErrInvalidPerson},
		{"bad relation", "mid,name,age,gender\n", "from,to,relationship\na,b,Cousin\n", graph.ErrInvalidRelationship},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.members), strings.NewReader(tt.edges))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
