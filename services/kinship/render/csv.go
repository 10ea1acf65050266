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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

var (
	memberHeader = []string{"mid", "name", "age", "gender"}
	edgeHeader   = []string{"from", "to", "relationship"}
)

// ErrMalformedCSV is returned when a CSV table cannot be parsed.
var ErrMalformedCSV = errors.New("malformed csv")

// CSVExport holds the two tables of a CSV export.
type CSVExport struct {
	Members []byte `json:"members"`
	Edges   []byte `json:"edges"`
}

// CSV renders a snapshot as a members table and an edges table.
func CSV(s graph.Snapshot) (CSVExport, error) {
	var members, edges bytes.Buffer
	if err := WriteMembersCSV(&members, s.Persons); err != nil {
		return CSVExport{}, err
	}
	if err := WriteEdgesCSV(&edges, s.Edges); err != nil {
		return CSVExport{}, err
	}
	return CSVExport{Members: members.Bytes(), Edges: edges.Bytes()}, nil
}

// WriteMembersCSV writes one row per person under a mid,name,age,gender header.
func WriteMembersCSV(w io.Writer, persons []graph.Person) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(memberHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range persons {
		row := []string{p.ID, p.Name, strconv.Itoa(p.Age), string(p.Gender)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write member %s: %w", p.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteEdgesCSV writes one row per edge under a from,to,relationship header.
func WriteEdgesCSV(w io.Writer, edges []graph.Edge) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(edgeHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range edges {
		if err := writer.Write([]string{e.From, e.To, e.Relation.String()}); err != nil {
			return fmt.Errorf("write edge %s→%s: %w", e.From, e.To, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ParseCSV reads the two tables written by CSV back into a snapshot.
//
// Relationship cells accept anything graph.ParseRelation does and gender
// cells anything graph.ParseGender does. The result has not been validated
// against the graph invariants; pass it to graph.FromSnapshot for that.
func ParseCSV(members, edges io.Reader) (graph.Snapshot, error) {
	s := graph.Snapshot{Persons: []graph.Person{}, Edges: []graph.Edge{}}

	rows, err := readTable(members, memberHeader)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("members: %w", err)
	}
	for i, row := range rows {
		age := 0
		if row[2] != "" {
			age, err = strconv.Atoi(row[2])
			if err != nil {
				return graph.Snapshot{}, fmt.Errorf("members row %d: age %q: %w", i+1, row[2], ErrMalformedCSV)
			}
		}
		gender, err := graph.ParseGender(row[3])
		if err != nil {
			return graph.Snapshot{}, fmt.Errorf("members row %d: %w", i+1, err)
		}
		s.Persons = append(s.Persons, graph.Person{ID: row[0], Name: row[1], Age: age, Gender: gender})
	}

	rows, err = readTable(edges, edgeHeader)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("edges: %w", err)
	}
	for i, row := range rows {
		r, err := graph.ParseRelation(row[2])
		if err != nil {
			return graph.Snapshot{}, fmt.Errorf("edges row %d: %w", i+1, err)
		}
		s.Edges = append(s.Edges, graph.Edge{From: row[0], To: row[1], Relation: r})
	}
	return s, nil
}

func readTable(r io.Reader, header []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedCSV)
	}
	for i, col := range header {
		if records[0][i] != col {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformedCSV, i+1, records[0][i], col)
		}
	}
	return records[1:], nil
}
