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
	"fmt"
	"strconv"
	"strings"
)

// Relation is the label on a directed edge. An edge (a→b, r) reads
// "a is r of b".
type Relation int

const (
	// RelationUnknown is the zero value and never appears in a graph.
	RelationUnknown Relation = iota

	// RelationParent means the source is a parent of the target.
	RelationParent

	// RelationChild means the source is a child of the target.
	RelationChild

	// RelationSibling means the source and target share a parent.
	RelationSibling

	// RelationMarried means the source is married to the target.
	RelationMarried

	// RelationDivorced means the source is divorced from the target.
	RelationDivorced
)

// relationNames maps Relation values to their wire labels.
var relationNames = map[Relation]string{
	RelationUnknown:  "Unknown",
	RelationParent:   "Parent",
	RelationChild:    "Child",
	RelationSibling:  "Sibling",
	RelationMarried:  "Married",
	RelationDivorced: "Divorced",
}

// legacyRelationCodes are the numeric codes used by older snapshots.
var legacyRelationCodes = map[int]Relation{
	10: RelationDivorced,
	11: RelationMarried,
	12: RelationSibling,
	13: RelationParent,
	14: RelationChild,
}

// AllRelations lists every valid relation in declaration order.
var AllRelations = []Relation{
	RelationParent,
	RelationChild,
	RelationSibling,
	RelationMarried,
	RelationDivorced,
}

// String returns the wire label for the relation.
func (r Relation) String() string {
	if name, ok := relationNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether r is one of the five graph relations.
func (r Relation) Valid() bool {
	return r >= RelationParent && r <= RelationDivorced
}

// Complement returns the relation the reverse edge must carry.
//
// Parent and Child complement each other. Sibling, Married and Divorced
// are their own mirror.
func (r Relation) Complement() Relation {
	switch r {
	case RelationParent:
		return RelationChild
	case RelationChild:
		return RelationParent
	case RelationSibling, RelationMarried, RelationDivorced:
		return r
	default:
		return RelationUnknown
	}
}

// IsSymmetric reports whether the relation is its own complement.
func (r Relation) IsSymmetric() bool {
	return r == RelationSibling || r == RelationMarried || r == RelationDivorced
}

// IsAncestry reports whether the relation is Parent or Child.
func (r Relation) IsAncestry() bool {
	return r == RelationParent || r == RelationChild
}

// ParseRelation converts a label into a Relation.
//
// Description:
//
//	Accepts the canonical labels case-insensitively, the legacy label
//	"Son-Daughter" for Child, and the legacy numeric codes 10 through 14.
//	This is the only place labels are interpreted; everything inside the
//	package works with the typed value.
//
// Inputs:
//
//	s - The label or numeric code.
//
// Outputs:
//
//	Relation - The parsed relation.
//	error - Wraps ErrInvalidRelationship if s is not recognized.
func ParseRelation(s string) (Relation, error) {
	label := strings.TrimSpace(s)
	if code, err := strconv.Atoi(label); err == nil {
		if r, ok := legacyRelationCodes[code]; ok {
			return r, nil
		}
		return RelationUnknown, fmt.Errorf("%w: code %d", ErrInvalidRelationship, code)
	}
	switch strings.ToLower(label) {
	case "parent":
		return RelationParent, nil
	case "child", "son-daughter":
		return RelationChild, nil
	case "sibling":
		return RelationSibling, nil
	case "married", "spouse":
		return RelationMarried, nil
	case "divorced":
		return RelationDivorced, nil
	}
	return RelationUnknown, fmt.Errorf("%w: %q", ErrInvalidRelationship, s)
}

// MarshalText encodes the relation as its label.
func (r Relation) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRelationship, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a label via ParseRelation.
func (r *Relation) UnmarshalText(text []byte) error {
	parsed, err := ParseRelation(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalJSON accepts either a label string or a legacy numeric code.
func (r *Relation) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		return r.UnmarshalText([]byte(label))
	}
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRelationship, string(data))
	}
	return r.UnmarshalText([]byte(strconv.Itoa(code)))
}

// Gender selects gendered kinship terms. It carries no other meaning.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// ParseGender normalizes a gender tag. The empty string maps to GenderOther.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale, nil
	case "f", "female":
		return GenderFemale, nil
	case "", "o", "other":
		return GenderOther, nil
	}
	return "", fmt.Errorf("%w: gender %q", ErrInvalidPerson, s)
}

// UnmarshalText normalizes the tag via ParseGender.
func (g *Gender) UnmarshalText(text []byte) error {
	parsed, err := ParseGender(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Person is one member of a family graph.
type Person struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
	Age    int    `json:"age"`
}

// UnmarshalJSON accepts the legacy "mid" key for the identifier.
func (p *Person) UnmarshalJSON(data []byte) error {
	type plain Person
	var aux struct {
		plain
		MID string `json:"mid"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Person(aux.plain)
	if p.ID == "" {
		p.ID = aux.MID
	}
	if p.Gender == "" {
		p.Gender = GenderOther
	}
	return nil
}

func (p Person) validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty ID", ErrInvalidPerson)
	}
	if p.Age < 0 {
		return fmt.Errorf("%w: negative age %d for %s", ErrInvalidPerson, p.Age, p.ID)
	}
	if _, err := ParseGender(string(p.Gender)); err != nil {
		return err
	}
	return nil
}

// PersonPatch carries the fields to change in EditPerson. Nil fields are
// left untouched.
type PersonPatch struct {
	Name   *string `json:"name,omitempty"`
	Gender *Gender `json:"gender,omitempty"`
	Age    *int    `json:"age,omitempty"`
}

// Edge is one stored directed edge.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
}

// UnmarshalJSON accepts the legacy "relationship" key for the relation.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var aux struct {
		From         string          `json:"from"`
		To           string          `json:"to"`
		Relation     json.RawMessage `json:"relation"`
		Relationship json.RawMessage `json:"relationship"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	raw := aux.Relation
	if len(raw) == 0 {
		raw = aux.Relationship
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: edge %s→%s has no relation", ErrInvalidRelationship, aux.From, aux.To)
	}
	var r Relation
	if err := r.UnmarshalJSON(raw); err != nil {
		return err
	}
	e.From, e.To, e.Relation = aux.From, aux.To, r
	return nil
}

// PathStep is one hop along a shortest path.
type PathStep struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
}

// Link is the optional bridging relationship applied after a merge.
type Link struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
}
