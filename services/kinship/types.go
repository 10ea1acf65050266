// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package kinship

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianKin/services/kinship/cache"
	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

// Limits applied to request fields.
const (
	MaxIDLength   = 128
	MaxNameLength = 256
	MaxAge        = 200
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("relation", validateRelation)
	_ = requestValidate.RegisterValidation("gender", validateGender)
	_ = requestValidate.RegisterValidation("personid", validatePersonID)
}

func validateRelation(fl validator.FieldLevel) bool {
	_, err := graph.ParseRelation(fl.Field().String())
	return err == nil
}

func validateGender(fl validator.FieldLevel) bool {
	_, err := graph.ParseGender(fl.Field().String())
	return err == nil
}

func validatePersonID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return strings.TrimSpace(id) == id && !strings.ContainsAny(id, "\x00\n\r")
}

// validateStruct runs the request validator and wraps failures in
// ErrInvalidRequest with one message per field.
func validateStruct(v any) error {
	err := requestValidate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

// =============================================================================
// Persons
// =============================================================================

// PersonRequest creates a person. An empty ID is replaced by a UUID.
type PersonRequest struct {
	ID     string `json:"id" validate:"omitempty,max=128,personid"`
	Name   string `json:"name" validate:"max=256"`
	Gender string `json:"gender" validate:"omitempty,gender"`
	Age    int    `json:"age" validate:"gte=0,lte=200"`
}

// Validate checks field limits.
func (r PersonRequest) Validate() error {
	return validateStruct(r)
}

// Person converts the request to a graph person. Call Validate first.
func (r PersonRequest) Person() graph.Person {
	gender, _ := graph.ParseGender(r.Gender)
	return graph.Person{ID: r.ID, Name: r.Name, Gender: gender, Age: r.Age}
}

// PersonPatchRequest edits a person. Omitted fields are left unchanged.
type PersonPatchRequest struct {
	Name   *string `json:"name" validate:"omitempty,max=256"`
	Gender *string `json:"gender" validate:"omitempty,gender"`
	Age    *int    `json:"age" validate:"omitempty,gte=0,lte=200"`
}

// Validate checks field limits and that something is being changed.
func (r PersonPatchRequest) Validate() error {
	if r.Name == nil && r.Gender == nil && r.Age == nil {
		return fmt.Errorf("%w: nothing to change", ErrInvalidRequest)
	}
	return validateStruct(r)
}

// Patch converts the request to a graph patch. Call Validate first.
func (r PersonPatchRequest) Patch() graph.PersonPatch {
	patch := graph.PersonPatch{Name: r.Name, Age: r.Age}
	if r.Gender != nil {
		gender, _ := graph.ParseGender(*r.Gender)
		patch.Gender = &gender
	}
	return patch
}

// PersonsResponse lists persons.
type PersonsResponse struct {
	Persons []graph.Person `json:"persons"`
	Count   int            `json:"count"`
}

func newPersonsResponse(persons []graph.Person) PersonsResponse {
	if persons == nil {
		persons = []graph.Person{}
	}
	return PersonsResponse{Persons: persons, Count: len(persons)}
}

// =============================================================================
// Relationships
// =============================================================================

// RelationshipRequest adds or edits the relationship from From to To.
type RelationshipRequest struct {
	From     string `json:"from" validate:"required"`
	To       string `json:"to" validate:"required"`
	Relation string `json:"relation" validate:"required,relation"`
}

// Validate checks the endpoints and relation label.
func (r RelationshipRequest) Validate() error {
	return validateStruct(r)
}

// ParsedRelation returns the relation. Call Validate first.
func (r RelationshipRequest) ParsedRelation() graph.Relation {
	rel, _ := graph.ParseRelation(r.Relation)
	return rel
}

// =============================================================================
// Kinship queries
// =============================================================================

// PairRequest names the two persons of a pairwise query.
type PairRequest struct {
	Person1 string `json:"person1" validate:"required"`
	Person2 string `json:"person2" validate:"required"`
}

// Validate checks that both persons are named.
func (r PairRequest) Validate() error {
	return validateStruct(r)
}

// PathResponse is the shortest path between two persons.
type PathResponse struct {
	Found  bool             `json:"found"`
	Length int              `json:"length"`
	Path   []graph.PathStep `json:"path"`
}

// CommonAncestorsResponse lists shared ancestors.
type CommonAncestorsResponse struct {
	Ancestors []graph.Person `json:"common_ancestors"`
	Count     int            `json:"count"`
}

// GenerationGapResponse reports the Parent/Child hop count. Gap is
// null when no ancestry-only path exists.
type GenerationGapResponse struct {
	Related bool `json:"related"`
	Gap     *int `json:"generation_gap"`
}

// CousinsResponse reports whether two persons share a grandparent.
type CousinsResponse struct {
	Cousins bool `json:"are_cousins"`
}

// =============================================================================
// Audit
// =============================================================================

// CyclesResponse lists ancestry cycles.
type CyclesResponse struct {
	Cycles [][]string `json:"cycles"`
	Count  int        `json:"count"`
}

// ValidateResponse reports structural problems found by an audit.
type ValidateResponse struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

// =============================================================================
// Transfer
// =============================================================================

// CSVPayload carries the two CSV tables as text.
type CSVPayload struct {
	Members string `json:"members" validate:"required"`
	Edges   string `json:"edges"`
}

// Validate requires at least the members table.
func (p CSVPayload) Validate() error {
	return validateStruct(p)
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	Persons  int   `json:"persons"`
	Edges    int   `json:"edges"`
	Revision int64 `json:"revision"`
}

// LinkRequest is the optional bridging relationship of a merge.
type LinkRequest struct {
	From     string `json:"from" validate:"required"`
	To       string `json:"to" validate:"required"`
	Relation string `json:"relation" validate:"required,relation"`
}

// MergeRequest merges another account's graph into the caller's.
type MergeRequest struct {
	From string       `json:"from" validate:"required"`
	Link *LinkRequest `json:"link"`
}

// Validate checks the source account and the optional link.
func (r MergeRequest) Validate() error {
	return validateStruct(r)
}

// GraphLink converts the link, or returns nil. Call Validate first.
func (r MergeRequest) GraphLink() *graph.Link {
	if r.Link == nil {
		return nil
	}
	rel, _ := graph.ParseRelation(r.Link.Relation)
	return &graph.Link{From: r.Link.From, To: r.Link.To, Relation: rel}
}

// MergeResponse summarizes the merged graph.
type MergeResponse struct {
	Persons  int   `json:"persons"`
	Edges    int   `json:"edges"`
	Revision int64 `json:"revision"`
}

// =============================================================================
// Health
// =============================================================================

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse is returned by the readiness probe.
type ReadyResponse struct {
	Ready    bool        `json:"ready"`
	Accounts int         `json:"accounts"`
	Cache    cache.Stats `json:"cache"`
	Error    string      `json:"error,omitempty"`
}
