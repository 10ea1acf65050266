// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the in-memory kinship graph engine.
//
// A FamilyGraph holds Person records and a labeled directed graph over their
// identifiers. Each ordered pair carries at most one Relation. An edge
// (a→b, Parent) reads "a is parent of b".
//
// # Invariants
//
// After every successful mutation:
//   - every edge endpoint exists in the person store
//   - there are no self-loops
//   - (a→b, Parent) and (b→a, Child) always appear together
//   - Sibling, Married and Divorced edges are mirrored
//   - all children of one parent are pairwise siblings
//   - the Parent-only subgraph is acyclic
//
// Mutations are all-or-nothing: derived edges are staged and committed only
// after every precondition on the primary edge passes.
//
// # Thread Safety
//
// FamilyGraph guards its whole state with one RWMutex. Mutations hold the
// write lock for their full duration so readers never observe a partially
// propagated closure. Queries share the read lock.
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrNotFound is returned when an identifier is not in the person store.
	ErrNotFound = errors.New("person not found")

	// ErrDuplicateID is returned when adding a person whose identifier
	// already exists.
	ErrDuplicateID = errors.New("duplicate person ID")

	// ErrIDCollision is returned by Merge when both graphs share an identifier.
	ErrIDCollision = errors.New("person ID exists in both graphs")

	// ErrSelfRelationship is returned when both endpoints of a relationship
	// are the same person.
	ErrSelfRelationship = errors.New("person cannot be related to themselves")

	// ErrAlreadyExists is returned when the ordered pair already holds a
	// relation, or the reverse pair holds one that conflicts with the
	// complement the new edge would need.
	ErrAlreadyExists = errors.New("relationship already exists")

	// ErrCycleDetected is returned when a Parent edge would make a person
	// their own ancestor.
	ErrCycleDetected = errors.New("relationship would create an ancestry cycle")

	// ErrInvalidRelationship is returned for an unrecognized relation label
	// or code.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrInvalidPerson is returned for a person record that fails validation
	// (empty ID, negative age, unknown gender).
	ErrInvalidPerson = errors.New("invalid person")

	// ErrInvariantViolation is returned by Validate for each broken
	// structural invariant.
	ErrInvariantViolation = errors.New("graph invariant violated")
)
