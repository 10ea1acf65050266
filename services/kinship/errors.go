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
	"context"
	"errors"
	"net/http"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
	"github.com/AleutianAI/AleutianKin/services/kinship/render"
	kinbadger "github.com/AleutianAI/AleutianKin/services/kinship/storage/badger"
)

var (
	// ErrInvalidRequest is returned when a request fails validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAccountRequired is returned when a request names no account.
	ErrAccountRequired = errors.New("account required")

	// ErrUnauthorized is returned for missing or invalid bearer tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when an account exceeds its request rate.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMergeSelf is returned when an account is merged into itself.
	ErrMergeSelf = errors.New("cannot merge an account into itself")

	// ErrRelationshipNotFound is returned when deleting an absent edge.
	ErrRelationshipNotFound = errors.New("relationship not found")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
	{ErrAccountRequired, http.StatusBadRequest, "ACCOUNT_REQUIRED"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
	{ErrMergeSelf, http.StatusBadRequest, "MERGE_SELF"},
	{ErrRelationshipNotFound, http.StatusNotFound, "RELATIONSHIP_NOT_FOUND"},
	{kinbadger.ErrInvalidAccount, http.StatusBadRequest, "INVALID_ACCOUNT"},
	{render.ErrMalformedCSV, http.StatusBadRequest, "MALFORMED_CSV"},
	{graph.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{graph.ErrDuplicateID, http.StatusConflict, "DUPLICATE_ID"},
	{graph.ErrIDCollision, http.StatusConflict, "ID_COLLISION"},
	{graph.ErrSelfRelationship, http.StatusBadRequest, "SELF_RELATIONSHIP"},
	{graph.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{graph.ErrCycleDetected, http.StatusConflict, "CYCLE_DETECTED"},
	{graph.ErrInvalidRelationship, http.StatusBadRequest, "INVALID_RELATIONSHIP"},
	{graph.ErrInvalidPerson, http.StatusBadRequest, "INVALID_PERSON"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
	{context.Canceled, 499, "CANCELLED"},
}

// StatusFor maps an error to an HTTP status and a stable error code.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}
