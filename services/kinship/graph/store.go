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
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// personStore holds Person records keyed by ID and remembers insertion
// order so iteration is stable.
//
// Not safe for concurrent use; FamilyGraph serializes access.
type personStore struct {
	byID  map[string]*Person
	order []string
}

func newPersonStore() *personStore {
	return &personStore{byID: make(map[string]*Person)}
}

func (s *personStore) has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *personStore) get(id string) (Person, bool) {
	p, ok := s.byID[id]
	if !ok {
		return Person{}, false
	}
	return *p, true
}

func (s *personStore) insert(p Person) error {
	if err := p.validate(); err != nil {
		return err
	}
	if s.has(p.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
	}
	stored := p
	s.byID[p.ID] = &stored
	s.order = append(s.order, p.ID)
	return nil
}

func (s *personStore) remove(id string) bool {
	if !s.has(id) {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// ids returns a copy of the identifiers in insertion order.
func (s *personStore) ids() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *personStore) all() []Person {
	out := make([]Person, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

func (s *personStore) len() int {
	return len(s.order)
}

// search returns every person whose name matches the glob pattern,
// case-insensitively. A pattern without glob metacharacters matches as a
// substring.
func (s *personStore) search(pattern string) ([]Person, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if !strings.ContainsAny(pattern, "*?[{") {
		pattern = "*" + pattern + "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	var out []Person
	for _, id := range s.order {
		p := s.byID[id]
		if g.Match(strings.ToLower(p.Name)) {
			out = append(out, *p)
		}
	}
	return out, nil
}
