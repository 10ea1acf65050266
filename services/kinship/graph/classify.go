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
)

// Fallback terms for paths that match no pattern.
const (
	TermSelf            = "self"
	TermRelative        = "relative"
	TermDistantRelative = "distant relative"
)

// term holds the male, female and neutral forms of one kinship term.
type term struct {
	male, female, neutral string
}

func (t term) pick(g Gender) string {
	switch g {
	case GenderMale:
		return t.male
	case GenderFemale:
		return t.female
	default:
		return t.neutral
	}
}

func neutral(s string) term { return term{s, s, s} }

var (
	termParent      = term{"father", "mother", "parent"}
	termChild       = term{"son", "daughter", "child"}
	termGrandparent = term{"grandfather", "grandmother", "grandparent"}
	termGrandchild  = term{"grandson", "granddaughter", "grandchild"}
)

var directTerms = map[Relation]term{
	RelationParent:   termParent,
	RelationChild:    termChild,
	RelationSibling:  {"brother", "sister", "sibling"},
	RelationMarried:  {"husband", "wife", "spouse"},
	RelationDivorced: {"ex-husband", "ex-wife", "ex-spouse"},
}

// rolePatterns maps a role sequence, written as its labels joined by ",",
// to a term. The key format matches roleKey.
var rolePatterns = map[string]term{
	"Parent,Parent":        termGrandparent,
	"Child,Child":          termGrandchild,
	"Parent,Parent,Parent": {"great-grandfather", "great-grandmother", "great-grandparent"},
	"Child,Child,Child":    {"great-grandson", "great-granddaughter", "great-grandchild"},
	"Parent,Sibling":       {"uncle", "aunt", "parent's sibling"},
	"Sibling,Child":        {"nephew", "niece", "sibling's child"},
	"Parent,Sibling,Child": neutral("cousin"),
	"Married,Parent":       {"father-in-law", "mother-in-law", "parent-in-law"},
	"Married,Sibling":      {"brother-in-law", "sister-in-law", "sibling-in-law"},
	"Sibling,Married":      {"brother-in-law", "sister-in-law", "sibling-in-law"},
	"Parent,Married":       {"stepfather", "stepmother", "step-parent"},
	"Child,Married":        {"stepson", "stepdaughter", "step-child"},
}

func roleKey(roles []Relation) string {
	labels := make([]string, len(roles))
	for i, r := range roles {
		labels[i] = r.String()
	}
	return strings.Join(labels, ",")
}

// Roles converts path steps into the role sequence Classify expects.
//
// A stored step (x→y, r) says what x is to y; the role is what y is to x,
// which is the complement of r.
func Roles(path []PathStep) []Relation {
	roles := make([]Relation, len(path))
	for i, step := range path {
		roles[i] = step.Relation.Complement()
	}
	return roles
}

// Classify names the person at the end of a role sequence.
//
// Description:
//
//	roles[i] is what the (i+1)th person on the path is to the ith. The
//	target's gender picks the gendered form; GenderOther gets the neutral
//	form. Paths of length 0 and 1 and the fixed patterns in rolePatterns
//	are exact. Anything longer is approximate: when more than two Parent
//	roles appear anywhere in the sequence the grandparent term gets
//	count-2 "great-" prefixes; failing that, more than two Child roles
//	give the grandchild term the same way. Otherwise the result
//	is "distant relative". Unmatched paths of two or three roles are
//	"relative".
//
// Inputs:
//
//	roles - The role sequence, usually Roles(path).
//	target - Gender of the last person on the path.
//
// Outputs:
//
//	string - The kinship term. Never empty.
func Classify(roles []Relation, target Gender) string {
	switch len(roles) {
	case 0:
		return TermSelf
	case 1:
		if t, ok := directTerms[roles[0]]; ok {
			return t.pick(target)
		}
		return TermRelative
	}

	if t, ok := rolePatterns[roleKey(roles)]; ok {
		return t.pick(target)
	}
	if len(roles) <= 3 {
		return TermRelative
	}

	var parents, children int
	for _, r := range roles {
		switch r {
		case RelationParent:
			parents++
		case RelationChild:
			children++
		}
	}
	switch {
	case parents > 2:
		return strings.Repeat("great-", parents-2) + termGrandparent.pick(target)
	case children > 2:
		return strings.Repeat("great-", children-2) + termGrandchild.pick(target)
	}
	return TermDistantRelative
}

// RelationshipResult is the outcome of RelationshipWithPath.
type RelationshipResult struct {
	// Term is the kinship term for what b is to a. Empty when unrelated.
	Term string `json:"relationship"`

	// Related is false when no path leads from a to b.
	Related bool `json:"is_related"`

	// Path holds the hops of the shortest path.
	Path []PathStep `json:"path"`

	// Narration describes each hop, joined by " → ". Only set for paths
	// longer than two hops.
	Narration string `json:"narration,omitempty"`
}

// Bidirectional holds two independently computed classifications.
type Bidirectional struct {
	Forward  string `json:"forward"`
	Backward string `json:"reverse"`
}

// Relationship returns what b is to a.
//
// Outputs:
//
//	string - The kinship term, or "" when unrelated.
//	bool - False when no path exists from a to b.
//	error - ErrNotFound when either ID is unknown.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) Relationship(a, b string) (string, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return "", false, err
	}
	term, _, ok := g.classifyLocked(a, b)
	return term, ok, nil
}

// RelationshipWithPath returns the term for what b is to a together with
// the path it was derived from.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) RelationshipWithPath(a, b string) (RelationshipResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return RelationshipResult{}, err
	}

	term, path, ok := g.classifyLocked(a, b)
	if !ok {
		return RelationshipResult{Path: []PathStep{}}, nil
	}
	res := RelationshipResult{Term: term, Related: a != b, Path: path}
	if len(path) > 2 {
		res.Narration = g.narrateLocked(path)
	}
	return res, nil
}

// BidirectionalRelationship classifies a→b and b→a with two separate
// searches. The backward term is not derived from the forward one.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) BidirectionalRelationship(a, b string) (Bidirectional, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePair(a, b); err != nil {
		return Bidirectional{}, err
	}
	forward, _, _ := g.classifyLocked(a, b)
	backward, _, _ := g.classifyLocked(b, a)
	return Bidirectional{Forward: forward, Backward: backward}, nil
}

func (g *FamilyGraph) classifyLocked(a, b string) (string, []PathStep, bool) {
	path, ok := g.shortestPathLocked(a, b, nil)
	if !ok {
		return "", nil, false
	}
	target, _ := g.persons.get(b)
	return Classify(Roles(path), target.Gender), path, true
}

var narrationVerbs = map[Relation]string{
	RelationParent:   "is parent of",
	RelationChild:    "is child of",
	RelationSibling:  "is sibling of",
	RelationMarried:  "is married to",
	RelationDivorced: "is divorced from",
}

func (g *FamilyGraph) narrateLocked(path []PathStep) string {
	parts := make([]string, len(path))
	for i, step := range path {
		parts[i] = fmt.Sprintf("%s %s %s", g.displayName(step.From), narrationVerbs[step.Relation], g.displayName(step.To))
	}
	return strings.Join(parts, " → ")
}

func (g *FamilyGraph) displayName(id string) string {
	if p, ok := g.persons.get(id); ok && p.Name != "" {
		return p.Name
	}
	return id
}

func (g *FamilyGraph) requirePair(a, b string) error {
	if err := g.requirePerson(a); err != nil {
		return err
	}
	return g.requirePerson(b)
}
