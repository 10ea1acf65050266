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

// ImmediateFamily groups the single-hop relatives of one person.
type ImmediateFamily struct {
	Parents   []Person `json:"parents"`
	Children  []Person `json:"children"`
	Siblings  []Person `json:"siblings"`
	Spouses   []Person `json:"spouses"`
	ExSpouses []Person `json:"ex_spouses"`
}

// Relatives extends ImmediateFamily with the common two-hop groups.
type Relatives struct {
	ImmediateFamily
	Grandparents     []Person `json:"grandparents"`
	Grandchildren    []Person `json:"grandchildren"`
	UnclesAndAunts   []Person `json:"uncles_aunts"`
	Cousins          []Person `json:"cousins"`
	NiecesAndNephews []Person `json:"nieces_nephews"`
	InLaws           []Person `json:"in_laws"`
}

// ImmediateFamily returns the parents, children, siblings and (ex-)spouses
// of id. Each list is sorted by ID.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) ImmediateFamily(id string) (ImmediateFamily, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePerson(id); err != nil {
		return ImmediateFamily{}, err
	}
	return g.immediateFamilyLocked(id), nil
}

func (g *FamilyGraph) immediateFamilyLocked(id string) ImmediateFamily {
	return ImmediateFamily{
		Parents:   g.resolve(g.parentsOf(id)),
		Children:  g.resolve(g.childrenOf(id)),
		Siblings:  g.resolve(g.neighborsWith(id, RelationSibling)),
		Spouses:   g.resolve(g.neighborsWith(id, RelationMarried)),
		ExSpouses: g.resolve(g.neighborsWith(id, RelationDivorced)),
	}
}

// Grandparents returns the parents of id's parents.
func (g *FamilyGraph) Grandparents(id string) ([]Person, error) {
	return g.lookup(id, g.grandparentsLocked)
}

// Grandchildren returns the children of id's children.
func (g *FamilyGraph) Grandchildren(id string) ([]Person, error) {
	return g.lookup(id, g.grandchildrenLocked)
}

// UnclesAndAunts returns the siblings of id's parents.
func (g *FamilyGraph) UnclesAndAunts(id string) ([]Person, error) {
	return g.lookup(id, g.unclesAndAuntsLocked)
}

// Cousins returns the children of id's uncles and aunts.
func (g *FamilyGraph) Cousins(id string) ([]Person, error) {
	return g.lookup(id, g.cousinsLocked)
}

// NiecesAndNephews returns the children of id's siblings.
func (g *FamilyGraph) NiecesAndNephews(id string) ([]Person, error) {
	return g.lookup(id, g.niecesAndNephewsLocked)
}

// InLaws returns the parents and siblings of id's spouses and the spouses
// of id's siblings.
func (g *FamilyGraph) InLaws(id string) ([]Person, error) {
	return g.lookup(id, g.inLawsLocked)
}

// AllRelatives returns every family group for id in one consistent read.
//
// Thread Safety: Safe for concurrent use.
func (g *FamilyGraph) AllRelatives(id string) (Relatives, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePerson(id); err != nil {
		return Relatives{}, err
	}
	return Relatives{
		ImmediateFamily:  g.immediateFamilyLocked(id),
		Grandparents:     g.resolve(g.grandparentsLocked(id)),
		Grandchildren:    g.resolve(g.grandchildrenLocked(id)),
		UnclesAndAunts:   g.resolve(g.unclesAndAuntsLocked(id)),
		Cousins:          g.resolve(g.cousinsLocked(id)),
		NiecesAndNephews: g.resolve(g.niecesAndNephewsLocked(id)),
		InLaws:           g.resolve(g.inLawsLocked(id)),
	}, nil
}

func (g *FamilyGraph) lookup(id string, collect func(string) []string) ([]Person, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.requirePerson(id); err != nil {
		return nil, err
	}
	return g.resolve(collect(id)), nil
}

func (g *FamilyGraph) grandchildrenLocked(id string) []string {
	return g.expand(g.childrenOf(id), g.childrenOf, id)
}

func (g *FamilyGraph) unclesAndAuntsLocked(id string) []string {
	parents := g.parentsOf(id)
	exclude := map[string]bool{id: true}
	for _, p := range parents {
		exclude[p] = true
	}
	var out []string
	for _, s := range g.expand(parents, func(p string) []string { return g.neighborsWith(p, RelationSibling) }, id) {
		if !exclude[s] {
			out = append(out, s)
		}
	}
	return out
}

func (g *FamilyGraph) cousinsLocked(id string) []string {
	siblings := make(map[string]bool)
	for _, s := range g.neighborsWith(id, RelationSibling) {
		siblings[s] = true
	}
	var out []string
	for _, c := range g.expand(g.unclesAndAuntsLocked(id), g.childrenOf, id) {
		if !siblings[c] {
			out = append(out, c)
		}
	}
	return out
}

func (g *FamilyGraph) niecesAndNephewsLocked(id string) []string {
	return g.expand(g.neighborsWith(id, RelationSibling), g.childrenOf, id)
}

func (g *FamilyGraph) inLawsLocked(id string) []string {
	spouses := g.neighborsWith(id, RelationMarried)
	var out []string
	seen := map[string]bool{id: true}
	add := func(ids []string) {
		for _, v := range ids {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	for _, s := range spouses {
		seen[s] = true
	}
	for _, s := range spouses {
		add(g.parentsOf(s))
		add(g.neighborsWith(s, RelationSibling))
	}
	for _, sib := range g.neighborsWith(id, RelationSibling) {
		add(g.neighborsWith(sib, RelationMarried))
	}
	return out
}

// expand applies step to every ID in from and returns the distinct results,
// excluding self.
func (g *FamilyGraph) expand(from []string, step func(string) []string, self string) []string {
	seen := map[string]bool{self: true}
	var out []string
	for _, id := range from {
		for _, next := range step(id) {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
			}
		}
	}
	return out
}

// resolve maps IDs to Person copies, dropping unknown IDs.
func (g *FamilyGraph) resolve(ids []string) []Person {
	out := make([]Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := g.persons.get(id); ok {
			out = append(out, p)
		}
	}
	return out
}
