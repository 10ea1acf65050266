// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package kinship serves family graphs over HTTP.
//
// Each account owns one graph. Reads are served from an in-memory cache;
// mutations run on a copy of the graph, are persisted to BadgerDB and only
// then replace the cached graph, so memory never runs ahead of disk.
package kinship

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianKin/services/kinship/cache"
	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
	kinbadger "github.com/AleutianAI/AleutianKin/services/kinship/storage/badger"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

var tracer = otel.Tracer("aleutian.kinship")

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCacheOptions configures the account cache.
func WithCacheOptions(opts ...cache.Option) ServiceOption {
	return func(s *Service) {
		s.cacheOpts = append(s.cacheOpts, opts...)
	}
}

// WithMetrics records mutation outcomes in m.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service is the account-scoped kinship API shared by the HTTP handlers and
// the CLI.
//
// Thread Safety:
//
//	Safe for concurrent use. Mutations for one account are serialized;
//	reads never block on mutations.
type Service struct {
	store     *kinbadger.SnapshotStore
	cache     *cache.AccountCache
	cacheOpts []cache.Option
	locks     *accountLocks
	logger    *slog.Logger
	metrics   *Metrics
}

// NewService creates a service persisting to store.
func NewService(store *kinbadger.SnapshotStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		locks:  newAccountLocks(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = cache.New(s.loadGraph, s.cacheOpts...)
	return s
}

func (s *Service) loadGraph(ctx context.Context, account string) (*graph.FamilyGraph, error) {
	rec, err := s.store.Load(ctx, account)
	if errors.Is(err, kinbadger.ErrSnapshotNotFound) {
		return graph.New(), nil
	}
	if err != nil {
		return nil, err
	}
	g, err := graph.FromSnapshot(rec.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("rebuild graph for %s: %w", account, err)
	}
	s.logger.Debug("account graph loaded",
		slog.String("account", account),
		slog.Int("persons", g.Len()),
		slog.Int64("revision", rec.Revision))
	return g, nil
}

func startSpan(ctx context.Context, op, account string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Service."+op,
		trace.WithAttributes(attribute.String("kinship.account", account)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// view returns the account's current graph for reading.
func (s *Service) view(ctx context.Context, account string) (*graph.FamilyGraph, error) {
	if err := kinbadger.ValidateAccount(account); err != nil {
		return nil, err
	}
	return s.cache.Get(ctx, account)
}

// mutate applies fn to a copy of the account's graph, persists the copy and
// publishes it. When fn returns an error nothing is persisted.
func (s *Service) mutate(ctx context.Context, account, op string, fn func(g *graph.FamilyGraph) error) (rec kinbadger.Record, err error) {
	ctx, span := startSpan(ctx, op, account)
	defer func() {
		endSpan(span, err)
		s.metrics.observeMutation(op, err)
	}()

	if err := kinbadger.ValidateAccount(account); err != nil {
		return kinbadger.Record{}, err
	}

	unlock := s.locks.lock(account)
	defer unlock()

	current, err := s.cache.Get(ctx, account)
	if err != nil {
		return kinbadger.Record{}, err
	}
	work := current.Clone()
	if err := fn(work); err != nil {
		return kinbadger.Record{}, err
	}

	rec, err = s.store.Save(ctx, account, work.Export())
	if err != nil {
		return kinbadger.Record{}, fmt.Errorf("persist %s: %w", account, err)
	}
	if err := s.cache.Put(account, work); err != nil {
		return kinbadger.Record{}, err
	}

	span.SetAttributes(attribute.Int64("kinship.revision", rec.Revision))
	s.logger.Debug("account graph updated",
		slog.String("account", account),
		slog.String("op", op),
		slog.Int64("revision", rec.Revision))
	return rec, nil
}

// =============================================================================
// Persons
// =============================================================================

// AddPerson inserts p, generating an ID when p.ID is empty.
func (s *Service) AddPerson(ctx context.Context, account string, p graph.Person) (graph.Person, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var added graph.Person
	_, err := s.mutate(ctx, account, "AddPerson", func(g *graph.FamilyGraph) error {
		if err := g.AddPerson(p); err != nil {
			return err
		}
		added, _ = g.Person(p.ID)
		return nil
	})
	return added, err
}

// EditPerson applies patch to the person with id.
func (s *Service) EditPerson(ctx context.Context, account, id string, patch graph.PersonPatch) (graph.Person, error) {
	var edited graph.Person
	_, err := s.mutate(ctx, account, "EditPerson", func(g *graph.FamilyGraph) error {
		var err error
		edited, err = g.EditPerson(id, patch)
		return err
	})
	return edited, err
}

// RemovePerson deletes a person and every edge touching it.
func (s *Service) RemovePerson(ctx context.Context, account, id string) error {
	_, err := s.mutate(ctx, account, "RemovePerson", func(g *graph.FamilyGraph) error {
		return g.RemovePerson(id)
	})
	return err
}

// Person returns one person.
func (s *Service) Person(ctx context.Context, account, id string) (graph.Person, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return graph.Person{}, err
	}
	p, ok := g.Person(id)
	if !ok {
		return graph.Person{}, fmt.Errorf("person %s: %w", id, graph.ErrNotFound)
	}
	return p, nil
}

// Persons lists every person in insertion order.
func (s *Service) Persons(ctx context.Context, account string) ([]graph.Person, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return nil, err
	}
	return g.Persons(), nil
}

// SearchPersons matches names against a glob pattern.
func (s *Service) SearchPersons(ctx context.Context, account, pattern string) ([]graph.Person, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return nil, err
	}
	return g.SearchPersons(pattern)
}

// ImmediateFamily returns parents, children, siblings and spouses.
func (s *Service) ImmediateFamily(ctx context.Context, account, id string) (graph.ImmediateFamily, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return graph.ImmediateFamily{}, err
	}
	return g.ImmediateFamily(id)
}

// AllRelatives returns the immediate and extended family.
func (s *Service) AllRelatives(ctx context.Context, account, id string) (graph.Relatives, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return graph.Relatives{}, err
	}
	return g.AllRelatives(id)
}

// =============================================================================
// Relationships
// =============================================================================

// AddRelationship records that a relates to b as r.
func (s *Service) AddRelationship(ctx context.Context, account, a, b string, r graph.Relation) error {
	_, err := s.mutate(ctx, account, "AddRelationship", func(g *graph.FamilyGraph) error {
		return g.AddRelationship(a, b, r)
	})
	return err
}

// EditRelationship replaces the relationship between a and b.
func (s *Service) EditRelationship(ctx context.Context, account, a, b string, r graph.Relation) error {
	_, err := s.mutate(ctx, account, "EditRelationship", func(g *graph.FamilyGraph) error {
		return g.EditRelationship(a, b, r)
	})
	return err
}

// DeleteRelationship removes the relationship between a and b.
//
// Outputs:
//
//	error - ErrRelationshipNotFound when no edge joined them.
func (s *Service) DeleteRelationship(ctx context.Context, account, a, b string) error {
	_, err := s.mutate(ctx, account, "DeleteRelationship", func(g *graph.FamilyGraph) error {
		if !g.DeleteRelationship(a, b) {
			return fmt.Errorf("%w: %s and %s", ErrRelationshipNotFound, a, b)
		}
		return nil
	})
	return err
}

// =============================================================================
// Kinship queries
// =============================================================================

// Relationship classifies how b relates to a, with the path and narration.
func (s *Service) Relationship(ctx context.Context, account, a, b string) (graph.RelationshipResult, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return graph.RelationshipResult{}, err
	}
	return g.RelationshipWithPath(a, b)
}

// ShortestPath returns the BFS path from a to b.
func (s *Service) ShortestPath(ctx context.Context, account, a, b string) ([]graph.PathStep, bool, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return nil, false, err
	}
	for _, id := range []string{a, b} {
		if _, ok := g.Person(id); !ok {
			return nil, false, fmt.Errorf("person %s: %w", id, graph.ErrNotFound)
		}
	}
	path, ok := g.ShortestPath(a, b)
	return path, ok, nil
}

// CommonAncestors returns the ancestors a and b share.
func (s *Service) CommonAncestors(ctx context.Context, account, a, b string) ([]graph.Person, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return nil, err
	}
	return g.CommonAncestors(a, b)
}

// Bidirectional classifies the pair in both directions.
func (s *Service) Bidirectional(ctx context.Context, account, a, b string) (graph.Bidirectional, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return graph.Bidirectional{}, err
	}
	return g.BidirectionalRelationship(a, b)
}

// Comprehensive runs every pairwise query on one consistent view.
func (s *Service) Comprehensive(ctx context.Context, account, a, b string) (graph.Analysis, error) {
	ctx, span := startSpan(ctx, "Comprehensive", account)
	g, err := s.view(ctx, account)
	if err != nil {
		endSpan(span, err)
		return graph.Analysis{}, err
	}
	analysis, err := g.ComprehensiveAnalysis(a, b)
	endSpan(span, err)
	return analysis, err
}

// GenerationGap returns the number of Parent/Child hops between a and b.
func (s *Service) GenerationGap(ctx context.Context, account, a, b string) (int, bool, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return 0, false, err
	}
	return g.GenerationGap(a, b)
}

// AreCousins reports whether a and b share a grandparent.
func (s *Service) AreCousins(ctx context.Context, account, a, b string) (bool, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return false, err
	}
	return g.AreCousins(a, b)
}

// =============================================================================
// Audit
// =============================================================================

// DetectCycles lists every ancestry cycle in the account's graph.
func (s *Service) DetectCycles(ctx context.Context, account string) ([][]string, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return nil, err
	}
	return g.DetectAncestryCycles(), nil
}

// Audit checks every structural invariant and returns one message per
// problem. An empty slice means the graph is consistent.
func (s *Service) Audit(ctx context.Context, account string) ([]string, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return nil, err
	}
	return problems(g.Validate()), nil
}

func problems(err error) []string {
	out := []string{}
	if err == nil {
		return out
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return append(out, err.Error())
}

// =============================================================================
// Transfer
// =============================================================================

// Export returns a snapshot of the account's graph.
func (s *Service) Export(ctx context.Context, account string) (graph.Snapshot, error) {
	g, err := s.view(ctx, account)
	if err != nil {
		return graph.Snapshot{}, err
	}
	return g.Export(), nil
}

// Import replaces the account's graph with snap. Every edge goes through the
// same checks as AddRelationship; on error the stored graph is unchanged.
func (s *Service) Import(ctx context.Context, account string, snap graph.Snapshot) (kinbadger.Record, error) {
	return s.mutate(ctx, account, "Import", func(g *graph.FamilyGraph) error {
		return g.Replace(snap)
	})
}

// Merge copies the graph of account from into account, optionally joined by
// link. The source account is not modified.
func (s *Service) Merge(ctx context.Context, account, from string, link *graph.Link) (kinbadger.Record, error) {
	if account == from {
		return kinbadger.Record{}, ErrMergeSelf
	}
	source, err := s.view(ctx, from)
	if err != nil {
		return kinbadger.Record{}, fmt.Errorf("source account %s: %w", from, err)
	}
	return s.mutate(ctx, account, "Merge", func(g *graph.FamilyGraph) error {
		return g.Merge(source, link)
	})
}

// DeleteAccount drops the account's stored graph.
func (s *Service) DeleteAccount(ctx context.Context, account string) error {
	if err := kinbadger.ValidateAccount(account); err != nil {
		return err
	}
	unlock := s.locks.lock(account)
	defer unlock()

	if err := s.store.Delete(ctx, account); err != nil {
		return err
	}
	s.cache.Invalidate(account)
	return nil
}

// Accounts lists the accounts with stored graphs.
func (s *Service) Accounts(ctx context.Context) ([]string, error) {
	return s.store.Accounts(ctx)
}

// CacheStats reports the account cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// =============================================================================
// Account locks
// =============================================================================

type accountLock struct {
	mu   sync.Mutex
	refs int
}

// accountLocks hands out one mutex per account and forgets it once no
// caller holds or waits for it.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*accountLock)}
}

func (l *accountLocks) lock(account string) func() {
	l.mu.Lock()
	al, ok := l.locks[account]
	if !ok {
		al = &accountLock{}
		l.locks[account] = al
	}
	al.refs++
	l.mu.Unlock()

	al.mu.Lock()
	return func() {
		al.mu.Unlock()
		l.mu.Lock()
		al.refs--
		if al.refs == 0 {
			delete(l.locks, account)
		}
		l.mu.Unlock()
	}
}
