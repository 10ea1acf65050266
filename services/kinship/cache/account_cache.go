// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package cache keeps recently used account graphs in memory.
//
// Graphs are loaded on demand through a LoadFunc, usually backed by the
// snapshot store. Concurrent misses for one account share a single load.
// Entries are evicted least recently used first once MaxAccounts is
// reached, and expire after TTL.
package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

// ErrNilGraph is returned when a LoadFunc or Put supplies no graph.
var ErrNilGraph = errors.New("nil graph")

// LoadFunc produces the graph for an account on a cache miss.
type LoadFunc func(ctx context.Context, account string) (*graph.FamilyGraph, error)

type entry struct {
	account  string
	graph    *graph.FamilyGraph
	loadedAt time.Time
	elem     *list.Element
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Accounts    int           `json:"accounts"`
	MaxAccounts int           `json:"max_accounts"`
	TTL         time.Duration `json:"ttl"`
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	Evictions   int64         `json:"evictions"`
	Loads       int64         `json:"loads"`
	LoadErrors  int64         `json:"load_errors"`
}

// AccountCache maps account names to in-memory family graphs.
//
// Thread Safety:
//
//	Safe for concurrent use. The cache hands out shared *graph.FamilyGraph
//	values, which carry their own locking.
type AccountCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List
	flight  singleflight.Group
	load    LoadFunc
	options Options
	now     func() time.Time

	// generations counts Put and Invalidate calls per account; epoch counts
	// Clear calls. A load only publishes if neither moved while it ran.
	generations map[string]uint64
	epoch       uint64

	hits       int64
	misses     int64
	evictions  int64
	loads      int64
	loadErrors int64
}

// New creates a cache that fills misses with load.
func New(load LoadFunc, opts ...Option) *AccountCache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &AccountCache{
		entries:     make(map[string]*entry),
		lru:         list.New(),
		load:        load,
		options:     options,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
}

// Get returns the account's graph, loading it on a miss.
//
// Description:
//
//	Serves fresh entries from memory. On a miss or an expired entry the
//	LoadFunc runs once per account no matter how many callers are
//	waiting; every waiter receives the same graph. A graph stored with
//	Put while a load is in flight wins over the loaded one. A load that
//	overlaps Invalidate or Clear is discarded and run again, so a dropped
//	graph is never cached after the drop.
//
// Inputs:
//
//	ctx - Passed to the LoadFunc of the first caller.
//	account - The account name.
//
// Outputs:
//
//	*graph.FamilyGraph - The shared graph for the account.
//	error - Whatever the LoadFunc returned.
func (c *AccountCache) Get(ctx context.Context, account string) (*graph.FamilyGraph, error) {
	ctx, span := startCacheSpan(ctx, "Get", account)
	defer span.End()

	if g, ok := c.lookup(ctx, account); ok {
		atomic.AddInt64(&c.hits, 1)
		recordHit(ctx)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return g, nil
	}
	atomic.AddInt64(&c.misses, 1)
	recordMiss(ctx)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, shared := c.flight.Do(account, func() (interface{}, error) {
		return c.loadAndStore(ctx, account)
	})
	span.SetAttributes(attribute.Bool("cache.shared_load", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result.(*graph.FamilyGraph), nil
}

// Put stores g as the account's graph, replacing any cached one.
func (c *AccountCache) Put(account string, g *graph.FamilyGraph) error {
	if g == nil {
		return ErrNilGraph
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[account]++
	if e, ok := c.entries[account]; ok {
		e.graph = g
		e.loadedAt = c.now()
		c.lru.MoveToFront(e.elem)
		return nil
	}
	c.insertLocked(context.Background(), account, g)
	return nil
}

// Invalidate drops the account's graph so the next Get reloads it.
func (c *AccountCache) Invalidate(account string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[account]++
	if e, ok := c.entries[account]; ok {
		c.removeLocked(e)
	}
}

// Clear drops every cached graph.
func (c *AccountCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.entries = make(map[string]*entry)
	c.lru.Init()
}

// Len returns the number of cached accounts.
func (c *AccountCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the current counters.
func (c *AccountCache) Stats() Stats {
	return Stats{
		Accounts:    c.Len(),
		MaxAccounts: c.options.MaxAccounts,
		TTL:         c.options.TTL,
		Hits:        atomic.LoadInt64(&c.hits),
		Misses:      atomic.LoadInt64(&c.misses),
		Evictions:   atomic.LoadInt64(&c.evictions),
		Loads:       atomic.LoadInt64(&c.loads),
		LoadErrors:  atomic.LoadInt64(&c.loadErrors),
	}
}

func (c *AccountCache) lookup(ctx context.Context, account string) (*graph.FamilyGraph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[account]
	if !ok {
		return nil, false
	}
	if c.expiredLocked(e) {
		c.removeLocked(e)
		atomic.AddInt64(&c.evictions, 1)
		recordEviction(ctx, "expired")
		return nil, false
	}
	c.lru.MoveToFront(e.elem)
	return e.graph, true
}

// maxLoadAttempts bounds reloads after overlapping invalidations. Callers
// that serialize writes per account never need more than two.
const maxLoadAttempts = 3

func (c *AccountCache) loadAndStore(ctx context.Context, account string) (*graph.FamilyGraph, error) {
	for attempt := 1; ; attempt++ {
		c.mu.Lock()
		gen := c.generationLocked(account)
		c.mu.Unlock()

		g, err := c.loadOnce(ctx, account)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// Put may have stored a newer graph while the load ran.
		if e, ok := c.entries[account]; ok && !c.expiredLocked(e) {
			c.lru.MoveToFront(e.elem)
			c.mu.Unlock()
			return e.graph, nil
		}
		if c.generationLocked(account) == gen {
			if e, ok := c.entries[account]; ok {
				c.removeLocked(e)
			}
			c.insertLocked(ctx, account, g)
			c.mu.Unlock()
			return g, nil
		}
		c.mu.Unlock()

		if attempt == maxLoadAttempts {
			return g, nil
		}
	}
}

func (c *AccountCache) loadOnce(ctx context.Context, account string) (*graph.FamilyGraph, error) {
	atomic.AddInt64(&c.loads, 1)
	g, err := c.load(ctx, account)
	if err == nil && g == nil {
		err = fmt.Errorf("load %s: %w", account, ErrNilGraph)
	}
	if err != nil {
		atomic.AddInt64(&c.loadErrors, 1)
		recordLoad(ctx, false)
		return nil, err
	}
	recordLoad(ctx, true)
	return g, nil
}

func (c *AccountCache) generationLocked(account string) uint64 {
	return c.epoch + c.generations[account]
}

func (c *AccountCache) insertLocked(ctx context.Context, account string, g *graph.FamilyGraph) {
	if c.options.MaxAccounts > 0 {
		for len(c.entries) >= c.options.MaxAccounts {
			oldest := c.lru.Back()
			if oldest == nil {
				break
			}
			c.removeLocked(oldest.Value.(*entry))
			atomic.AddInt64(&c.evictions, 1)
			recordEviction(ctx, "capacity")
		}
	}
	e := &entry{account: account, graph: g, loadedAt: c.now()}
	e.elem = c.lru.PushFront(e)
	c.entries[account] = e
}

func (c *AccountCache) removeLocked(e *entry) {
	c.lru.Remove(e.elem)
	delete(c.entries, e.account)
}

func (c *AccountCache) expiredLocked(e *entry) bool {
	if c.options.TTL <= 0 {
		return false
	}
	return c.now().Sub(e.loadedAt) > c.options.TTL
}
