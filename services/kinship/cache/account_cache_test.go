// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

type countingLoader struct {
	calls int64
	err   error
	gate  chan struct{}
}

func (l *countingLoader) load(_ context.Context, account string) (*graph.FamilyGraph, error) {
	atomic.AddInt64(&l.calls, 1)
	if l.gate != nil {
		<-l.gate
	}
	if l.err != nil {
		return nil, l.err
	}
	g := graph.New()
	if err := g.AddPerson(graph.Person{ID: account}); err != nil {
		return nil, err
	}
	return g, nil
}

func TestAccountCache_GetLoadsOnce(t *testing.T) {
	loader := &countingLoader{}
	c := New(loader.load)
	ctx := context.Background()

	first, err := c.Get(ctx, "smith")
	require.NoError(t, err)
	second, err := c.Get(ctx, "smith")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&loader.calls))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Loads)
	assert.Equal(t, 1, stats.Accounts)
}

func TestAccountCache_ConcurrentMissesShareLoad(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	c := New(loader.load)

	const callers = 8
	results := make([]*graph.FamilyGraph, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := c.Get(context.Background(), "smith")
			assert.NoError(t, err)
			results[i] = g
		}(i)
	}

	// Let every goroutine reach the singleflight before releasing the load.
	time.Sleep(50 * time.Millisecond)
	close(loader.gate)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&loader.calls))
	for _, g := range results {
		assert.Same(t, results[0], g)
	}
}

func TestAccountCache_LoadErrorIsNotCached(t *testing.T) {
	boom := errors.New("boom")
	loader := &countingLoader{err: boom}
	c := New(loader.load)

	_, err := c.Get(context.Background(), "smith")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	loader.err = nil
	_, err = c.Get(context.Background(), "smith")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&loader.calls))
	assert.Equal(t, int64(1), c.Stats().LoadErrors)
}

func TestAccountCache_NilGraph(t *testing.T) {
	c := New(func(context.Context, string) (*graph.FamilyGraph, error) { return nil, nil })
	_, err := c.Get(context.Background(), "smith")
	assert.ErrorIs(t, err, ErrNilGraph)
	assert.ErrorIs(t, c.Put("smith", nil), ErrNilGraph)
}

func TestAccountCache_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	loader := &countingLoader{}
	c := New(loader.load, WithMaxAccounts(2), WithTTL(0))
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	_, err = c.Get(ctx, "b")
	require.NoError(t, err)
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	_, err = c.Get(ctx, "c")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)

	// "b" was least recently used and must be reloaded.
	_, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(4), atomic.LoadInt64(&loader.calls))
}

func TestAccountCache_TTL(t *testing.T) {
	loader := &countingLoader{}
	c := New(loader.load, WithTTL(time.Minute))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := c.Get(ctx, "smith")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = c.Get(ctx, "smith")
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&loader.calls))

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "smith")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&loader.calls))
}

func TestAccountCache_PutAndInvalidate(t *testing.T) {
	loader := &countingLoader{}
	c := New(loader.load)
	ctx := context.Background()

	replacement := graph.New()
	require.NoError(t, c.Put("smith", replacement))

	got, err := c.Get(ctx, "smith")
	require.NoError(t, err)
	assert.Same(t, replacement, got)
	assert.Equal(t, int64(0), atomic.LoadInt64(&loader.calls))

	c.Invalidate("smith")
	got, err = c.Get(ctx, "smith")
	require.NoError(t, err)
	assert.NotSame(t, replacement, got)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestAccountCache_PutDuringLoadWins(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	c := New(loader.load)

	done := make(chan *graph.FamilyGraph)
	go func() {
		g, err := c.Get(context.Background(), "smith")
		assert.NoError(t, err)
		done <- g
	}()

	for atomic.LoadInt64(&loader.calls) == 0 {
		time.Sleep(time.Millisecond)
	}
	fresh := graph.New()
	require.NoError(t, c.Put("smith", fresh))
	close(loader.gate)

	assert.Same(t, fresh, <-done)
}

func TestAccountCache_InvalidateDuringLoadDiscardsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int64
	load := func(_ context.Context, account string) (*graph.FamilyGraph, error) {
		g := graph.New()
		if atomic.AddInt64(&calls, 1) == 1 {
			close(started)
			<-release
			// The first load read the record that Invalidate is about to drop.
			if err := g.AddPerson(graph.Person{ID: "stale"}); err != nil {
				return nil, err
			}
		}
		return g, nil
	}

	tests := []struct {
		name string
		drop func(c *AccountCache)
	}{
		{"invalidate", func(c *AccountCache) { c.Invalidate("smith") }},
		{"clear", func(c *AccountCache) { c.Clear() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atomic.StoreInt64(&calls, 0)
			started = make(chan struct{})
			release = make(chan struct{})
			c := New(load)

			done := make(chan *graph.FamilyGraph)
			go func() {
				g, err := c.Get(context.Background(), "smith")
				assert.NoError(t, err)
				done <- g
			}()

			<-started
			tt.drop(c)
			close(release)

			got := <-done
			_, stale := got.Person("stale")
			assert.False(t, stale, "a load that overlapped the drop was returned")
			assert.Equal(t, int64(2), atomic.LoadInt64(&calls))

			cached, err := c.Get(context.Background(), "smith")
			require.NoError(t, err)
			assert.Same(t, got, cached)
			assert.Equal(t, 1, c.Len())
		})
	}
}
