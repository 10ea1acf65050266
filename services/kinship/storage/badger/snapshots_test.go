// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSnapshotStore(db)
}

func sampleSnapshot(t *testing.T) graph.Snapshot {
	t.Helper()
	g := graph.New()
	require.NoError(t, g.AddPerson(graph.Person{ID: "p", Name: "Pat", Gender: graph.GenderMale, Age: 60}))
	require.NoError(t, g.AddPerson(graph.Person{ID: "c", Name: "Cas", Gender: graph.GenderFemale, Age: 30}))
	require.NoError(t, g.AddParentChild("p", "c"))
	return g.Export()
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	snap := sampleSnapshot(t)
	rec, err := store.Save(ctx, "smith", snap)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Revision)

	loaded, err := store.Load(ctx, "smith")
	require.NoError(t, err)
	assert.Equal(t, "smith", loaded.Account)
	assert.Equal(t, int64(1), loaded.Revision)
	assert.True(t, fixed.Equal(loaded.SavedAt))
	assert.Equal(t, snap, loaded.Snapshot)

	rebuilt, err := graph.FromSnapshot(loaded.Snapshot)
	require.NoError(t, err)
	assert.NoError(t, rebuilt.Validate())

	t.Run("revision increments", func(t *testing.T) {
		rec, err := store.Save(ctx, "smith", graph.New().Export())
		require.NoError(t, err)
		assert.Equal(t, int64(2), rec.Revision)

		loaded, err := store.Load(ctx, "smith")
		require.NoError(t, err)
		assert.Empty(t, loaded.Snapshot.Persons)
		assert.NotNil(t, loaded.Snapshot.Edges)
	})
}

func TestSnapshotStore_Missing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	assert.NoError(t, store.Delete(context.Background(), "nobody"))
}

func TestSnapshotStore_AccountsAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, account := range []string{"jones", "adams", "smith"} {
		_, err := store.Save(ctx, account, sampleSnapshot(t))
		require.NoError(t, err)
	}

	accounts, err := store.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"adams", "jones", "smith"}, accounts)

	require.NoError(t, store.Delete(ctx, "jones"))
	accounts, err = store.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"adams", "smith"}, accounts)

	_, err = store.Load(ctx, "jones")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotStore_InvalidAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, account := range []string{"", "  ", "a/b"} {
		_, err := store.Save(ctx, account, graph.Snapshot{})
		assert.ErrorIs(t, err, ErrInvalidAccount, account)
		_, err = store.Load(ctx, account)
		assert.ErrorIs(t, err, ErrInvalidAccount, account)
	}
}

func TestSnapshotStore_CancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "smith", sampleSnapshot(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	t.Run("persistent database survives reopen", func(t *testing.T) {
		dir := t.TempDir()
		cfg := DefaultConfig()
		cfg.Path = dir
		cfg.GCInterval = time.Hour

		db, err := Open(cfg)
		require.NoError(t, err)
		_, err = NewSnapshotStore(db).Save(context.Background(), "smith", sampleSnapshot(t))
		require.NoError(t, err)
		require.NoError(t, db.Close())
		require.NoError(t, db.Close())

		db, err = Open(cfg)
		require.NoError(t, err)
		defer db.Close()
		assert.False(t, db.InMemory())

		rec, err := NewSnapshotStore(db).Load(context.Background(), "smith")
		require.NoError(t, err)
		assert.Len(t, rec.Snapshot.Persons, 2)
	})

	t.Run("path required", func(t *testing.T) {
		_, err := Open(DefaultConfig())
		assert.Error(t, err)
	})

	t.Run("bad discard ratio", func(t *testing.T) {
		cfg := InMemoryConfig()
		cfg.GCDiscardRatio = 2
		_, err := Open(cfg)
		assert.Error(t, err)
	})
}
