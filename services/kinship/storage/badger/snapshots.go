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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/AleutianKin/services/kinship/graph"
)

const (
	snapshotPrefix = "snapshot/"
	recordVersion  = 1
)

var (
	// ErrSnapshotNotFound is returned when an account has no stored graph.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidAccount is returned for empty or malformed account names.
	ErrInvalidAccount = errors.New("invalid account")
)

// Record is a stored family graph.
type Record struct {
	Account  string         `json:"account"`
	Revision int64          `json:"revision"`
	SavedAt  time.Time      `json:"saved_at"`
	Snapshot graph.Snapshot `json:"snapshot"`
}

type envelope struct {
	Version      int            `json:"version"`
	Account      string         `json:"account"`
	Revision     int64          `json:"revision"`
	SavedAtMilli int64          `json:"saved_at_milli"`
	Snapshot     graph.Snapshot `json:"snapshot"`
}

// SnapshotStore keeps one graph snapshot per account.
//
// Thread Safety: Safe for concurrent use.
type SnapshotStore struct {
	db  *DB
	now func() time.Time
}

// NewSnapshotStore creates a store over db.
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

// ValidateAccount checks that an account name can be used as a key segment.
func ValidateAccount(account string) error {
	if strings.TrimSpace(account) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAccount)
	}
	if strings.ContainsAny(account, "/\x00") {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidAccount, account)
	}
	return nil
}

func snapshotKey(account string) []byte {
	return []byte(snapshotPrefix + account)
}

// Save writes s as the account's current graph.
//
// Description:
//
//	Reads the previous revision and writes the new record in one
//	transaction. Concurrent saves for one account can fail with
//	badger.ErrConflict.
//
// Outputs:
//
//	Record - The stored record, including its new revision.
//	error - ErrInvalidAccount, a context error, or a BadgerDB failure.
func (s *SnapshotStore) Save(ctx context.Context, account string, snap graph.Snapshot) (Record, error) {
	if err := ValidateAccount(account); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		prev, err := readRecord(txn, account)
		if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
			return err
		}

		saved := s.now().UTC().Truncate(time.Millisecond)
		env := envelope{
			Version:      recordVersion,
			Account:      account,
			Revision:     prev.Revision + 1,
			SavedAtMilli: saved.UnixMilli(),
			Snapshot:     snap,
		}
		data, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encode snapshot for %s: %w", account, err)
		}
		if err := txn.Set(snapshotKey(account), data); err != nil {
			return fmt.Errorf("write snapshot for %s: %w", account, err)
		}
		rec = Record{Account: account, Revision: env.Revision, SavedAt: saved, Snapshot: snap}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Load returns the account's stored graph.
//
// Outputs:
//
//	Record - The stored record.
//	error - ErrSnapshotNotFound when the account has never been saved.
func (s *SnapshotStore) Load(ctx context.Context, account string) (Record, error) {
	if err := ValidateAccount(account); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, account)
		return err
	})
	return rec, err
}

// Delete removes the account's graph. Deleting a missing account is not an
// error.
func (s *SnapshotStore) Delete(ctx context.Context, account string) error {
	if err := ValidateAccount(account); err != nil {
		return err
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(account))
	})
}

// Accounts lists every account with a stored graph, in key order.
func (s *SnapshotStore) Accounts(ctx context.Context) ([]string, error) {
	accounts := []string{}
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(snapshotPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			accounts = append(accounts, strings.TrimPrefix(key, snapshotPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func readRecord(txn *badger.Txn, account string) (Record, error) {
	item, err := txn.Get(snapshotKey(account))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, account)
	}
	if err != nil {
		return Record{}, fmt.Errorf("read snapshot for %s: %w", account, err)
	}

	var env envelope
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &env)
	})
	if err != nil {
		return Record{}, fmt.Errorf("decode snapshot for %s: %w", account, err)
	}
	if env.Version != recordVersion {
		return Record{}, fmt.Errorf("snapshot for %s has unsupported version %d", account, env.Version)
	}
	if env.Snapshot.Persons == nil {
		env.Snapshot.Persons = []graph.Person{}
	}
	if env.Snapshot.Edges == nil {
		env.Snapshot.Edges = []graph.Edge{}
	}
	return Record{
		Account:  env.Account,
		Revision: env.Revision,
		SavedAt:  time.UnixMilli(env.SavedAtMilli).UTC(),
		Snapshot: env.Snapshot,
	}, nil
}
