// Package session holds the per-session allow-list of file ids a client may
// reference when attaching files to a record. An id lands in the set only
// when the same session uploaded it, started its chunk transfer, or was
// handed it from an existing record association. Ids presented at save time
// that are not in the set are rejected; this is the anti-spoofing gate for
// client-controlled form data.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Tracker is the narrow interface handlers depend on. The set only ever
// grows within a session; reverting an upload does not untrack its id.
type Tracker interface {
	Track(ctx context.Context, sessionID string, fileID uint) error
	Contains(ctx context.Context, sessionID string, fileID uint) (bool, error)
	IDs(ctx context.Context, sessionID string) ([]uint, error)
}

// NoopTracker satisfies Tracker for offline tools that never authorize
// saves, like the sweep command.
type NoopTracker struct{}

func (NoopTracker) Track(context.Context, string, uint) error { return nil }
func (NoopTracker) Contains(context.Context, string, uint) (bool, error) {
	return false, nil
}
func (NoopTracker) IDs(context.Context, string) ([]uint, error) { return nil, nil }

// BadgerTracker persists tracked ids in a badger keystore so they survive
// process restarts for the lifetime of the session.
type BadgerTracker struct {
	db  *badger.DB
	ttl time.Duration
}

func NewBadgerTracker(db *badger.DB, ttl time.Duration) *BadgerTracker {
	return &BadgerTracker{db: db, ttl: ttl}
}

func key(sessionID string, fileID uint) []byte {
	return []byte(fmt.Sprintf("tracked:%s:%d", sessionID, fileID))
}

func (t *BadgerTracker) Track(ctx context.Context, sessionID string, fileID uint) error {
	return t.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(sessionID, fileID), nil)
		if t.ttl > 0 {
			e = e.WithTTL(t.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (t *BadgerTracker) Contains(ctx context.Context, sessionID string, fileID uint) (bool, error) {
	err := t.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(sessionID, fileID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *BadgerTracker) IDs(ctx context.Context, sessionID string) ([]uint, error) {
	prefix := []byte("tracked:" + sessionID + ":")
	var ids []uint
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := it.Item().Key()[len(prefix):]
			id, err := strconv.ParseUint(string(raw), 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
