// Package memory provides an in-process implementation of every repository
// interface plus a transaction manager that rolls back on error.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/shareit-rental/service-shareit/internal/common/database"
	bookingDomain "github.com/shareit-rental/service-shareit/internal/domain/booking"
)

type userRow struct {
	id    int64
	name  string
	email string
}

type itemRow struct {
	id          int64
	name        string
	description string
	available   bool
	ownerID     int64
	requestID   *int64
}

type bookingRow struct {
	id       int64
	itemID   int64
	bookerID int64
	start    time.Time
	end      time.Time
	status   bookingDomain.BookingStatus
}

type commentRow struct {
	id       int64
	itemID   int64
	authorID int64
	text     string
	created  time.Time
}

type requestRow struct {
	id          int64
	description string
	requesterID int64
	created     time.Time
}

type tables struct {
	users    map[int64]userRow
	items    map[int64]itemRow
	bookings map[int64]bookingRow
	comments map[int64]commentRow
	requests map[int64]requestRow
	seq      map[string]int64
}

func (t tables) clone() tables {
	return tables{
		users:    maps.Clone(t.users),
		items:    maps.Clone(t.items),
		bookings: maps.Clone(t.bookings),
		comments: maps.Clone(t.comments),
		requests: maps.Clone(t.requests),
		seq:      maps.Clone(t.seq),
	}
}

// deleteUser removes a user with the rows the schema cascades to. Items
// answering one of the user's requests keep existing with no request.
func (t tables) deleteUser(id int64) {
	owned := make(map[int64]bool)
	for itemID, row := range t.items {
		if row.ownerID == id {
			owned[itemID] = true
			delete(t.items, itemID)
		}
	}
	for bookingID, row := range t.bookings {
		if row.bookerID == id || owned[row.itemID] {
			delete(t.bookings, bookingID)
		}
	}
	for commentID, row := range t.comments {
		if row.authorID == id || owned[row.itemID] {
			delete(t.comments, commentID)
		}
	}
	for requestID, row := range t.requests {
		if row.requesterID != id {
			continue
		}
		delete(t.requests, requestID)
		for itemID, it := range t.items {
			if it.requestID != nil && *it.requestID == requestID {
				it.requestID = nil
				t.items[itemID] = it
			}
		}
	}
	delete(t.users, id)
}

// Store holds all tables. Writers outside a transaction are serialized with
// transactions through txMu.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	t    tables
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{t: tables{
		users:    make(map[int64]userRow),
		items:    make(map[int64]itemRow),
		bookings: make(map[int64]bookingRow),
		comments: make(map[int64]commentRow),
		requests: make(map[int64]requestRow),
		seq:      make(map[string]int64),
	}}
}

// PingContext always succeeds.
func (s *Store) PingContext(_ context.Context) error {
	return nil
}

// nextID must be called with mu held for writing.
func (s *Store) nextID(table string) int64 {
	s.t.seq[table]++
	return s.t.seq[table]
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// write runs fn under the write lock. Outside a transaction it also waits
// for any running transaction to finish.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// TxManager runs units of work against a Store one at a time.
type TxManager struct {
	store *Store
}

// NewTxManager creates a TxManager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// WithinTransaction runs fn exclusively. Changes made by fn are discarded when
// it returns an error. Nested calls join the outer transaction. Callbacks
// registered with database.AfterCommit run after a successful fn.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	txCtx, hooks := database.WithCommitHooks(ctx)
	if err := m.run(context.WithValue(txCtx, txKey{}, true), fn); err != nil {
		return err
	}
	hooks.Run(ctx)
	return nil
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	s := m.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.t.clone()
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}
