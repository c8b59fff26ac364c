// Package store owns the in-memory expense collection and mirrors it to a
// blob store after every mutation.
//
// The Store is the single writer. Every mutating call holds the store lock
// from the change through persistence and listener notification, so each call
// observes and publishes a consistent collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/storage"
)

// ErrCorruptSnapshot is returned by Load when the persisted blob exists but
// is not a valid expense collection.
var ErrCorruptSnapshot = errors.New("corrupt expense snapshot")

type Op string

const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpDelete Op = "delete"
)

// Change describes a completed load or mutation. Items is a private copy of
// the collection after the change.
type Change struct {
	Op    Op
	Index int // position added or removed; -1 for loads
	Items []core.Expense
}

// Listener is notified after every load and mutation. Listeners run with the
// store locked and must not call back into the Store.
type Listener interface {
	ExpensesChanged(ctx context.Context, ch Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ch Change)

func (f ListenerFunc) ExpensesChanged(ctx context.Context, ch Change) { f(ctx, ch) }

type Store struct {
	mu        sync.Mutex
	blobs     storage.BlobStore
	key       string
	items     []core.Expense
	listeners []Listener
	log       *applog.StructuredLogger
}

type Option func(*Store)

// WithKey stores the collection under a key other than storage.DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger routes mutation logs through logger.
func WithLogger(logger *applog.Logger) Option {
	return func(s *Store) { s.log = applog.NewStructuredLogger(logger) }
}

// New returns an empty store. Call Load to read the persisted collection.
func New(blobs storage.BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs: blobs,
		key:   storage.DefaultKey,
		items: []core.Expense{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = applog.NewStructuredLogger(applog.FromContext(context.Background()).WithComponent(applog.ComponentStore))
	}
	return s
}

// Subscribe registers a listener for subsequent changes.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load replaces the collection with the persisted one. A missing blob leaves
// the collection untouched; so does a corrupt one, in which case the returned
// error wraps ErrCorruptSnapshot. Listeners are notified in every case.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notify(ctx, OpLoad, -1)

	blob, found, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("read %q: %w", s.key, err)
	}
	if !found {
		return nil
	}
	items, err := core.DecodeCollection(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	s.items = items
	s.log.LogMutation(ctx, applog.OpLoad, applog.NewFields().WithCount(len(items)))
	return nil
}

// Add appends a record built from raw input and persists the collection.
// The record stays in memory even if persistence fails.
func (s *Store) Add(ctx context.Context, name, amountInput, category string) (core.Expense, error) {
	e := core.NewExpense(name, amountInput, category)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, e)
	index := len(s.items) - 1
	defer s.notify(ctx, OpAdd, index)

	s.log.LogMutation(ctx, applog.OpAdd, applog.NewFields().WithExpense(e).WithIndex(index))
	return e, s.persistLocked(ctx)
}

// DeleteAt removes the record at index, shifting later records down by one.
// An out-of-range index is a no-op and reports false.
func (s *Store) DeleteAt(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return false, nil
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	defer s.notify(ctx, OpDelete, index)

	s.log.LogMutation(ctx, applog.OpDelete, applog.NewFields().WithIndex(index).WithCount(len(s.items)))
	return true, s.persistLocked(ctx)
}

// Persist writes the whole collection, overwriting the previous blob.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	blob, err := core.EncodeCollection(s.items)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.blobs.Set(ctx, s.key, blob); err != nil {
		s.log.LogError(ctx, "Failed to persist expenses", err, applog.ErrorTypeStorage, applog.OpPersist,
			applog.NewFields().WithCount(len(s.items)))
		return fmt.Errorf("write %q: %w", s.key, err)
	}
	return nil
}

func (s *Store) notify(ctx context.Context, op Op, index int) {
	if len(s.listeners) == 0 {
		return
	}
	ch := Change{Op: op, Index: index, Items: s.snapshotLocked()}
	for _, l := range s.listeners {
		l.ExpensesChanged(ctx, ch)
	}
}

// Snapshot returns a copy of the current collection.
func (s *Store) Snapshot() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []core.Expense {
	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Total sums every amount currently in the collection.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Total(s.items)
}
