package store

import (
	"context"
	"sync"

	"github.com/velomart/cart-service/internal/models"
)

// MemoryStore is the in-process cart store. It replaces the prototype's
// bare module-global map: the store is constructed once in main and injected,
// and every read-modify-write holds a per-session lock so concurrent
// requests for the same session cannot lose updates. Carts do not survive a
// process restart and are not shared across instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu   sync.Mutex
	cart *models.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) entry(sessionID string, create bool) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	if !ok && create {
		e = &memoryEntry{cart: models.EmptyCart()}
		s.entries[sessionID] = e
	}

	return e
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.Cart, error) {
	e := s.entry(sessionID, false)
	if e == nil {
		return models.EmptyCart(), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cart.Clone(), nil
}

func (s *MemoryStore) Mutate(_ context.Context, sessionID string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	e := s.entry(sessionID, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	// fn mutates a copy, so an aborted mutation leaves the stored cart
	// untouched.
	next := e.cart.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	e.cart = next

	return next.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
