// Package store holds guest carts keyed by the opaque session identifier
// the client mints. The interface is deliberately narrow: Mutate runs the
// whole read-modify-write under a per-session lock, so handlers get atomic
// cart mutations instead of assuming them.
package store

import (
	"context"

	"github.com/velomart/cart-service/internal/models"
)

type Store interface {
	// Get returns the cart for sessionID, or the empty cart shape when the
	// session has no cart yet. It never returns nil on a nil error.
	Get(ctx context.Context, sessionID string) (*models.Cart, error)

	// Mutate loads the cart (empty shape when absent), applies fn, persists
	// the result and returns it. fn returning an error aborts the write.
	Mutate(ctx context.Context, sessionID string, fn func(cart *models.Cart) error) (*models.Cart, error)

	// Delete removes the session's cart. Deleting an absent cart is not an
	// error.
	Delete(ctx context.Context, sessionID string) error

	Close() error
}

const keyPrefix = "cart:session"

// Key builds the storage key for a session id.
func Key(sessionID string) string {
	return keyPrefix + ":" + sessionID
}
