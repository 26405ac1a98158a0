package models

import (
	"errors"
	"time"
)

// ErrProductNotFound is the sentinel every product source returns when an id
// does not resolve, regardless of whether the source is the database or the
// upstream catalog.
var ErrProductNotFound = errors.New("product not found")

// Product is the slice of the catalog a cart line needs. The catalog itself
// is owned by the upstream storefront backend (or its database); carts only
// snapshot name, price and image at add time.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Image       string    `json:"image,omitempty"`
	CategoryID  int64     `json:"categoryId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}
