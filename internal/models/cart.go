package models

import "time"

// CartItem is one product line inside a guest cart. The line id is generated
// server-side and is distinct from the product id the line references.
type CartItem struct {
	ID        string  `json:"id"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
	Image     string  `json:"image,omitempty"`
}

// Cart holds the contents of one anonymous shopping session. Total and
// ItemCount are derived from Items and must never be written directly;
// Recalculate is the only place they change.
type Cart struct {
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
	UpdatedAt time.Time  `json:"updatedAt,omitzero"`
}

// EmptyCart is the shape returned for a session that has no cart yet.
func EmptyCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

// Recalculate rebuilds the derived totals from the line items.
func (c *Cart) Recalculate() {
	var total float64

	var count int

	for i := range c.Items {
		c.Items[i].Total = c.Items[i].Price * float64(c.Items[i].Quantity)
		total += c.Items[i].Total
		count += c.Items[i].Quantity
	}

	c.Total = total
	c.ItemCount = count
	c.UpdatedAt = time.Now()
}

// FindLineByProduct returns the index of the line referencing productID, or -1.
func (c *Cart) FindLineByProduct(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}

	return -1
}

// FindLine returns the index of the line with the given line id, or -1.
func (c *Cart) FindLine(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}

	return -1
}

// Clone returns a deep copy so callers can hand carts across goroutine
// boundaries without sharing the items slice.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)

	return &out
}

type AddItemRequest struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity"  validate:"omitempty,min=1"`
}

type UpdateItemRequest struct {
	ItemID   string `json:"itemId"   validate:"required"`
	Quantity int    `json:"quantity" validate:"min=0"`
}

type RemoveItemRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}
