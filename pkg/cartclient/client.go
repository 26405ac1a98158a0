// Package cartclient is the Go client for the guest cart service. It keeps a
// local mirror of the server cart and deliberately trades consistency for
// availability: when the service is unreachable, mutations fall back to the
// local mirror so the caller's UI keeps working, and checkout heals the
// resulting divergence by replaying local state before submitting the order.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/velomart/cart-service/pkg/session"
)

// SyncState says how far the local mirror can be trusted.
type SyncState int

const (
	// StateSynced: the mirror was last replaced wholesale from the server.
	StateSynced SyncState = iota
	// StateLocalOnly: at least one mutation never reached the server.
	StateLocalOnly
	// StateReconciling: checkout is replaying local state to the server.
	StateReconciling
)

func (s SyncState) String() string {
	switch s {
	case StateSynced:
		return "synced"
	case StateLocalOnly:
		return "local-only"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// ErrEmptyCart is returned by Checkout before any network call when the
// local mirror holds no items.
var ErrEmptyCart = errors.New("cart is empty")

// Item is one line of the mirrored cart.
type Item struct {
	ID        string  `json:"id"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
	Image     string  `json:"image,omitempty"`
}

// Cart is a snapshot of the mirror; totals are always derived from Items.
type Cart struct {
	Items     []Item  `json:"items"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

func (c *Cart) recalculate() {
	c.Total = 0
	c.ItemCount = 0

	for i := range c.Items {
		c.Items[i].Total = c.Items[i].Price * float64(c.Items[i].Quantity)
		c.Total += c.Items[i].Total
		c.ItemCount += c.Items[i].Quantity
	}
}

// Product carries the fields the local fallback needs to synthesize a line
// without a server round trip.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Note    string `json:"note,omitempty"`
}

type CheckoutResult struct {
	OrderID   string  `json:"orderId"`
	Status    string  `json:"status,omitempty"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

// TokenSource supplies the shopper's bearer token when one exists, so
// requests carry an Authorization header. Return "" for anonymous.
type TokenSource interface {
	Token() string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReplayWait sets how long checkout pauses after replaying local items,
// giving the server a beat to settle before the order is submitted.
func WithReplayWait(d time.Duration) Option {
	return func(c *Client) { c.replayWait = d }
}

func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) { c.tokens = tokens }
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *session.Provider
	logger     *slog.Logger
	replayWait time.Duration
	tokens     TokenSource

	mu    sync.Mutex
	items []Item
	state SyncState
}

func New(baseURL string, sessions *session.Provider, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sessions:   sessions,
		logger:     slog.Default(),
		replayWait: 300 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Cart returns a snapshot of the local mirror with recomputed totals.
func (c *Client) Cart() Cart {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *Client) snapshotLocked() Cart {
	cart := Cart{Items: make([]Item, len(c.items))}
	copy(cart.Items, c.items)
	cart.recalculate()

	return cart
}

func (c *Client) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// SessionID exposes the identifier the client is shopping under.
func (c *Client) SessionID() string {
	return c.sessions.GetOrCreate()
}

// wireItem tolerates the service's and backend's varied image field naming
// and folds whichever variant is present into one canonical URL.
type wireItem struct {
	ID        string  `json:"id"`
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Total     float64 `json:"total"`
	Image     string  `json:"image"`
	ImageURL  string  `json:"imageUrl"`
	ImageRaw  string  `json:"image_url"`
	Thumbnail string  `json:"thumbnail"`
}

func (it *wireItem) toItem() Item {
	image := it.Image
	for _, candidate := range []string{it.ImageURL, it.ImageRaw, it.Thumbnail} {
		if image == "" {
			image = candidate
		}
	}

	return Item{
		ID:        it.ID,
		ProductID: it.ProductID,
		Name:      it.Name,
		Price:     it.Price,
		Quantity:  it.Quantity,
		Total:     it.Total,
		Image:     image,
	}
}

type wireCart struct {
	Items     []wireItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("X-Session-ID", c.sessions.GetOrCreate())

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	env := &envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		if env.Error != nil {
			return env, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}

		return env, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return env, nil
}

func (c *Client) fetchServerCart(ctx context.Context) (*wireCart, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/cart/guest", nil)
	if err != nil {
		return nil, err
	}

	cart := &wireCart{}
	if err := json.Unmarshal(env.Data, cart); err != nil {
		return nil, fmt.Errorf("decoding cart: %w", err)
	}

	return cart, nil
}

func (c *Client) replaceFromServer(cart *wireCart) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]Item, 0, len(cart.Items))
	for i := range cart.Items {
		c.items = append(c.items, cart.Items[i].toItem())
	}

	c.state = StateSynced
}

// Refresh replaces the local mirror with the server's cart. A fetch failure
// never surfaces: the UI must not block on a cart read, so the mirror is
// emptied and the client carries on.
func (c *Client) Refresh(ctx context.Context) Cart {
	cart, err := c.fetchServerCart(ctx)
	if err != nil {
		c.logger.Warn("cart refresh failed, falling back to empty cart", slog.String("error", err.Error()))

		c.mu.Lock()
		c.items = nil
		c.mu.Unlock()

		return c.Cart()
	}

	c.replaceFromServer(cart)

	return c.Cart()
}

// AddToCart adds quantity units of product. On a server failure the mutation
// is applied to the local mirror instead, with the same merge-or-append
// semantics the server uses, and the client flips to StateLocalOnly.
func (c *Client) AddToCart(ctx context.Context, product Product, quantity int) Cart {
	if quantity < 1 {
		quantity = 1
	}

	_, err := c.do(ctx, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": product.ID,
		"quantity":  quantity,
	})
	if err == nil {
		return c.Refresh(ctx)
	}

	c.logger.Warn("add to cart failed, applying local fallback",
		slog.Int64("product_id", product.ID),
		slog.String("error", err.Error()))

	c.mu.Lock()
	defer c.mu.Unlock()

	merged := false

	for i := range c.items {
		if c.items[i].ProductID == product.ID {
			c.items[i].Quantity += quantity
			merged = true

			break
		}
	}

	if !merged {
		c.items = append(c.items, Item{
			ID:        "local_" + uuid.NewString(),
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			Image:     product.Image,
		})
	}

	c.state = StateLocalOnly

	return c.snapshotLocked()
}

// UpdateItem sets a line's quantity; zero removes the line. Server failures
// degrade to the equivalent local mutation.
func (c *Client) UpdateItem(ctx context.Context, itemID string, quantity int) Cart {
	if quantity < 0 {
		quantity = 0
	}

	_, err := c.do(ctx, http.MethodPatch, "/api/guest/cart", map[string]any{
		"itemId":   itemID,
		"quantity": quantity,
	})
	if err == nil {
		return c.Refresh(ctx)
	}

	c.logger.Warn("cart update failed, applying local fallback",
		slog.String("item_id", itemID),
		slog.String("error", err.Error()))

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == itemID {
			if quantity == 0 {
				c.items = append(c.items[:i], c.items[i+1:]...)
			} else {
				c.items[i].Quantity = quantity
			}

			break
		}
	}

	c.state = StateLocalOnly

	return c.snapshotLocked()
}

// RemoveItem deletes a line entirely.
func (c *Client) RemoveItem(ctx context.Context, itemID string) Cart {
	return c.UpdateItem(ctx, itemID, 0)
}

// Clear empties the cart and ends the anonymous session. The local mirror is
// emptied regardless of whether the server call succeeded.
func (c *Client) Clear(ctx context.Context) {
	_, err := c.do(ctx, http.MethodDelete, "/api/guest/cart", nil)

	c.mu.Lock()
	c.items = nil

	if err != nil {
		c.logger.Warn("cart clear failed on server, cleared locally", slog.String("error", err.Error()))

		c.state = StateLocalOnly
	} else {
		c.state = StateSynced
	}
	c.mu.Unlock()

	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("failed to clear session id", slog.String("error", err.Error()))
	}
}

// Checkout finalizes the purchase:
//
//  1. rejects an empty local cart before any network traffic;
//  2. re-reads the server cart as a consistency check;
//  3. when the server cart is empty but the mirror is not, replays every
//     local line as an add-item call, then pauses ReplayWait;
//  4. submits the order with the local items attached as a backup payload;
//  5. on success clears local state and the persisted session id;
//  6. on failure returns the error and leaves the cart intact for retry.
func (c *Client) Checkout(ctx context.Context, customer CustomerInfo) (*CheckoutResult, error) {
	c.mu.Lock()
	local := c.snapshotLocked()

	if len(local.Items) == 0 {
		c.mu.Unlock()

		return nil, ErrEmptyCart
	}

	c.state = StateReconciling
	c.mu.Unlock()

	server, err := c.fetchServerCart(ctx)
	serverEmpty := err != nil || server.ItemCount == 0

	if serverEmpty {
		c.logger.Info("server cart diverged from local state, replaying items",
			slog.Int("items", len(local.Items)))

		for _, item := range local.Items {
			if _, err := c.do(ctx, http.MethodPost, "/api/cart/items", map[string]any{
				"productId": item.ProductID,
				"quantity":  item.Quantity,
			}); err != nil {
				c.logger.Warn("replay of cart line failed",
					slog.Int64("product_id", item.ProductID),
					slog.String("error", err.Error()))
			}
		}

		if c.replayWait > 0 {
			time.Sleep(c.replayWait)
		}
	}

	env, err := c.do(ctx, http.MethodPost, "/api/checkout", map[string]any{
		"customer": customer,
		"items":    local.Items,
	})
	if err != nil {
		c.mu.Lock()
		c.state = StateLocalOnly
		c.mu.Unlock()

		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	result := &CheckoutResult{}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return nil, fmt.Errorf("decoding checkout response: %w", err)
	}

	c.mu.Lock()
	c.items = nil
	c.state = StateSynced
	c.mu.Unlock()

	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("failed to clear session id after checkout", slog.String("error", err.Error()))
	}

	return result, nil
}
