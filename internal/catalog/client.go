// Package catalog is the HTTP client for the upstream storefront backend.
// It resolves products for add-to-cart, serves the cached catalog proxy
// reads and submits finished orders.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/velomart/cart-service/internal/cache"
	"github.com/velomart/cart-service/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
}

func New(baseURL string, timeout time.Duration, c cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// wireProduct tolerates the upstream's inconsistent image field naming and
// folds whichever variant is present into one canonical URL.
type wireProduct struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	CategoryID  int64   `json:"categoryId"`
	Image       string  `json:"image"`
	ImageURL    string  `json:"imageUrl"`
	ImageSnake  string  `json:"image_url"`
	Thumbnail   string  `json:"thumbnail"`
}

func (p *wireProduct) toModel() *models.Product {
	image := p.Image
	for _, candidate := range []string{p.ImageURL, p.ImageSnake, p.Thumbnail} {
		if image == "" {
			image = candidate
		}
	}

	return &models.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		Image:       image,
	}
}

// unwrap peels the upstream's optional {data: ...} envelope.
func unwrap(body []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}

	return body
}

func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request for %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling backend %s: %w", path, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading backend response for %s: %w", path, err)
	}

	return body, resp.StatusCode, nil
}

// Product resolves a single product, consulting the cache first.
func (c *Client) Product(ctx context.Context, id int64) (*models.Product, error) {
	key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(id, 10))

	if c.cache != nil {
		product := &models.Product{}

		found, err := c.cache.Get(ctx, key, product)
		if err != nil {
			slog.Warn("Product cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		} else if found {
			return product, nil
		}
	}

	body, status, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, models.ErrProductNotFound
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d for product %d", status, id)
	}

	wire := &wireProduct{}
	if err := json.Unmarshal(unwrap(body), wire); err != nil {
		return nil, fmt.Errorf("decoding product %d: %w", id, err)
	}

	product := wire.toModel()

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, product, c.cacheTTL); err != nil {
			slog.Warn("Product cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	return product, nil
}

// ProductByID satisfies the cart service's ProductSource.
func (c *Client) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return c.Product(ctx, id)
}

// Products lists the catalog for the storefront proxy endpoint.
func (c *Client) Products(ctx context.Context) ([]*models.Product, error) {
	key := cache.Key(cache.ProductListKeyPrefix, "all")

	if c.cache != nil {
		var products []*models.Product

		found, err := c.cache.Get(ctx, key, &products)
		if err != nil {
			slog.Warn("Product list cache read failed", slog.String("error", err.Error()))
		} else if found {
			return products, nil
		}
	}

	body, status, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d listing products", status)
	}

	var wire []wireProduct
	if err := json.Unmarshal(unwrap(body), &wire); err != nil {
		return nil, fmt.Errorf("decoding product list: %w", err)
	}

	products := make([]*models.Product, 0, len(wire))
	for i := range wire {
		products = append(products, wire[i].toModel())
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, products, c.cacheTTL); err != nil {
			slog.Warn("Product list cache write failed", slog.String("error", err.Error()))
		}
	}

	return products, nil
}

// SubmitOrder forwards a finished checkout to the upstream order API,
// attaching the shopper's bearer token when one is present.
func (c *Client) SubmitOrder(ctx context.Context, order *models.OrderSubmission, bearerToken string) (*models.CheckoutResponse, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encoding order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building order request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting order: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("backend rejected order with status %d", resp.StatusCode)
	}

	result := &models.CheckoutResponse{}
	if err := json.Unmarshal(unwrap(body), result); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}

	return result, nil
}
