package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/velomart/cart-service/internal/api/middleware"
	apperrors "github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/models"
	"github.com/velomart/cart-service/internal/utils/response"
)

// Catalog is the slice of the upstream backend the storefront proxy needs.
type Catalog interface {
	Product(ctx context.Context, id int64) (*models.Product, error)
	Products(ctx context.Context) ([]*models.Product, error)
}

type ProductHandler struct {
	catalog Catalog
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// GetProduct serves GET /api/products/{id}, a cached pass-through to the
// upstream catalog.
func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			response.Error(w, apperrors.BadRequestError("Invalid product id"))

			return
		}

		product, err := h.catalog.Product(r.Context(), id)
		if err != nil {
			if errors.Is(err, models.ErrProductNotFound) {
				response.Error(w, apperrors.NotFoundError("Product not found"))

				return
			}

			middleware.LoggerFromContext(r.Context()).Error("Product lookup failed",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()))
			response.Error(w, apperrors.UpstreamError("Failed to load product"))

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

// ListProducts serves GET /api/products.
func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := h.catalog.Products(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Product list failed", slog.String("error", err.Error()))
			response.Error(w, apperrors.UpstreamError("Failed to load products"))

			return
		}

		response.Success(w, http.StatusOK, products)
	}
}
