package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/velomart/cart-service/internal/api/middleware"
	apperrors "github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/models"
	service "github.com/velomart/cart-service/internal/services"
	"github.com/velomart/cart-service/internal/utils"
	"github.com/velomart/cart-service/internal/utils/response"
)

// SessionHeader carries the anonymous shopper's identifier on every cart
// request.
const SessionHeader = "X-Session-ID"

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

// sessionID extracts the session header or writes the 400 the contract
// demands when it is missing.
func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		response.Error(w, apperrors.BadRequestError("Session ID required"))

		return "", false
	}

	return id, true
}

// parseAndValidate decodes the body into dest and runs validation, writing
// the error response itself on failure.
func (h *CartHandler) parseAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	logger := middleware.LoggerFromContext(r.Context())

	if err := utils.DecodeJSONBody(r, dest); err != nil {
		logger.Warn("Invalid request body", slog.String("error", err.Error()))
		response.Error(w, apperrors.BadRequestError(err.Error()))

		return false
	}

	if err := utils.ValidateStruct(h.validator, dest); err != nil {
		var validationErrs validator.ValidationErrors

		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
		} else {
			response.Error(w, apperrors.InternalError("Validation failed unexpectedly"))
		}

		return false
	}

	return true
}

// GetCart serves GET /api/cart/guest and GET /api/guest/cart. A session
// without a cart gets the empty shape, not a 404.
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), sid)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to load cart", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem serves POST /api/cart/items and POST /api/guest/cart/add. The
// response echoes the session id so a client that just minted it can confirm
// the pairing.
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !h.parseAndValidate(w, r, &req) {
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), sid, &req)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Warn("Add to cart failed",
				slog.Int64("product_id", req.ProductID),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.SuccessWithSession(w, http.StatusOK, sid, "Item added to cart", cart)
	}
}

// UpdateItem serves PATCH /api/guest/cart. Quantity zero removes the line.
func (h *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		var req models.UpdateItemRequest
		if !h.parseAndValidate(w, r, &req) {
			return
		}

		cart, err := h.cartService.UpdateItem(r.Context(), sid, &req)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Warn("Cart update failed",
				slog.String("item_id", req.ItemID),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// ClearCart serves DELETE /api/cart/guest and DELETE /api/guest/cart.
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		if err := h.cartService.ClearCart(r.Context(), sid); err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Cart clear failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.SuccessMessage(w, http.StatusOK, "Cart cleared")
	}
}
