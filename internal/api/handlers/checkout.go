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

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		validator:       validator.New(),
	}
}

// Checkout serves POST /api/checkout. Unlike the cart mutations, checkout
// failures are surfaced to the caller; a purchase never fails silently.
func (h *CheckoutHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, ok := sessionID(w, r)
		if !ok {
			return
		}

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CheckoutRequest

		if err := utils.DecodeJSONBody(r, &req); err != nil {
			logger.Warn("Invalid checkout body", slog.String("error", err.Error()))
			response.Error(w, apperrors.BadRequestError(err.Error()))

			return
		}

		if err := utils.ValidateStruct(h.validator, &req); err != nil {
			var validationErrs validator.ValidationErrors

			if errors.As(err, &validationErrs) {
				response.ValidationError(w, validationErrs)
			} else {
				response.Error(w, apperrors.InternalError("Validation failed unexpectedly"))
			}

			return
		}

		bearerToken := middleware.BearerFromContext(r.Context())

		result, err := h.checkoutService.Checkout(r.Context(), sid, &req, bearerToken)
		if err != nil {
			logger.Error("Checkout failed", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		logger.Info("Order placed",
			slog.String("order_id", result.OrderID),
			slog.Float64("total", result.Total))

		response.SuccessWithSession(w, http.StatusCreated, sid, "Order placed successfully", result)
	}
}
