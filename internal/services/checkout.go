package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	apperrors "github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/metrics"
	"github.com/velomart/cart-service/internal/models"
	"github.com/velomart/cart-service/internal/store"
)

// OrderGateway submits finished checkouts to the upstream order API.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, order *models.OrderSubmission, bearerToken string) (*models.CheckoutResponse, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, sessionID string, req *models.CheckoutRequest, bearerToken string) (*models.CheckoutResponse, error)
}

type checkoutService struct {
	store     store.Store
	gateway   OrderGateway
	sanitizer *bluemonday.Policy
}

func NewCheckoutService(s store.Store, gateway OrderGateway) CheckoutService {
	return &checkoutService{
		store:     s,
		gateway:   gateway,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *checkoutService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

// Checkout finalizes a guest session. The server-side cart is authoritative,
// but when it turns out empty and the client carried a backup item list, the
// backup is adopted: the client saw contents the server lost (local-fallback
// adds that never reached the store, or a store restart). Orders always go
// upstream with server-recomputed totals.
func (s *checkoutService) Checkout(ctx context.Context, sessionID string, req *models.CheckoutRequest, bearerToken string) (resp *models.CheckoutResponse, err error) {
	defer func() { metrics.ObserveCartOperation("checkout", err) }()

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.StoreError("Failed to load cart").WithError(err)
	}

	if len(cart.Items) == 0 && len(req.Items) > 0 {
		cart, err = s.adoptBackupItems(ctx, sessionID, req.Items)
		if err != nil {
			return nil, err
		}
	}

	if len(cart.Items) == 0 {
		return nil, apperrors.BadRequestError("Cart is empty")
	}

	customer := models.CustomerInfo{
		Name:    s.clean(req.Customer.Name),
		Email:   strings.TrimSpace(req.Customer.Email),
		Phone:   s.clean(req.Customer.Phone),
		Address: s.clean(req.Customer.Address),
		Note:    s.clean(req.Customer.Note),
	}

	submission := &models.OrderSubmission{
		SessionID:     sessionID,
		Customer:      customer,
		Items:         cart.Items,
		Total:         cart.Total,
		ItemCount:     cart.ItemCount,
		PaymentMethod: req.PaymentMethod,
	}

	resp, err = s.gateway.SubmitOrder(ctx, submission, bearerToken)
	if err != nil {
		return nil, apperrors.UpstreamError("Failed to submit order").WithError(err)
	}

	// The purchase went through; a stale leftover cart is worth a warning,
	// not a failed checkout.
	if err := s.store.Delete(ctx, sessionID); err != nil {
		slog.Warn("Failed to delete cart after checkout",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}

	return resp, nil
}

// adoptBackupItems replays the client's view of the cart into the store,
// recomputing line totals server-side rather than trusting the client's.
func (s *checkoutService) adoptBackupItems(ctx context.Context, sessionID string, items []models.CartItem) (*models.Cart, error) {
	for i := range items {
		if items[i].Quantity < 1 || items[i].ProductID == 0 {
			return nil, apperrors.BadRequestError("Invalid backup cart item")
		}
	}

	metrics.ObserveBackupAdoption()
	slog.Info("Adopting client backup items for empty server cart",
		slog.String("session_id", sessionID),
		slog.Int("items", len(items)))

	cart, err := s.store.Mutate(ctx, sessionID, func(cart *models.Cart) error {
		cart.Items = append([]models.CartItem{}, items...)
		cart.Recalculate()

		return nil
	})
	if err != nil {
		return nil, apperrors.StoreError("Failed to restore cart from backup").WithError(err)
	}

	return cart, nil
}
