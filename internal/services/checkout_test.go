package service_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/models"
	service "github.com/velomart/cart-service/internal/services"
	"github.com/velomart/cart-service/internal/services/mocks"
	"github.com/velomart/cart-service/internal/store"
)

func setupCheckoutTest() (*mocks.OrderGateway, service.CheckoutService, store.Store) {
	gateway := new(mocks.OrderGateway)
	cartStore := store.NewMemoryStore()

	return gateway, service.NewCheckoutService(cartStore, gateway), cartStore
}

func validCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		Name:    "Nguyen Van A",
		Email:   "a@example.com",
		Phone:   "0901234567",
		Address: "12 Tran Hung Dao, Da Nang",
	}
}

func seedCart(t *testing.T, s store.Store, sessionID string) *models.Cart {
	t.Helper()

	cart, err := s.Mutate(t.Context(), sessionID, func(cart *models.Cart) error {
		cart.Items = append(cart.Items, models.CartItem{ID: "l1", ProductID: 7, Name: "Bell", Price: 50000, Quantity: 2})
		cart.Recalculate()

		return nil
	})
	require.NoError(t, err)

	return cart
}

func TestCheckout(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Submits Server Cart And Deletes It", func(t *testing.T) {
		// Arrange
		gateway, checkoutService, cartStore := setupCheckoutTest()
		seedCart(t, cartStore, "sess_1")

		gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(order *models.OrderSubmission) bool {
			return order.SessionID == "sess_1" && order.ItemCount == 2 && order.Total == 100000
		}), "").Return(&models.CheckoutResponse{OrderID: "ord_1", Total: 100000, ItemCount: 2}, nil).Once()

		// Act
		resp, err := checkoutService.Checkout(ctx, "sess_1", &models.CheckoutRequest{Customer: validCustomer()}, "")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "ord_1", resp.OrderID)

		cart, err := cartStore.Get(ctx, "sess_1")
		require.NoError(t, err)
		assert.Empty(t, cart.Items)

		gateway.AssertExpectations(t)
	})

	t.Run("Failure - Empty Cart Rejected Without Submitting", func(t *testing.T) {
		gateway, checkoutService, _ := setupCheckoutTest()

		_, err := checkoutService.Checkout(ctx, "sess_1", &models.CheckoutRequest{Customer: validCustomer()}, "")

		require.Error(t, err)

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeBadRequest, appErr.Code)

		gateway.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success - Adopts Backup Items When Server Cart Is Empty", func(t *testing.T) {
		gateway, checkoutService, _ := setupCheckoutTest()

		gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(order *models.OrderSubmission) bool {
			// totals recomputed server-side from price and quantity
			return order.ItemCount == 2 && order.Total == 100000 && len(order.Items) == 1
		}), "").Return(&models.CheckoutResponse{OrderID: "ord_2", Total: 100000, ItemCount: 2}, nil).Once()

		req := &models.CheckoutRequest{
			Customer: validCustomer(),
			Items: []models.CartItem{
				// client-reported total is deliberately wrong
				{ID: "local_1", ProductID: 7, Name: "Bell", Price: 50000, Quantity: 2, Total: 1},
			},
		}

		resp, err := checkoutService.Checkout(ctx, "sess_1", req, "")

		require.NoError(t, err)
		assert.Equal(t, "ord_2", resp.OrderID)
		gateway.AssertExpectations(t)
	})

	t.Run("Failure - Invalid Backup Items Rejected", func(t *testing.T) {
		gateway, checkoutService, _ := setupCheckoutTest()

		req := &models.CheckoutRequest{
			Customer: validCustomer(),
			Items:    []models.CartItem{{ID: "local_1", ProductID: 7, Quantity: 0}},
		}

		_, err := checkoutService.Checkout(ctx, "sess_1", req, "")

		require.Error(t, err)
		gateway.AssertNotCalled(t, "SubmitOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Upstream Error Keeps The Cart", func(t *testing.T) {
		gateway, checkoutService, cartStore := setupCheckoutTest()
		seedCart(t, cartStore, "sess_1")

		gateway.On("SubmitOrder", mock.Anything, mock.Anything, "").Return(nil, errors.New("backend down")).Once()

		_, err := checkoutService.Checkout(ctx, "sess_1", &models.CheckoutRequest{Customer: validCustomer()}, "")

		require.Error(t, err)

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeUpstream, appErr.Code)

		// cart is left intact so the shopper can retry
		cart, err := cartStore.Get(ctx, "sess_1")
		require.NoError(t, err)
		assert.Len(t, cart.Items, 1)
	})

	t.Run("Success - Customer Text Is Sanitized", func(t *testing.T) {
		gateway, checkoutService, cartStore := setupCheckoutTest()
		seedCart(t, cartStore, "sess_1")

		gateway.On("SubmitOrder", mock.Anything, mock.MatchedBy(func(order *models.OrderSubmission) bool {
			return order.Customer.Name == "Nguyen Van A" && order.Customer.Note == "ring the bell"
		}), "").Return(&models.CheckoutResponse{OrderID: "ord_3"}, nil).Once()

		customer := validCustomer()
		customer.Name = "  Nguyen Van A  "
		customer.Note = "<script>alert(1)</script>ring the bell"

		_, err := checkoutService.Checkout(ctx, "sess_1", &models.CheckoutRequest{Customer: customer}, "")

		require.NoError(t, err)
		gateway.AssertExpectations(t)
	})

	t.Run("Success - Bearer Token Forwarded Upstream", func(t *testing.T) {
		gateway, checkoutService, cartStore := setupCheckoutTest()
		seedCart(t, cartStore, "sess_1")

		gateway.On("SubmitOrder", mock.Anything, mock.Anything, "token-123").
			Return(&models.CheckoutResponse{OrderID: "ord_4"}, nil).Once()

		_, err := checkoutService.Checkout(ctx, "sess_1", &models.CheckoutRequest{Customer: validCustomer()}, "token-123")

		require.NoError(t, err)
		gateway.AssertExpectations(t)
	})
}
