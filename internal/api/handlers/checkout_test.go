package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/velomart/cart-service/internal/api/handlers"
	"github.com/velomart/cart-service/internal/api/middleware"
	apperrors "github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/models"
	"github.com/velomart/cart-service/internal/services/mocks"
)

func setupCheckoutHandlerTest() (*mocks.CheckoutService, *handlers.CheckoutHandler) {
	mockCheckoutService := new(mocks.CheckoutService)
	checkoutHandler := handlers.NewCheckoutHandler(mockCheckoutService)

	return mockCheckoutService, checkoutHandler
}

func checkoutBody(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(models.CheckoutRequest{
		Customer: models.CustomerInfo{
			Name:    "Linh Tran",
			Email:   "linh@example.com",
			Phone:   "0901234567",
			Address: "12 Nguyen Hue, District 1",
		},
		PaymentMethod: "cod",
	})
	require.NoError(t, err)

	return body
}

func TestCheckout(t *testing.T) {
	t.Run("Success - Order Placed", func(t *testing.T) {
		// Arrange
		mockCheckoutService, checkoutHandler := setupCheckoutHandlerTest()
		req := newSessionRequest("POST", "/api/checkout", checkoutBody(t))
		recorder := httptest.NewRecorder()

		mockCheckoutService.On("Checkout", mock.Anything, "sess_1700000000000_abc123def", mock.Anything, "").
			Return(&models.CheckoutResponse{OrderID: "ord_42", Status: "pending", Total: 100000, ItemCount: 2}, nil).Once()

		// Act
		checkoutHandler.Checkout()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusCreated, recorder.Code)

		resp := decodeEnvelope(t, recorder)
		assert.True(t, resp.Success)
		assert.Equal(t, "Order placed successfully", resp.Message)
		assert.Equal(t, "sess_1700000000000_abc123def", resp.SessionID)

		mockCheckoutService.AssertExpectations(t)
	})

	t.Run("Success - Bearer Token Forwarded", func(t *testing.T) {
		mockCheckoutService, checkoutHandler := setupCheckoutHandlerTest()
		req := newSessionRequest("POST", "/api/checkout", checkoutBody(t))
		req.Header.Set("Authorization", "Bearer token-123")
		recorder := httptest.NewRecorder()

		mockCheckoutService.On("Checkout", mock.Anything, mock.Anything, mock.Anything, "token-123").
			Return(&models.CheckoutResponse{OrderID: "ord_43"}, nil).Once()

		// Route through the auth middleware so the token lands in the context,
		// the same way the router wires it.
		authMiddleware := middleware.NewAuthMiddleware(nil)
		authMiddleware.Optional(checkoutHandler.Checkout())(recorder, req)

		assert.Equal(t, http.StatusCreated, recorder.Code)
		mockCheckoutService.AssertExpectations(t)
	})

	t.Run("Failure - Missing Session Header", func(t *testing.T) {
		mockCheckoutService, checkoutHandler := setupCheckoutHandlerTest()
		req := httptest.NewRequest("POST", "/api/checkout", nil)
		recorder := httptest.NewRecorder()

		checkoutHandler.Checkout()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		resp := decodeEnvelope(t, recorder)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Session ID required", resp.Error.Message)

		mockCheckoutService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Invalid Customer Info", func(t *testing.T) {
		mockCheckoutService, checkoutHandler := setupCheckoutHandlerTest()
		req := newSessionRequest("POST", "/api/checkout", []byte(`{"customer":{"name":"A","email":"not-an-email"}}`))
		recorder := httptest.NewRecorder()

		checkoutHandler.Checkout()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		resp := decodeEnvelope(t, recorder)
		require.NotNil(t, resp.Error)
		assert.Equal(t, apperrors.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)

		mockCheckoutService.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Empty Cart Surfaces To Caller", func(t *testing.T) {
		mockCheckoutService, checkoutHandler := setupCheckoutHandlerTest()
		req := newSessionRequest("POST", "/api/checkout", checkoutBody(t))
		recorder := httptest.NewRecorder()

		mockCheckoutService.On("Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.BadRequestError("Cart is empty")).Once()

		checkoutHandler.Checkout()(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		resp := decodeEnvelope(t, recorder)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "Cart is empty", resp.Error.Message)

		mockCheckoutService.AssertExpectations(t)
	})

	t.Run("Failure - Upstream Error Maps To 502", func(t *testing.T) {
		mockCheckoutService, checkoutHandler := setupCheckoutHandlerTest()
		req := newSessionRequest("POST", "/api/checkout", checkoutBody(t))
		recorder := httptest.NewRecorder()

		mockCheckoutService.On("Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.UpstreamError("Failed to submit order")).Once()

		checkoutHandler.Checkout()(recorder, req)

		assert.Equal(t, http.StatusBadGateway, recorder.Code)

		resp := decodeEnvelope(t, recorder)
		require.NotNil(t, resp.Error)
		assert.Equal(t, apperrors.ErrCodeUpstream, resp.Error.Code)

		mockCheckoutService.AssertExpectations(t)
	})
}
