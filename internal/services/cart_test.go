package service_test

import (
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

func setupCartTest() (*mocks.ProductSource, service.CartService, store.Store) {
	products := new(mocks.ProductSource)
	cartStore := store.NewMemoryStore()

	return products, service.NewCartService(cartStore, products), cartStore
}

func bellProduct() *models.Product {
	return &models.Product{ID: 7, Name: "Bell", Price: 50000, Stock: 10, Image: "bell.jpg"}
}

func TestAddItem(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Repeated Adds Merge Into One Line", func(t *testing.T) {
		// Arrange
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		// Act
		_, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 1})
		require.NoError(t, err)

		cart, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 2})

		// Assert
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 3, cart.Items[0].Quantity)
		assert.InDelta(t, 150000, cart.Items[0].Total, 0.001)
		assert.InDelta(t, 150000, cart.Total, 0.001)
		assert.Equal(t, 3, cart.ItemCount)
		products.AssertExpectations(t)
	})

	t.Run("Success - Distinct Products Get Distinct Lines", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)
		products.On("ProductByID", mock.Anything, int64(9)).Return(&models.Product{ID: 9, Name: "Pump", Price: 120000, Stock: 4}, nil)

		_, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7})
		require.NoError(t, err)

		cart, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 9})

		require.NoError(t, err)
		require.Len(t, cart.Items, 2)
		assert.NotEqual(t, cart.Items[0].ID, cart.Items[1].ID)
		assert.InDelta(t, 170000, cart.Total, 0.001)
		assert.Equal(t, 2, cart.ItemCount)
	})

	t.Run("Success - Missing Quantity Defaults To One", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		cart, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7})

		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, 1, cart.Items[0].Quantity)
	})

	t.Run("Failure - Unknown Product", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(404)).Return(nil, models.ErrProductNotFound)

		_, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 404})

		require.Error(t, err)

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	})

	t.Run("Failure - Insufficient Stock", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		_, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 8})
		require.NoError(t, err)

		_, err = cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 5})

		require.Error(t, err)

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeBadRequest, appErr.Code)

		// the failed add must not have touched the cart
		cart, err := cartService.GetCart(ctx, "sess_1")
		require.NoError(t, err)
		assert.Equal(t, 8, cart.ItemCount)
	})
}

func TestUpdateItem(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Overwrites Quantity And Recomputes Totals", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		cart, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 2})
		require.NoError(t, err)

		lineID := cart.Items[0].ID

		cart, err = cartService.UpdateItem(ctx, "sess_1", &models.UpdateItemRequest{ItemID: lineID, Quantity: 5})

		require.NoError(t, err)
		assert.Equal(t, 5, cart.Items[0].Quantity)
		assert.InDelta(t, 250000, cart.Items[0].Total, 0.001)
		assert.InDelta(t, 250000, cart.Total, 0.001)
		assert.Equal(t, 5, cart.ItemCount)
	})

	t.Run("Success - Quantity Zero Removes The Line", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		cart, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 2})
		require.NoError(t, err)

		cart, err = cartService.UpdateItem(ctx, "sess_1", &models.UpdateItemRequest{ItemID: cart.Items[0].ID, Quantity: 0})

		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Zero(t, cart.Total)
		assert.Zero(t, cart.ItemCount)
	})

	t.Run("Failure - Unknown Line", func(t *testing.T) {
		_, cartService, _ := setupCartTest()

		_, err := cartService.UpdateItem(ctx, "sess_1", &models.UpdateItemRequest{ItemID: "nope", Quantity: 1})

		require.Error(t, err)

		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Removing The Last Line Yields The Empty Shape", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		cart, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 3})
		require.NoError(t, err)

		cart, err = cartService.RemoveItem(ctx, "sess_1", cart.Items[0].ID)

		require.NoError(t, err)
		assert.NotNil(t, cart.Items)
		assert.Empty(t, cart.Items)
		assert.Zero(t, cart.Total)
		assert.Zero(t, cart.ItemCount)
	})
}

func TestClearCart(t *testing.T) {
	ctx := t.Context()

	t.Run("Success - Clear Then Get Returns Empty Cart", func(t *testing.T) {
		products, cartService, _ := setupCartTest()
		products.On("ProductByID", mock.Anything, int64(7)).Return(bellProduct(), nil)

		_, err := cartService.AddItem(ctx, "sess_1", &models.AddItemRequest{ProductID: 7, Quantity: 2})
		require.NoError(t, err)

		require.NoError(t, cartService.ClearCart(ctx, "sess_1"))

		cart, err := cartService.GetCart(ctx, "sess_1")
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		assert.Zero(t, cart.Total)
		assert.Zero(t, cart.ItemCount)
	})
}
