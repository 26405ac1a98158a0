// Package mocks provides testify mocks of the service interfaces for
// handler tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/velomart/cart-service/internal/models"
)

type CartService struct {
	mock.Mock
}

func (m *CartService) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	args := m.Called(ctx, sessionID)

	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.Cart, error) {
	args := m.Called(ctx, sessionID, req)

	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) UpdateItem(ctx context.Context, sessionID string, req *models.UpdateItemRequest) (*models.Cart, error) {
	args := m.Called(ctx, sessionID, req)

	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) RemoveItem(ctx context.Context, sessionID string, itemID string) (*models.Cart, error) {
	args := m.Called(ctx, sessionID, itemID)

	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) ClearCart(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)

	return args.Error(0)
}

type CheckoutService struct {
	mock.Mock
}

func (m *CheckoutService) Checkout(ctx context.Context, sessionID string, req *models.CheckoutRequest, bearerToken string) (*models.CheckoutResponse, error) {
	args := m.Called(ctx, sessionID, req, bearerToken)

	if resp, ok := args.Get(0).(*models.CheckoutResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}

type ProductSource struct {
	mock.Mock
}

func (m *ProductSource) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

type OrderGateway struct {
	mock.Mock
}

func (m *OrderGateway) SubmitOrder(ctx context.Context, order *models.OrderSubmission, bearerToken string) (*models.CheckoutResponse, error) {
	args := m.Called(ctx, order, bearerToken)

	if resp, ok := args.Get(0).(*models.CheckoutResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}
