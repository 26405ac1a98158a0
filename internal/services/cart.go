package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	apperrors "github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/metrics"
	"github.com/velomart/cart-service/internal/models"
	"github.com/velomart/cart-service/internal/store"
)

// ProductSource resolves the product a shopper wants to add. Implementations
// return models.ErrProductNotFound when the id does not resolve.
type ProductSource interface {
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
}

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*models.Cart, error)
	AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, sessionID string, req *models.UpdateItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, itemID string) (*models.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type cartService struct {
	store    store.Store
	products ProductSource
}

func NewCartService(s store.Store, products ProductSource) CartService {
	return &cartService{store: s, products: products}
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.StoreError("Failed to load cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, sessionID string, req *models.AddItemRequest) (cart *models.Cart, err error) {
	defer func() { metrics.ObserveCartOperation("add", err) }()

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.products.ProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, apperrors.UpstreamError("Failed to look up product").WithError(err)
	}

	cart, err = s.store.Mutate(ctx, sessionID, func(cart *models.Cart) error {
		requested := quantity

		if idx := cart.FindLineByProduct(product.ID); idx >= 0 {
			requested += cart.Items[idx].Quantity
		}

		if product.Stock > 0 && requested > product.Stock {
			return apperrors.BadRequestError("Insufficient stock for product")
		}

		if idx := cart.FindLineByProduct(product.ID); idx >= 0 {
			cart.Items[idx].Quantity = requested
		} else {
			cart.Items = append(cart.Items, models.CartItem{
				ID:        uuid.NewString(),
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  quantity,
				Image:     product.Image,
			})
		}

		cart.Recalculate()

		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}

		return nil, apperrors.StoreError("Failed to update cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) UpdateItem(ctx context.Context, sessionID string, req *models.UpdateItemRequest) (cart *models.Cart, err error) {
	defer func() { metrics.ObserveCartOperation("update", err) }()

	cart, err = s.store.Mutate(ctx, sessionID, func(cart *models.Cart) error {
		idx := cart.FindLine(req.ItemID)
		if idx < 0 {
			return apperrors.NotFoundError("Item not found in the cart")
		}

		if req.Quantity == 0 {
			// A line at quantity zero is removed, never retained.
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		} else {
			cart.Items[idx].Quantity = req.Quantity
		}

		cart.Recalculate()

		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}

		return nil, apperrors.StoreError("Failed to update cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID string, itemID string) (*models.Cart, error) {
	return s.UpdateItem(ctx, sessionID, &models.UpdateItemRequest{ItemID: itemID, Quantity: 0})
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) (err error) {
	defer func() { metrics.ObserveCartOperation("clear", err) }()

	if deleteErr := s.store.Delete(ctx, sessionID); deleteErr != nil {
		err = apperrors.StoreError("Failed to clear cart").WithError(deleteErr)

		return err
	}

	return nil
}
