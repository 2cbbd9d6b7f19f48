package cart

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
)

type productLoader interface {
	Product(ctx context.Context, subdomain string, productID int64) (*vitrine.Product, error)
}

// Service exposes the shopper cart operations.
type Service interface {
	Get(ctx context.Context, key Key) Cart
	AddItem(ctx context.Context, key Key, productID int64, quantity int) (Cart, error)
	UpdateQuantity(ctx context.Context, key Key, productID int64, delta int) (Cart, error)
	RemoveItem(ctx context.Context, key Key, productID int64) (Cart, error)
	Clear(ctx context.Context, key Key) error
}

type service struct {
	store    Store
	products productLoader
}

// NewService builds a cart service over the keyed store and the catalog.
func NewService(store Store, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, key Key) Cart {
	return s.store.Load(ctx, key)
}

// AddItem snapshots the current catalog product into the cart.
func (s *service) AddItem(ctx context.Context, key Key, productID int64, quantity int) (Cart, error) {
	if quantity == 0 {
		quantity = 1
	}
	product, err := s.products.Product(ctx, key.Subdomain, productID)
	if err != nil {
		return Cart{}, err
	}
	item := ItemFromProduct(*product)
	return s.store.Update(ctx, key, func(c *Cart) error {
		return c.Add(item, quantity)
	})
}

func (s *service) UpdateQuantity(ctx context.Context, key Key, productID int64, delta int) (Cart, error) {
	return s.store.Update(ctx, key, func(c *Cart) error {
		return c.UpdateQuantity(productID, delta)
	})
}

// RemoveItem is idempotent: removing an absent product leaves the cart as is.
func (s *service) RemoveItem(ctx context.Context, key Key, productID int64) (Cart, error) {
	return s.store.Update(ctx, key, func(c *Cart) error {
		c.Remove(productID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, key Key) error {
	return s.store.Clear(ctx, key)
}
