package services

import (
	"context"
	"errors"
	"fmt"

	"grocery_backend/internal/metrics"
	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartService manages a user's cart. Every mutation returns the materialized cart.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	// UpdateQuantity sets the quantity; 0 removes the line.
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	// RemoveItem removes one line, or clears the cart when productID is nil.
	RemoveItem(ctx context.Context, userID int64, productID *int64) (*models.Cart, error)
	Clear(ctx context.Context, userID int64) error
}

type cartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new instance of CartService.
func NewCartService(cr repositories.CartRepository, pr repositories.ProductRepository) CartService {
	return &cartService{cartRepo: cr, productRepo: pr}
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	items, err := s.cartRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading cart products: %w", err)
	}

	cart := &models.Cart{Items: []models.CartLine{}}
	subtotal := decimal.Zero
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		total := lineTotal(p.Price, it.Quantity)
		cart.Items = append(cart.Items, models.CartLine{
			ProductID:   p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Quantity:    it.Quantity,
			LineTotal:   roundMoney(total),
			IsAvailable: p.IsAvailable,
			AddedAt:     it.AddedAt,
		})
		subtotal = subtotal.Add(total)
		cart.ItemCount += it.Quantity
	}
	cart.Subtotal = roundMoney(subtotal)
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	lookup, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("loading product %d: %w", productID, err)
	}
	if p, ok := lookup.Get(); !ok || !p.IsAvailable {
		return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, productID)
	}
	if err := s.cartRepo.AddQuantity(ctx, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("adding to cart: %w", err)
	}
	metrics.CartOperations.WithLabelValues("add").Inc()
	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	var err error
	if quantity == 0 {
		err = s.cartRepo.RemoveItem(ctx, userID, productID)
	} else {
		err = s.cartRepo.SetQuantity(ctx, userID, productID, quantity)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrCartItemNotFound, productID)
		}
		return nil, fmt.Errorf("updating cart: %w", err)
	}
	metrics.CartOperations.WithLabelValues("update").Inc()
	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID int64, productID *int64) (*models.Cart, error) {
	if productID == nil {
		if err := s.Clear(ctx, userID); err != nil {
			return nil, err
		}
		return &models.Cart{Items: []models.CartLine{}}, nil
	}
	if err := s.cartRepo.RemoveItem(ctx, userID, *productID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("removing from cart: %w", err)
	}
	metrics.CartOperations.WithLabelValues("remove").Inc()
	return s.GetCart(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	metrics.CartOperations.WithLabelValues("clear").Inc()
	return nil
}
