package services

import (
	"context"
	"testing"

	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"
	"grocery_backend/internal/repositories/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCart(t *testing.T) (*mocks.CartRepository, *mocks.ProductRepository, CartService) {
	cartRepo := mocks.NewCartRepository(t)
	productRepo := mocks.NewProductRepository(t)
	return cartRepo, productRepo, NewCartService(cartRepo, productRepo)
}

var (
	apple = models.Product{ID: 1, Name: "Apple", Price: 12.5, IsAvailable: true}
	bread = models.Product{ID: 2, Name: "Bread", Price: 20, IsAvailable: true}
)

func TestCartService_GetCart_DropsVanishedProducts(t *testing.T) {
	ctx := context.Background()
	cartRepo, productRepo, svc := setupCart(t)
	cartRepo.On("ListItems", ctx, int64(5)).Return([]models.CartItem{
		{UserID: 5, ProductID: 1, Quantity: 2},
		{UserID: 5, ProductID: 99, Quantity: 1},
		{UserID: 5, ProductID: 2, Quantity: 1},
	}, nil)
	productRepo.On("FindByIDs", ctx, []int64{1, 99, 2}).Return(map[int64]models.Product{1: apple, 2: bread}, nil)

	cart, err := svc.GetCart(ctx, 5)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(1), cart.Items[0].ProductID)
	assert.Equal(t, 25.0, cart.Items[0].LineTotal)
	assert.Equal(t, 45.0, cart.Subtotal)
	assert.Equal(t, 3, cart.ItemCount)
}

func TestCartService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, _, svc := setupCart(t)
		_, err := svc.AddItem(ctx, 5, 1, 0)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		cartRepo, productRepo, svc := setupCart(t)
		productRepo.On("FindByID", ctx, int64(42)).Return(models.MissingProduct(), nil)

		_, err := svc.AddItem(ctx, 5, 42, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
		cartRepo.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("increments and returns the cart", func(t *testing.T) {
		cartRepo, productRepo, svc := setupCart(t)
		productRepo.On("FindByID", ctx, int64(1)).Return(models.FoundProduct(apple), nil)
		cartRepo.On("AddQuantity", ctx, int64(5), int64(1), 3).Return(nil)
		cartRepo.On("ListItems", ctx, int64(5)).Return([]models.CartItem{{ProductID: 1, Quantity: 3}}, nil)
		productRepo.On("FindByIDs", ctx, []int64{1}).Return(map[int64]models.Product{1: apple}, nil)

		cart, err := svc.AddItem(ctx, 5, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 37.5, cart.Subtotal)
	})
}

func TestCartService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("zero removes the line", func(t *testing.T) {
		cartRepo, productRepo, svc := setupCart(t)
		cartRepo.On("RemoveItem", ctx, int64(5), int64(1)).Return(nil).Once()
		cartRepo.On("ListItems", ctx, int64(5)).Return([]models.CartItem{}, nil)
		productRepo.On("FindByIDs", ctx, []int64{}).Return(map[int64]models.Product{}, nil)

		cart, err := svc.UpdateQuantity(ctx, 5, 1, 0)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
		cartRepo.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing line is not found", func(t *testing.T) {
		cartRepo, _, svc := setupCart(t)
		cartRepo.On("SetQuantity", ctx, int64(5), int64(1), 4).Return(repositories.ErrNotFound)

		_, err := svc.UpdateQuantity(ctx, 5, 1, 4)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, _, svc := setupCart(t)
		_, err := svc.UpdateQuantity(ctx, 5, 1, -1)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestCartService_RemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("nil product clears the cart", func(t *testing.T) {
		cartRepo, _, svc := setupCart(t)
		cartRepo.On("Clear", ctx, int64(5)).Return(nil).Once()

		cart, err := svc.RemoveItem(ctx, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, cart.Items)
	})

	t.Run("missing line is a no-op", func(t *testing.T) {
		cartRepo, productRepo, svc := setupCart(t)
		cartRepo.On("RemoveItem", ctx, int64(5), int64(2)).Return(repositories.ErrNotFound)
		cartRepo.On("ListItems", ctx, int64(5)).Return([]models.CartItem{{ProductID: 1, Quantity: 1}}, nil)
		productRepo.On("FindByIDs", ctx, []int64{1}).Return(map[int64]models.Product{1: apple}, nil)

		cart, err := svc.RemoveItem(ctx, 5, int64Ptr(2))
		require.NoError(t, err)
		assert.Len(t, cart.Items, 1)
	})
}
