// Package mocks holds testify mocks of the service interfaces used by handlers.
package mocks

import (
	"context"

	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"
	"grocery_backend/internal/services"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t testingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

// CartService mocks services.CartService.
type CartService struct{ mock.Mock }

func NewCartService(t testingT) *CartService {
	m := &CartService{}
	register(t, &m.Mock)
	return m
}

func cartResult(ret mock.Arguments) (*models.Cart, error) {
	c, _ := ret.Get(0).(*models.Cart)
	return c, ret.Error(1)
}

func (m *CartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	return cartResult(m.Called(ctx, userID))
}

func (m *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	return cartResult(m.Called(ctx, userID, productID, quantity))
}

func (m *CartService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	return cartResult(m.Called(ctx, userID, productID, quantity))
}

func (m *CartService) RemoveItem(ctx context.Context, userID int64, productID *int64) (*models.Cart, error) {
	return cartResult(m.Called(ctx, userID, productID))
}

func (m *CartService) Clear(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// CheckoutService mocks services.CheckoutService.
type CheckoutService struct{ mock.Mock }

func NewCheckoutService(t testingT) *CheckoutService {
	m := &CheckoutService{}
	register(t, &m.Mock)
	return m
}

func (m *CheckoutService) PlaceOrder(ctx context.Context, userID int64, req services.PlaceOrderRequest) (*services.PlaceOrderResult, error) {
	ret := m.Called(ctx, userID, req)
	r, _ := ret.Get(0).(*services.PlaceOrderResult)
	return r, ret.Error(1)
}

// OrderService mocks services.OrderService.
type OrderService struct{ mock.Mock }

func NewOrderService(t testingT) *OrderService {
	m := &OrderService{}
	register(t, &m.Mock)
	return m
}

func orderResult(ret mock.Arguments) (*models.Order, error) {
	o, _ := ret.Get(0).(*models.Order)
	return o, ret.Error(1)
}

func (m *OrderService) ListMyOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	ret := m.Called(ctx, userID)
	o, _ := ret.Get(0).([]models.Order)
	return o, ret.Error(1)
}

func (m *OrderService) GetOrder(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, error) {
	return orderResult(m.Called(ctx, orderID, requesterID, isAdmin))
}

func (m *OrderService) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	ret := m.Called(ctx, filters)
	o, _ := ret.Get(0).([]models.Order)
	return o, ret.Int(1), ret.Error(2)
}

func (m *OrderService) UpdateStatus(ctx context.Context, orderID int64, req services.UpdateOrderStatusRequest) (*models.Order, error) {
	return orderResult(m.Called(ctx, orderID, req))
}

func (m *OrderService) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	return orderResult(m.Called(ctx, orderID, userID))
}

// CouponService mocks services.CouponService.
type CouponService struct{ mock.Mock }

func NewCouponService(t testingT) *CouponService {
	m := &CouponService{}
	register(t, &m.Mock)
	return m
}

func (m *CouponService) Validate(ctx context.Context, code string, userID int64, orderAmount float64) (*services.CouponValidation, error) {
	ret := m.Called(ctx, code, userID, orderAmount)
	v, _ := ret.Get(0).(*services.CouponValidation)
	return v, ret.Error(1)
}

func (m *CouponService) Redeem(ctx context.Context, code string, userID, orderID int64, orderAmount float64) (*services.RedeemResult, error) {
	ret := m.Called(ctx, code, userID, orderID, orderAmount)
	r, _ := ret.Get(0).(*services.RedeemResult)
	return r, ret.Error(1)
}

func (m *CouponService) RedeemWithin(ctx context.Context, tx repositories.SQLExecutor, code string, userID, orderID int64, orderAmount float64) (*services.RedeemResult, error) {
	ret := m.Called(ctx, tx, code, userID, orderID, orderAmount)
	r, _ := ret.Get(0).(*services.RedeemResult)
	return r, ret.Error(1)
}

func (m *CouponService) AfterRedeem(ctx context.Context, result *services.RedeemResult) {
	m.Called(ctx, result)
}

func (m *CouponService) ListAvailable(ctx context.Context, userID int64) ([]models.Coupon, error) {
	ret := m.Called(ctx, userID)
	c, _ := ret.Get(0).([]models.Coupon)
	return c, ret.Error(1)
}

func (m *CouponService) List(ctx context.Context, filters models.CouponFilters) ([]models.Coupon, int, error) {
	ret := m.Called(ctx, filters)
	c, _ := ret.Get(0).([]models.Coupon)
	return c, ret.Int(1), ret.Error(2)
}

func (m *CouponService) Create(ctx context.Context, req services.CreateCouponRequest) (*models.Coupon, error) {
	ret := m.Called(ctx, req)
	c, _ := ret.Get(0).(*models.Coupon)
	return c, ret.Error(1)
}

func (m *CouponService) SetActive(ctx context.Context, couponID int64, active bool) error {
	return m.Called(ctx, couponID, active).Error(0)
}

func (m *CouponService) Delete(ctx context.Context, couponID int64) error {
	return m.Called(ctx, couponID).Error(0)
}

func (m *CouponService) IssueWelcomeCoupon(ctx context.Context, userID, referrerID int64) (*models.Coupon, error) {
	ret := m.Called(ctx, userID, referrerID)
	c, _ := ret.Get(0).(*models.Coupon)
	return c, ret.Error(1)
}

// SettingsService mocks services.SettingsService.
type SettingsService struct{ mock.Mock }

func NewSettingsService(t testingT) *SettingsService {
	m := &SettingsService{}
	register(t, &m.Mock)
	return m
}

func (m *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	ret := m.Called(ctx)
	s, _ := ret.Get(0).(*models.Settings)
	return s, ret.Error(1)
}

func (m *SettingsService) Update(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	ret := m.Called(ctx, patch)
	s, _ := ret.Get(0).(*models.Settings)
	return s, ret.Error(1)
}

func (m *SettingsService) DeliveryPoints(ctx context.Context) (*services.DeliveryInfo, error) {
	ret := m.Called(ctx)
	d, _ := ret.Get(0).(*services.DeliveryInfo)
	return d, ret.Error(1)
}

func (m *SettingsService) OrderHours(ctx context.Context) (*services.OrderHoursInfo, error) {
	ret := m.Called(ctx)
	o, _ := ret.Get(0).(*services.OrderHoursInfo)
	return o, ret.Error(1)
}

var (
	_ services.CartService     = (*CartService)(nil)
	_ services.CheckoutService = (*CheckoutService)(nil)
	_ services.OrderService    = (*OrderService)(nil)
	_ services.CouponService   = (*CouponService)(nil)
	_ services.SettingsService = (*SettingsService)(nil)
)
