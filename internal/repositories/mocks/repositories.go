// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"

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

// SettingsRepository mocks repositories.SettingsRepository.
type SettingsRepository struct{ mock.Mock }

func NewSettingsRepository(t testingT) *SettingsRepository {
	m := &SettingsRepository{}
	register(t, &m.Mock)
	return m
}

func (m *SettingsRepository) GetOrCreate(ctx context.Context) (*models.Settings, error) {
	ret := m.Called(ctx)
	s, _ := ret.Get(0).(*models.Settings)
	return s, ret.Error(1)
}

func (m *SettingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	return m.Called(ctx, settings).Error(0)
}

// ProductRepository mocks repositories.ProductRepository.
type ProductRepository struct{ mock.Mock }

func NewProductRepository(t testingT) *ProductRepository {
	m := &ProductRepository{}
	register(t, &m.Mock)
	return m
}

func (m *ProductRepository) FindByID(ctx context.Context, id int64) (models.ProductLookup, error) {
	ret := m.Called(ctx, id)
	l, _ := ret.Get(0).(models.ProductLookup)
	return l, ret.Error(1)
}

func (m *ProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	ret := m.Called(ctx, ids)
	p, _ := ret.Get(0).(map[int64]models.Product)
	return p, ret.Error(1)
}

func (m *ProductRepository) Create(ctx context.Context, p *models.Product) (int64, error) {
	ret := m.Called(ctx, p)
	return ret.Get(0).(int64), ret.Error(1)
}

// CartRepository mocks repositories.CartRepository.
type CartRepository struct{ mock.Mock }

func NewCartRepository(t testingT) *CartRepository {
	m := &CartRepository{}
	register(t, &m.Mock)
	return m
}

func (m *CartRepository) ListItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	ret := m.Called(ctx, userID)
	items, _ := ret.Get(0).([]models.CartItem)
	return items, ret.Error(1)
}

func (m *CartRepository) AddQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *CartRepository) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	return m.Called(ctx, userID, productID, quantity).Error(0)
}

func (m *CartRepository) RemoveItem(ctx context.Context, userID, productID int64) error {
	return m.Called(ctx, userID, productID).Error(0)
}

func (m *CartRepository) Clear(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

// CouponRepository mocks repositories.CouponRepository.
type CouponRepository struct{ mock.Mock }

func NewCouponRepository(t testingT) *CouponRepository {
	m := &CouponRepository{}
	register(t, &m.Mock)
	return m
}

func (m *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) (int64, error) {
	ret := m.Called(ctx, coupon)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	ret := m.Called(ctx, code)
	c, _ := ret.Get(0).(*models.Coupon)
	return c, ret.Error(1)
}

func (m *CouponRepository) GetByID(ctx context.Context, id int64) (*models.Coupon, error) {
	ret := m.Called(ctx, id)
	c, _ := ret.Get(0).(*models.Coupon)
	return c, ret.Error(1)
}

func (m *CouponRepository) List(ctx context.Context, filters models.CouponFilters) ([]models.Coupon, int, error) {
	ret := m.Called(ctx, filters)
	c, _ := ret.Get(0).([]models.Coupon)
	return c, ret.Int(1), ret.Error(2)
}

func (m *CouponRepository) ListAvailableForUser(ctx context.Context, userID int64, now time.Time) ([]models.Coupon, error) {
	ret := m.Called(ctx, userID, now)
	c, _ := ret.Get(0).([]models.Coupon)
	return c, ret.Error(1)
}

func (m *CouponRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *CouponRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *CouponRepository) CountUserUsages(ctx context.Context, couponID, userID int64) (int, error) {
	ret := m.Called(ctx, couponID, userID)
	return ret.Int(0), ret.Error(1)
}

// Redeem returns the configured values. When the first return value is a
// RedeemFunc it is called with the guard instead, see GuardedRedeem.
func (m *CouponRepository) Redeem(ctx context.Context, tx repositories.SQLExecutor, params repositories.RedeemParams, guard repositories.RedeemGuard) (*models.Coupon, bool, error) {
	ret := m.Called(ctx, tx, params, guard)
	if fn, ok := ret.Get(0).(RedeemFunc); ok {
		return fn(guard)
	}
	c, _ := ret.Get(0).(*models.Coupon)
	return c, ret.Bool(1), ret.Error(2)
}

// RedeemFunc computes Redeem's results from the guard it was given.
type RedeemFunc func(guard repositories.RedeemGuard) (*models.Coupon, bool, error)

// GuardedRedeem behaves like a first redemption of coupon: the guard runs
// with userUsages and, if it passes, usage_count goes up by one.
func GuardedRedeem(coupon models.Coupon, userUsages int) RedeemFunc {
	return func(guard repositories.RedeemGuard) (*models.Coupon, bool, error) {
		if err := guard(coupon, userUsages); err != nil {
			return nil, false, err
		}
		redeemed := coupon
		redeemed.UsageCount++
		if redeemed.UsageLimit != nil && redeemed.UsageCount >= *redeemed.UsageLimit {
			redeemed.IsActive = false
		}
		return &redeemed, false, nil
	}
}

// OrderRepository mocks repositories.OrderRepository.
type OrderRepository struct{ mock.Mock }

func NewOrderRepository(t testingT) *OrderRepository {
	m := &OrderRepository{}
	register(t, &m.Mock)
	return m
}

func (m *OrderRepository) Create(ctx context.Context, executor repositories.SQLExecutor, order *models.Order) (int64, error) {
	ret := m.Called(ctx, executor, order)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *OrderRepository) GetByID(ctx context.Context, orderID int64) (*models.Order, error) {
	ret := m.Called(ctx, orderID)
	o, _ := ret.Get(0).(*models.Order)
	return o, ret.Error(1)
}

func (m *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	ret := m.Called(ctx, userID)
	o, _ := ret.Get(0).([]models.Order)
	return o, ret.Error(1)
}

func (m *OrderRepository) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	ret := m.Called(ctx, filters)
	o, _ := ret.Get(0).([]models.Order)
	return o, ret.Int(1), ret.Error(2)
}

func (m *OrderRepository) UpdateStatus(ctx context.Context, orderID int64, newStatus string, updatedAt time.Time) error {
	return m.Called(ctx, orderID, newStatus, updatedAt).Error(0)
}

func (m *OrderRepository) TransitionStatus(ctx context.Context, orderID, userID int64, from, to string, updatedAt time.Time) error {
	return m.Called(ctx, orderID, userID, from, to, updatedAt).Error(0)
}

func (m *OrderRepository) CountUserOrders(ctx context.Context, userID int64, includeCancelled bool) (int, error) {
	ret := m.Called(ctx, userID, includeCancelled)
	return ret.Int(0), ret.Error(1)
}

// Transactor runs fn with a nil executor unless WithinTx is told to fail.
type Transactor struct{ mock.Mock }

func NewTransactor(t testingT) *Transactor {
	m := &Transactor{}
	register(t, &m.Mock)
	return m
}

func (m *Transactor) WithinTx(ctx context.Context, fn func(tx repositories.SQLExecutor) error) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(nil)
}
