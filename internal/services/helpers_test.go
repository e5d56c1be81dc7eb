package services

import (
	"context"
	"sync"
	"time"

	"grocery_backend/internal/models"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

type mockWindow struct{ mock.Mock }

func (m *mockWindow) IsWithinOrderHours(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockWindow) OrderHoursMessage(ctx context.Context) (string, error) {
	ret := m.Called(ctx)
	return ret.String(0), ret.Error(1)
}

func (m *mockWindow) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockWindow) Now() time.Time { return testNow }

// recordingEvents collects events instead of dispatching them.
type recordingEvents struct {
	mu      sync.Mutex
	placed  []models.Order
	changed []models.Order
}

func (e *recordingEvents) OrderPlaced(o models.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.placed = append(e.placed, o)
}

func (e *recordingEvents) OrderStatusChanged(o models.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changed = append(e.changed, o)
}

func intPtr(v int) *int             { return &v }
func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func percentCoupon(code string, pct float64) models.Coupon {
	return models.Coupon{
		ID:                 7,
		Code:               code,
		DiscountType:       models.DiscountTypePercentage,
		DiscountPercentage: pct,
		UserUsageLimit:     1,
		ExpirationDate:     testNow.Add(30 * 24 * time.Hour),
		IsActive:           true,
	}
}

func fixedCoupon(code string, amount float64) models.Coupon {
	c := percentCoupon(code, 0)
	c.DiscountType = models.DiscountTypeFixed
	c.DiscountAmount = amount
	return c
}
