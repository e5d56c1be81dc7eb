package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"grocery_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var couponColumnNames = []string{
	"id", "code", "discount_type", "discount_percentage", "discount_amount", "minimum_order_amount",
	"maximum_discount", "usage_limit", "usage_count", "user_usage_limit", "expiration_date", "is_active",
	"user_id", "first_order_only", "new_users_only", "is_referral_coupon", "referred_by", "description",
	"created_at", "updated_at",
}

func couponRow(id int64, code string, usageLimit interface{}, usageCount int) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(couponColumnNames).AddRow(
		id, code, models.DiscountTypeFixed, 0.0, 20.0, 0.0,
		nil, usageLimit, usageCount, 1, now.Add(24*time.Hour), true,
		nil, false, false, false, nil, "",
		now, now,
	)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCouponRepository_RedeemRecordsUsageAndIncrements(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	usedAt := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM coupons WHERE code = \$1 FOR UPDATE`).
		WithArgs("SAVE20").WillReturnRows(couponRow(5, "SAVE20", 3, 2))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(5), int64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM coupon_usages`).WithArgs(int64(5), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO coupon_usages`).WithArgs(int64(5), int64(9), int64(77), usedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`UPDATE coupons\s+SET usage_count = usage_count \+ 1`).WithArgs(int64(5), usedAt).
		WillReturnRows(sqlmock.NewRows([]string{"usage_count", "is_active"}).AddRow(3, false))

	var guardUsages = -1
	coupon, already, err := repo.Redeem(context.Background(), db,
		RedeemParams{Code: "SAVE20", UserID: 9, OrderID: 77, UsedAt: usedAt},
		func(c models.Coupon, userUsages int) error {
			guardUsages = userUsages
			return nil
		})

	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 0, guardUsages)
	assert.Equal(t, 3, coupon.UsageCount)
	assert.False(t, coupon.IsActive)
	require.NotNil(t, coupon.UsageLimit)
	assert.Equal(t, 3, *coupon.UsageLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponRepository_RedeemIsIdempotentPerOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery(`FOR UPDATE`).WithArgs("SAVE20").WillReturnRows(couponRow(5, "SAVE20", nil, 1))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(5), int64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	guardCalled := false
	coupon, already, err := repo.Redeem(context.Background(), db,
		RedeemParams{Code: "SAVE20", UserID: 9, OrderID: 77, UsedAt: time.Now()},
		func(models.Coupon, int) error { guardCalled = true; return nil })

	require.NoError(t, err)
	assert.True(t, already)
	assert.False(t, guardCalled)
	assert.Equal(t, 1, coupon.UsageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponRepository_RedeemExhausted(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(couponRow(5, "SAVE20", 1, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO coupon_usages`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`UPDATE coupons`).WillReturnError(sql.ErrNoRows)

	_, _, err := repo.Redeem(context.Background(), db,
		RedeemParams{Code: "SAVE20", UserID: 9, OrderID: 78, UsedAt: time.Now()}, nil)

	assert.ErrorIs(t, err, ErrCouponExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponRepository_RedeemGuardRejectionStopsBeforeWrites(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)
	rejection := errors.New("per-user limit reached")

	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(couponRow(5, "SAVE20", nil, 4))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.Redeem(context.Background(), db,
		RedeemParams{Code: "SAVE20", UserID: 9, OrderID: 79, UsedAt: time.Now()},
		func(c models.Coupon, userUsages int) error {
			if userUsages >= c.UserUsageLimit {
				return rejection
			}
			return nil
		})

	assert.ErrorIs(t, err, rejection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponRepository_GetByCodeNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM coupons WHERE code = \$1`).WithArgs("NOPE").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCode(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}
