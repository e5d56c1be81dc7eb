package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery_backend/internal/models"
)

// RedeemGuard re-checks a locked coupon before its usage is recorded.
// userUsages is how many times the redeeming user has already used it.
type RedeemGuard func(coupon models.Coupon, userUsages int) error

// RedeemParams identifies one redemption.
type RedeemParams struct {
	Code    string
	UserID  int64
	OrderID int64
	UsedAt  time.Time
}

// CouponRepository defines coupon persistence, including the atomic redeem.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) (int64, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetByID(ctx context.Context, id int64) (*models.Coupon, error)
	List(ctx context.Context, filters models.CouponFilters) ([]models.Coupon, int, error)
	// ListAvailableForUser returns active, unexpired, not exhausted coupons that
	// are general or bound to userID.
	ListAvailableForUser(ctx context.Context, userID int64, now time.Time) ([]models.Coupon, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	CountUserUsages(ctx context.Context, couponID, userID int64) (int, error)

	// Redeem locks the coupon row within tx, runs guard, records the usage and
	// increments usage_count only while it is below usage_limit. A second call
	// for the same order returns alreadyRedeemed=true and changes nothing.
	Redeem(ctx context.Context, tx SQLExecutor, params RedeemParams, guard RedeemGuard) (coupon *models.Coupon, alreadyRedeemed bool, err error)
}

type couponRepository struct {
	db SQLExecutor
}

// NewCouponRepository creates a new instance of CouponRepository.
func NewCouponRepository(db SQLExecutor) CouponRepository {
	return &couponRepository{db: db}
}

const couponColumns = `id, code, discount_type, discount_percentage, discount_amount, minimum_order_amount,
	maximum_discount, usage_limit, usage_count, user_usage_limit, expiration_date, is_active,
	user_id, first_order_only, new_users_only, is_referral_coupon, referred_by, description,
	created_at, updated_at`

func scanCoupon(row scanner, extra ...interface{}) (*models.Coupon, error) {
	c := &models.Coupon{}
	dest := []interface{}{
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountPercentage, &c.DiscountAmount, &c.MinimumOrderAmount,
		&c.MaximumDiscount, &c.UsageLimit, &c.UsageCount, &c.UserUsageLimit, &c.ExpirationDate, &c.IsActive,
		&c.UserID, &c.FirstOrderOnly, &c.NewUsersOnly, &c.IsReferralCoupon, &c.ReferredBy, &c.Description,
		&c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *couponRepository) Create(ctx context.Context, c *models.Coupon) (int64, error) {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	query := `INSERT INTO coupons
	            (code, discount_type, discount_percentage, discount_amount, minimum_order_amount,
	             maximum_discount, usage_limit, usage_count, user_usage_limit, expiration_date, is_active,
	             user_id, first_order_only, new_users_only, is_referral_coupon, referred_by, description,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		c.Code, c.DiscountType, c.DiscountPercentage, c.DiscountAmount, c.MinimumOrderAmount,
		c.MaximumDiscount, c.UsageLimit, c.UsageCount, c.UserUsageLimit, c.ExpirationDate, c.IsActive,
		c.UserID, c.FirstOrderOnly, c.NewUsersOnly, c.IsReferralCoupon, c.ReferredBy, c.Description,
		c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: coupon code %s", ErrDuplicateKey, c.Code)
		}
		return 0, fmt.Errorf("%w: creating coupon: %v", ErrDatabaseError, err)
	}
	return c.ID, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting coupon by code %s: %v", ErrDatabaseError, code, err)
	}
	return c, nil
}

func (r *couponRepository) GetByID(ctx context.Context, id int64) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting coupon by ID %d: %v", ErrDatabaseError, id, err)
	}
	return c, nil
}

func (r *couponRepository) List(ctx context.Context, filters models.CouponFilters) ([]models.Coupon, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + couponColumns + `, COUNT(*) OVER() AS total_count FROM coupons`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argCounter))
		args = append(args, *filters.Active)
		argCounter++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCounter))
		args = append(args, *filters.UserID)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")
	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, (filters.Page-1)*filters.PageSize)
		}
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying coupons: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	totalCount := 0
	for rows.Next() {
		c, err := scanCoupon(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning coupon: %v", ErrDatabaseError, err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating coupon rows: %v", ErrDatabaseError, err)
	}
	return coupons, totalCount, nil
}

func (r *couponRepository) ListAvailableForUser(ctx context.Context, userID int64, now time.Time) ([]models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
	          WHERE is_active
	            AND expiration_date > $2
	            AND (user_id IS NULL OR user_id = $1)
	            AND (usage_limit IS NULL OR usage_count < usage_limit)
	          ORDER BY user_id NULLS LAST, expiration_date`
	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: querying coupons for user %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning coupon: %v", ErrDatabaseError, err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating coupon rows: %v", ErrDatabaseError, err)
	}
	return coupons, nil
}

func (r *couponRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE coupons SET is_active = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: updating coupon %d active flag: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, "coupon active flag update")
}

func (r *couponRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting coupon %d: %v", ErrDatabaseError, id, err)
	}
	return expectOneRow(result, "coupon delete")
}

func (r *couponRepository) CountUserUsages(ctx context.Context, couponID, userID int64) (int, error) {
	return countUserUsages(ctx, r.db, couponID, userID)
}

func countUserUsages(ctx context.Context, exec SQLExecutor, couponID, userID int64) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = $1 AND user_id = $2`
	if err := exec.QueryRowContext(ctx, query, couponID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting usages of coupon %d by user %d: %v", ErrDatabaseError, couponID, userID, err)
	}
	return n, nil
}

func (r *couponRepository) Redeem(ctx context.Context, tx SQLExecutor, p RedeemParams, guard RedeemGuard) (*models.Coupon, bool, error) {
	lockQuery := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 FOR UPDATE`
	coupon, err := scanCoupon(tx.QueryRowContext(ctx, lockQuery, p.Code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrNotFound
		}
		return nil, false, fmt.Errorf("%w: locking coupon %s: %v", ErrDatabaseError, p.Code, err)
	}

	var redeemed bool
	existsQuery := `SELECT EXISTS(SELECT 1 FROM coupon_usages WHERE coupon_id = $1 AND order_id = $2)`
	if err := tx.QueryRowContext(ctx, existsQuery, coupon.ID, p.OrderID).Scan(&redeemed); err != nil {
		return nil, false, fmt.Errorf("%w: checking redemption of coupon %d for order %d: %v", ErrDatabaseError, coupon.ID, p.OrderID, err)
	}
	if redeemed {
		return coupon, true, nil
	}

	userUsages, err := countUserUsages(ctx, tx, coupon.ID, p.UserID)
	if err != nil {
		return nil, false, err
	}
	if guard != nil {
		if err := guard(*coupon, userUsages); err != nil {
			return nil, false, err
		}
	}

	insertUsage := `INSERT INTO coupon_usages (coupon_id, user_id, order_id, used_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insertUsage, coupon.ID, p.UserID, p.OrderID, p.UsedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, false, fmt.Errorf("%w: coupon %d already used for order %d", ErrDuplicateKey, coupon.ID, p.OrderID)
		}
		return nil, false, fmt.Errorf("%w: recording usage of coupon %d: %v", ErrDatabaseError, coupon.ID, err)
	}

	increment := `UPDATE coupons
	                 SET usage_count = usage_count + 1,
	                     is_active = CASE WHEN usage_limit IS NOT NULL AND usage_count + 1 >= usage_limit
	                                      THEN FALSE ELSE is_active END,
	                     updated_at = $2
	               WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
	           RETURNING usage_count, is_active`
	err = tx.QueryRowContext(ctx, increment, coupon.ID, p.UsedAt).Scan(&coupon.UsageCount, &coupon.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrCouponExhausted
		}
		return nil, false, fmt.Errorf("%w: incrementing usage of coupon %d: %v", ErrDatabaseError, coupon.ID, err)
	}
	coupon.UpdatedAt = p.UsedAt
	return coupon, false, nil
}

func expectOneRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for %s: %v", ErrDatabaseError, op, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
