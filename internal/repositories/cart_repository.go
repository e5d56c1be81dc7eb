package repositories

import (
	"context"
	"fmt"
	"time"

	"grocery_backend/internal/models"
)

// CartRepository persists per-user cart lines.
type CartRepository interface {
	ListItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	// AddQuantity inserts the line or increments an existing one atomically.
	AddQuantity(ctx context.Context, userID, productID int64, quantity int) error
	// SetQuantity returns ErrNotFound when the line does not exist.
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) error
	// RemoveItem returns ErrNotFound when the line does not exist.
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type cartRepository struct {
	db SQLExecutor
}

// NewCartRepository creates a new instance of CartRepository.
func NewCartRepository(db SQLExecutor) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) ListItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	query := `SELECT user_id, product_id, quantity, added_at FROM cart_items
	          WHERE user_id = $1 ORDER BY added_at, product_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying cart of user %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.UserID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning cart item: %v", ErrDatabaseError, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating cart rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *cartRepository) AddQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (user_id, product_id, quantity, added_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	if _, err := r.db.ExecContext(ctx, query, userID, productID, quantity, time.Now()); err != nil {
		return fmt.Errorf("%w: adding product %d to cart of user %d: %v", ErrDatabaseError, productID, userID, err)
	}
	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	query := `UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND product_id = $3`
	return r.execAffectingOne(ctx, "updating cart quantity", query, quantity, userID, productID)
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID int64) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`
	return r.execAffectingOne(ctx, "removing cart item", query, userID, productID)
}

func (r *cartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%w: clearing cart of user %d: %v", ErrDatabaseError, userID, err)
	}
	return nil
}

func (r *cartRepository) execAffectingOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
	}
	return expectOneRow(result, op)
}
