package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery_backend/internal/models"

	"github.com/lib/pq"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Create inserts the order and its items using executor, which is usually a transaction.
	Create(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error)
	GetByID(ctx context.Context, orderID int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	UpdateStatus(ctx context.Context, orderID int64, newStatus string, updatedAt time.Time) error
	// TransitionStatus moves an order owned by userID from one status to another.
	// It returns ErrNotFound when no row matched all conditions.
	TransitionStatus(ctx context.Context, orderID, userID int64, from, to string, updatedAt time.Time) error
	CountUserOrders(ctx context.Context, userID int64, includeCancelled bool) (int, error)
}

type orderRepository struct {
	db SQLExecutor
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db SQLExecutor) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.user_id, o.subtotal_amount, o.discount_amount, o.total_amount, o.city, o.phone,
	o.coupon_code, o.delivery_point, o.delivery_point_name, o.note, o.status, o.created_at, o.updated_at`

func scanOrder(row scanner, extra ...interface{}) (models.Order, error) {
	var o models.Order
	dest := []interface{}{
		&o.ID, &o.UserID, &o.SubtotalAmount, &o.DiscountAmount, &o.TotalAmount, &o.City, &o.Phone,
		&o.CouponCode, &o.DeliveryPoint, &o.DeliveryPointName, &o.Note, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return o, err
}

func (r *orderRepository) Create(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error) {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	query := `INSERT INTO orders
	            (user_id, subtotal_amount, discount_amount, total_amount, city, phone, coupon_code,
	             delivery_point, delivery_point_name, note, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		order.UserID, order.SubtotalAmount, order.DiscountAmount, order.TotalAmount, order.City, order.Phone, order.CouponCode,
		order.DeliveryPoint, order.DeliveryPointName, order.Note, order.Status, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, name, quantity, price)
	              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err := executor.QueryRowContext(ctx, itemQuery, item.OrderID, item.ProductID, item.Name, item.Quantity, item.Price).Scan(&item.ID)
		if err != nil {
			return 0, fmt.Errorf("%w: creating item for product %d of order %d: %v", ErrDatabaseError, item.ProductID, order.ID, err)
		}
	}
	return order.ID, nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	orders := []models.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying orders of user %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) List(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argCounter))
		args = append(args, *filters.UserID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		day, err := time.Parse("2006-01-02", *filters.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: date %s, expected YYYY-MM-DD", ErrInvalidFilter, *filters.Date)
		}
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
		args = append(args, day, day.AddDate(0, 0, 1))
		argCounter += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

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
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	orders := []models.Order{}
	totalCount := 0
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// attachItems loads items for all orders with a single query.
func (r *orderRepository) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query := `SELECT id, order_id, product_id, name, quantity, price FROM order_items
	          WHERE order_id = ANY($1) ORDER BY order_id, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, newStatus string, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, newStatus, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return expectOneRow(result, "order status update")
}

func (r *orderRepository) TransitionStatus(ctx context.Context, orderID, userID int64, from, to string, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, updatedAt, orderID, userID, from)
	if err != nil {
		return fmt.Errorf("%w: transitioning order %d: %v", ErrDatabaseError, orderID, err)
	}
	return expectOneRow(result, "order status transition")
}

func (r *orderRepository) CountUserOrders(ctx context.Context, userID int64, includeCancelled bool) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	args := []interface{}{userID}
	if !includeCancelled {
		query += ` AND status <> $2`
		args = append(args, models.OrderStatusCancelled)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting orders of user %d: %v", ErrDatabaseError, userID, err)
	}
	return n, nil
}
