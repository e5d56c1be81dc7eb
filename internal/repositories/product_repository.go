package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grocery_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository reads the product catalog.
type ProductRepository interface {
	// FindByID never returns ErrNotFound; a missing product is a MissingProduct lookup.
	FindByID(ctx context.Context, id int64) (models.ProductLookup, error)
	// FindByIDs returns the subset of ids that exist, keyed by id.
	FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	Create(ctx context.Context, p *models.Product) (int64, error)
}

type productRepository struct {
	db SQLExecutor
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db SQLExecutor) ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row scanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.IsAvailable, &p.CreatedAt)
	return p, err
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (models.ProductLookup, error) {
	query := `SELECT id, name, price, category, is_available, created_at FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MissingProduct(), nil
		}
		return models.MissingProduct(), fmt.Errorf("%w: getting product %d: %v", ErrDatabaseError, id, err)
	}
	return models.FoundProduct(p), nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	found := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	query := `SELECT id, name, price, category, is_available, created_at FROM products WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		found[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return found, nil
}

func (r *productRepository) Create(ctx context.Context, p *models.Product) (int64, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	query := `INSERT INTO products (name, price, category, is_available, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Category, p.IsAvailable, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: product %q", ErrDuplicateKey, p.Name)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return p.ID, nil
}
