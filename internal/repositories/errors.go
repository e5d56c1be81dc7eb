package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError wraps unexpected driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrCouponExhausted is returned when a conditional usage increment matched no row.
	ErrCouponExhausted = errors.New("coupon usage limit reached")

	// ErrInvalidFilter is returned for malformed list filters.
	ErrInvalidFilter = errors.New("invalid filter")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx so repository methods can
// run inside or outside a transaction.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// Transactor runs a function inside a database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor creates a Transactor backed by db.
func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(tx SQLExecutor) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
