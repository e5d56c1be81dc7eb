package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grocery_backend/internal/models"
)

// SettingsRepository persists the singleton settings row.
type SettingsRepository interface {
	// GetOrCreate returns the settings row, inserting defaults first if it is missing.
	GetOrCreate(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

type settingsRepository struct {
	db SQLExecutor
}

// NewSettingsRepository creates a new instance of SettingsRepository.
func NewSettingsRepository(db SQLExecutor) SettingsRepository {
	return &settingsRepository{db: db}
}

const selectSettings = `SELECT id, order_start_hour, order_start_minute, order_end_hour, order_end_minute,
	       minimum_order_amount, delivery_points, updated_at
	  FROM settings WHERE id = $1`

func (r *settingsRepository) GetOrCreate(ctx context.Context) (*models.Settings, error) {
	defaults := models.DefaultSettings()
	insert := `INSERT INTO settings
	             (id, order_start_hour, order_start_minute, order_end_hour, order_end_minute,
	              minimum_order_amount, delivery_points, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	           ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, insert,
		models.SettingsID, defaults.OrderStartHour, defaults.OrderStartMinute, defaults.OrderEndHour, defaults.OrderEndMinute,
		defaults.MinimumOrderAmount, defaults.DeliveryPoints, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: seeding default settings: %v", ErrDatabaseError, err)
	}

	s := &models.Settings{}
	err = r.db.QueryRowContext(ctx, selectSettings, models.SettingsID).Scan(
		&s.ID, &s.OrderStartHour, &s.OrderStartMinute, &s.OrderEndHour, &s.OrderEndMinute,
		&s.MinimumOrderAmount, &s.DeliveryPoints, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading settings: %v", ErrDatabaseError, err)
	}
	return s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *models.Settings) error {
	s.UpdatedAt = time.Now()
	query := `UPDATE settings
	             SET order_start_hour = $1, order_start_minute = $2, order_end_hour = $3, order_end_minute = $4,
	                 minimum_order_amount = $5, delivery_points = $6, updated_at = $7
	           WHERE id = $8`
	result, err := r.db.ExecContext(ctx, query,
		s.OrderStartHour, s.OrderStartMinute, s.OrderEndHour, s.OrderEndMinute,
		s.MinimumOrderAmount, s.DeliveryPoints, s.UpdatedAt, models.SettingsID,
	)
	if err != nil {
		return fmt.Errorf("%w: saving settings: %v", ErrDatabaseError, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for settings update: %v", ErrDatabaseError, err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
