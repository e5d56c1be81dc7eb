package repositories

import (
	"context"
	"testing"
	"time"

	"grocery_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository_GetOrCreateSeedsDefaults(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepository(db)
	updated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO settings (.+) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(models.SettingsID, 10, 0, 1, 0, 0.0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM settings WHERE id = \$1`).WithArgs(models.SettingsID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_start_hour", "order_start_minute", "order_end_hour", "order_end_minute",
			"minimum_order_amount", "delivery_points", "updated_at",
		}).AddRow(int64(1), 9, 30, 23, 0, 100.0, []byte(`{"boysDorm":{"displayName":"Erkek Yurdu","enabled":true}}`), updated))

	s, err := repo.GetOrCreate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9, s.OrderStartHour)
	assert.Equal(t, 30, s.OrderStartMinute)
	assert.Equal(t, 100.0, s.MinimumOrderAmount)
	assert.True(t, s.DeliveryPoints[models.DeliveryPointBoysDorm].Enabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_SaveMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSettingsRepository(db)

	mock.ExpectExec(`UPDATE settings`).WillReturnResult(sqlmock.NewResult(0, 0))

	s := models.DefaultSettings()
	assert.ErrorIs(t, repo.Save(context.Background(), &s), ErrNotFound)
}
