package services

import (
	"context"
	"errors"
	"testing"

	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSettings(t *testing.T) (*mocks.SettingsRepository, *mockWindow, SettingsService) {
	repo := mocks.NewSettingsRepository(t)
	window := &mockWindow{}
	window.Test(t)
	t.Cleanup(func() { window.AssertExpectations(t) })
	return repo, window, NewSettingsService(repo, window)
}

func TestSettingsService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial merge then refresh", func(t *testing.T) {
		repo, window, svc := setupSettings(t)
		current := models.DefaultSettings()
		repo.On("GetOrCreate", ctx).Return(&current, nil)
		repo.On("Save", ctx, mock.MatchedBy(func(s *models.Settings) bool {
			return s.OrderStartHour == 9 && s.OrderEndHour == 1 && s.MinimumOrderAmount == 0
		})).Return(nil)
		window.On("Refresh", ctx).Return(nil).Once()

		got, err := svc.Update(ctx, models.SettingsPatch{OrderStartHour: intPtr(9)})
		require.NoError(t, err)
		assert.Equal(t, 9, got.OrderStartHour)
		assert.Len(t, got.DeliveryPoints, 2)
	})

	t.Run("invalid patch is a validation error", func(t *testing.T) {
		repo, _, svc := setupSettings(t)
		current := models.DefaultSettings()
		repo.On("GetOrCreate", ctx).Return(&current, nil)

		_, err := svc.Update(ctx, models.SettingsPatch{OrderEndMinute: intPtr(75)})
		assert.ErrorIs(t, err, ErrValidation)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("refresh failure does not fail the update", func(t *testing.T) {
		repo, window, svc := setupSettings(t)
		current := models.DefaultSettings()
		repo.On("GetOrCreate", ctx).Return(&current, nil)
		repo.On("Save", ctx, mock.Anything).Return(nil)
		window.On("Refresh", ctx).Return(errors.New("db down"))

		_, err := svc.Update(ctx, models.SettingsPatch{MinimumOrderAmount: float64Ptr(50)})
		assert.NoError(t, err)
	})
}

func TestSettingsService_DeliveryPoints(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupSettings(t)
	s := models.DefaultSettings()
	s.MinimumOrderAmount = 75
	s.DeliveryPoints[models.DeliveryPointBoysDorm] = models.DeliveryPoint{DisplayName: "Erkek Yurdu", Enabled: false}
	s.DeliveryPoints["library"] = models.DeliveryPoint{
		DisplayName: "Library", Enabled: true,
		StartHour: intPtr(12), StartMinute: intPtr(0), EndHour: intPtr(18), EndMinute: intPtr(0),
	}
	repo.On("GetOrCreate", ctx).Return(&s, nil)

	info, err := svc.DeliveryPoints(ctx)
	require.NoError(t, err)
	assert.Equal(t, 75.0, info.MinimumOrderAmount)
	require.Len(t, info.Points, 2)
	assert.Equal(t, models.DeliveryPointGirlsDorm, info.Points[0].ID)
	assert.Nil(t, info.Points[0].Hours)
	assert.Equal(t, "library", info.Points[1].ID)
	require.NotNil(t, info.Points[1].Hours)
	assert.Equal(t, 12, info.Points[1].Hours.StartHour)
}

func TestSettingsService_OrderHours(t *testing.T) {
	ctx := context.Background()
	repo, window, svc := setupSettings(t)
	s := models.DefaultSettings()
	repo.On("GetOrCreate", ctx).Return(&s, nil)
	window.On("IsWithinOrderHours", ctx).Return(true)

	info, err := svc.OrderHours(ctx)
	require.NoError(t, err)
	assert.True(t, info.IsOpen)
	assert.Contains(t, info.Message, "10:00")
	assert.True(t, info.Window.Wraps())
}
