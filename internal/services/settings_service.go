package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"grocery_backend/internal/models"
	"grocery_backend/internal/orderwindow"
	"grocery_backend/internal/repositories"

	"github.com/rs/zerolog/log"
)

// OrderWindow is the admission check backed by the order-window cache.
type OrderWindow interface {
	IsWithinOrderHours(ctx context.Context) bool
	OrderHoursMessage(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
	Now() time.Time
}

// DeliveryPointInfo is a public view of one enabled delivery point.
type DeliveryPointInfo struct {
	ID          string              `json:"id"`
	DisplayName string              `json:"displayName"`
	Hours       *orderwindow.Window `json:"hours,omitempty"`
}

// DeliveryInfo is what the storefront needs before checkout.
type DeliveryInfo struct {
	Points             []DeliveryPointInfo `json:"points"`
	MinimumOrderAmount float64             `json:"minimumOrderAmount"`
}

// OrderHoursInfo reports whether the store is open right now.
type OrderHoursInfo struct {
	IsOpen  bool               `json:"isOpen"`
	Message string             `json:"message"`
	Window  orderwindow.Window `json:"window"`
}

// SettingsService exposes the singleton store settings.
type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error)
	DeliveryPoints(ctx context.Context) (*DeliveryInfo, error)
	OrderHours(ctx context.Context) (*OrderHoursInfo, error)
}

type settingsService struct {
	repo   repositories.SettingsRepository
	window OrderWindow
}

// NewSettingsService creates a new instance of SettingsService.
func NewSettingsService(repo repositories.SettingsRepository, window OrderWindow) SettingsService {
	return &settingsService{repo: repo, window: window}
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := patch.Apply(settings); err != nil {
		if errors.Is(err, models.ErrInvalidSettings) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	if err := s.window.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("settings saved but order window refresh failed")
	}
	return settings, nil
}

func (s *settingsService) DeliveryPoints(ctx context.Context) (*DeliveryInfo, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	info := &DeliveryInfo{Points: []DeliveryPointInfo{}, MinimumOrderAmount: settings.MinimumOrderAmount}
	for id, p := range settings.DeliveryPoints {
		if !p.Enabled {
			continue
		}
		point := DeliveryPointInfo{ID: id, DisplayName: p.DisplayName}
		if w, ok := orderwindow.ForDeliveryPoint(p); ok {
			point.Hours = &w
		}
		info.Points = append(info.Points, point)
	}
	sort.Slice(info.Points, func(i, j int) bool { return info.Points[i].ID < info.Points[j].ID })
	return info, nil
}

func (s *settingsService) OrderHours(ctx context.Context) (*OrderHoursInfo, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	w := orderwindow.FromSettings(*settings)
	return &OrderHoursInfo{
		IsOpen:  s.window.IsWithinOrderHours(ctx),
		Message: w.Message(),
		Window:  w,
	}, nil
}
