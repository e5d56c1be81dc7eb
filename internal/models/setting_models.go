package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Well-known delivery point identifiers.
const (
	DeliveryPointGirlsDorm = "girlsDorm"
	DeliveryPointBoysDorm  = "boysDorm"
)

// DeliveryPoint is a named campus location orders can be delivered to.
// A point may narrow the global order window with its own hours.
type DeliveryPoint struct {
	DisplayName string `json:"displayName"`
	Enabled     bool   `json:"enabled"`
	StartHour   *int   `json:"startHour,omitempty"`
	StartMinute *int   `json:"startMinute,omitempty"`
	EndHour     *int   `json:"endHour,omitempty"`
	EndMinute   *int   `json:"endMinute,omitempty"`
}

// HasOwnHours reports whether the point carries a complete hour window.
func (p DeliveryPoint) HasOwnHours() bool {
	return p.StartHour != nil && p.StartMinute != nil && p.EndHour != nil && p.EndMinute != nil
}

// DeliveryPoints maps a point id to its configuration. Stored as JSONB.
type DeliveryPoints map[string]DeliveryPoint

// Value implements driver.Valuer.
func (d DeliveryPoints) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *DeliveryPoints) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = DeliveryPoints{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported delivery_points type %T", src)
	}
	points := DeliveryPoints{}
	if err := json.Unmarshal(raw, &points); err != nil {
		return fmt.Errorf("decoding delivery_points: %w", err)
	}
	*d = points
	return nil
}

// AnyEnabled reports whether at least one point currently accepts deliveries.
func (d DeliveryPoints) AnyEnabled() bool {
	for _, p := range d {
		if p.Enabled {
			return true
		}
	}
	return false
}

// Settings is the singleton store-wide configuration record.
type Settings struct {
	ID                 int64          `json:"-"`
	OrderStartHour     int            `json:"orderStartHour"`
	OrderStartMinute   int            `json:"orderStartMinute"`
	OrderEndHour       int            `json:"orderEndHour"`
	OrderEndMinute     int            `json:"orderEndMinute"`
	MinimumOrderAmount float64        `json:"minimumOrderAmount"`
	DeliveryPoints     DeliveryPoints `json:"deliveryPoints"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// SettingsID is the primary key of the singleton settings row.
const SettingsID int64 = 1

// DefaultSettings returns the values a fresh store starts with.
func DefaultSettings() Settings {
	return Settings{
		ID:                 SettingsID,
		OrderStartHour:     10,
		OrderStartMinute:   0,
		OrderEndHour:       1,
		OrderEndMinute:     0,
		MinimumOrderAmount: 0,
		DeliveryPoints: DeliveryPoints{
			DeliveryPointGirlsDorm: {DisplayName: "Kız Yurdu", Enabled: true},
			DeliveryPointBoysDorm:  {DisplayName: "Erkek Yurdu", Enabled: true},
		},
	}
}

// SettingsPatch is a partial update. Nil fields are left untouched; delivery
// points are merged per id.
type SettingsPatch struct {
	OrderStartHour     *int                     `json:"orderStartHour" binding:"omitempty,min=0,max=23"`
	OrderStartMinute   *int                     `json:"orderStartMinute" binding:"omitempty,min=0,max=59"`
	OrderEndHour       *int                     `json:"orderEndHour" binding:"omitempty,min=0,max=23"`
	OrderEndMinute     *int                     `json:"orderEndMinute" binding:"omitempty,min=0,max=59"`
	MinimumOrderAmount *float64                 `json:"minimumOrderAmount" binding:"omitempty,min=0"`
	DeliveryPoints     map[string]DeliveryPoint `json:"deliveryPoints"`
}

var ErrInvalidSettings = errors.New("invalid settings")

// Apply merges the patch into s and validates the result.
func (p SettingsPatch) Apply(s *Settings) error {
	if p.OrderStartHour != nil {
		s.OrderStartHour = *p.OrderStartHour
	}
	if p.OrderStartMinute != nil {
		s.OrderStartMinute = *p.OrderStartMinute
	}
	if p.OrderEndHour != nil {
		s.OrderEndHour = *p.OrderEndHour
	}
	if p.OrderEndMinute != nil {
		s.OrderEndMinute = *p.OrderEndMinute
	}
	if p.MinimumOrderAmount != nil {
		s.MinimumOrderAmount = *p.MinimumOrderAmount
	}
	if len(p.DeliveryPoints) > 0 {
		merged := make(DeliveryPoints, len(s.DeliveryPoints)+len(p.DeliveryPoints))
		for id, point := range s.DeliveryPoints {
			merged[id] = point
		}
		for id, point := range p.DeliveryPoints {
			merged[id] = point
		}
		s.DeliveryPoints = merged
	}
	return s.Validate()
}

// Validate checks hour/minute ranges and delivery point definitions.
func (s Settings) Validate() error {
	if !validHourMinute(s.OrderStartHour, s.OrderStartMinute) || !validHourMinute(s.OrderEndHour, s.OrderEndMinute) {
		return fmt.Errorf("%w: order hours must be within 00:00-23:59", ErrInvalidSettings)
	}
	if s.MinimumOrderAmount < 0 {
		return fmt.Errorf("%w: minimum order amount cannot be negative", ErrInvalidSettings)
	}
	for id, p := range s.DeliveryPoints {
		if id == "" || p.DisplayName == "" {
			return fmt.Errorf("%w: delivery point %q needs an id and a display name", ErrInvalidSettings, id)
		}
		if p.StartHour != nil || p.StartMinute != nil || p.EndHour != nil || p.EndMinute != nil {
			if !p.HasOwnHours() {
				return fmt.Errorf("%w: delivery point %q hours must be fully specified", ErrInvalidSettings, id)
			}
			if !validHourMinute(*p.StartHour, *p.StartMinute) || !validHourMinute(*p.EndHour, *p.EndMinute) {
				return fmt.Errorf("%w: delivery point %q hours out of range", ErrInvalidSettings, id)
			}
		}
	}
	return nil
}

func validHourMinute(h, m int) bool {
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}
