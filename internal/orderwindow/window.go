// Package orderwindow decides whether the store is currently accepting orders.
package orderwindow

import (
	"fmt"
	"time"

	"grocery_backend/internal/models"
)

// Window is a daily time range. When Start >= End the range wraps past midnight.
// Both ends are inclusive.
type Window struct {
	StartHour   int `json:"startHour"`
	StartMinute int `json:"startMinute"`
	EndHour     int `json:"endHour"`
	EndMinute   int `json:"endMinute"`
}

// DefaultWindow is used until settings have been loaded.
var DefaultWindow = Window{StartHour: 10, StartMinute: 0, EndHour: 1, EndMinute: 0}

// FromSettings extracts the global order window.
func FromSettings(s models.Settings) Window {
	return Window{
		StartHour:   s.OrderStartHour,
		StartMinute: s.OrderStartMinute,
		EndHour:     s.OrderEndHour,
		EndMinute:   s.OrderEndMinute,
	}
}

// ForDeliveryPoint returns the point's own window, if it has one.
func ForDeliveryPoint(p models.DeliveryPoint) (Window, bool) {
	if !p.HasOwnHours() {
		return Window{}, false
	}
	return Window{StartHour: *p.StartHour, StartMinute: *p.StartMinute, EndHour: *p.EndHour, EndMinute: *p.EndMinute}, true
}

func (w Window) start() int { return w.StartHour*60 + w.StartMinute }
func (w Window) end() int   { return w.EndHour*60 + w.EndMinute }

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool {
	return w.start() >= w.end()
}

// ContainsMinute reports whether minuteOfDay (0..1439) falls inside the window.
func (w Window) ContainsMinute(minuteOfDay int) bool {
	start, end := w.start(), w.end()
	if start < end {
		return minuteOfDay >= start && minuteOfDay <= end
	}
	return minuteOfDay >= start || minuteOfDay <= end
}

// Contains reports whether t, taken in its own location, falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return w.ContainsMinute(t.Hour()*60 + t.Minute())
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.StartHour, w.StartMinute, w.EndHour, w.EndMinute)
}
