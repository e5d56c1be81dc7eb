package orderwindow

import "fmt"

// dayPeriod names the part of the day an hour belongs to.
func dayPeriod(hour int) string {
	switch {
	case hour == 12:
		return "noon"
	case hour >= 5 && hour < 12:
		return "in the morning"
	case hour > 12 && hour < 17:
		return "in the afternoon"
	case hour >= 17 && hour < 22:
		return "in the evening"
	default:
		return "at night"
	}
}

func phrase(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d %s", hour, minute, dayPeriod(hour))
}

// Message renders the window as a customer-facing sentence.
func (w Window) Message() string {
	msg := fmt.Sprintf("We accept orders between %s and %s", phrase(w.StartHour, w.StartMinute), phrase(w.EndHour, w.EndMinute))
	if w.Wraps() {
		msg += " (next day)"
	}
	return msg + "."
}
