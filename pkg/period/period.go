package period

import (
	"fmt"
	"time"

	"github.com/bolsillito/bolsillito/internal/utils"
)

// Type selects how a reference date maps onto a display window.
type Type string

const (
	Weekly  Type = "weekly"
	Monthly Type = "monthly"
)

func (t Type) Valid() bool {
	return t == Weekly || t == Monthly
}

// Window is a bounded date interval scoping the budget display. It is derived
// from a reference date, never stored.
type Window struct {
	Start time.Time
	End   time.Time
	Type  Type
}

// Month abbreviations are fixed; they are part of the display format, not a
// locale concern.
var monthNames = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// WindowFor maps a reference date to its containing window. Weekly windows run
// Monday through Sunday; monthly windows cover the full calendar month. The
// function is pure: the same reference date and type always yield the same
// window.
func WindowFor(ref time.Time, t Type) Window {
	ref = utils.TruncateToDay(ref)

	if t == Weekly {
		offset := 1 - int(ref.Weekday())
		if ref.Weekday() == time.Sunday {
			offset = -6
		}
		start := ref.AddDate(0, 0, offset)
		return Window{Start: start, End: start.AddDate(0, 0, 6), Type: Weekly}
	}

	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	// Day 0 of the next month is the last day of this one.
	end := start.AddDate(0, 1, -1)
	return Window{Start: start, End: end, Type: Monthly}
}

// Advance moves the reference date one period in the given direction
// (-1 or +1). Weekly shifts by seven days; monthly uses calendar month
// arithmetic, not a fixed 30-day offset.
func Advance(ref time.Time, t Type, direction int) time.Time {
	if t == Weekly {
		return ref.AddDate(0, 0, 7*direction)
	}
	return ref.AddDate(0, direction, 0)
}

// IsNavigableBackward reports whether w is still reachable by backward
// navigation: a window that ended before today (truncated to midnight) lies
// entirely in the past and is off-limits.
func IsNavigableBackward(w Window, today time.Time) bool {
	return !w.End.Before(utils.TruncateToDay(today))
}

// Format renders the window for display: "Ene 8 - 14, 2024" for a same-month
// week, "Ene 29 - Feb 4, 2024" when the week crosses months, "Feb 2024" for a
// month.
func Format(w Window) string {
	startMonth := monthNames[w.Start.Month()-1]
	if w.Type == Monthly {
		return fmt.Sprintf("%s %d", startMonth, w.Start.Year())
	}

	endMonth := monthNames[w.End.Month()-1]
	if w.Start.Month() == w.End.Month() {
		return fmt.Sprintf("%s %d - %d, %d", startMonth, w.Start.Day(), w.End.Day(), w.Start.Year())
	}
	return fmt.Sprintf("%s %d - %s %d, %d", startMonth, w.Start.Day(), endMonth, w.End.Day(), w.Start.Year())
}
