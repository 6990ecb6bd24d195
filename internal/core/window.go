package core

import (
	"fmt"
	"strings"
	"time"
)

// Window filters records by timestamp. Both bounds are inclusive; a zero
// bound is unbounded on that side.
type Window struct {
	Start time.Time
	End   time.Time
}

// Preset names a reporting window relative to "now".
type Preset string

const (
	PresetCurrentMonth  Preset = "month"
	PresetPreviousMonth Preset = "last"
	PresetAllTime       Preset = "all"
)

var ErrUnknownPreset = fmt.Errorf("%w: unknown window", ErrValidation)

// AllTime is the unbounded window.
func AllTime() Window { return Window{} }

// CurrentMonth spans the first instant of now's month up to now, in UTC.
func CurrentMonth(now time.Time) Window {
	now = now.UTC()
	return Window{Start: StartOfMonth(now), End: now}
}

// PreviousMonth spans the whole calendar month before now's month.
func PreviousMonth(now time.Time) Window {
	thisMonth := StartOfMonth(now.UTC())
	return Window{
		Start: thisMonth.AddDate(0, -1, 0),
		End:   thisMonth.Add(-time.Nanosecond),
	}
}

// StartOfMonth returns midnight UTC of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the calendar length of t's month.
func DaysInMonth(t time.Time) int {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// IsUnbounded reports whether neither bound is set.
func (w Window) IsUnbounded() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// ParsePreset accepts the preset names plus a few spoken aliases.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month", "this", "current":
		return PresetCurrentMonth, nil
	case "last", "previous", "prev":
		return PresetPreviousMonth, nil
	case "all", "alltime", "all-time", "total":
		return PresetAllTime, nil
	default:
		return "", ErrUnknownPreset
	}
}

// Window resolves the preset against now.
func (p Preset) Window(now time.Time) Window {
	switch p {
	case PresetPreviousMonth:
		return PreviousMonth(now)
	case PresetAllTime:
		return AllTime()
	default:
		return CurrentMonth(now)
	}
}

// MonthBounded reports whether the preset covers a single calendar month, the
// only windows a monthly budget can be compared against.
func (p Preset) MonthBounded() bool {
	return p == PresetCurrentMonth || p == PresetPreviousMonth
}

func (p Preset) Label(now time.Time) string {
	switch p {
	case PresetPreviousMonth:
		return PreviousMonth(now).Start.Format("January 2006")
	case PresetAllTime:
		return "All time"
	default:
		return StartOfMonth(now).Format("January 2006")
	}
}
