// Package format renders timeline values for display.
package format

import (
	"fmt"
	"math"
	"time"
)

// ClockPlaceholder is rendered when no shift start is known.
const ClockPlaceholder = "00:00"

// DefaultLayout renders an instant as day/month/year and 24-hour time.
const DefaultLayout = "02/01/2006 15:04"

// MinutesToClock renders shiftStart plus minutes as 24-hour HH:MM.
func MinutesToClock(minutes int, shiftStart *time.Time) string {
	if shiftStart == nil || shiftStart.IsZero() {
		return ClockPlaceholder
	}
	return shiftStart.Add(time.Duration(minutes) * time.Minute).Format("15:04")
}

// Formatter renders instants with a fixed layout in a fixed location.
type Formatter struct {
	layout string
	loc    *time.Location
}

// NewFormatter returns a Formatter. An empty layout selects DefaultLayout and
// a nil location keeps each instant's own location.
func NewFormatter(layout string, loc *time.Location) *Formatter {
	if layout == "" {
		layout = DefaultLayout
	}
	return &Formatter{layout: layout, loc: loc}
}

// Instant renders t, or "" for the zero time.
func (f *Formatter) Instant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if f.loc != nil {
		t = t.In(f.loc)
	}
	return t.Format(f.layout)
}

// Instant renders t with DefaultLayout.
func Instant(t time.Time) string {
	return NewFormatter("", nil).Instant(t)
}

// Advance renders a lead time in minutes as "2h 5m", "45m" or "3d 2h".
func Advance(minutes float64) string {
	if math.IsNaN(minutes) || minutes < 0 {
		minutes = 0
	}
	total := int(math.Round(minutes))
	days, hours, mins := total/1440, (total%1440)/60, total%60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
