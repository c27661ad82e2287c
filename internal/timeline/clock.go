// Package timeline converts wall-clock text into minute offsets and instants
// on a shift-relative timeline.
package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a time-of-day or date+time pair cannot be parsed.
var ErrInvalidTimeFormat = errors.New("invalid time format")

const dateLayout = "2006-01-02"

// TimeOfDayToMinutes converts "HH:MM" (an optional ":SS" part is ignored) to minutes past midnight.
func TimeOfDayToMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("%w: hours in %q", ErrInvalidTimeFormat, s)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("%w: minutes in %q", ErrInvalidTimeFormat, s)
	}
	return hours*60 + minutes, nil
}

// Clock resolves date and time text in one fixed location. Both source
// datasets are assumed to be written in that same location.
type Clock struct {
	loc *time.Location
}

// NewClock returns a Clock for the named IANA zone ("Local" and "UTC" included).
func NewClock(zone string) (*Clock, error) {
	if zone == "" {
		zone = "Local"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return &Clock{loc: loc}, nil
}

// NewClockIn returns a Clock bound to loc.
func NewClockIn(loc *time.Location) *Clock {
	return &Clock{loc: loc}
}

// Location returns the clock's location.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Midnight returns the start of the given yyyy-MM-dd date.
func (c *Clock) Midnight(date string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidTimeFormat, date)
	}
	return t, nil
}

// ParseInstant combines a yyyy-MM-dd date with an HH:MM or HH:MM:SS time.
func (c *Clock) ParseInstant(date, clock string) (time.Time, error) {
	clock = strings.TrimSpace(clock)
	layout := dateLayout + " 15:04:05"
	if strings.Count(clock, ":") == 1 {
		layout = dateLayout + " 15:04"
	}
	t, err := time.ParseInLocation(layout, strings.TrimSpace(date)+" "+clock, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidTimeFormat, date, clock)
	}
	return t, nil
}

// ShiftStart returns the absolute instant of minute zero: the date's midnight
// plus the baseline minutes.
func (c *Clock) ShiftStart(date string, baseline int) (time.Time, error) {
	midnight, err := c.Midnight(date)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := midnight.Date()
	return time.Date(y, m, d, 0, baseline, 0, 0, c.loc), nil
}

// MinutesBetween returns (to - from) in real-valued minutes.
func MinutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}
