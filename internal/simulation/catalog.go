package simulation

import (
	"math"
	"strconv"
	"strings"

	"table-timeline-backend/config"
)

// Catalog holds the fixed enumerations the engine filters against. It is
// built once and never modified; accessors hand out copies.
type Catalog struct {
	restaurants     []string
	statuses        map[string]struct{}
	statusOrder     []string
	shifts          []config.MealShift
	defaultDuration int
	endPadding      int
}

// NewCatalog builds a Catalog from the simulation configuration.
func NewCatalog(cfg config.SimulationConfig) Catalog {
	c := Catalog{
		restaurants:     append([]string(nil), cfg.Restaurants...),
		statuses:        make(map[string]struct{}, len(cfg.ConfirmedStatuses)),
		statusOrder:     append([]string(nil), cfg.ConfirmedStatuses...),
		shifts:          append([]config.MealShift(nil), cfg.MealShifts...),
		defaultDuration: cfg.DefaultDurationMinutes,
		endPadding:      cfg.EndPaddingMinutes,
	}
	for _, s := range cfg.ConfirmedStatuses {
		c.statuses[s] = struct{}{}
	}
	if c.defaultDuration <= 0 {
		c.defaultDuration = 90
	}
	if c.endPadding <= 0 {
		c.endPadding = 10
	}
	return c
}

// Restaurants returns the known restaurant ids in configuration order.
func (c Catalog) Restaurants() []string {
	return append([]string(nil), c.restaurants...)
}

// ConfirmedStatuses returns the statuses treated as occupying a table.
func (c Catalog) ConfirmedStatuses() []string {
	return append([]string(nil), c.statusOrder...)
}

// MealShifts returns the known shift labels and their map codes.
func (c Catalog) MealShifts() []config.MealShift {
	return append([]config.MealShift(nil), c.shifts...)
}

// DefaultDuration is the duration in minutes used when a row has none.
func (c Catalog) DefaultDuration() int {
	return c.defaultDuration
}

// EndPadding is added after the last reservation ends.
func (c Catalog) EndPadding() int {
	return c.endPadding
}

func (c Catalog) isConfirmed(status string) bool {
	_, ok := c.statuses[status]
	return ok
}

// knowsRestaurant accepts any id when the catalog lists no restaurants.
func (c Catalog) knowsRestaurant(id string) bool {
	if len(c.restaurants) == 0 {
		return true
	}
	for _, r := range c.restaurants {
		if r == id {
			return true
		}
	}
	return false
}

func (c Catalog) shift(label string) (config.MealShift, bool) {
	for _, s := range c.shifts {
		if s.Label == label {
			return s, true
		}
	}
	return config.MealShift{}, false
}

// shiftMatches compares a map row's meal cell loosely against a shift: the
// export writes the code as "1", "1.0" or the label itself. An empty cell
// applies to every shift.
func shiftMatches(cell string, shift config.MealShift) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, shift.Label) {
		return true
	}
	code, ok := mealCode(cell)
	return ok && code == shift.Code
}

// recognizesMeal reports whether a non-empty meal cell names any catalog shift.
func (c Catalog) recognizesMeal(cell string) bool {
	for _, s := range c.shifts {
		if shiftMatches(cell, s) {
			return true
		}
	}
	return false
}

func mealCode(cell string) (int, bool) {
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
