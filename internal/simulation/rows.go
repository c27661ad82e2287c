package simulation

import (
	"math"
	"strconv"
	"strings"

	"table-timeline-backend/internal/parse"
)

// mapRow is the typed view of one row of the venue map export.
type mapRow struct {
	Restaurant string
	Date       string
	Meal       string
	Tables     string
}

func newMapRow(r parse.Row) mapRow {
	return mapRow{
		Restaurant: r.Get("restaurant_name"),
		Date:       r.Get("date"),
		Meal:       r.Get("meal"),
		Tables:     r.Get("tables"),
	}
}

// reservationRow is the typed view of one row of the reservations export.
// The date/time pair doubles as the reservation instant.
type reservationRow struct {
	Date       string
	MealShift  string
	Restaurant string
	Status     string
	Time       string
	Tables     string
	PartySize  string
	Duration   string
	DateAdd    string
	TimeAdd    string
	Provenance string
}

func newReservationRow(r parse.Row) reservationRow {
	return reservationRow{
		Date:       r.Get("date"),
		MealShift:  r.Get("meal_shift"),
		Restaurant: r.Get("restaurant"),
		Status:     r.Get("status_long"),
		Time:       r.Get("time"),
		Tables:     r.Get("tables"),
		PartySize:  r.Get("for"),
		Duration:   r.Get("duration"),
		DateAdd:    r.Get("date_add"),
		TimeAdd:    r.Get("time_add"),
		Provenance: r.Get("provenance"),
	}
}

// parseTableIDs reads "5", "5,6" or "5, 6". Tokens that are not plain digits
// are dropped, as are repeats of an id already read.
func parseTableIDs(cell string) []int {
	ids := []int{}
	seen := make(map[int]struct{})
	for _, token := range strings.Split(cell, ",") {
		token = strings.TrimSpace(token)
		if !isDigits(token) {
			continue
		}
		id, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// parseCount reads a positive count such as "4" or "90.0"; fractional parts
// are truncated. ok is false for anything else.
func parseCount(s string) (n int, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	n = int(math.Trunc(f))
	if n <= 0 {
		return 0, false
	}
	return n, true
}
