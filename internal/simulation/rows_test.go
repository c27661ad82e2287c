package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"table-timeline-backend/internal/parse"
)

func TestParseTableIDs(t *testing.T) {
	testCases := []struct {
		cell     string
		expected []int
	}{
		{"5", []int{5}},
		{"5,6", []int{5, 6}},
		{" 5 , 6 ", []int{5, 6}},
		{"5,terraza,6a,7", []int{5, 7}},
		{"6,5,6", []int{6, 5}},
		{"", []int{}},
		{"-3", []int{}},
	}

	for _, tc := range testCases {
		t.Run(tc.cell, func(t *testing.T) {
			assert.Equal(t, tc.expected, parseTableIDs(tc.cell))
		})
	}
}

func TestParseCount(t *testing.T) {
	testCases := []struct {
		in       string
		expected int
		ok       bool
	}{
		{"4", 4, true},
		{" 90 ", 90, true},
		{"90.0", 90, true},
		{"2.7", 2, true},
		{"0", 0, false},
		{"-2", 0, false},
		{"", 0, false},
		{"four", 0, false},
		{"NaN", 0, false},
	}

	for _, tc := range testCases {
		n, ok := parseCount(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.expected, n, "input %q", tc.in)
	}
}

func TestNewReservationRow(t *testing.T) {
	row := newReservationRow(parse.Row{
		"date":        "2024-05-10",
		"meal_shift":  "Cena",
		"restaurant":  testVenue,
		"status_long": " Confirmada ",
		"time":        "21:00",
		"for":         "2",
		"date_add":    "2024-05-01",
		"time_add":    "09:15:00",
	})

	assert.Equal(t, "Cena", row.MealShift)
	assert.Equal(t, "Confirmada", row.Status)
	assert.Equal(t, "2", row.PartySize)
	assert.Equal(t, "", row.Duration)
	assert.Equal(t, "", row.Provenance)
}
