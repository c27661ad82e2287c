package simulation

import "errors"

var (
	// ErrNoData is returned when the selection matches no map rows or no reservation rows.
	ErrNoData = errors.New("no data available for the selected criteria")
	// ErrUnknownMealShift is returned for a meal shift label missing from the catalog.
	ErrUnknownMealShift = errors.New("unknown meal shift")
	// ErrUnknownRestaurant is returned for a restaurant id missing from the catalog.
	ErrUnknownRestaurant = errors.New("unknown restaurant")
)
