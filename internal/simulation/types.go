package simulation

import "time"

// Options selects the venue, date and meal shift to derive.
type Options struct {
	Date         string // yyyy-MM-dd
	MealShift    string // a catalog label such as "Comida"
	RestaurantID string
}

// TableRecord is one physical seating unit of the venue map.
type TableRecord struct {
	TableID     int  `json:"table_id"`
	MaxCapacity int  `json:"max_capacity"`
	MinCapacity int  `json:"min_capacity"`
	Occupied    bool `json:"occupied"` // display annotation; never read back by the engine

	// OccupancyLog is in reservation-processing order, not time order.
	OccupancyLog []OccupancyEntry `json:"occupancy_log"`

	explicitMin bool // MinCapacity came from the export rather than MaxCapacity
}

// OccupancyEntry is one table's participation in one reservation.
type OccupancyEntry struct {
	StartTime           int       `json:"start_time"`
	EndTime             int       `json:"end_time"`
	CreationDatetime    time.Time `json:"creation_datetime"`
	ReservationDatetime time.Time `json:"reservation_datetime"`
	StatusLong          string    `json:"status_long"`
	PartySize           int       `json:"party_size"`
	Provenance          string    `json:"provenance"`

	reservation int // index into DerivedModel.Reservations
}

// Reservation is one confirmed booking placed on the shift timeline.
type Reservation struct {
	ArrivalTime         int       `json:"arrival_time"`
	TableIDs            []int     `json:"table_ids"`
	PartySize           int       `json:"party_size"` // 0 when the source value is unusable
	Duration            int       `json:"duration"`
	CreationDatetime    time.Time `json:"creation_datetime"`
	ReservationDatetime time.Time `json:"reservation_datetime"`
	StatusLong          string    `json:"status_long"`
	Provenance          string    `json:"provenance"`
}

// MatchQuality classifies how a party fits the capacity of its tables.
type MatchQuality string

const (
	MatchUnknown MatchQuality = "unknown"
	MatchOver    MatchQuality = "over"
	MatchUnder   MatchQuality = "under"
	MatchExact   MatchQuality = "exact"
	MatchFit     MatchQuality = "fit"
)

// OccupancyGroup merges every entry sharing one (start, end, creation,
// reservation) tuple into a single multi-table event.
type OccupancyGroup struct {
	TableIDs      []int        `json:"table_ids"`
	Start         int          `json:"start"`
	Duration      int          `json:"duration"`
	Creation      time.Time    `json:"creation"`
	Reservation   time.Time    `json:"reservation"`
	Advance       float64      `json:"advance"`
	CreationRel   float64      `json:"creation_rel"`
	StatusLong    string       `json:"status_long"`
	PartySize     int          `json:"partySize"`
	Provenance    string       `json:"provenance"`
	TotalCapacity int          `json:"totalCapacity"`
	MinCapacity   int          `json:"minCapacity"`
	Match         MatchQuality `json:"match"`
}

// End returns the group's end on the arrival-time axis.
func (g OccupancyGroup) End() int {
	return g.Start + g.Duration
}

// HasTable reports whether id is one of the group's tables.
func (g OccupancyGroup) HasTable(id int) bool {
	for _, t := range g.TableIDs {
		if t == id {
			return true
		}
	}
	return false
}

// Diagnostics counts the row-level problems recovered during a derivation.
type Diagnostics struct {
	SkippedMapRows         int `json:"skippedMapRows"`
	SkippedReservationRows int `json:"skippedReservationRows"`
	UnknownTableRefs       int `json:"unknownTableRefs"`
	UnrecognizedMealCodes  int `json:"unrecognizedMealCodes"`
	SkippedTableEntries    int `json:"skippedTableEntries"`
}

// DerivedModel is the complete result of one derivation.
type DerivedModel struct {
	Tables              map[int]*TableRecord `json:"tables"`
	Reservations        []Reservation        `json:"reservations"`
	OccupancyGroups     []OccupancyGroup     `json:"occupancyGroups"` // ascending by Creation
	MinTime             int                  `json:"minTime"`
	EndTime             int                  `json:"endTime"`
	ShiftStart          time.Time            `json:"shiftStart"`
	FirstCreationTime   float64              `json:"firstCreationTime"`
	LastReservationTime float64              `json:"lastReservationTime"`
	Diagnostics         Diagnostics          `json:"diagnostics"`
}
