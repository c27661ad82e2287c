package simulation

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"table-timeline-backend/config"
	"table-timeline-backend/internal/parse"
	"table-timeline-backend/internal/timeline"
)

// Engine derives occupancy models. It holds only immutable configuration, so
// one Engine may serve concurrent derivations.
type Engine struct {
	catalog Catalog
	clock   *timeline.Clock
}

// NewEngine creates an engine from the simulation configuration.
func NewEngine(cfg *config.SimulationConfig) (*Engine, error) {
	clock, err := timeline.NewClock(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return NewEngineWith(NewCatalog(*cfg), clock), nil
}

// NewEngineWith creates an engine from an explicit catalog and clock.
func NewEngineWith(catalog Catalog, clock *timeline.Clock) *Engine {
	return &Engine{catalog: catalog, clock: clock}
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() Catalog {
	return e.catalog
}

// Clock returns the engine's clock.
func (e *Engine) Clock() *timeline.Clock {
	return e.clock
}

// Derive filters both datasets to opts and builds the occupancy model.
// Malformed individual rows are skipped and counted in the model's
// Diagnostics; an empty selection or an unparseable reservation time aborts.
func (e *Engine) Derive(mapRows, reservationRows []parse.Row, opts Options) (*DerivedModel, error) {
	shift, ok := e.catalog.shift(opts.MealShift)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMealShift, opts.MealShift)
	}
	if !e.catalog.knowsRestaurant(opts.RestaurantID) {
		return nil, fmt.Errorf("%w: %w: %q", ErrNoData, ErrUnknownRestaurant, opts.RestaurantID)
	}

	var diag Diagnostics

	// Step 1: Filter both datasets to the selection
	var selected []reservationRow
	for _, r := range reservationRows {
		row := newReservationRow(r)
		if row.Date == opts.Date &&
			row.MealShift == opts.MealShift &&
			row.Restaurant == opts.RestaurantID &&
			e.catalog.isConfirmed(row.Status) {
			selected = append(selected, row)
		}
	}

	var maps []mapRow
	for _, r := range mapRows {
		row := newMapRow(r)
		if row.Restaurant != opts.RestaurantID || row.Date != opts.Date {
			continue
		}
		if row.Meal != "" && !e.catalog.recognizesMeal(row.Meal) {
			log.Printf("Warning: map row for %s on %s has unrecognized meal %q", row.Restaurant, row.Date, row.Meal)
			diag.UnrecognizedMealCodes++
		}
		if shiftMatches(row.Meal, shift) {
			maps = append(maps, row)
		}
	}

	if len(selected) == 0 || len(maps) == 0 {
		return nil, fmt.Errorf("%w (%s, %s, %s): %d map rows, %d reservation rows",
			ErrNoData, opts.RestaurantID, opts.Date, opts.MealShift, len(maps), len(selected))
	}

	// Step 2: Build the table inventory; later rows win on id collision
	tables := make(map[int]*TableRecord)
	for _, row := range maps {
		specs, skipped, err := parse.DecodeTableList(row.Tables)
		if err != nil {
			log.Printf("Warning: skipping map row for %s on %s: %v", row.Restaurant, row.Date, err)
			diag.SkippedMapRows++
			continue
		}
		for _, entryErr := range skipped {
			log.Printf("Warning: skipping table entry for %s on %s: %v", row.Restaurant, row.Date, entryErr)
		}
		diag.SkippedTableEntries += len(skipped)
		for _, spec := range specs {
			tables[spec.ID] = &TableRecord{
				TableID:      spec.ID,
				MaxCapacity:  spec.Max,
				MinCapacity:  spec.Min,
				explicitMin:  spec.MinSet,
				OccupancyLog: []OccupancyEntry{},
			}
		}
	}

	// Step 3: The earliest reservation time is minute zero
	arrivals := make([]int, len(selected))
	minTime := math.MaxInt
	for i, row := range selected {
		m, err := timeline.TimeOfDayToMinutes(row.Time)
		if err != nil {
			return nil, fmt.Errorf("failed to compute shift baseline: %w", err)
		}
		arrivals[i] = m
		minTime = min(minTime, m)
	}
	shiftStart, err := e.clock.ShiftStart(opts.Date, minTime)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shift start: %w", err)
	}

	// Step 4: Build reservations
	reservations := make([]Reservation, 0, len(selected))
	for i, row := range selected {
		res, err := e.buildReservation(row, arrivals[i]-minTime)
		if err != nil {
			log.Printf("Warning: skipping reservation at %s %s: %v", row.Date, row.Time, err)
			diag.SkippedReservationRows++
			continue
		}
		reservations = append(reservations, res)
	}

	// Step 5: Distribute each reservation over its known tables
	for idx, res := range reservations {
		for _, id := range res.TableIDs {
			table, ok := tables[id]
			if !ok {
				diag.UnknownTableRefs++
				continue
			}
			table.OccupancyLog = append(table.OccupancyLog, OccupancyEntry{
				StartTime:           res.ArrivalTime,
				EndTime:             res.ArrivalTime + res.Duration,
				CreationDatetime:    res.CreationDatetime,
				ReservationDatetime: res.ReservationDatetime,
				StatusLong:          res.StatusLong,
				PartySize:           res.PartySize,
				Provenance:          res.Provenance,
				reservation:         idx,
			})
		}
	}
	if diag.UnknownTableRefs > 0 {
		log.Printf("Reservations referenced %d table assignments missing from the map", diag.UnknownTableRefs)
	}

	// Steps 6 and 7: Merge entries into groups and order them by creation
	groups := mergeGroups(tables, shiftStart)

	// Step 8: Playback bounds
	lastEnd := 0
	for _, res := range reservations {
		lastEnd = max(lastEnd, res.ArrivalTime+res.Duration)
	}

	model := &DerivedModel{
		Tables:          tables,
		Reservations:    reservations,
		OccupancyGroups: groups,
		MinTime:         minTime,
		EndTime:         lastEnd + e.catalog.EndPadding(),
		ShiftStart:      shiftStart,
		Diagnostics:     diag,
	}

	for i, g := range groups {
		rel := timeline.MinutesBetween(shiftStart, g.Reservation)
		if i == 0 {
			model.FirstCreationTime = g.CreationRel
			model.LastReservationTime = rel
			continue
		}
		model.FirstCreationTime = math.Min(model.FirstCreationTime, g.CreationRel)
		model.LastReservationTime = math.Max(model.LastReservationTime, rel)
	}

	return model, nil
}

// buildReservation converts one selected row; arrival is already relative to the baseline.
func (e *Engine) buildReservation(row reservationRow, arrival int) (Reservation, error) {
	reservedAt, err := e.clock.ParseInstant(row.Date, row.Time)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation instant: %w", err)
	}
	createdAt, err := e.clock.ParseInstant(row.DateAdd, row.TimeAdd)
	if err != nil {
		return Reservation{}, fmt.Errorf("creation instant: %w", err)
	}
	if createdAt.After(reservedAt) {
		createdAt = reservedAt.Add(-time.Second)
	}

	duration, ok := parseCount(row.Duration)
	if !ok {
		duration = e.catalog.DefaultDuration()
	}
	partySize, _ := parseCount(row.PartySize)

	return Reservation{
		ArrivalTime:         arrival,
		TableIDs:            parseTableIDs(row.Tables),
		PartySize:           partySize,
		Duration:            duration,
		CreationDatetime:    createdAt,
		ReservationDatetime: reservedAt,
		StatusLong:          row.Status,
		Provenance:          row.Provenance,
	}, nil
}

// groupKey is compared by exact equality. Instants come from zone-less text
// resolved in one location, so equal text always yields equal keys.
type groupKey struct {
	start, end            int
	creation, reservation int64
}

// mergeGroups walks tables in ascending id order and each log in insertion
// order, folding entries with identical keys into one group.
func mergeGroups(tables map[int]*TableRecord, shiftStart time.Time) []OccupancyGroup {
	ids := make([]int, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	index := make(map[groupKey]int)
	var groups []OccupancyGroup
	var counted []map[int]struct{} // reservations already added to each group's party size
	var partyUnknown []bool

	for _, id := range ids {
		table := tables[id]
		for _, entry := range table.OccupancyLog {
			key := groupKey{
				start:       entry.StartTime,
				end:         entry.EndTime,
				creation:    entry.CreationDatetime.UnixNano(),
				reservation: entry.ReservationDatetime.UnixNano(),
			}
			gi, ok := index[key]
			if !ok {
				gi = len(groups)
				index[key] = gi
				groups = append(groups, OccupancyGroup{
					TableIDs:    []int{},
					Start:       entry.StartTime,
					Duration:    entry.EndTime - entry.StartTime,
					Creation:    entry.CreationDatetime,
					Reservation: entry.ReservationDatetime,
					StatusLong:  entry.StatusLong,
					Provenance:  entry.Provenance,
				})
				counted = append(counted, make(map[int]struct{}))
				partyUnknown = append(partyUnknown, false)
			}

			g := &groups[gi]
			g.TableIDs = append(g.TableIDs, table.TableID)
			g.TotalCapacity += table.MaxCapacity
			if table.explicitMin {
				g.MinCapacity += table.MinCapacity
			}
			if _, seen := counted[gi][entry.reservation]; !seen {
				counted[gi][entry.reservation] = struct{}{}
				g.PartySize += entry.PartySize
				if entry.PartySize == 0 {
					partyUnknown[gi] = true
				}
			}
		}
	}

	for i := range groups {
		g := &groups[i]
		g.Advance = timeline.MinutesBetween(g.Creation, g.Reservation)
		g.CreationRel = timeline.MinutesBetween(shiftStart, g.Creation)
		if partyUnknown[i] {
			g.Match = MatchUnknown
		} else {
			g.Match = classifyMatch(g.PartySize, g.MinCapacity, g.TotalCapacity)
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Creation.Before(groups[b].Creation)
	})

	if groups == nil {
		groups = []OccupancyGroup{}
	}
	return groups
}

func classifyMatch(party, minCapacity, maxCapacity int) MatchQuality {
	switch {
	case party <= 0:
		return MatchUnknown
	case party > maxCapacity:
		return MatchOver
	case party < minCapacity:
		return MatchUnder
	case party == maxCapacity:
		return MatchExact
	default:
		return MatchFit
	}
}
