package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"table-timeline-backend/internal/format"
	"table-timeline-backend/internal/metrics"
	"table-timeline-backend/internal/simulation"
	"table-timeline-backend/internal/store"
	"table-timeline-backend/internal/timeline"
)

type revisionsResponse struct {
	Maps         string `json:"maps"`
	Reservations string `json:"reservations"`
}

// groupLabels carries display strings for one occupancy group.
type groupLabels struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Advance     string `json:"advance"`
	Created     string `json:"created"`
	Reservation string `json:"reservation"`
}

type simulationResponse struct {
	*simulation.DerivedModel
	ShiftStartLabel string            `json:"shiftStartLabel"`
	GroupLabels     []groupLabels     `json:"groupLabels"` // parallel to occupancyGroups
	Revisions       revisionsResponse `json:"revisions"`
}

// GetSimulation handles GET /api/simulation?date=&meal_shift=&restaurant=.
func (h *Handler) GetSimulation(c *gin.Context) {
	model, revisions, ok := h.derive(c)
	if !ok {
		return
	}

	labels := make([]groupLabels, 0, len(model.OccupancyGroups))
	for _, g := range model.OccupancyGroups {
		labels = append(labels, groupLabels{
			Start:       format.MinutesToClock(g.Start, &model.ShiftStart),
			End:         format.MinutesToClock(g.End(), &model.ShiftStart),
			Advance:     format.Advance(g.Advance),
			Created:     h.formatter.Instant(g.Creation),
			Reservation: h.formatter.Instant(g.Reservation),
		})
	}

	c.JSON(http.StatusOK, simulationResponse{
		DerivedModel:    model,
		ShiftStartLabel: format.MinutesToClock(0, &model.ShiftStart),
		GroupLabels:     labels,
		Revisions:       revisions,
	})
}

type playbackResponse struct {
	simulation.Snapshot
	Clock      string            `json:"clock"`
	NextStart  *int              `json:"next_start"`
	Capacities []int             `json:"capacities"`
	Bounds     playbackBounds    `json:"bounds"`
	Revisions  revisionsResponse `json:"revisions"`
}

type playbackBounds struct {
	FirstCreationTime   float64 `json:"firstCreationTime"`
	LastReservationTime float64 `json:"lastReservationTime"`
	EndTime             int     `json:"endTime"`
}

// GetPlayback handles GET /api/simulation/playback. "at" is a position on
// the creation axis in minutes relative to shift start; it defaults to the
// end of playback. "capacity" restricts the tables shown.
func (h *Handler) GetPlayback(c *gin.Context) {
	at, atSet, err := floatQuery(c, "at")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid at"})
		return
	}
	capacity := 0
	if v := c.Query("capacity"); v != "" {
		capacity, err = strconv.Atoi(v)
		if err != nil || capacity < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid capacity"})
			return
		}
	}

	model, revisions, ok := h.derive(c)
	if !ok {
		return
	}
	if !atSet {
		at = model.LastReservationTime
	}
	// Whole minute at or before at, so -0.5 reads as -1.
	position := int(math.Floor(at))

	response := playbackResponse{
		Snapshot:   model.Snapshot(at, capacity),
		Clock:      format.MinutesToClock(position, &model.ShiftStart),
		Capacities: model.Capacities(),
		Bounds: playbackBounds{
			FirstCreationTime:   model.FirstCreationTime,
			LastReservationTime: model.LastReservationTime,
			EndTime:             model.EndTime,
		},
		Revisions: revisions,
	}
	if next, found := model.NextStart(position); found {
		response.NextStart = &next
	}

	c.JSON(http.StatusOK, response)
}

// derive loads both datasets and runs the engine, writing the error response
// itself when it returns false.
func (h *Handler) derive(c *gin.Context) (*simulation.DerivedModel, revisionsResponse, bool) {
	opts := simulation.Options{
		Date:         c.Query("date"),
		MealShift:    c.Query("meal_shift"),
		RestaurantID: c.Query("restaurant"),
	}
	if opts.Date == "" || opts.MealShift == "" || opts.RestaurantID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date, meal_shift and restaurant are required"})
		return nil, revisionsResponse{}, false
	}
	if _, err := h.engine.Clock().Midnight(opts.Date); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date must be formatted as yyyy-MM-dd"})
		return nil, revisionsResponse{}, false
	}

	ctx := c.Request.Context()
	mapsData, mapRows, err := h.importer.Load(ctx, store.RoleMaps)
	if err != nil {
		h.abortLoad(c, store.RoleMaps, err)
		return nil, revisionsResponse{}, false
	}
	resData, resRows, err := h.importer.Load(ctx, store.RoleReservations)
	if err != nil {
		h.abortLoad(c, store.RoleReservations, err)
		return nil, revisionsResponse{}, false
	}
	revisions := revisionsResponse{Maps: mapsData.Revision, Reservations: resData.Revision}

	started := time.Now()
	model, err := h.engine.Derive(mapRows, resRows, opts)
	elapsed := time.Since(started)
	if err != nil {
		status, code := classifyDeriveError(err)
		h.metrics.RecordDerivation(status, elapsed)
		c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
		return nil, revisionsResponse{}, false
	}

	h.metrics.RecordDerivation(metrics.StatusSuccess, elapsed)
	h.metrics.RecordRecoveredRows("map_row", model.Diagnostics.SkippedMapRows)
	h.metrics.RecordRecoveredRows("reservation_row", model.Diagnostics.SkippedReservationRows)
	h.metrics.RecordRecoveredRows("unknown_table", model.Diagnostics.UnknownTableRefs)
	h.metrics.RecordRecoveredRows("unrecognized_meal", model.Diagnostics.UnrecognizedMealCodes)
	h.metrics.RecordRecoveredRows("table_entry", model.Diagnostics.SkippedTableEntries)
	return model, revisions, true
}

func (h *Handler) abortLoad(c *gin.Context, role store.Role, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("no %s dataset uploaded", role)})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dataset"})
}

func classifyDeriveError(err error) (string, int) {
	switch {
	case errors.Is(err, simulation.ErrUnknownMealShift), errors.Is(err, simulation.ErrUnknownRestaurant):
		return metrics.StatusRejected, http.StatusBadRequest
	case errors.Is(err, simulation.ErrNoData):
		return metrics.StatusNoData, http.StatusNotFound
	case errors.Is(err, timeline.ErrInvalidTimeFormat):
		return metrics.StatusInvalidTime, http.StatusUnprocessableEntity
	default:
		return metrics.StatusError, http.StatusInternalServerError
	}
}

func floatQuery(c *gin.Context, key string) (float64, bool, error) {
	v := c.Query(key)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%s must be finite", key)
	}
	return f, true, nil
}
