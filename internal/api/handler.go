package api

import (
	"table-timeline-backend/internal/format"
	"table-timeline-backend/internal/ingest"
	"table-timeline-backend/internal/metrics"
	"table-timeline-backend/internal/simulation"
	"table-timeline-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	importer       *ingest.Importer
	store          store.Store
	engine         *simulation.Engine
	formatter      *format.Formatter
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

// Dependencies groups what NewHandler needs. Metrics may be nil.
type Dependencies struct {
	Importer       *ingest.Importer
	Store          store.Store
	Engine         *simulation.Engine
	Formatter      *format.Formatter
	Metrics        *metrics.Metrics
	MaxUploadBytes int64
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	formatter := deps.Formatter
	if formatter == nil {
		formatter = format.NewFormatter("", nil)
	}
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Handler{
		importer:       deps.Importer,
		store:          deps.Store,
		engine:         deps.Engine,
		formatter:      formatter,
		metrics:        deps.Metrics,
		maxUploadBytes: maxUpload,
	}
}
