package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"table-timeline-backend/config"
	"table-timeline-backend/internal/mw"
	"table-timeline-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig, limiter *mw.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	if limiter == nil {
		limiter = mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}
	rateLimiter := mw.RateLimiter(limiter)

	// Derived results only change when a dataset does.
	responseCache := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	h.importer.OnStored(func(store.Role) { responseCache.Flush() })
	caching := responseCache.Middleware()

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/catalog", caching, h.GetCatalog)

		api.PUT("/datasets/:role", h.PutDataset)
		api.GET("/datasets/:role", h.GetDataset)
		api.DELETE("/datasets/:role", h.DeleteDataset)
		api.GET("/datasets/:role/history", h.GetDatasetHistory)

		api.GET("/simulation", caching, h.GetSimulation)
		api.GET("/simulation/playback", caching, h.GetPlayback)
	}

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	return r
}
