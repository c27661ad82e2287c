package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"table-timeline-backend/config"
	"table-timeline-backend/internal/api"
	"table-timeline-backend/internal/db"
	"table-timeline-backend/internal/format"
	"table-timeline-backend/internal/ingest"
	"table-timeline-backend/internal/metrics"
	"table-timeline-backend/internal/mw"
	"table-timeline-backend/internal/parse"
	"table-timeline-backend/internal/simulation"
	"table-timeline-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "timeline-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	engine, err := simulation.NewEngine(&cfg.Simulation)
	if err != nil {
		logger.Fatalf("failed to initialize simulation engine: %v", err)
	}
	logger.Printf("simulation engine ready (timezone %s)", engine.Clock().Location())

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := metrics.New(registry)
	if err != nil {
		logger.Fatalf("failed to register metrics: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore := store.NewGormStore(gormDB)
	importer := ingest.NewImporter(appStore, parse.Options{}, appMetrics)
	logger.Println("data store initialized")

	// Pull remote exports in the background, if configured
	ingestSvc := ingest.NewService(&cfg.Ingest, importer, appMetrics)
	go ingestSvc.Run(ctx)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go limiter.RunPruner(ctx, time.Minute, 10*time.Minute)

	handler := api.NewHandler(api.Dependencies{
		Importer:       importer,
		Store:          appStore,
		Engine:         engine,
		Formatter:      format.NewFormatter(cfg.Simulation.DisplayLayout, engine.Clock().Location()),
		Metrics:        appMetrics,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})
	router := api.NewRouter(handler, cfg.Server, limiter)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Println("Server gracefully stopped")
}
