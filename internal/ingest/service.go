// Package ingest stores raw dataset text, from API uploads or from remote
// CSV exports fetched on a schedule.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"time"

	"table-timeline-backend/config"
	"table-timeline-backend/internal/metrics"
	"table-timeline-backend/internal/store"
)

// Service periodically pulls the configured exports into the store.
type Service struct {
	cfg      *config.IngestConfig
	importer *Importer
	client   *http.Client
	metrics  *metrics.Metrics
}

// NewService creates and initializes a new ingestion service.
func NewService(cfg *config.IngestConfig, importer *Importer, m *metrics.Metrics) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Ingest will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:      cfg,
		importer: importer,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		metrics: m,
	}
}

// Run fetches every source once, then again on each interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Ingest is disabled. Not starting.")
		return
	}
	if len(s.cfg.Sources) == 0 {
		log.Println("Ingest is enabled but has no sources. Not starting.")
		return
	}
	log.Println("Starting ingest service...")

	s.FetchOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ingest service shutting down.")
			return
		case <-timer.C:
			s.FetchOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// FetchOnce pulls every source and stores the ones that parse to at least one
// row. A failing source never replaces the stored dataset. It returns the
// number of datasets stored.
func (s *Service) FetchOnce(ctx context.Context) int {
	log.Println("Executing ingest cycle...")
	stored := 0
	for _, src := range s.cfg.Sources {
		role, err := store.ParseRole(src.Role)
		if err != nil {
			log.Printf("Error: skipping source %s: %v", src.URL, err)
			continue
		}

		content, err := s.fetchSource(ctx, src)
		if err != nil {
			log.Printf("Error fetching %s export: %v", role, err)
			s.metrics.RecordIngestFetch(string(role), metrics.StatusError)
			continue
		}
		s.metrics.RecordIngestFetch(string(role), metrics.StatusSuccess)

		dataset, _, err := s.importer.Import(ctx, role, sourceFileName(src.URL), store.SourceIngest, content)
		if err != nil {
			log.Printf("Error importing %s export, keeping the stored dataset: %v", role, err)
			continue
		}
		log.Printf("Ingested %s export: %d rows, revision %s", role, dataset.RowCount, dataset.Revision)
		stored++
	}
	log.Printf("Ingest cycle finished: %d/%d sources stored.", stored, len(s.cfg.Sources))
	return stored
}

// fetchSource downloads one export as text.
func (s *Service) fetchSource(ctx context.Context, src config.IngestSource) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range src.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

func sourceFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return path.Base(u.Path)
}
