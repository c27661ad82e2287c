package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Simulation SimulationConfig `yaml:"simulation"`
	Ingest     IngestConfig     `yaml:"ingest"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	MaxUploadBytes  int64   `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// MealShift maps a reservation shift label to the integer code used by map exports.
type MealShift struct {
	Label string `yaml:"label"`
	Code  int    `yaml:"code"`
}

// SimulationConfig holds the fixed enumerations and constants used by the derivation engine.
type SimulationConfig struct {
	Timezone               string      `yaml:"timezone"`
	Restaurants            []string    `yaml:"restaurants"`
	ConfirmedStatuses      []string    `yaml:"confirmed_statuses"`
	MealShifts             []MealShift `yaml:"meal_shifts"`
	DefaultDurationMinutes int         `yaml:"default_duration_minutes"`
	EndPaddingMinutes      int         `yaml:"end_padding_minutes"`
	DisplayLayout          string      `yaml:"display_layout"`
}

// IngestConfig holds the configuration of the periodic CSV export fetcher.
type IngestConfig struct {
	Enabled         bool           `yaml:"enabled"`
	IntervalSeconds int            `yaml:"interval_seconds"`
	Interval        time.Duration  `yaml:"-"` // Ignored by YAML parser
	HTTPProxy       string         `yaml:"http_proxy"`
	Sources         []IngestSource `yaml:"sources"`
}

// IngestSource is one remote CSV export feeding a dataset role.
type IngestSource struct {
	Role    string            `yaml:"role"` // maps or reservations
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// Default returns a configuration carrying the built-in catalog.
func Default() *Config {
	cfg := &Config{
		Simulation: SimulationConfig{
			Restaurants: []string{
				"restaurante-saona-blasco-ibanez",
				"restaurante-turqueta",
				"restaurante-saona-ciscar",
				"restaurante-saona-santa-barbara",
				"restauerante-saonalaeliana",
				"restaurante-saonacasinodeagricultura",
				"restaurante-saona-epicentre-sagunto",
				"restaurante-saona-viveros",
			},
			ConfirmedStatuses: []string{
				"Sentada",
				"Cuenta solicitada",
				"Liberada",
				"Llegada",
				"Confirmada",
				"Re-Confirmada",
			},
			MealShifts: []MealShift{
				{Label: "Comida", Code: 1},
				{Label: "Cena", Code: 2},
			},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	// Lists given in the file replace the built-in ones rather than merging.
	cfg.Simulation.Restaurants = nil
	cfg.Simulation.ConfirmedStatuses = nil
	cfg.Simulation.MealShifts = nil

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	builtin := Default().Simulation
	if len(cfg.Simulation.Restaurants) == 0 {
		cfg.Simulation.Restaurants = builtin.Restaurants
	}
	if len(cfg.Simulation.ConfirmedStatuses) == 0 {
		cfg.Simulation.ConfirmedStatuses = builtin.ConfirmedStatuses
	}
	if len(cfg.Simulation.MealShifts) == 0 {
		cfg.Simulation.MealShifts = builtin.MealShifts
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Simulation.Timezone == "" {
		cfg.Simulation.Timezone = "Local"
	}
	if cfg.Simulation.DefaultDurationMinutes <= 0 {
		cfg.Simulation.DefaultDurationMinutes = 90
	}
	if cfg.Simulation.EndPaddingMinutes <= 0 {
		cfg.Simulation.EndPaddingMinutes = 10
	}
	if len(cfg.Simulation.MealShifts) == 0 {
		log.Printf("simulation.meal_shifts is empty; every derivation will be rejected")
	}
	if cfg.Simulation.DisplayLayout == "" {
		cfg.Simulation.DisplayLayout = "02/01/2006 15:04"
	}

	if cfg.Ingest.IntervalSeconds <= 0 {
		cfg.Ingest.IntervalSeconds = 300
	}
	cfg.Ingest.Interval = time.Duration(cfg.Ingest.IntervalSeconds) * time.Second
}
