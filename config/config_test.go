package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 90, cfg.Simulation.DefaultDurationMinutes)
	assert.Equal(t, 10, cfg.Simulation.EndPaddingMinutes)
	assert.Equal(t, "Local", cfg.Simulation.Timezone)
	assert.Equal(t, 300*time.Second, cfg.Ingest.Interval)
	assert.Len(t, cfg.Simulation.Restaurants, 8)
	assert.Equal(t, []MealShift{{Label: "Comida", Code: 1}, {Label: "Cena", Code: 2}}, cfg.Simulation.MealShifts)
}

func TestLoad_ListsReplaceBuiltins(t *testing.T) {
	path := writeConfig(t, `
simulation:
  timezone: Europe/Madrid
  restaurants: [venue-a]
  confirmed_statuses: [Confirmada]
  meal_shifts:
    - label: Desayuno
      code: 3
ingest:
  interval_seconds: 60
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"venue-a"}, cfg.Simulation.Restaurants)
	assert.Equal(t, []string{"Confirmada"}, cfg.Simulation.ConfirmedStatuses)
	assert.Equal(t, []MealShift{{Label: "Desayuno", Code: 3}}, cfg.Simulation.MealShifts)
	assert.Equal(t, "Europe/Madrid", cfg.Simulation.Timezone)
	assert.Equal(t, time.Minute, cfg.Ingest.Interval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated\n")
	_, err := Load(path)
	assert.Error(t, err)
}
