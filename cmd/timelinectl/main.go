package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"table-timeline-backend/config"
	"table-timeline-backend/internal/simulation"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootCommand creates the timelinectl command tree.
func rootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "timelinectl",
		Short:         "Derive table occupancy timelines from local CSV exports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (built-in catalog when empty)")

	loadEngine := func() (*simulation.Engine, *config.Config, error) {
		cfg := config.Default()
		if configPath != "" {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
			}
		}
		engine, err := simulation.NewEngine(&cfg.Simulation)
		if err != nil {
			return nil, nil, err
		}
		return engine, cfg, nil
	}

	rootCmd.AddCommand(
		deriveCommand(loadEngine),
		catalogCommand(loadEngine),
	)
	return rootCmd
}

type engineLoader func() (*simulation.Engine, *config.Config, error)
