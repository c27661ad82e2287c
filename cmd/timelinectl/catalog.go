package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"table-timeline-backend/internal/parse"
)

// catalogCommand creates the catalog subcommand.
func catalogCommand(load engineLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List restaurants, meal shifts and confirmed statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := load()
			if err != nil {
				return err
			}
			catalog := engine.Catalog()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Restaurants:")
			for _, id := range catalog.Restaurants() {
				fmt.Fprintf(out, "  %-40s %s\n", id, parse.RestaurantDisplayName(id))
			}
			fmt.Fprintln(out, "Meal shifts:")
			for _, s := range catalog.MealShifts() {
				fmt.Fprintf(out, "  %-10s %d\n", s.Label, s.Code)
			}
			fmt.Fprintln(out, "Confirmed statuses:")
			for _, status := range catalog.ConfirmedStatuses() {
				fmt.Fprintf(out, "  %s\n", status)
			}
			fmt.Fprintf(out, "Default duration: %d min, end padding: %d min, timezone: %s\n",
				catalog.DefaultDuration(), catalog.EndPadding(), engine.Clock().Location())
			return nil
		},
	}
}
