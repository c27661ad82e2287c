package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"table-timeline-backend/internal/format"
	"table-timeline-backend/internal/parse"
	"table-timeline-backend/internal/simulation"
)

type deriveFlags struct {
	mapsPath         string
	reservationsPath string
	date             string
	mealShift        string
	restaurant       string
	at               float64
	capacity         int
	summary          bool
}

// deriveCommand creates the derive subcommand.
func deriveCommand(load engineLoader) *cobra.Command {
	var flags deriveFlags

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the occupancy model for one date, meal shift and restaurant",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, err := load()
			if err != nil {
				return err
			}
			mapRows, err := readRows(flags.mapsPath)
			if err != nil {
				return err
			}
			reservationRows, err := readRows(flags.reservationsPath)
			if err != nil {
				return err
			}

			model, err := engine.Derive(mapRows, reservationRows, simulation.Options{
				Date:         flags.date,
				MealShift:    flags.mealShift,
				RestaurantID: flags.restaurant,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case flags.summary:
				formatter := format.NewFormatter(cfg.Simulation.DisplayLayout, engine.Clock().Location())
				writeSummary(out, model, formatter)
				return nil
			case cmd.Flags().Changed("at"):
				return writeJSON(out, model.Snapshot(flags.at, flags.capacity))
			default:
				return writeJSON(out, model)
			}
		},
	}

	cmd.Flags().StringVar(&flags.mapsPath, "maps", "", "Venue map export (CSV)")
	cmd.Flags().StringVar(&flags.reservationsPath, "reservations", "", "Reservations export (CSV)")
	cmd.Flags().StringVar(&flags.date, "date", "", "Service date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&flags.mealShift, "meal-shift", "", "Meal shift label, e.g. Comida")
	cmd.Flags().StringVar(&flags.restaurant, "restaurant", "", "Restaurant identifier")
	cmd.Flags().Float64Var(&flags.at, "at", 0, "Print the floor snapshot at this playback position (minutes from shift start)")
	cmd.Flags().IntVar(&flags.capacity, "capacity", 0, "Only show tables of this max capacity in snapshots")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "Print a readable list of occupancy groups")
	for _, name := range []string{"maps", "reservations", "date", "meal-shift", "restaurant"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func readRows(path string) ([]parse.Row, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rows, err := parse.Records(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, model *simulation.DerivedModel, formatter *format.Formatter) {
	fmt.Fprintf(w, "Shift starts at %s, %d tables, %d groups\n",
		format.MinutesToClock(0, &model.ShiftStart), len(model.Tables), len(model.OccupancyGroups))
	for _, g := range model.OccupancyGroups {
		ids := make([]string, 0, len(g.TableIDs))
		for _, id := range g.TableIDs {
			ids = append(ids, fmt.Sprint(id))
		}
		fmt.Fprintf(w, "%s-%s  tables %-8s party %-3d %-6s booked %s (%s ahead)\n",
			format.MinutesToClock(g.Start, &model.ShiftStart),
			format.MinutesToClock(g.End(), &model.ShiftStart),
			strings.Join(ids, ","),
			g.PartySize,
			g.Match,
			formatter.Instant(g.Creation),
			format.Advance(g.Advance),
		)
	}
	d := model.Diagnostics
	if d.SkippedMapRows+d.SkippedReservationRows+d.SkippedTableEntries+d.UnknownTableRefs+d.UnrecognizedMealCodes > 0 {
		fmt.Fprintf(w, "Skipped %d map rows, %d table entries, %d reservation rows; %d unknown table references; %d unrecognized meal codes\n",
			d.SkippedMapRows, d.SkippedTableEntries, d.SkippedReservationRows, d.UnknownTableRefs, d.UnrecognizedMealCodes)
	}
}
