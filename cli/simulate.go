package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
	"github.com/mohamedthameursassi/IndoorNavServer/pathfinding"
	"github.com/mohamedthameursassi/IndoorNavServer/services"
	"github.com/mohamedthameursassi/IndoorNavServer/simulate"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

// RunSimulate uploads synthetic traffic through the congestion service, one
// upload per simulated user, and prints the resulting state.
func RunSimulate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	locations, err := flags.GetStringSlice("location")
	if err != nil {
		return fmt.Errorf("failed to read --location flag: %w", err)
	}
	walkers, err := flags.GetInt("walkers")
	if err != nil {
		return fmt.Errorf("failed to read --walkers flag: %w", err)
	}
	cadence, err := flags.GetFloat64("cadence")
	if err != nil {
		return fmt.Errorf("failed to read --cadence flag: %w", err)
	}
	duration, err := flags.GetDuration("duration")
	if err != nil {
		return fmt.Errorf("failed to read --duration flag: %w", err)
	}
	interval, err := flags.GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to read --interval flag: %w", err)
	}
	seed, err := flags.GetInt64("seed")
	if err != nil {
		return fmt.Errorf("failed to read --seed flag: %w", err)
	}
	building, err := flags.GetString("building")
	if err != nil {
		return fmt.Errorf("failed to read --building flag: %w", err)
	}
	graphPath, err := flags.GetString("graph")
	if err != nil {
		return fmt.Errorf("failed to read --graph flag: %w", err)
	}
	from, err := flags.GetString("from")
	if err != nil {
		return fmt.Errorf("failed to read --from flag: %w", err)
	}
	to, err := flags.GetString("to")
	if err != nil {
		return fmt.Errorf("failed to read --to flag: %w", err)
	}
	if graphPath != "" && (from == "" || to == "") {
		return fmt.Errorf("--graph needs both --from and --to")
	}

	svc := services.NewCongestionService(congestion.New(), store.NewMemoryStore())
	gen := simulate.New(seed)
	start := time.Now().Add(-duration)

	for _, loc := range locations {
		samples, err := gen.Samples(simulate.Scenario{
			LocationID: loc,
			Walkers:    walkers,
			Cadence:    cadence,
			Duration:   duration,
			Interval:   interval,
			Start:      start,
		})
		if err != nil {
			return err
		}
		users, batches := simulate.ByUser(samples)
		for _, u := range users {
			_, err := svc.Update(cmd.Context(), models.CongestionUpdateRequest{
				UserID:            u,
				BuildingID:        building,
				AccelerometerData: simulate.Readings(batches[u]),
			})
			if err != nil {
				return fmt.Errorf("upload for %s at %s: %w", u, loc, err)
			}
		}
	}

	w := cmd.OutOrStdout()
	for _, r := range svc.Report() {
		fmt.Fprintf(w, "%s\t%s\trate=%.3f speed=%.3f variance=%.3f density=%.3f users=%d samples=%d\n",
			r.LocationID, r.Level, r.Factors.Rate, r.Factors.Speed, r.Factors.Variance,
			r.Factors.Density, r.Factors.Users, r.Factors.Samples)
	}
	if graphPath == "" {
		return nil
	}
	return routeUnderLoad(cmd, svc.Estimator(), graphPath, from, to)
}

// routeUnderLoad searches the snapshot graph with the simulated congestion.
func routeUnderLoad(cmd *cobra.Command, est *congestion.Estimator, graphPath, from, to string) error {
	bg, err := navgraph.LoadSnapshotFile(graphPath)
	if err != nil {
		return err
	}
	g, err := navgraph.FromRecords(bg)
	if err != nil {
		return err
	}
	start, err := resolve(g, from)
	if err != nil {
		return err
	}
	goal, err := resolve(g, to)
	if err != nil {
		return err
	}
	route, err := pathfinding.FindRoute(g, start, goal, pathfinding.Snapshot(est.Snapshot()))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "route %s (cost %.2f)\n", strings.Join(route.Path, " -> "), route.Cost)
	return nil
}
