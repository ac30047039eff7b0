// Package cli wires the indoornav commands.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "indoornav",
		Short: "Indoor navigation server with crowd-aware routing",
		Long: `indoornav serves routes through a building graph, steering pedestrians
around corridors that phone accelerometer traffic reports as congested.

Graphs come from JSON or gob snapshots, or from Neo4j.`,
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the public API and the ops listener",
		Args:  cobra.NoArgs,
		RunE:  RunServe,
	}

	routeCmd := &cobra.Command{
		Use:   "route <from> <to>",
		Short: "Compute a route offline over a snapshot file",
		Args:  cobra.ExactArgs(2),
		RunE:  RunRoute,
	}
	routeCmd.Flags().StringP("graph", "g", "", "Building snapshot (.json or .gob)")
	routeCmd.Flags().Bool("dijkstra", false, "Use plain Dijkstra instead of A*")
	routeCmd.Flags().Float64("floor-height", 5, "Heuristic height of one floor")
	routeCmd.Flags().StringToString("congestion", nil, "Edge rates, e.g. n1_n2=0.8")
	routeCmd.Flags().Bool("json", false, "Print the route as JSON")
	_ = routeCmd.MarkFlagRequired("graph")

	convertCmd := &cobra.Command{
		Use:   "convert <input.json> <output.gob>",
		Short: "Convert a JSON building snapshot to gob",
		Args:  cobra.ExactArgs(2),
		RunE:  RunConvert,
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Feed synthetic accelerometer traffic through the estimator",
		Args:  cobra.NoArgs,
		RunE:  RunSimulate,
	}
	simulateCmd.Flags().StringSlice("location", []string{"path_n1_n2"}, "Locations to populate")
	simulateCmd.Flags().Int("walkers", 10, "Walkers per location")
	simulateCmd.Flags().Float64("cadence", 60, "Steps per minute")
	simulateCmd.Flags().Duration("duration", 30*time.Second, "Simulated time per walker")
	simulateCmd.Flags().Duration("interval", 100*time.Millisecond, "Gap between two samples")
	simulateCmd.Flags().Int64("seed", 1, "Noise seed")
	simulateCmd.Flags().String("building", "building123", "Building id attached to uploads")
	simulateCmd.Flags().StringP("graph", "g", "", "Snapshot to route over after the simulation")
	simulateCmd.Flags().String("from", "", "Route start (location name or node id), requires --graph")
	simulateCmd.Flags().String("to", "", "Route goal (location name or node id), requires --graph")

	importCmd := &cobra.Command{
		Use:   "import-neo4j <snapshot>",
		Short: "Replace a building graph in Neo4j with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE:  RunImportNeo4j,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "indoornav %s\n", version)
		},
	}

	rootCmd.AddCommand(
		serveCmd,
		routeCmd,
		convertCmd,
		simulateCmd,
		importCmd,
		versionCmd,
	)

	return rootCmd
}
