package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/instructions"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
	"github.com/mohamedthameursassi/IndoorNavServer/pathfinding"
)

type routeOutput struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Path         []string `json:"path"`
	Cost         float64  `json:"cost"`
	Distance     float64  `json:"distance"`
	Instructions []string `json:"instructions"`
}

func RunRoute(cmd *cobra.Command, args []string) error {
	graphPath, err := cmd.Flags().GetString("graph")
	if err != nil {
		return fmt.Errorf("failed to read --graph flag: %w", err)
	}
	dijkstra, err := cmd.Flags().GetBool("dijkstra")
	if err != nil {
		return fmt.Errorf("failed to read --dijkstra flag: %w", err)
	}
	floorHeight, err := cmd.Flags().GetFloat64("floor-height")
	if err != nil {
		return fmt.Errorf("failed to read --floor-height flag: %w", err)
	}
	rates, err := cmd.Flags().GetStringToString("congestion")
	if err != nil {
		return fmt.Errorf("failed to read --congestion flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	bg, err := navgraph.LoadSnapshotFile(graphPath)
	if err != nil {
		return err
	}
	g, err := navgraph.FromRecords(bg)
	if err != nil {
		return err
	}
	snapshot, err := parseRates(rates)
	if err != nil {
		return err
	}

	from, err := resolve(g, args[0])
	if err != nil {
		return err
	}
	to, err := resolve(g, args[1])
	if err != nil {
		return err
	}

	opts := []pathfinding.Option{pathfinding.WithFloorHeight(floorHeight)}
	if dijkstra {
		opts = append(opts, pathfinding.WithDijkstra())
	}
	route, err := pathfinding.FindRoute(g, from, to, snapshot, opts...)
	if err != nil {
		return err
	}

	out := routeOutput{
		From:         from,
		To:           to,
		Path:         route.Path,
		Cost:         route.Cost,
		Distance:     instructions.Length(g, route.Path),
		Instructions: instructions.Generate(g, route.Path),
	}
	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintf(w, "%s\n", strings.Join(out.Path, " -> "))
	fmt.Fprintf(w, "cost %.2f, distance %.1fm\n", out.Cost, out.Distance)
	for i, line := range out.Instructions {
		fmt.Fprintf(w, "%d. %s\n", i+1, line)
	}
	return nil
}

// resolve accepts either a registered location name or a raw node id.
func resolve(g *navgraph.Graph, name string) (string, error) {
	if n, err := g.ResolveLocation(name); err == nil {
		return n.ID, nil
	}
	if g.HasNode(name) {
		return name, nil
	}
	return "", fmt.Errorf("unknown location or node %q", name)
}

// parseRates reads "a_b=rate" pairs into a search snapshot.
func parseRates(raw map[string]string) (pathfinding.Snapshot, error) {
	snap := make(pathfinding.Snapshot, len(raw))
	for edge, val := range raw {
		key, ok := congestion.ParseLocationKey("path_" + edge)
		if !ok {
			return nil, fmt.Errorf("invalid congestion edge %q, want <node>_<node>", edge)
		}
		rate, err := strconv.ParseFloat(val, 64)
		if err != nil || rate < 0 || rate > 1 {
			return nil, fmt.Errorf("invalid congestion rate %q for %s", val, edge)
		}
		snap[key] = rate
	}
	return snap, nil
}
