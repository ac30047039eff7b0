package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohamedthameursassi/IndoorNavServer/config"
	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

func RunImportNeo4j(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	bg, err := navgraph.LoadSnapshotFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	exec, err := store.NewNeo4jExecutor(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)
	if err := exec.Verify(ctx); err != nil {
		return fmt.Errorf("neo4j connectivity: %w", err)
	}

	if err := store.NewNeo4jStore(exec).ImportBuildingGraph(ctx, bg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported building %s into %s: %d nodes, %d edges\n",
		bg.BuildingID, cfg.Neo4j.Database, len(bg.Nodes), len(bg.Edges))
	return nil
}
