package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohamedthameursassi/IndoorNavServer/navgraph"
)

func RunConvert(cmd *cobra.Command, args []string) error {
	bg, err := navgraph.ConvertJSONToGob(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: building %s, %d nodes, %d edges\n",
		args[1], bg.BuildingID, len(bg.Nodes), len(bg.Edges))
	return nil
}
