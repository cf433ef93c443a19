// Command dragonfly maps wildfire burn severity from pre- and post-fire
// satellite scenes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dragonfly",
		Short: "Burn-severity mapping from Sentinel-2 scenes",
		Long: `dragonfly searches a STAC catalog for a pre-fire and a post-fire scene over
an area of interest, computes the differenced Normalized Burn Ratio (dNBR),
classifies it into severity bands, and writes GeoTIFF, web-map, and
statistics products.

Configuration is read from the environment (see internal/config).`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd())
	return root
}
