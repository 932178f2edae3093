package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func reimportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "reimport TILE_ID...",
		Short: "Rebuild tiles from the raw payload archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			for _, tileID := range args {
				n, err := current.sst.ReimportTile(cmd.Context(), day, tileID, current.cfg.Copernicus.Variable)
				if err != nil {
					return fmt.Errorf("tile %s: %w", tileID, err)
				}
				fmt.Printf("%s %s: %d points\n", day, tileID, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD)")
	return cmd
}
