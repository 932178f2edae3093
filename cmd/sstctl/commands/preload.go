package commands

import (
	"context"

	"github.com/seatemp/sea-temperature/internal/domain"
	"github.com/spf13/cobra"
)

func preloadCmd() *cobra.Command {
	var (
		date   string
		region domain.Region
	)

	cmd := &cobra.Command{
		Use:   "preload",
		Short: "Cache every tile covering a region",
		Long:  "Warms the cache for a lat/lon rectangle. Defaults to the configured preload region (the Mediterranean).",
		PreRun: func(cmd *cobra.Command, args []string) {
			p := current.cfg.Preload
			if !cmd.Flags().Changed("min-lat") {
				region.MinLat = p.MinLat
			}
			if !cmd.Flags().Changed("max-lat") {
				region.MaxLat = p.MaxLat
			}
			if !cmd.Flags().Changed("min-lon") {
				region.MinLon = p.MinLon
			}
			if !cmd.Flags().Changed("max-lon") {
				region.MaxLon = p.MaxLon
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUpstream(); err != nil {
				return err
			}
			day, err := resolveDate(date)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), current.cfg.Refresh.TimeoutDuration())
			defer cancel()

			report, err := current.sst.PreloadRegion(ctx, day, region)
			if report != nil {
				_ = printJSON(report)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to preload (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&region.MinLat, "min-lat", 0, "southern edge")
	cmd.Flags().Float64Var(&region.MaxLat, "max-lat", 0, "northern edge")
	cmd.Flags().Float64Var(&region.MinLon, "min-lon", 0, "western edge")
	cmd.Flags().Float64Var(&region.MaxLon, "max-lon", 0, "eastern edge")
	return cmd
}
