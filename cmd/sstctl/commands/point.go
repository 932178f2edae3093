package commands

import (
	"github.com/spf13/cobra"
)

func pointCmd() *cobra.Command {
	var (
		date     string
		lat, lon float64
		radiusKm float64
	)

	cmd := &cobra.Command{
		Use:   "point",
		Short: "Print the temperature around a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUpstream(); err != nil {
				return err
			}
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("radius-km") {
				radiusKm = current.cfg.SST.DefaultRadiusKm
			}

			result, err := current.sst.PointTemperature(cmd.Context(), day, lat, lon, radiusKm)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 3, "search radius in km")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
