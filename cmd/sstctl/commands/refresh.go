package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func refreshCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the day's grid for every tile seen so far",
		Long: "Ensures every known tile id is cached for the day (yesterday UTC by default).\n" +
			"Exits non-zero when any tile failed, so it can be run from cron.",
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

			report, err := current.sst.RefreshKnownTiles(ctx, day)
			if report != nil {
				_ = printJSON(report)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to refresh (YYYY-MM-DD)")
	return cmd
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
