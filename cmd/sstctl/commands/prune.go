package commands

import (
	"fmt"
	"time"

	"github.com/seatemp/sea-temperature/internal/service"
	"github.com/spf13/cobra"
)

func pruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached days older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = current.cfg.Retention.Days
			}
			if days <= 0 {
				return fmt.Errorf("retention days must be positive, got %d", days)
			}

			report, err := current.sst.PruneBefore(cmd.Context(), service.DaysAgoUTC(time.Now(), days))
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}

	cmd.Flags().IntVar(&days, "days", 14, "days to keep")
	return cmd
}
