package cli

import (
	"time"

	"github.com/spf13/cobra"

	"weather-alert-pipeline/internal/app"
)

var (
	pruneOlderThan time.Duration
	pruneReadings  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old alert records, and optionally readings",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PruneOptions{
			OlderThan: pruneOlderThan,
			Readings:  pruneReadings,
		}
		return getApp().Prune(cmd.Context(), opts)
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 90*24*time.Hour, "Delete rows older than this age")
	pruneCmd.Flags().BoolVar(&pruneReadings, "readings", false, "Also delete readings older than the cutoff")
}
