package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(playersCmd)
}

var playersCmd = &cobra.Command{
	Use:   "players [--min-gw <n>] [--max-gw <n>] [--venue <v>]",
	Short: "Scrapes per-gameweek player statistics into the configured csv files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, opts, err := loadService()
		if err != nil {
			return err
		}
		return service.ScrapePlayers(cmd.Context(), opts)
	},
}
