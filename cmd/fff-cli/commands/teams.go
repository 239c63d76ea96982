package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(teamsCmd)
}

var teamsCmd = &cobra.Command{
	Use:   "teams [--min-gw <n>] [--max-gw <n>] [--venue <v>]",
	Short: "Scrapes per-gameweek team statistics into the configured csv files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, opts, err := loadService()
		if err != nil {
			return err
		}
		return service.ScrapeTeams(cmd.Context(), opts)
	},
}
