package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fffscraper/lib/configutil"
	"fffscraper/services/fffstats"
)

var rootCmd = &cobra.Command{
	Use:          "fff-cli",
	Short:        "fff-cli scrapes player and team statistics from Fantasy Football Fix.",
	SilenceUsage: true,
}

var (
	flagMinGw  int
	flagMaxGw  int
	flagVenue  string
	flagConfig string
)

func init() {
	rootCmd.PersistentFlags().IntVar(&flagMinGw, "min-gw", 1, "first gameweek to scrape (1-38)")
	rootCmd.PersistentFlags().IntVar(&flagMaxGw, "max-gw", 38, "last gameweek to scrape (1-38)")
	rootCmd.PersistentFlags().StringVar(&flagVenue, "venue", "home/away", "venue filter: home/away, home or away")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.json5", "path to the configuration file")
}

func loadService() (fffstats.Service, fffstats.ScanOptions, error) {
	var service fffstats.Service
	var opts fffstats.ScanOptions

	if flagMinGw < 1 || flagMinGw > 38 || flagMaxGw < 1 || flagMaxGw > 38 {
		return service, opts, fmt.Errorf("gameweeks must be between 1 and 38")
	}
	if flagMinGw > flagMaxGw {
		return service, opts, fmt.Errorf("min-gw cannot be greater than max-gw")
	}
	switch flagVenue {
	case "home/away", "home", "away":
	default:
		return service, opts, fmt.Errorf("venue must be one of home/away, home, away")
	}

	cfg, err := configutil.ReadConfig[fffstats.Config](flagConfig)
	if err != nil {
		return service, opts, fmt.Errorf("failed to read config %s: %w", flagConfig, err)
	}
	// environment wins over the config file so credentials can stay
	// out of it
	if email := os.Getenv("FFF_EMAIL"); email != "" {
		cfg.Email = email
	}
	if password := os.Getenv("FFF_PASSWORD"); password != "" {
		cfg.Password = password
	}

	service = fffstats.NewService(cfg)
	opts = fffstats.ScanOptions{
		MinGw: flagMinGw,
		MaxGw: flagMaxGw,
		Venue: flagVenue,
	}
	return service, opts, nil
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
