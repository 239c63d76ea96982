package fffstats

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"fffscraper/lib/csvutil"
	"fffscraper/lib/scrapers/fff"
	"fffscraper/lib/timezone"
)

var tracer = otel.Tracer("services/fffstats")

var (
	ErrAuthenticationFailed = errors.New("could not obtain an authenticated session")
	ErrNothingScraped       = errors.New("no gameweek produced any data")
)

const totalGameweeks = 38

// Service drives full scrape runs: session acquisition, the
// per-gameweek scan loop, normalization and csv output.
type Service struct {
	config   Config
	sessions sessionCache
}

func NewService(config Config) Service {
	auth := fff.NewAuthClient(config.clientOptions())
	return Service{
		config:   config,
		sessions: newSessionCache(auth, config.SessionFile),
	}
}

// ScanOptions selects what a run covers. A 1-38 range is treated as a
// full season scan and fetched one gameweek at a time so that each row
// carries its own gameweek.
type ScanOptions struct {
	MinGw int
	MaxGw int
	Venue string
}

func (o ScanOptions) fullSeason() bool {
	return o.MinGw == 1 && o.MaxGw == totalGameweeks
}

// the combined venue filter fans out into separate home and away
// fetches during a full season scan
func (o ScanOptions) venues() []string {
	if o.fullSeason() && o.Venue == "home/away" {
		return []string{"home", "away"}
	}
	return []string{o.Venue}
}

func (s Service) newStatsClient(ctx context.Context) (*fff.StatsClient, error) {
	token, ok := s.sessions.Get(ctx, s.config.Email, s.config.Password)
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	return fff.NewStatsClient(s.config.clientOptions(), token)
}

// fetchFunc fetches one gameweek range and writes its rows; it reports
// whether any data was produced.
type fetchFunc func(ctx context.Context, minGw, maxGw int, venue string) bool

// scan runs the shared iteration logic. Interruption via ctx stops
// further gameweeks but leaves already-written rows intact; a partial
// run with at least one success is still a success.
func (s Service) scan(ctx context.Context, opts ScanOptions, fetch fetchFunc) (successes int, err error) {
	if opts.fullSeason() {
		for gw := opts.MinGw; gw <= opts.MaxGw; gw++ {
			if ctx.Err() != nil {
				slog.WarnContext(ctx, "scan interrupted", "gameweek", gw)
				break
			}
			slog.InfoContext(ctx, "processing gameweek", "gameweek", gw, "of", totalGameweeks)
			for _, venue := range opts.venues() {
				if fetch(ctx, gw, gw, venue) {
					successes++
				}
			}
		}
	} else {
		for _, venue := range opts.venues() {
			if fetch(ctx, opts.MinGw, opts.MaxGw, venue) {
				successes++
			}
		}
	}

	if successes == 0 {
		return 0, ErrNothingScraped
	}
	return successes, nil
}

func (s Service) prepareOutputs(out OutputConfig) ([]csvutil.Column, error) {
	columns, err := csvutil.ReadColumns(out.ColumnsFile)
	if err != nil {
		return nil, err
	}
	for _, path := range out.ResultFiles {
		err = csvutil.Reset(path)
		if err != nil {
			return nil, err
		}
		err = csvutil.WriteHeader(path, columns)
		if err != nil {
			return nil, err
		}
	}
	return columns, nil
}

func (s Service) writeBatch(ctx context.Context, out OutputConfig, batch fff.Batch, order []string) {
	for _, path := range out.ResultFiles {
		for _, record := range batch {
			err := csvutil.AppendRow(path, record, order)
			if err != nil {
				slog.ErrorContext(ctx, "failed to write csv row", "path", path, "err", err)
			}
		}
	}
}

// ScrapePlayers scrapes player statistics for the requested range and
// venue into the configured csv files.
func (s Service) ScrapePlayers(ctx context.Context, opts ScanOptions) error {
	ctx, span := tracer.Start(ctx, "service:ScrapePlayers")
	defer span.End()
	span.SetAttributes(
		attribute.Int("min_gw", opts.MinGw),
		attribute.Int("max_gw", opts.MaxGw),
		attribute.String("venue", opts.Venue),
	)

	start := timezone.Now()

	client, err := s.newStatsClient(ctx)
	if err != nil {
		return err
	}
	columns, err := s.prepareOutputs(s.config.Players)
	if err != nil {
		return err
	}
	order := csvutil.Keys(columns)
	normalizer := fff.NewNormalizer(order, nil)

	successes, err := s.scan(ctx, opts, func(ctx context.Context, minGw, maxGw int, venue string) bool {
		records, ok := client.GetPlayers(ctx, fff.RequestParams{
			MinGw:  minGw,
			MaxGw:  maxGw,
			Venue:  venue,
			Season: s.config.Season,
		})
		if !ok {
			return false
		}

		batch := fff.Batch{}
		normalizer.AddPlayers(ctx, batch, records, minGw, venue)
		if len(batch) == 0 {
			slog.WarnContext(ctx, "no valid player records", "min_gw", minGw, "max_gw", maxGw, "venue", venue)
			return false
		}

		s.writeBatch(ctx, s.config.Players, batch, order)
		return true
	})

	logScanSummary(ctx, "players", client.Summary(), successes, normalizer.Skipped(), timezone.Now().Sub(start))
	return err
}

// ScrapeTeams is the team-level counterpart of ScrapePlayers.
func (s Service) ScrapeTeams(ctx context.Context, opts ScanOptions) error {
	ctx, span := tracer.Start(ctx, "service:ScrapeTeams")
	defer span.End()
	span.SetAttributes(
		attribute.Int("min_gw", opts.MinGw),
		attribute.Int("max_gw", opts.MaxGw),
		attribute.String("venue", opts.Venue),
	)

	start := timezone.Now()

	client, err := s.newStatsClient(ctx)
	if err != nil {
		return err
	}
	columns, err := s.prepareOutputs(s.config.Teams)
	if err != nil {
		return err
	}
	order := csvutil.Keys(columns)
	normalizer := fff.NewNormalizer(order, nil)

	successes, err := s.scan(ctx, opts, func(ctx context.Context, minGw, maxGw int, venue string) bool {
		records, ok := client.GetTeams(ctx, fff.RequestParams{
			MinGw:  minGw,
			MaxGw:  maxGw,
			Venue:  venue,
			Season: s.config.Season,
		})
		if !ok {
			return false
		}

		batch := fff.Batch{}
		normalizer.AddTeams(ctx, batch, records)
		if len(batch) == 0 {
			slog.WarnContext(ctx, "no valid team records", "min_gw", minGw, "max_gw", maxGw, "venue", venue)
			return false
		}

		s.writeBatch(ctx, s.config.Teams, batch, order)
		return true
	})

	logScanSummary(ctx, "teams", client.Summary(), successes, normalizer.Skipped(), timezone.Now().Sub(start))
	return err
}
