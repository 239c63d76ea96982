package fffstats

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"fffscraper/lib/scrapers/fff"
)

func logScanSummary(ctx context.Context, kind string, sum fff.Summary, successes, skipped int, duration time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("%s scan summary", kind)
	t.AppendHeader(table.Row{"metric", "value"})
	t.AppendRows([]table.Row{
		{"requests", sum.TotalRequests},
		{"succeeded", sum.Succeeded},
		{"failed", sum.Failed},
		{"success rate", fmt.Sprintf("%.1f%%", sum.SuccessRate)},
		{"player records", sum.PlayerRecords},
		{"team records", sum.TeamRecords},
		{"records skipped", skipped},
		{"batches written", successes},
		{"duration", duration.Round(time.Millisecond)},
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	slog.InfoContext(
		ctx, "scan finished",
		"kind", kind,
		"requests", sum.TotalRequests,
		"failed", sum.Failed,
		"skipped", skipped,
		"duration", duration.Round(time.Millisecond).String(),
	)
}
