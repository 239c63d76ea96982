package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"fffscraper/cmd/fff-cli/commands"
	"fffscraper/lib/serviceutil"
	"fffscraper/lib/telemetry"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	// credentials may come from a .env next to the binary
	godotenv.Load()

	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "fff-cli")
	if err == nil {
		defer tel.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)
	}

	commands.ExecuteContext(ctx)
}
