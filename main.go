// Command KnowledgeOS is a voice-interaction client: it captures
// microphone audio, streams overlapping chunks to the KnowledgeOS
// backend and mirrors the server-side session state locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tylertzm/KnowledgeOS/config"
	"github.com/tylertzm/KnowledgeOS/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	apiBase := flag.String("api-base", "", "backend base URL (overrides config and env)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "knowledgeos: %v\n", err)
		return 1
	}
	if *apiBase != "" {
		cfg.Server.APIBase = *apiBase
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "knowledgeos: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))
	slog.Info("starting",
		"api_base", cfg.Server.APIBase,
		"sample_rate", cfg.Audio.SampleRate,
		"chunk_seconds", cfg.Audio.ChunkSeconds,
		"overlap_seconds", cfg.Audio.OverlapSeconds,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("initialise application", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("close application", "error", err)
		}
	}()

	slog.Info("listening on the microphone, press Ctrl+C to stop")
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run", "error", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}
