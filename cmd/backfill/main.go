package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/riskibarqy/football-sync/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Bootstrap(ctx, "backfill")
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	svc, err := rt.NewBackfill()
	if err != nil {
		rt.Logger.Error("build backfill", "error", err)
		rt.Close()
		os.Exit(1)
	}
	rt.StartStatusServer()

	rt.Logger.Info("backfill starting", "run_id", svc.RunID(), "dry_run", rt.Config.SyncDryRun)
	result, err := svc.Run(ctx)
	rt.InvalidateStatus(context.Background())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			rt.Logger.Warn("backfill interrupted", "sweeps", result.Sweeps, "completed", result.Completed)
			return
		}
		rt.Logger.Error("backfill failed", "sweeps", result.Sweeps, "error", err)
		rt.Close()
		os.Exit(1)
	}

	rt.Logger.Info("backfill done",
		"registered", result.Registered,
		"sweeps", result.Sweeps,
		"completed", result.Completed,
		"failed", result.Failed,
		"duration", result.Duration.String(),
	)
}
