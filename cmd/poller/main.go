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

	rt, err := app.Bootstrap(ctx, "poller")
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	svc, err := rt.NewPoller()
	if err != nil {
		rt.Logger.Error("build poller", "error", err)
		rt.Close()
		os.Exit(1)
	}
	rt.StartStatusServer()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		rt.Logger.Error("poller stopped", "error", err)
		rt.Close()
		os.Exit(1)
	}
	rt.Logger.Info("poller stopped")
}
