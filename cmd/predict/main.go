package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/riskibarqy/football-sync/internal/app"
)

func main() {
	fixturesFlag := flag.String("fixtures", "", "comma separated fixture IDs; empty predicts every upcoming fixture")
	flag.Parse()

	ids, err := parseFixtureIDs(*fixturesFlag, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Bootstrap(ctx, "predict")
	if err != nil {
		panic(err)
	}
	defer rt.Close()

	result, err := rt.NewPrediction().Predict(ctx, ids)
	if err != nil {
		rt.Logger.Error("prediction pass failed", "fixtures", len(ids), "error", err)
		rt.Close()
		os.Exit(1)
	}
	rt.Logger.Info("prediction pass done",
		"requested", result.Requested,
		"predicted", result.Predicted,
		"failed", result.Failed,
	)
}

// parseFixtureIDs merges the --fixtures list with positional arguments.
// Each part may itself be comma separated.
func parseFixtureIDs(flagValue string, args []string) ([]int64, error) {
	parts := append([]string{flagValue}, args...)
	var ids []int64
	for _, part := range parts {
		for _, raw := range strings.Split(part, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid fixture id %q", raw)
			}
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}
