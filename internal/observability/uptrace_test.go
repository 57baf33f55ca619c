package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cfg := config.Config{
		UptraceEnabled: false,
		ServiceName:    "football-sync",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	base := logging.NewNop()
	logger, shutdown, err := InitUptrace(cfg, "poller", base)
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if logger != base {
		t.Fatalf("expected the base logger back when trace export is off")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestInitUptrace_EmptyDSN(t *testing.T) {
	cfg := config.Config{UptraceEnabled: true, ServiceName: "football-sync", UptraceDSN: "   "}

	_, shutdown, err := InitUptrace(cfg, "backfill", logging.NewNop())
	if err != nil {
		t.Fatalf("init uptrace: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown uptrace: %v", err)
	}
}

func TestSyncResourceAttributes(t *testing.T) {
	cfg := config.Config{SyncDryRun: true}
	cfg.FootballData.Competitions = []string{"PL", "CL"}

	got := syncResourceAttributes(cfg, "backfill")
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("sync.process", "backfill"),
		attribute.Bool("sync.dry_run", true),
		attribute.StringSlice("sync.competitions", []string{"PL", "CL"}),
	}, got)
}

func TestProfileTags(t *testing.T) {
	cfg := config.Config{AppEnv: config.EnvDev, ServiceName: "football-sync"}
	assert.Equal(t, map[string]string{"env": config.EnvDev, "service": "football-sync", "process": "poller"}, profileTags(cfg, "poller"))

	cfg.SyncDryRun = true
	assert.Equal(t, "true", profileTags(cfg, "poller")["dry_run"])
}

func TestInitPyroscope_DisabledIsNoop(t *testing.T) {
	stop, err := InitPyroscope(config.Config{}, "status", logging.NewNop())
	if err != nil {
		t.Fatalf("init pyroscope: %v", err)
	}
	if err := stop(context.Background()); err != nil {
		t.Fatalf("stop pyroscope: %v", err)
	}
}

func TestStartPprofServer_EmptyAddr(t *testing.T) {
	if stop := StartPprofServer("", "poller", logging.NewNop()); stop != nil {
		t.Fatalf("expected no pprof server without an address")
	}
}
