package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"
)

// InitUptrace exports provider call and store spans for one sync process.
// When log export is on, the returned logger also ships every record.
func InitUptrace(cfg config.Config, process string, logger *logging.Logger) (*logging.Logger, func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func(context.Context) error { return nil }

	dsn := strings.TrimSpace(cfg.UptraceDSN)
	if !cfg.UptraceEnabled || dsn == "" {
		logger.Info("trace export off", "uptrace_enabled", cfg.UptraceEnabled, "dsn_set", dsn != "")
		return logger, noop, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(dsn),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithResourceAttributes(syncResourceAttributes(cfg, process)...),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	if cfg.UptraceLogsEnabled {
		logger = logger.Tee(newUptraceLogCore(cfg.ServiceVersion, cfg.LogLevel))
	}

	logger.Info("trace export on", "process", process, "dry_run", cfg.SyncDryRun, "logs_enabled", cfg.UptraceLogsEnabled)
	return logger, uptrace.Shutdown, nil
}

// syncResourceAttributes tags every span with the process that emitted it so
// poller, backfill and status traces can be told apart.
func syncResourceAttributes(cfg config.Config, process string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("sync.process", process),
		attribute.Bool("sync.dry_run", cfg.SyncDryRun),
		attribute.StringSlice("sync.competitions", cfg.FootballData.Competitions),
	}
}
