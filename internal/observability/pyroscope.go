package observability

import (
	"context"
	"runtime"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/football-sync/internal/config"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
)

// InitPyroscope uploads continuous profiles for one sync process. The
// returned stop func is a no-op when profiling is off.
func InitPyroscope(cfg config.Config, process string, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PyroscopeEnabled {
		return func(context.Context) error { return nil }, nil
	}

	runtime.SetMutexProfileFraction(5)
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags:              profileTags(cfg, process),
		ProfileTypes:      syncProfileTypes,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("profiling on", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName, "process", process)
	return func(context.Context) error { return profiler.Stop() }, nil
}

// The sync processes spend their time waiting on providers and decoding
// payloads, so goroutine and mutex profiles sit next to CPU and heap.
var syncProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
}

func profileTags(cfg config.Config, process string) map[string]string {
	tags := map[string]string{
		"env":     cfg.AppEnv,
		"service": cfg.ServiceName,
		"process": process,
	}
	if cfg.SyncDryRun {
		tags["dry_run"] = "true"
	}
	return tags
}
