package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_sync_provider_requests_total",
		Help: "Provider HTTP calls by provider and outcome.",
	}, []string{"provider", "outcome"})

	ProviderRequestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "football_sync_provider_request_seconds",
		Help:    "Provider HTTP round-trip latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	RateLimitWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "football_sync_rate_limit_wait_seconds",
		Help:    "Time spent waiting for a rate limiter slot.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
	}, []string{"provider"})

	QuotaRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "football_sync_provider_quota_remaining",
		Help: "Remaining daily calls reported for quota-limited providers.",
	}, []string{"provider"})

	RowsUpsertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_sync_rows_upserted_total",
		Help: "Rows inserted or changed by entity.",
	}, []string{"entity"})

	RowsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_sync_rows_skipped_total",
		Help: "Malformed or conflicting rows skipped by entity.",
	}, []string{"entity"})

	BackfillTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_sync_backfill_tasks_total",
		Help: "Backfill task results by final status of the attempt.",
	}, []string{"task_type", "status"})

	BackfillSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "football_sync_backfill_sweeps_total",
		Help: "Completed backfill dispatch sweeps.",
	})

	PollCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_sync_poll_cycles_total",
		Help: "Poller cycles by provider and result.",
	}, []string{"provider", "result"})

	ChangedFixturesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "football_sync_changed_fixtures_total",
		Help: "Fixtures whose stored row changed during a poll cycle.",
	})

	PredictionsTriggeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "football_sync_predictions_triggered_total",
		Help: "Prediction passes triggered by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
