package jobqueue

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
	"github.com/riskibarqy/football-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const dedupHeader = "Idempotency-Key"

var _ usecase.PredictionTrigger = (*WebhookTrigger)(nil)

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	Retries        int
	CircuitBreaker resilience.CircuitBreakerConfig
	HTTPClient     *http.Client
	// Sleep replaces the retry backoff wait in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// WebhookTrigger hands changed fixture IDs to a remote prediction worker.
type WebhookTrigger struct {
	client  *http.Client
	url     string
	token   string
	retry   resilience.RetryPolicy
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
	now     func() time.Time
}

type triggerPayload struct {
	FixtureIDs  []int64   `json:"fixture_ids"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewWebhookTrigger(cfg WebhookConfig, logger *logging.Logger) (*WebhookTrigger, error) {
	target, err := validateHTTPBaseURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid PREDICTION_WEBHOOK_URL")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &WebhookTrigger{
		client: client,
		url:    target,
		token:  strings.TrimSpace(cfg.Token),
		retry: resilience.RetryPolicy{
			MaxAttempts: max(cfg.Retries, 0) + 1,
			BaseDelay:   time.Second,
			MaxDelay:    10 * time.Second,
			Sleep:       cfg.Sleep,
		},
		logger:  logger.Component("prediction_webhook"),
		breaker: resilience.NewProviderBreaker("prediction_webhook", cfg.CircuitBreaker),
		now:     time.Now,
	}, nil
}

// TriggerPredictions posts the fixture set. The same set always carries the
// same idempotency key so a retried delivery is recognised downstream.
func (p *WebhookTrigger) TriggerPredictions(ctx context.Context, fixtureIDs []int64) error {
	ids := slices.Clone(fixtureIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return nil
	}

	body, err := sonic.Marshal(triggerPayload{FixtureIDs: ids, RequestedAt: p.now().UTC()})
	if err != nil {
		return crerr.Wrap(err, "marshal prediction trigger")
	}
	dedupID := deduplicationID(ids)
	preview := buildCurlPreview(p.url, dedupID, truncateForLog(string(body), 4096), p.token != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("prediction.webhook_url", p.url),
			attribute.Int("prediction.fixture_count", len(ids)),
			attribute.String("prediction.curl_preview", preview),
		)
	}
	p.logger.DebugContext(ctx, "prediction webhook request", "fixtures", len(ids), "deduplication_id", dedupID, "curl_preview", preview)

	err = p.breaker.Guard(func() error {
		return p.retry.Do(ctx, func(ctx context.Context, attempt int) (resilience.Outcome, error) {
			return p.post(ctx, body, dedupID)
		})
	}, isTransient)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			return crerr.Mark(err, usecase.ErrDependencyUnavailable)
		}
		return err
	}

	p.logger.InfoContext(ctx, "prediction webhook accepted", "fixtures", len(ids), "deduplication_id", dedupID)
	return nil
}

func (p *WebhookTrigger) post(ctx context.Context, body []byte, dedupID string) (resilience.Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return resilience.OutcomeTerminal, crerr.Wrap(err, "create prediction webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(dedupHeader, dedupID)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return resilience.OutcomeTerminal, ctx.Err()
		}
		return resilience.OutcomeRetryable, crerr.Mark(fmt.Errorf("post prediction webhook: %w", err), usecase.ErrProviderTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	outcome := resilience.ClassifyHTTPStatus(resp.StatusCode)
	if outcome == resilience.OutcomeSuccess {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return outcome, nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	callErr := fmt.Errorf("prediction webhook status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	if outcome == resilience.OutcomeTerminal {
		return outcome, crerr.Mark(callErr, usecase.ErrInvalidInput)
	}
	return outcome, crerr.Mark(callErr, usecase.ErrProviderTransient)
}

func deduplicationID(ids []int64) string {
	h := sha256.New()
	for _, id := range ids {
		_, _ = h.Write([]byte(strconv.FormatInt(id, 10)))
		_, _ = h.Write([]byte{','})
	}
	return "predict-" + hex.EncodeToString(h.Sum(nil))[:24]
}

func isTransient(err error) bool {
	return crerr.Is(err, usecase.ErrProviderTransient)
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(target, dedupID, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(target))
	if withToken {
		appendHeader("Authorization: Bearer ***")
	}
	appendHeader("Content-Type: application/json")
	appendHeader(dedupHeader + ": " + dedupID)
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
