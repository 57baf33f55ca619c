package footballdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/metrics"
	"github.com/riskibarqy/football-sync/internal/platform/ratelimit"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
	"github.com/riskibarqy/football-sync/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL       = "https://api.football-data.org/v4"
	providerName         = "football_data"
	authHeader           = "X-Auth-Token"
	maxBodyBytes         = 6 << 20
	competitionCacheTTL  = 6 * time.Hour
	defaultClientTimeout = 15 * time.Second
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKeys        []string
	Timeout        time.Duration
	Rotator        ratelimit.RotatorConfig
	Retry          resilience.RetryPolicy
	Competitions   []string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the football-data.org v4 API. Every request takes a key
// from the rotator, so the per-key minute limit holds across all callers
// sharing the client.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	keys         *ratelimit.KeyRotator
	secrets      []string
	retry        resilience.RetryPolicy
	competitions map[string]bool
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       resilience.Group[[]byte]
	now          func() time.Time

	compMu    sync.Mutex
	compCache map[string]cachedCompetition
}

type cachedCompetition struct {
	item      competitionDTO
	raw       []byte
	fetchedAt time.Time
}

func NewClient(cfg ClientConfig) (*Client, error) {
	keys, err := ratelimit.NewKeyRotator(cfg.APIKeys, cfg.Rotator)
	if err != nil {
		return nil, crerr.Wrap(err, "football-data keys")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("footballdata")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultClientTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	retry := cfg.Retry
	if retry.RateLimitDelay <= 0 && cfg.Rotator.Cooldown > 0 {
		// Another key is usually free long before the penalised one.
		retry.RateLimitDelay = cfg.Rotator.Cooldown
	}

	codes := make(map[string]bool, len(cfg.Competitions))
	for _, code := range cfg.Competitions {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			codes[code] = true
		}
	}

	keys.OnWait(func(_ string, d time.Duration) {
		metrics.RateLimitWaitSeconds.WithLabelValues(providerName).Observe(d.Seconds())
	})

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		keys:         keys,
		secrets:      cfg.APIKeys,
		retry:        retry,
		competitions: codes,
		logger:       logger,
		breaker:      resilience.NewProviderBreaker(providerName, cfg.CircuitBreaker),
		now:          time.Now,
		compCache:    make(map[string]cachedCompetition),
	}, nil
}

// get fetches one resource. Concurrent identical requests share a single
// upstream call.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	flightKey := path
	if encoded := query.Encode(); encoded != "" {
		flightKey += "?" + encoded
	}

	raw, _, err := c.flight.Do(flightKey, func() ([]byte, error) {
		var body []byte
		guardErr := c.breaker.Guard(func() error {
			var fetchErr error
			body, fetchErr = c.fetch(ctx, path, query)
			return fetchErr
		}, isBreakerFailure)
		return body, guardErr
	})
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "path", path)
			return nil, crerr.Mark(err, usecase.ErrDependencyUnavailable)
		}
		return nil, err
	}
	return raw, nil
}

func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) (resilience.Outcome, error) {
		key, err := c.keys.Acquire(ctx)
		if err != nil {
			return resilience.OutcomeTerminal, err
		}

		raw, status, err := c.send(ctx, fullURL, key)
		if err != nil {
			if ctx.Err() != nil {
				return resilience.OutcomeTerminal, ctx.Err()
			}
			c.keys.Penalize(key)
			metrics.ProviderRequestsTotal.WithLabelValues(providerName, resilience.OutcomeRetryable.String()).Inc()
			return resilience.OutcomeRetryable, crerr.Mark(err, usecase.ErrProviderTransient)
		}

		outcome := resilience.ClassifyHTTPStatus(status)
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, outcome.String()).Inc()
		switch outcome {
		case resilience.OutcomeSuccess:
			body = raw
			return outcome, nil
		case resilience.OutcomeRateLimited:
			c.keys.Penalize(key)
			c.logger.WarnContext(ctx, "football-data key rate limited",
				"key", logging.MaskSecret(key),
				"attempt", attempt,
			)
			return outcome, crerr.Mark(c.statusError(path, status, raw), usecase.ErrRateLimited)
		case resilience.OutcomeRetryable:
			return outcome, crerr.Mark(c.statusError(path, status, raw), usecase.ErrProviderTransient)
		}

		statusErr := c.statusError(path, status, raw)
		switch status {
		case http.StatusForbidden:
			return outcome, crerr.Mark(statusErr, usecase.ErrProviderForbidden)
		case http.StatusNotFound:
			return outcome, crerr.Mark(statusErr, usecase.ErrNotFound)
		default:
			return outcome, crerr.Mark(statusErr, usecase.ErrInvalidInput)
		}
	})
	if err != nil {
		c.logger.WarnContext(ctx, "football-data request failed", "path", path, "error", err)
		return nil, err
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, fullURL, key string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(authHeader, key)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderRequestSeconds.WithLabelValues(providerName).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %s", c.sanitize(err.Error()))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) statusError(path string, status int, body []byte) error {
	return fmt.Errorf("football-data %s status=%d body=%s", path, status, c.sanitize(abbreviateBody(body)))
}

// sanitize removes any configured key from text that may end up in logs.
func (c *Client) sanitize(value string) string {
	for _, key := range c.secrets {
		if key = strings.TrimSpace(key); key != "" {
			value = strings.ReplaceAll(value, key, "REDACTED")
		}
	}
	return value
}

func isBreakerFailure(err error) bool {
	return crerr.Is(err, usecase.ErrProviderTransient)
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
