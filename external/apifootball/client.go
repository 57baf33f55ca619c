package apifootball

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/platform/metrics"
	"github.com/riskibarqy/football-sync/internal/platform/ratelimit"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
	"github.com/riskibarqy/football-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultBaseURL       = "https://v3.football.api-sports.io"
	providerName         = "api_football"
	authHeader           = "x-apisports-key"
	remainingHeader      = "x-ratelimit-requests-remaining"
	defaultClientTimeout = 20 * time.Second
	maxBodyBytes         = 6 << 20
)

var tracer = otel.Tracer("github.com/riskibarqy/football-sync/external/apifootball")

type ClientConfig struct {
	// HTTPClient defaults to a fasthttp client with the configured timeout.
	HTTPClient        *fasthttp.Client
	BaseURL           string
	Key               string
	Timeout           time.Duration
	DailyQuota        int
	RequestsPerMinute int
	Retry             resilience.RetryPolicy
	Leagues           []int64
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
}

// Client talks to the API-Football v3 API. Every call, including failed
// ones, counts against the daily quota, so it is taken before the request is
// sent and synced from the response header afterwards.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	key        string
	timeout    time.Duration
	quota      *ratelimit.DailyQuota
	minute     *ratelimit.MinuteLimiter
	retry      resilience.RetryPolicy
	leagues    map[int64]bool
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.Group[[]byte]
	now        func() time.Time

	leagueMu    sync.Mutex
	leagueCache map[int64]usecase.ExternalCompetition
}

func NewClient(cfg ClientConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		return nil, crerr.Wrap(ratelimit.ErrNoKeys, "api-football key")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "football-sync",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodyBytes,
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	leagues := make(map[int64]bool, len(cfg.Leagues))
	for _, id := range cfg.Leagues {
		if id > 0 {
			leagues[id] = true
		}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		key:         key,
		timeout:     timeout,
		quota:       ratelimit.NewDailyQuota(cfg.DailyQuota),
		minute:      ratelimit.NewMinuteLimiter(cfg.RequestsPerMinute),
		retry:       cfg.Retry,
		leagues:     leagues,
		logger:      logger.Component("apifootball"),
		breaker:     resilience.NewProviderBreaker(providerName, cfg.CircuitBreaker),
		now:         time.Now,
		leagueCache: make(map[int64]usecase.ExternalCompetition),
	}, nil
}

// QuotaRemaining reports the calls left in the current daily window.
func (c *Client) QuotaRemaining() int {
	return c.quota.Remaining()
}

// get fetches one resource and returns the raw envelope once its errors
// field has been checked.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	uri := buildURI(c.baseURL, path, query)

	ctx, span := tracer.Start(ctx, "apifootball.GET "+path)
	span.SetAttributes(attribute.String("http.url", uri))
	defer span.End()

	raw, _, err := c.flight.Do(uri, func() ([]byte, error) {
		var body []byte
		guardErr := c.breaker.Guard(func() error {
			var fetchErr error
			body, fetchErr = c.fetch(ctx, path, uri)
			return fetchErr
		}, isBreakerFailure)
		return body, guardErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "path", path)
			return nil, crerr.Mark(err, usecase.ErrDependencyUnavailable)
		}
		return nil, err
	}
	return raw, nil
}

func (c *Client) fetch(ctx context.Context, path, uri string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) (resilience.Outcome, error) {
		if err := c.takeQuota(ctx); err != nil {
			return resilience.OutcomeTerminal, err
		}

		raw, status, err := c.send(ctx, uri)
		if err != nil {
			if ctx.Err() != nil {
				return resilience.OutcomeTerminal, ctx.Err()
			}
			metrics.ProviderRequestsTotal.WithLabelValues(providerName, resilience.OutcomeRetryable.String()).Inc()
			return resilience.OutcomeRetryable, crerr.Mark(err, usecase.ErrProviderTransient)
		}

		outcome := resilience.ClassifyHTTPStatus(status)
		if outcome == resilience.OutcomeSuccess {
			outcome, err = c.checkEnvelope(path, raw)
		} else {
			err = c.statusError(path, status, raw)
			switch {
			case outcome == resilience.OutcomeRateLimited:
				err = crerr.Mark(err, usecase.ErrRateLimited)
			case outcome == resilience.OutcomeRetryable:
				err = crerr.Mark(err, usecase.ErrProviderTransient)
			case status == fasthttp.StatusForbidden:
				err = crerr.Mark(err, usecase.ErrProviderForbidden)
			case status == fasthttp.StatusNotFound:
				err = crerr.Mark(err, usecase.ErrNotFound)
			default:
				err = crerr.Mark(err, usecase.ErrInvalidInput)
			}
		}
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, outcome.String()).Inc()

		if err != nil {
			c.logger.DebugContext(ctx, "api-football attempt failed", "path", path, "attempt", attempt, "error", err)
			return outcome, err
		}
		body = raw
		return outcome, nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "api-football request failed", "path", path, "error", err)
		return nil, err
	}
	return body, nil
}

func (c *Client) takeQuota(ctx context.Context) error {
	if resetAt, err := c.quota.Take(); err != nil {
		metrics.QuotaRemaining.WithLabelValues(providerName).Set(0)
		return crerr.Mark(crerr.Wrapf(err, "api-football quota resets at %s", resetAt.UTC().Format(time.RFC3339)), usecase.ErrQuotaExhausted)
	}

	started := time.Now()
	if err := c.minute.Wait(ctx); err != nil {
		return crerr.Wrap(err, "wait for api-football minute slot")
	}
	if waited := time.Since(started); waited > time.Millisecond {
		metrics.RateLimitWaitSeconds.WithLabelValues(providerName).Observe(waited.Seconds())
	}
	return nil
}

func (c *Client) send(ctx context.Context, uri string) ([]byte, int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(authHeader, c.key)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	started := time.Now()
	err := c.httpClient.DoDeadline(req, resp, deadline)
	metrics.ProviderRequestSeconds.WithLabelValues(providerName).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %s", c.sanitize(err.Error()))
	}

	if remaining := resp.Header.Peek(remainingHeader); len(remaining) > 0 {
		if n, convErr := strconv.Atoi(string(bytes.TrimSpace(remaining))); convErr == nil {
			c.quota.Sync(n)
		}
	}
	metrics.QuotaRemaining.WithLabelValues(providerName).Set(float64(c.quota.Remaining()))

	body := append([]byte(nil), resp.Body()...)
	return body, resp.StatusCode(), nil
}

// checkEnvelope inspects the errors field the API fills in on HTTP 200.
func (c *Client) checkEnvelope(path string, raw []byte) (resilience.Outcome, error) {
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return resilience.OutcomeTerminal, crerr.Mark(fmt.Errorf("decode %s envelope: %w", path, err), usecase.ErrInvalidInput)
	}
	problems := env.problems()
	if len(problems) == 0 {
		return resilience.OutcomeSuccess, nil
	}

	err := fmt.Errorf("api-football %s: %s", path, c.sanitize(formatProblems(problems)))
	switch {
	case problems["requests"] != "":
		c.quota.Exhaust()
		metrics.QuotaRemaining.WithLabelValues(providerName).Set(0)
		return resilience.OutcomeTerminal, crerr.Mark(err, usecase.ErrQuotaExhausted)
	case problems["rateLimit"] != "":
		return resilience.OutcomeRateLimited, crerr.Mark(err, usecase.ErrRateLimited)
	case problems["plan"] != "", problems["access"] != "", problems["token"] != "":
		return resilience.OutcomeTerminal, crerr.Mark(err, usecase.ErrProviderForbidden)
	default:
		return resilience.OutcomeTerminal, crerr.Mark(err, usecase.ErrInvalidInput)
	}
}

func (c *Client) statusError(path string, status int, body []byte) error {
	return fmt.Errorf("api-football %s status=%d body=%s", path, status, c.sanitize(abbreviateBody(body)))
}

func (c *Client) sanitize(value string) string {
	if c.key == "" {
		return value
	}
	return strings.ReplaceAll(value, c.key, "REDACTED")
}

// buildURI appends the encoded query to base and path. url.Values encodes
// keys in sorted order, so equal requests share a singleflight key.
func buildURI(base, path string, query url.Values) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(base)
	if !strings.HasPrefix(path, "/") {
		_ = buf.WriteByte('/')
	}
	_, _ = buf.WriteString(path)
	if encoded := query.Encode(); encoded != "" {
		_ = buf.WriteByte('?')
		_, _ = buf.WriteString(encoded)
	}
	return buf.String()
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
