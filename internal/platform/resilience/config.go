package resilience

import "time"

// CircuitBreakerConfig is the per-provider breaker setting. Only transient
// provider failures (5xx, transport errors, exhausted 429 retries) count
// toward FailureThreshold.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	// OpenTimeout is how long a tripped provider is left alone before a
	// probe request is let through.
	OpenTimeout time.Duration
	// HalfOpenProbes successful probes close the breaker again.
	HalfOpenProbes int
}

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultHalfOpenProbes   = 1
)

func (c CircuitBreakerConfig) normalized() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.HalfOpenProbes < 1 {
		c.HalfOpenProbes = defaultHalfOpenProbes
	}
	return c
}
