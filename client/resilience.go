package client

import (
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy configures the resilient transport's retry behavior.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts after the first try.
	MaxRetries int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// Multiplier grows the backoff between attempts.
	Multiplier float64

	// Jitter randomizes backoff by +/- this fraction.
	Jitter float64

	// RetryableStatuses are the HTTP status codes worth retrying.
	// 401 must never appear here: authorization failures belong to the
	// gateway's refresh-and-replay logic, not to blind retries.
	RetryableStatuses []int
}

// DefaultRetryPolicy returns the policy used when resilience is enabled
// without explicit tuning.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
		RetryableStatuses: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

func (p RetryPolicy) retryable(status int) bool {
	for _, s := range p.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if max := float64(p.MaxBackoff); d > max {
		d = max
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// =============================================================================
// Circuit breaker
// =============================================================================

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that opens the circuit.
	FailureThreshold int

	// SuccessThreshold is the half-open success count that closes it again.
	SuccessThreshold int

	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
}

// DefaultBreakerConfig returns the breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

// ErrCircuitOpen is returned while the breaker refuses traffic.
var ErrCircuitOpen = errors.New("api circuit breaker is open")

// Breaker is a minimal circuit breaker for the API transport.
type Breaker struct {
	mu        sync.Mutex
	cfg       BreakerConfig
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg, state: BreakerClosed}
}

// Allow reports whether a request may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if time.Since(b.openedAt) <= b.cfg.Cooldown {
			return ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
		b.successes = 0
	}
	return nil
}

// RecordSuccess notes a successful round-trip.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = BreakerClosed
			b.failures = 0
		}
	}
}

// RecordFailure notes a failed round-trip.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = BreakerOpen
			b.openedAt = time.Now()
		}
	case BreakerHalfOpen:
		b.state = BreakerOpen
		b.openedAt = time.Now()
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// =============================================================================
// Retrying transport
// =============================================================================

// RetryingTransport is an http.RoundTripper that retries transient server
// failures with exponential backoff behind a circuit breaker. Replay uses
// Request.GetBody, which net/http sets for the in-memory bodies the gateway
// builds.
type RetryingTransport struct {
	Base    http.RoundTripper
	Policy  RetryPolicy
	Breaker *Breaker
	Log     zerolog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *RetryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.Breaker != nil {
		if err := t.Breaker.Allow(); err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= t.Policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(t.Policy.backoff(attempt)):
			}

			replay, rerr := rewindRequest(req)
			if rerr != nil {
				break
			}
			req = replay
			t.Log.Debug().Int("attempt", attempt).Str("url", req.URL.Path).Msg("retrying request")
		}

		resp, err = base.RoundTrip(req)
		if err != nil {
			if retryableNetErr(err) {
				continue
			}
			break
		}

		if t.Policy.retryable(resp.StatusCode) {
			resp.Body.Close()
			err = &statusError{code: resp.StatusCode}
			continue
		}

		if t.Breaker != nil {
			t.Breaker.RecordSuccess()
		}
		return resp, nil
	}

	if t.Breaker != nil {
		t.Breaker.RecordFailure()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func rewindRequest(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody == nil {
		return out, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	out.Body = body
	return out, nil
}

func retryableNetErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "retryable status: " + http.StatusText(e.code)
}
