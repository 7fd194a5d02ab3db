// Package client provides the DriveDocs API gateway: a typed HTTP client
// that attaches bearer credentials, performs at most one token
// refresh-and-replay per call, and normalizes API errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/DriveDocs-Network/data_layer/internal/metrics"
	"github.com/DriveDocs-Network/data_layer/sessionstore"
)

// refreshRoute is the fixed endpoint used to exchange a refresh token.
const refreshRoute = "/auth/refresh"

const contentTypeJSON = "application/json"

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://api.drivedocs.example.
	BaseURL string

	// Storage persists the session. Defaults to in-memory storage.
	Storage sessionstore.Storage

	// HTTPClient overrides the transport. Defaults to a 30s-timeout client.
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration

	// RequestsPerSecond limits outbound calls. Zero disables limiting.
	RequestsPerSecond int

	// RequestBurst is the limiter burst size.
	RequestBurst int

	// Resilience wraps the transport with retry and circuit breaking for
	// transient server failures. 401 responses are never retried by the
	// resilient transport, so the single-refresh budget is unaffected.
	Resilience bool

	// Retry configures the resilient transport.
	Retry RetryPolicy

	// Breaker configures the resilient transport's circuit breaker.
	Breaker BreakerConfig

	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Client is the single entry point for DriveDocs API calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *SessionStore
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	log        zerolog.Logger

	// refreshMu serializes token refreshes across concurrent calls so one
	// rotation of the refresh token serves every in-flight 401.
	refreshMu chan struct{}
}

// New creates a DriveDocs API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}

	storage := cfg.Storage
	if storage == nil {
		storage = sessionstore.NewMemoryStorage()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Resilience {
		retry := cfg.Retry
		if retry.MaxRetries == 0 {
			retry = DefaultRetryPolicy()
		}
		breaker := cfg.Breaker
		if breaker.FailureThreshold == 0 {
			breaker = DefaultBreakerConfig()
		}
		httpClient = &http.Client{
			Timeout: httpClient.Timeout,
			Transport: &RetryingTransport{
				Base:    httpClient.Transport,
				Policy:  retry,
				Breaker: NewBreaker(breaker),
				Log:     cfg.Logger,
			},
		}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.RequestBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		sessions:   NewSessionStore(storage, cfg.Logger),
		limiter:    limiter,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
		refreshMu:  make(chan struct{}, 1),
	}, nil
}

// Sessions returns the session store shared by all authenticated calls.
func (c *Client) Sessions() *SessionStore {
	return c.sessions
}

// LoggedIn reports whether a session is currently held.
func (c *Client) LoggedIn() bool {
	return c.sessions.LoggedIn()
}

// =============================================================================
// Public (unauthenticated) requests
// =============================================================================

// Do performs an unauthenticated JSON request. body may be nil. The response
// body is returned for 2xx statuses; any other status is surfaced as *Error.
func (c *Client) Do(ctx context.Context, method, route string, body any) ([]byte, error) {
	payload, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, route, payload, contentTypeJSON, "")
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		return nil, parseError(resp.body, resp.status)
	}
	return resp.body, nil
}

// =============================================================================
// Authenticated requests
// =============================================================================

// DoAuthenticated performs an authenticated JSON request. body may be nil.
//
// Absence of a session fails immediately with a no_session error and no
// network call. On HTTP 401 the client performs exactly one refresh against
// the refresh endpoint and replays the original request exactly once with
// the new credentials; a second 401 after the replay is surfaced as-is.
func (c *Client) DoAuthenticated(ctx context.Context, method, route string, body any) ([]byte, error) {
	payload, err := encodeJSON(body)
	if err != nil {
		return nil, err
	}
	return c.doAuthenticated(ctx, method, route, payload, contentTypeJSON)
}

// DoAuthenticatedForm performs an authenticated multipart request with a
// prebuilt form body. The content type (with boundary) comes from the form
// writer; the client does not override it.
func (c *Client) DoAuthenticatedForm(ctx context.Context, method, route string, form []byte, contentType string) ([]byte, error) {
	return c.doAuthenticated(ctx, method, route, form, contentType)
}

// doAuthenticated sends the request with the current access token. On a 401
// it refreshes the session and replays the request, at most once per call.
func (c *Client) doAuthenticated(ctx context.Context, method, route string, payload []byte, contentType string) ([]byte, error) {
	sess := c.sessions.Session()
	if sess == nil {
		return nil, NoSessionError()
	}

	token := sess.AccessToken
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.send(ctx, method, route, payload, contentType, token)
		if err != nil {
			return nil, err
		}

		if resp.status == http.StatusUnauthorized && attempt == 0 {
			newToken, refreshErr := c.refreshAccessToken(ctx, token)
			if refreshErr != nil {
				return nil, refreshErr
			}
			token = newToken
			continue
		}

		if resp.status >= 400 {
			return nil, parseError(resp.body, resp.status)
		}
		return resp.body, nil
	}

	// Unreachable: the second iteration always returns.
	return nil, parseError(nil, http.StatusUnauthorized)
}

// refreshAccessToken exchanges the stored refresh token for a new session.
// usedToken is the access token that just got a 401; if another goroutine
// already rotated the session past it, its result is reused instead of
// burning the refresh token twice.
func (c *Client) refreshAccessToken(ctx context.Context, usedToken string) (string, error) {
	select {
	case c.refreshMu <- struct{}{}:
		defer func() { <-c.refreshMu }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	cur := c.sessions.Session()
	if cur == nil {
		// A concurrent refresh failed and destroyed the session.
		return "", TokenExpiredError()
	}
	if cur.AccessToken != usedToken {
		return cur.AccessToken, nil
	}

	payload, err := encodeJSON(map[string]string{"refresh_token": cur.RefreshToken})
	if err != nil {
		return "", err
	}

	c.log.Debug().Msg("access token rejected, refreshing session")
	resp, err := c.send(ctx, http.MethodPost, refreshRoute, payload, contentTypeJSON, "")
	if err != nil {
		c.metrics.RecordRefresh("error")
		return "", err
	}

	switch {
	case resp.status == http.StatusOK:
		var sess Session
		if err := json.Unmarshal(resp.body, &sess); err != nil {
			c.metrics.RecordRefresh("error")
			return "", fmt.Errorf("decode refresh response: %w", err)
		}
		if err := c.sessions.Save(ctx, sess); err != nil {
			c.log.Warn().Err(err).Msg("persist refreshed session")
		}
		c.metrics.RecordRefresh("success")
		return sess.AccessToken, nil

	case resp.status == http.StatusUnauthorized:
		// The refresh token itself is dead; the session is unrecoverable.
		if err := c.sessions.Clear(ctx); err != nil {
			c.log.Warn().Err(err).Msg("clear expired session")
		}
		c.metrics.RecordRefresh("expired")
		return "", TokenExpiredError()

	default:
		c.metrics.RecordRefresh("error")
		return "", parseError(resp.body, resp.status)
	}
}

// =============================================================================
// Transport
// =============================================================================

type response struct {
	status int
	body   []byte
}

// send performs one HTTP round-trip. token, when non-empty, is attached as a
// bearer credential. contentType is omitted for empty payloads with no
// explicit type.
func (c *Client) send(ctx context.Context, method, route string, payload []byte, contentType, token string) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+route, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(method, "transport_error", time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.metrics.RecordRequest(method, strconv.Itoa(resp.StatusCode), time.Since(start))
	c.log.Debug().
		Str("method", method).
		Str("route", route).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	return &response{status: resp.StatusCode, body: body}, nil
}

func encodeJSON(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return data, nil
}
