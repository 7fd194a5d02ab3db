package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		Multiplier:        2.0,
		RetryableStatuses: []int{http.StatusServiceUnavailable, http.StatusBadGateway},
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(Config{
		BaseURL:    srv.URL,
		Resilience: true,
		Retry:      fastRetryPolicy(),
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Do(context.Background(), http.MethodGet, "/flaky", nil); err != nil {
		t.Fatalf("Do() err = %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("hits=%d, want 3", hits.Load())
	}
}

func TestTransportNeverRetriesUnauthorized(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	transport := &RetryingTransport{Policy: fastRetryPolicy(), Log: zerolog.Nop()}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() err = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits=%d, want 1 (401 belongs to the refresh logic, not retries)", hits.Load())
	}
}

func TestDefaultPolicyExcludesUnauthorized(t *testing.T) {
	if DefaultRetryPolicy().retryable(http.StatusUnauthorized) {
		t.Fatal("401 must never be a retryable status")
	}
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Cooldown:         time.Millisecond,
	})

	if err := b.Allow(); err != nil {
		t.Fatalf("closed breaker refused: %v", err)
	}
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != BreakerOpen {
		t.Fatalf("state=%v want open", b.State())
	}
	if err := b.Allow(); err != ErrCircuitOpen {
		t.Fatalf("Allow() err = %v, want ErrCircuitOpen", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatalf("post-cooldown Allow() err = %v", err)
	}
	if b.State() != BreakerHalfOpen {
		t.Fatalf("state=%v want half-open", b.State())
	}
	b.RecordSuccess()
	if b.State() != BreakerClosed {
		t.Fatalf("state=%v want closed", b.State())
	}
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: time.Millisecond})
	b.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	if err := b.Allow(); err != nil {
		t.Fatal(err)
	}
	b.RecordFailure()
	if b.State() != BreakerOpen {
		t.Fatalf("state=%v want open", b.State())
	}
}
