// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the shared HTTP plumbing: one client, one
// global rate limiter, and one retry policy for every outbound request.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/refharvest/pkg/types"
)

const defaultUserAgent = "refharvest/0.1"

// Fetcher executes rate-limited HTTP GETs with retry and exponential
// backoff. One instance is shared by all concurrent workers so the token
// bucket gates the whole process.
type Fetcher struct {
	Client    *http.Client
	UserAgent string

	// Retries is the number of retries after the initial attempt.
	Retries int

	// Backoff is the base backoff delay: delay = Backoff * 2^attempt.
	Backoff time.Duration

	// Sleep waits between retries. Tests substitute a recording stub so
	// backoff timing is observable without real delays.
	Sleep func(ctx context.Context, d time.Duration) error

	limiter *rate.Limiter
}

// NewFetcher builds a Fetcher from cfg. RPS of zero disables the limiter.
func NewFetcher(cfg types.HTTPConfig) *Fetcher {
	f := &Fetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Retries:   cfg.Retries,
		Backoff:   cfg.Backoff,
	}
	if f.UserAgent == "" {
		f.UserAgent = defaultUserAgent
	}
	if cfg.RPS > 0 {
		// Burst of one keeps requests strictly 1/RPS apart, so no burst
		// ever exceeds the configured rate inside a one-second window.
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return f
}

// Get issues a rate-limited GET for url.
func (f *Fetcher) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return f.Do(ctx, req)
}

// Do executes req, waiting on the global limiter before every attempt and
// retrying transient failures (timeout, connection error, HTTP 5xx/429)
// with exponential backoff. HTTP 404/410 returns ErrNotFound immediately.
// Other non-2xx responses are handed back for the caller to interpret.
func (f *Fetcher) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	for attempt := 0; ; attempt++ {
		if err := f.wait(ctx); err != nil {
			return nil, err
		}

		resp, err := f.Client.Do(req.Clone(ctx))
		cerr := classify(resp, err)
		if cerr == nil {
			return resp, nil
		}
		if !IsTransient(cerr) {
			if resp != nil {
				drain(resp)
			}
			return nil, cerr
		}
		if resp != nil {
			drain(resp)
		}

		if attempt >= f.Retries {
			return nil, fmt.Errorf("%s: %w (%d attempts, last: %v)",
				req.URL, ErrExhaustedRetries, attempt+1, cerr)
		}

		delay := f.Backoff * time.Duration(1<<attempt)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// wait blocks on the global token bucket, if one is configured.
func (f *Fetcher) wait(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	return f.limiter.Wait(ctx)
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// drain consumes and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
