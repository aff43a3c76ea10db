// Package httpjson implements the fetch executor for the JSON API: plain
// HTTP GETs with pooled connections, a global rate limiter and jittered
// retries. The frontier treats the returned bytes as an opaque payload.
package httpjson

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

// Config controls client behavior.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	RateLimitRPS   float64
	RateBurst      int
}

// Fetcher implements harvest.Fetcher over net/http.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	policy  *RetryPolicy
}

// New builds a Fetcher. A RateLimitRPS of zero disables rate limiting.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newHTTPTransport(),
		},
		limiter: limiter,
		policy:  NewRetryPolicy(cfg.MaxRetries, cfg.BackoffInitial, cfg.BackoffMax),
	}
}

// Fetch executes a GET for url, retrying per the policy, and returns the
// response body. Non-2xx statuses and transport errors surface as
// *harvest.FetchError once retries are exhausted.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &harvest.FetchError{URL: url, Err: err}
			}
		}

		body, status, err := f.do(ctx, url)
		if err == nil && status >= 200 && status < 300 {
			return body, nil
		}
		if err == nil {
			err = fmt.Errorf("unexpected status %d", status)
		}
		lastErr = &harvest.FetchError{URL: url, StatusCode: status, Err: err}

		if !f.policy.ShouldRetry(err, status, attempt) {
			return nil, lastErr
		}
		select {
		case <-ctx.Done():
			return nil, &harvest.FetchError{URL: url, Err: ctx.Err()}
		case <-time.After(f.policy.Backoff(attempt)):
		}
	}
}

func (f *Fetcher) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
	}
}
