package httpjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

func fastConfig() Config {
	return Config{
		UserAgent:      "harvester-test/1.0",
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "harvester-test/1.0", r.Header.Get("User-Agent"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer srv.Close()

	body, err := New(fastConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"42"}`, string(body))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := New(fastConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(body))
	require.Equal(t, int64(3), hits.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(fastConfig()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, harvest.IsFetchError(err))

	var fetchErr *harvest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	require.Equal(t, int64(1), hits.Load())
}

func TestFetchRetriesThrottling(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(fastConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, int64(2), hits.Load())
}

func TestFetchExhaustsRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 2
	_, err := New(cfg).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fetchErr *harvest.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	// Initial attempt plus two retries.
	require.Equal(t, int64(3), hits.Load())
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(fastConfig()).Fetch(ctx, srv.URL)
	require.Error(t, err)
}
