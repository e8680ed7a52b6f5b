package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	f := New(Options{UserAgent: "test-agent/1.0", Limiter: unlimited()})

	body, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, "test-agent/1.0", got.Get("User-Agent"))
	assert.Contains(t, got.Get("Accept"), "text/html")
	assert.Contains(t, got.Get("Accept-Language"), "nl-NL")
	assert.Equal(t, "no-cache", got.Get("Cache-Control"))
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := New(Options{Limiter: unlimited()})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, srv.URL, statusErr.URL)
}

func TestFetch_RedirectCap(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := New(Options{MaxRedirects: 2, Limiter: unlimited()})

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirects")
}

func TestFetch_FollowsRedirectsUnderCap(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "landed")
	})

	f := New(Options{MaxRedirects: 3, Limiter: unlimited()})

	body, err := f.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "landed", body)
}

func TestFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A zero-burst limiter can never admit a request, so the wait must end
	// on the context, not the clock.
	f := New(Options{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})
	_, _ = f.Fetch(context.Background(), "http://127.0.0.1:0/") // drain the one token

	_, err := f.Fetch(ctx, "http://127.0.0.1:0/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter wait")
}

func TestFetch_LimiterSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := New(Options{Limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1)})

	start := time.Now()
	for range 3 {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
