package policy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestShouldRetryBoundsAttempts(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3, 10*time.Millisecond, 100*time.Millisecond)
	err := errors.New("transient")

	require.True(t, p.ShouldRetry(err, 1))
	require.True(t, p.ShouldRetry(err, 2))
	require.False(t, p.ShouldRetry(err, 3))
	require.False(t, p.ShouldRetry(nil, 1))
}

func TestShouldRetryNeverRetriesCancellation(t *testing.T) {
	t.Parallel()

	p := NewExponentialRetryPolicy()
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
	require.False(t, p.ShouldRetry(fmt.Errorf("fetch: %w", context.Canceled), 1))
}

func TestBackoffStaysWithinBounds(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	max := 500 * time.Millisecond
	p := NewRetryPolicy(5, base, max)

	for attempt := 0; attempt < 8; attempt++ {
		d := p.Backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, max)
	}
}

func TestNewRetryPolicyClampsBadInput(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(0, -time.Second, -time.Second)
	require.Equal(t, 1, p.MaxAttempts())
	require.Greater(t, p.Backoff(0), time.Duration(0))
}

func TestWaitHonorsContext(t *testing.T) {
	t.Parallel()

	p := NewRetryPolicy(3, 10*time.Second, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Wait(ctx, 0), context.Canceled)
}

func TestHostLimiterIsolatesHosts(t *testing.T) {
	t.Parallel()

	// Burst 1 at a very low refill rate: the first request per host passes
	// immediately, a second against the same host would block.
	l := NewHostLimiter(0.001, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://ntrs.nasa.gov/api/citations/search"))
	require.NoError(t, l.Wait(ctx, "https://www.federalregister.gov/api/v1/documents.json"))

	blocked, blockedCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer blockedCancel()
	require.Error(t, l.Wait(blocked, "https://ntrs.nasa.gov/citations/1"))
}

func TestRobotsEnforcerHonorsDisallow(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		fetches.Add(1)
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	}))
	defer ts.Close()

	enforcer := NewRobotsEnforcer(true, "test-agent (test@example.com)", zap.NewNop())
	ctx := context.Background()

	require.True(t, enforcer.Allowed(ctx, ts.URL+"/reports/summary.pdf"))
	require.False(t, enforcer.Allowed(ctx, ts.URL+"/private/internal.pdf"))
	require.True(t, enforcer.Allowed(ctx, ts.URL+"/reports/other.pdf"))

	// The parsed robots file is cached per host.
	require.Equal(t, int64(1), fetches.Load())
}

func TestRobotsEnforcerDisabledAllowsAll(t *testing.T) {
	t.Parallel()

	enforcer := NewRobotsEnforcer(false, "test-agent", zap.NewNop())
	require.True(t, enforcer.Allowed(context.Background(), "https://example.org/private/anything"))
}

func TestRobotsEnforcerFailsOpen(t *testing.T) {
	t.Parallel()

	// An unreachable robots.txt must not wedge the whole source.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	enforcer := NewRobotsEnforcer(true, "test-agent (test@example.com)", zap.NewNop())
	require.True(t, enforcer.Allowed(context.Background(), url+"/reports/summary.pdf"))
}

func TestRobotsEnforcerMissingFileAllowsAll(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	enforcer := NewRobotsEnforcer(true, "test-agent (test@example.com)", zap.NewNop())
	require.True(t, enforcer.Allowed(context.Background(), ts.URL+"/private/anything"))
}