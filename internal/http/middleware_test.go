package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPLimiterSweepsIdleEntries(t *testing.T) {
	limiter := newIPLimiter(10, 60)
	require.True(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	limiter.mu.Lock()
	limiter.entries["10.0.0.1"].lastSeen = time.Now().Add(-2 * limiter.maxIdle)
	limiter.lastSweep = time.Now().Add(-2 * limiter.maxIdle)
	limiter.mu.Unlock()

	require.True(t, limiter.allow("10.0.0.3"))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.entries, "10.0.0.1")
	assert.Contains(t, limiter.entries, "10.0.0.2")
	assert.Contains(t, limiter.entries, "10.0.0.3")
}

func TestResolveClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7:4521"
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", resolveClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7:4521"
	assert.Equal(t, "203.0.113.7", resolveClientIP(req))
}
