package security_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KumudBhatt/Code-Nexus/internal/security"
)

func TestIPRateLimiter_SingleSubmissionPerWindow(t *testing.T) {
	rl := security.NewIPRateLimiter(5*time.Second, 1)

	// Six rapid requests: only the first is accepted.
	assert.True(t, rl.Allow("10.0.0.1"))
	for i := 0; i < 5; i++ {
		assert.False(t, rl.Allow("10.0.0.1"), "request %d inside the window must be rejected", i+2)
	}
}

func TestIPRateLimiter_WindowElapses(t *testing.T) {
	rl := security.NewIPRateLimiter(50*time.Millisecond, 1)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	time.Sleep(70 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"), "a request after the window elapses must be accepted")
}

func TestIPRateLimiter_IPsAreIndependent(t *testing.T) {
	rl := security.NewIPRateLimiter(5*time.Second, 1)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "another client must not be affected")
}

func TestIPRateLimiter_Burst(t *testing.T) {
	rl := security.NewIPRateLimiter(3*time.Minute, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within burst must pass", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	newRequest := func(remoteAddr string, headers map[string]string) *http.Request {
		req, err := http.NewRequest(http.MethodPost, "/run", nil)
		require.NoError(t, err)
		req.RemoteAddr = remoteAddr
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req
	}

	t.Run("remote addr with port", func(t *testing.T) {
		req := newRequest("192.0.2.7:9000", nil)
		assert.Equal(t, "192.0.2.7", security.ClientIP(req, false))
	})

	t.Run("proxy headers ignored when untrusted", func(t *testing.T) {
		req := newRequest("192.0.2.7:9000", map[string]string{"X-Real-IP": "203.0.113.9"})
		assert.Equal(t, "192.0.2.7", security.ClientIP(req, false))
	})

	t.Run("x-real-ip wins when trusted", func(t *testing.T) {
		req := newRequest("192.0.2.7:9000", map[string]string{"X-Real-IP": "203.0.113.9"})
		assert.Equal(t, "203.0.113.9", security.ClientIP(req, true))
	})

	t.Run("first x-forwarded-for entry", func(t *testing.T) {
		req := newRequest("192.0.2.7:9000", map[string]string{"X-Forwarded-For": "203.0.113.9, 198.51.100.2"})
		assert.Equal(t, "203.0.113.9", security.ClientIP(req, true))
	})

	t.Run("non-IP header value rejected", func(t *testing.T) {
		req := newRequest("192.0.2.7:9000", map[string]string{"X-Real-IP": "not-an-ip"})
		assert.Equal(t, "192.0.2.7", security.ClientIP(req, true))
	})
}
