package utils

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"

	"github.com/KumudBhatt/Code-Nexus/internal/security"
	"github.com/KumudBhatt/Code-Nexus/internal/services"
)

// AuthCookieMiddleware is an HTTP middleware that takes the PocketBase auth token
// from the `pb_auth` cookie. It then manually retrieves the auth state from this
// token, and places it in the request event, accessible by HTTP handlers.
func AuthCookieMiddleware() *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id:   "AuthCookieMiddleware",
		Func: authCookie,
	}
}

func authCookie(e *core.RequestEvent) error {
	if e.Auth != nil {
		return e.Next()
	}

	tokenCookie, err := e.Request.Cookie("pb_auth")
	if err != nil {
		return e.Next()
	}

	decodedCookie, err := url.QueryUnescape(tokenCookie.Value)
	if err != nil {
		return e.Next()
	}

	var cookieObject map[string]interface{}
	err = json.Unmarshal([]byte(decodedCookie), &cookieObject)
	if err != nil {
		return e.Next()
	}

	token, ok := cookieObject["token"].(string)
	if !ok {
		return e.Next()
	}

	m, err := e.App.FindAuthRecordByToken(token, core.TokenTypeAuth)
	if err != nil {
		return e.Next()
	}

	e.Auth = m
	return e.Next()
}

// SubmissionThrottle gates a route to one accepted request per window, per
// client IP. Rejections perform no pipeline work.
func SubmissionThrottle(limiter *security.IPRateLimiter, trustProxy bool, metrics *services.Metrics) *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "SubmissionThrottle",
		Func: func(e *core.RequestEvent) error {
			ip := security.ClientIP(e.Request, trustProxy)
			if !limiter.Allow(ip) {
				metrics.IncrementThrottledRuns()
				e.Response.Header().Set("Retry-After", "5")
				return e.JSON(http.StatusTooManyRequests, map[string]string{
					"status":  "error",
					"message": "Too many submissions from this IP, please try again later.",
				})
			}
			return e.Next()
		},
	}
}

// AuthThrottle rate-limits the password/token auth endpoints per client IP.
// Other routes pass through untouched.
func AuthThrottle(limiter *security.IPRateLimiter, trustProxy bool) *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "AuthThrottle",
		Func: func(e *core.RequestEvent) error {
			path := e.Request.URL.Path
			if !strings.Contains(path, "/auth-with-password") && !strings.Contains(path, "/auth-refresh") {
				return e.Next()
			}

			ip := security.ClientIP(e.Request, trustProxy)
			if !limiter.Allow(ip) {
				e.Response.Header().Set("Retry-After", "60")
				return e.JSON(http.StatusTooManyRequests, map[string]string{
					"status":  "error",
					"message": "Too many requests from this IP, please try again later.",
				})
			}
			return e.Next()
		},
	}
}
