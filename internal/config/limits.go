package config

import "time"

// WebSocket connection limits and constraints
const (
	// Rate limiting (realtime messages, per connection)
	MaxMessagesPerSecond = 20
	RateLimitWindow      = time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second
	PongTimeout  = 90 * time.Second // 3x ping interval for network delay tolerance

	// Channel buffers
	ClientSendBufferSize = 256
	HubEventBufferSize   = 256

	// Payload ceilings
	MaxDocumentBytes = 256 * 1024
	MaxStdinBytes    = 64 * 1024
)

// Execution pipeline limits
const (
	DefaultExecTimeout       = 10 * time.Second
	DefaultMaxConcurrentRuns = 4

	// Submission throttle: one run per window, per client IP
	SubmissionWindow = 5 * time.Second

	// Auth throttle: 5 requests per 15 minutes, per client IP
	AuthWindow   = 15 * time.Minute
	AuthMaxBurst = 5
)
