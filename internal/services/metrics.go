package services

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics tracks realtime and execution-pipeline activity
type Metrics struct {
	// Connection metrics
	activeConnections int64
	totalConnections  int64
	activeRooms       int64

	// Message metrics
	messagesReceived int64
	messagesSent     int64
	lastMessageTime  int64 // Unix timestamp

	// Error metrics
	connectionErrors    int64
	broadcastErrors     int64
	rateLimitViolations int64

	// Execution metrics
	runsStarted     int64
	runsSucceeded   int64
	compileFailures int64
	runtimeFailures int64
	infraFailures   int64
	runTimeouts     int64
	throttledRuns   int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// Connection tracking
func (m *Metrics) IncrementConnections() {
	atomic.AddInt64(&m.activeConnections, 1)
	atomic.AddInt64(&m.totalConnections, 1)
}

func (m *Metrics) DecrementConnections() {
	atomic.AddInt64(&m.activeConnections, -1)
}

func (m *Metrics) IncrementRooms() {
	atomic.AddInt64(&m.activeRooms, 1)
}

func (m *Metrics) DecrementRooms() {
	atomic.AddInt64(&m.activeRooms, -1)
}

// Message tracking
func (m *Metrics) IncrementMessagesReceived() {
	atomic.AddInt64(&m.messagesReceived, 1)
	atomic.StoreInt64(&m.lastMessageTime, time.Now().Unix())
}

func (m *Metrics) IncrementMessagesSent() {
	atomic.AddInt64(&m.messagesSent, 1)
}

// Error tracking
func (m *Metrics) IncrementConnectionErrors() {
	atomic.AddInt64(&m.connectionErrors, 1)
}

func (m *Metrics) IncrementBroadcastErrors() {
	atomic.AddInt64(&m.broadcastErrors, 1)
}

func (m *Metrics) IncrementRateLimitViolations() {
	atomic.AddInt64(&m.rateLimitViolations, 1)
}

// Execution tracking
func (m *Metrics) IncrementRunsStarted()     { atomic.AddInt64(&m.runsStarted, 1) }
func (m *Metrics) IncrementRunsSucceeded()   { atomic.AddInt64(&m.runsSucceeded, 1) }
func (m *Metrics) IncrementCompileFailures() { atomic.AddInt64(&m.compileFailures, 1) }
func (m *Metrics) IncrementRuntimeFailures() { atomic.AddInt64(&m.runtimeFailures, 1) }
func (m *Metrics) IncrementInfraFailures()   { atomic.AddInt64(&m.infraFailures, 1) }
func (m *Metrics) IncrementRunTimeouts()     { atomic.AddInt64(&m.runTimeouts, 1) }
func (m *Metrics) IncrementThrottledRuns()   { atomic.AddInt64(&m.throttledRuns, 1) }

// MetricsSnapshot represents a point-in-time view of metrics
type MetricsSnapshot struct {
	// Connection metrics
	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	ActiveRooms       int64 `json:"active_rooms"`

	// Message metrics
	MessagesReceived  int64   `json:"messages_received"`
	MessagesSent      int64   `json:"messages_sent"`
	MessagesPerSecond float64 `json:"messages_per_second"`
	LastMessageTime   string  `json:"last_message_time"`

	// Error metrics
	ConnectionErrors    int64 `json:"connection_errors"`
	BroadcastErrors     int64 `json:"broadcast_errors"`
	RateLimitViolations int64 `json:"rate_limit_violations"`

	// Execution metrics
	RunsStarted     int64 `json:"runs_started"`
	RunsSucceeded   int64 `json:"runs_succeeded"`
	CompileFailures int64 `json:"compile_failures"`
	RuntimeFailures int64 `json:"runtime_failures"`
	InfraFailures   int64 `json:"infra_failures"`
	RunTimeouts     int64 `json:"run_timeouts"`
	ThrottledRuns   int64 `json:"throttled_runs"`

	// Resource metrics
	UptimeSeconds int64  `json:"uptime_seconds"`
	MemoryUsageMB uint64 `json:"memory_usage_mb"`
	NumGoroutines int    `json:"num_goroutines"`

	HealthStatus string `json:"health_status"`
}

// Snapshot returns a point-in-time view of all metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(m.startTime)
	messagesPerSec := float64(atomic.LoadInt64(&m.messagesReceived)) / uptime.Seconds()

	lastMsgTime := atomic.LoadInt64(&m.lastMessageTime)
	lastMsgTimeStr := "never"
	if lastMsgTime > 0 {
		lastMsgTimeStr = time.Unix(lastMsgTime, 0).Format(time.RFC3339)
	}

	return MetricsSnapshot{
		ActiveConnections:   atomic.LoadInt64(&m.activeConnections),
		TotalConnections:    atomic.LoadInt64(&m.totalConnections),
		ActiveRooms:         atomic.LoadInt64(&m.activeRooms),
		MessagesReceived:    atomic.LoadInt64(&m.messagesReceived),
		MessagesSent:        atomic.LoadInt64(&m.messagesSent),
		MessagesPerSecond:   messagesPerSec,
		LastMessageTime:     lastMsgTimeStr,
		ConnectionErrors:    atomic.LoadInt64(&m.connectionErrors),
		BroadcastErrors:     atomic.LoadInt64(&m.broadcastErrors),
		RateLimitViolations: atomic.LoadInt64(&m.rateLimitViolations),
		RunsStarted:         atomic.LoadInt64(&m.runsStarted),
		RunsSucceeded:       atomic.LoadInt64(&m.runsSucceeded),
		CompileFailures:     atomic.LoadInt64(&m.compileFailures),
		RuntimeFailures:     atomic.LoadInt64(&m.runtimeFailures),
		InfraFailures:       atomic.LoadInt64(&m.infraFailures),
		RunTimeouts:         atomic.LoadInt64(&m.runTimeouts),
		ThrottledRuns:       atomic.LoadInt64(&m.throttledRuns),
		UptimeSeconds:       int64(uptime.Seconds()),
		MemoryUsageMB:       memStats.Alloc / 1024 / 1024,
		NumGoroutines:       runtime.NumGoroutine(),
		HealthStatus:        m.calculateHealthStatus(),
	}
}

// calculateHealthStatus determines overall system health
func (m *Metrics) calculateHealthStatus() string {
	activeConns := atomic.LoadInt64(&m.activeConnections)
	activeRooms := atomic.LoadInt64(&m.activeRooms)
	errors := atomic.LoadInt64(&m.connectionErrors) + atomic.LoadInt64(&m.broadcastErrors)

	if activeConns > 9000 || activeRooms > 900 {
		return "critical"
	}
	if activeConns > 8000 || activeRooms > 800 || errors > 100 {
		return "warning"
	}
	return "healthy"
}
