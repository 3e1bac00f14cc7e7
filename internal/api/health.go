package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/rune-ration-replay-go/internal/version"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemoryTotal   uint64 `json:"memory_total_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// MetricsResponse represents basic performance metrics
type MetricsResponse struct {
	Timestamp     string               `json:"timestamp"`
	EngineVersion string               `json:"engine_version"`
	Uptime        string               `json:"uptime"`
	System        SystemInfo           `json:"system"`
	Operations    map[string]OpMetrics `json:"operations"`
	RequestID     string               `json:"request_id,omitempty"`
}

// OpMetrics represents per-route request metrics
type OpMetrics struct {
	TotalRequests   uint64  `json:"total_requests"`
	SuccessRequests uint64  `json:"success_requests"`
	ErrorRequests   uint64  `json:"error_requests"`
	AvgDurationMs   float64 `json:"avg_duration_ms"`
	LastRequest     string  `json:"last_request,omitempty"`
}

// HealthMonitor tracks uptime and per-route request metrics
type HealthMonitor struct {
	startTime time.Time

	mu      sync.Mutex
	metrics map[string]*OpMetrics
	total   map[string]time.Duration
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		startTime: time.Now(),
		metrics:   make(map[string]*OpMetrics),
		total:     make(map[string]time.Duration),
	}
}

// Record counts one request against op. Statuses of 400 and above are errors.
func (m *HealthMonitor) Record(op string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.metrics[op]
	if !ok {
		om = &OpMetrics{}
		m.metrics[op] = om
	}
	om.TotalRequests++
	if status >= http.StatusBadRequest {
		om.ErrorRequests++
	} else {
		om.SuccessRequests++
	}
	m.total[op] += duration
	om.AvgDurationMs = float64(m.total[op].Microseconds()) / 1000 / float64(om.TotalRequests)
	om.LastRequest = time.Now().UTC().Format(time.RFC3339)
}

// Snapshot copies the current metrics.
func (m *HealthMonitor) Snapshot() map[string]OpMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]OpMetrics, len(m.metrics))
	for op, om := range m.metrics {
		out[op] = *om
	}
	return out
}

// Uptime is the time since the monitor was created.
func (m *HealthMonitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// handleHealthCheck provides comprehensive health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]HealthCheck{
		"catalog":  s.checkCatalogHealth(),
		"database": s.checkDatabaseHealth(),
		"scanner":  s.checkScannerHealth(),
		"signing":  s.checkSigningHealth(),
	}

	overall := HealthStatusHealthy
	for _, check := range checks {
		switch check.Status {
		case HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		}
	}

	statusCode := http.StatusOK
	if overall == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(w, statusCode, HealthCheckResponse{
		Status:        overall,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: version.EngineVersion,
		GitCommit:     version.GitCommit,
		BuildTime:     version.BuildTime,
		Uptime:        s.monitor.Uptime().String(),
		Checks:        checks,
		System:        getSystemInfo(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

// handleMetrics reports per-route request metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, MetricsResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: version.EngineVersion,
		Uptime:        s.monitor.Uptime().String(),
		System:        getSystemInfo(),
		Operations:    s.monitor.Snapshot(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

// handleReadiness reports whether the server can take traffic
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	catalogCheck := s.checkCatalogHealth()
	dbCheck := s.checkDatabaseHealth()

	ready := catalogCheck.Status == HealthStatusHealthy && dbCheck.Status != HealthStatusUnhealthy
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"ready":          ready,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": version.EngineVersion,
		"checks": map[string]HealthCheck{
			"catalog":  catalogCheck,
			"database": dbCheck,
		},
		"request_id": middleware.GetReqID(r.Context()),
	})
}

// handleLiveness reports that the process is up
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"alive":          true,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": version.EngineVersion,
		"uptime":         s.monitor.Uptime().String(),
		"request_id":     middleware.GetReqID(r.Context()),
	})
}

func (s *Server) checkCatalogHealth() HealthCheck {
	start := time.Now()
	cat := s.catalog.Current()
	check := HealthCheck{Status: HealthStatusHealthy}
	switch {
	case cat == nil:
		check.Status = HealthStatusUnhealthy
		check.Message = "no catalog loaded"
	case len(cat.Units()) == 0 || len(cat.Ghosts()) == 0:
		check.Status = HealthStatusUnhealthy
		check.Message = "catalog has no units or ghosts"
	default:
		check.Message = "catalog loaded"
	}
	return finishCheck(check, start)
}

func (s *Server) checkDatabaseHealth() HealthCheck {
	start := time.Now()
	if s.db == nil {
		return finishCheck(HealthCheck{Status: HealthStatusDegraded, Message: "database not configured"}, start)
	}
	if err := s.db.Ping(); err != nil {
		return finishCheck(HealthCheck{Status: HealthStatusUnhealthy, Message: err.Error()}, start)
	}
	return finishCheck(HealthCheck{Status: HealthStatusHealthy, Message: "database reachable"}, start)
}

func (s *Server) checkScannerHealth() HealthCheck {
	if s.scanner == nil {
		return finishCheck(HealthCheck{Status: HealthStatusUnhealthy, Message: "scanner not initialized"}, time.Now())
	}
	return finishCheck(HealthCheck{Status: HealthStatusHealthy, Message: "scanner ready"}, time.Now())
}

func (s *Server) checkSigningHealth() HealthCheck {
	if s.signer == nil {
		return finishCheck(HealthCheck{Status: HealthStatusDegraded, Message: "battles are stored unsigned"}, time.Now())
	}
	return finishCheck(HealthCheck{Status: HealthStatusHealthy, Message: "signing key loaded"}, time.Now())
}

func finishCheck(check HealthCheck, start time.Time) HealthCheck {
	check.LastChecked = time.Now().UTC().Format(time.RFC3339)
	check.Duration = time.Since(start).String()
	return check
}

func getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   m.Alloc,
		MemoryTotal:   m.TotalAlloc,
		MemorySys:     m.Sys,
		GCCycles:      m.NumGC,
	}
}
