package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/registry"
)

// HealthHandler reports process liveness and bridge readiness.
type HealthHandler struct {
	registry *registry.Registry
	logger   *zap.Logger
	started  time.Time
	checks   []HealthCheck
	mu       sync.RWMutex
}

// HealthCheck probes one dependency for the readiness endpoint.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy"
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime,omitempty"`
	Agents    map[string]int         `json:"agents,omitempty"`
	Revision  uint64                 `json:"revision,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of a single dependency probe.
type CheckResult struct {
	Status  string `json:"status"` // "pass", "fail"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(reg *registry.Registry, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{
		registry: reg,
		logger:   logger,
		started:  time.Now(),
		checks:   make([]HealthCheck, 0),
	}
}

// RegisterCheck adds a dependency probe to the readiness endpoint.
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// HandleHealth serves GET /health: uptime, registry revision and agent
// counts per health state. It always answers 200 while the process runs.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}
	if h.registry != nil {
		status.Revision = h.registry.Revision()
		status.Agents = make(map[string]int)
		for state, n := range h.registry.CountByStatus() {
			status.Agents[string(state)] = n
		}
	}
	WriteJSON(w, http.StatusOK, status)
}

// HandleReady serves GET /ready: run every registered dependency probe and
// answer 503 when any fails.
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	h.mu.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult),
	}

	ready := true
	for _, check := range checks {
		start := time.Now()
		err := check.Check(ctx)
		latency := time.Since(start)

		result := CheckResult{Status: "pass", Latency: latency.String()}
		if err != nil {
			result.Status = "fail"
			result.Message = err.Error()
			ready = false
			h.logger.Warn("readiness check failed",
				zap.String("check", check.Name()),
				zap.Error(err),
				zap.Duration("latency", latency))
		}
		status.Checks[check.Name()] = result
	}

	if !ready {
		status.Status = "unhealthy"
		WriteJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// HandleVersion serves GET /version with build metadata.
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, r, map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		})
	}
}

// PingCheck adapts a ping function into a HealthCheck. The bridge uses it
// for the decision cache backend.
type PingCheck struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingCheck creates a function-backed dependency probe.
func NewPingCheck(name string, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping}
}

func (c *PingCheck) Name() string { return c.name }

func (c *PingCheck) Check(ctx context.Context) error { return c.ping(ctx) }
