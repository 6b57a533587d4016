package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/earnbuzz/earnbuzz/internal/metrics"
)

// Check results reported per dependency.
const (
	checkHealthy   = "healthy"
	checkUnhealthy = "unhealthy"
	checkDegraded  = "degraded"
	checkTimeout   = "timeout"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Timestamp     string            `json:"timestamp"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// ProbeResponse is the body of the live, ready and startup probes.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker is implemented by dependencies the server relies on, such as
// the libsql store and the redis state backend.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

type registeredChecker struct {
	checker HealthChecker
	// optional checkers degrade the aggregate status instead of failing it.
	optional bool
}

type probe struct {
	name      string
	message   string
	timeout   time.Duration
	skipDeps  bool
	aggregate bool
}

var (
	aggregateProbe = probe{name: "aggregate", message: "aggregate health check failed", timeout: 5 * time.Second, aggregate: true}
	livenessProbe  = probe{name: "live", message: "liveness probe failed", timeout: 2 * time.Second, skipDeps: true}
	readinessProbe = probe{name: "ready", message: "readiness probe failed", timeout: 5 * time.Second}
	startupProbe   = probe{name: "startup", message: "startup probe failed", timeout: 3 * time.Second}
)

// HealthManager runs dependency checks for the health endpoints.
type HealthManager struct {
	checkers  map[string]registeredChecker
	version   string
	startedAt time.Time
}

// NewHealthManager creates a manager reporting the given build version.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers:  make(map[string]registeredChecker),
		version:   version,
		startedAt: time.Now(),
	}
}

// RegisterChecker registers a dependency whose failure makes the service unhealthy.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.checkers[name] = registeredChecker{checker: checker}
}

// RegisterOptionalChecker registers a dependency whose failure only degrades the service.
func (hm *HealthManager) RegisterOptionalChecker(name string, checker HealthChecker) {
	hm.checkers[name] = registeredChecker{checker: checker, optional: true}
}

func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			checks[name] = checkTimeout
			continue
		}

		entry := hm.checkers[name]
		started := time.Now()
		err := entry.checker.CheckHealth(ctx)
		metrics.RecordHealthCheck(name, err == nil, time.Since(started))

		switch {
		case err == nil:
			checks[name] = checkHealthy
		case entry.optional:
			checks[name] = checkDegraded
		default:
			checks[name] = checkUnhealthy
		}
	}
	return checks
}

func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		switch status {
		case checkUnhealthy:
			return checkUnhealthy
		case checkDegraded, checkTimeout:
			degraded = true
		}
	}
	if degraded {
		return checkDegraded
	}
	return checkHealthy
}

func (hm *HealthManager) serveProbe(w http.ResponseWriter, r *http.Request, p probe) {
	var checks map[string]string
	if !p.skipDeps {
		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		checks = hm.runHealthChecks(ctx)
		cancel()
	}
	status := hm.determineOverallStatus(checks)

	if status == checkUnhealthy {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", p.message)
		respondWithError(w, r, enrichHealthEnvelope(envelope, p.name, status, checks))
		return
	}

	now := time.Now().UTC()
	var body any = ProbeResponse{Status: status, Timestamp: now}
	if p.aggregate {
		uptime := now.Sub(hm.startedAt)
		metrics.SetServerUptime(uptime)
		body = HealthResponse{
			Status:        status,
			Version:       hm.version,
			Timestamp:     now.Format(time.RFC3339),
			UptimeSeconds: int64(uptime / time.Second),
			Checks:        checks,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler reports every dependency check along with version and uptime.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, aggregateProbe)
}

// LivenessHandler reports that the process is serving. It never touches
// dependencies, so a slow database cannot get the process restarted.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, livenessProbe)
}

// ReadinessHandler reports whether the store and state backends answer.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, readinessProbe)
}

// StartupHandler reports whether initialization finished, using a shorter timeout.
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, startupProbe)
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probeName, status string, checks map[string]string) *errors.ErrorEnvelope {
	details := map[string]interface{}{
		"status": status,
		"probe":  probeName,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	envelope = envelope.WithDetails(details)

	var failing []string
	for name, result := range checks {
		if result != checkHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	contextData := map[string]interface{}{
		"status": status,
		"probe":  probeName,
	}
	if len(failing) > 0 {
		contextData["unhealthy_checks"] = failing
	}
	envelope, _ = envelope.WithContext(contextData)
	return envelope
}

var globalHealthManager *HealthManager

// InitHealthManager installs the process-wide manager used by the package-level handlers.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the process-wide manager, or nil before InitHealthManager.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func globalProbe(p probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if globalHealthManager != nil {
			globalHealthManager.serveProbe(w, r, p)
			return
		}
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
		respondWithError(w, r, enrichHealthEnvelope(envelope, p.name, "unknown", nil))
	}
}

// Package-level handlers serve through the process-wide manager.
var (
	HealthHandler    = globalProbe(aggregateProbe)
	LivenessHandler  = globalProbe(livenessProbe)
	ReadinessHandler = globalProbe(readinessProbe)
	StartupHandler   = globalProbe(startupProbe)
)
