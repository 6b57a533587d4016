package metrics

import "time"

// Server lifecycle and health metric names
const (
	ServerStartTime     = "app_server_start_time_seconds"
	ServerUptime        = "app_server_uptime_seconds"
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
)

// SetServerStartTime records when the HTTP server began listening.
func SetServerStartTime(at time.Time) {
	gauge(ServerStartTime, float64(at.Unix()), nil)
}

// SetServerUptime records the uptime reported by the health endpoints.
func SetServerUptime(uptime time.Duration) {
	gauge(ServerUptime, uptime.Seconds(), nil)
}

// RecordHealthCheck records one dependency check (store, redis) and how long it took.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	count(HealthCheckTotal, map[string]string{
		"check":  checkName,
		"status": status,
	})
	observe(HealthCheckDuration, duration, map[string]string{"check": checkName})
}
