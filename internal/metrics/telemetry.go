package metrics

import (
	"time"

	"github.com/earnbuzz/earnbuzz/internal/observability"
)

// Every recorder is a no-op until observability.InitMetrics has run, so
// commands that never start telemetry can call them freely.

func count(name string, tags map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(name, 1, tags)
}

func gauge(name string, value float64, tags map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Gauge(name, value, tags)
}

func observe(name string, duration time.Duration, tags map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Histogram(name, duration, tags)
}
