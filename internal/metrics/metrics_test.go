package metrics

import (
	"testing"
	"time"

	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCollector(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })
	return collector
}

func TestRewardRecorders(t *testing.T) {
	collector := withCollector(t)

	RecordClaim("credited")
	RecordClaim("cooling_down")
	RecordTaskRejection("complete", "still_verifying")
	RecordTaskCompletion("telegram")
	RecordPaystackRequest("list_banks", 200)
	RecordBankDirectoryCache("hit")

	assert.Greater(t, collector.CountMetricsByName(ClaimsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(TaskRejectionsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(TaskCompletionsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(PaystackRequestsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(BankDirectoryCacheTotal), 0)
}

func TestLifecycleAndErrorRecorders(t *testing.T) {
	collector := withCollector(t)

	SetServerStartTime(time.Now())
	SetServerUptime(90 * time.Second)
	RecordHealthCheck("store", true, 3*time.Millisecond)
	RecordError("NOT_FOUND", 404)
	RecordErrorByEndpoint("/api/tasks", "NOT_FOUND")
	RecordPanic()

	assert.Greater(t, collector.CountMetricsByName(ServerStartTime), 0)
	assert.Greater(t, collector.CountMetricsByName(ServerUptime), 0)
	assert.Greater(t, collector.CountMetricsByName(HealthCheckTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(HealthCheckDuration), 0)
	assert.Greater(t, collector.CountMetricsByName(ErrorsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(ErrorsByEndpointName), 0)
	assert.Greater(t, collector.CountMetricsByName(PanicsTotalName), 0)
}

func TestRecordersWithoutTelemetry(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	assert.NotPanics(t, func() {
		RecordClaim("paused")
		RecordHealthCheck("redis", false, time.Millisecond)
		RecordPanic()
	})
}

func TestHTTPErrorType(t *testing.T) {
	assert.Equal(t, "", httpErrorType(200))
	assert.Equal(t, "throttled", httpErrorType(429))
	assert.Equal(t, "conflict", httpErrorType(409))
	assert.Equal(t, "client_error", httpErrorType(404))
	assert.Equal(t, "server_error", httpErrorType(502))
}
