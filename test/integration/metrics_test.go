package integration

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/server"
)

func TestMetricsCountProxyTraffic(t *testing.T) {
	initLoggers(t)
	startExporter(t)

	upstream := newFakePaystack(t)
	ts := serve(t, server.New("127.0.0.1", 0, server.WithAPI(upstream.api())))
	client := ts.Client()

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/banks", ""},
		{http.MethodPost, "/api/verify-account", `{"account_number":"0123456789","bank_code":"044"}`},
		{http.MethodPost, "/api/verify-account", `{}`},
		{http.MethodGet, "/health/live", ""},
	}

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, rq := range requests {
				req, err := http.NewRequest(rq.method, ts.URL+rq.path, strings.NewReader(rq.body))
				if err != nil {
					continue
				}
				req.Header.Set("Content-Type", "application/json")
				if resp, err := client.Do(req); err == nil {
					_ = resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	resp, body := fetchText(t, client, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"),
		"unexpected content type %q", resp.Header.Get("Content-Type"))

	for _, name := range []string{
		"test_http_requests_total",
		"test_http_request_duration_ms",
		"test_paystack_requests_total",
		"test_http_errors_total",
	} {
		assert.Contains(t, body, name)
	}

	samples := 0
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		assert.GreaterOrEqual(t, len(strings.Fields(line)), 2, "malformed sample %q", line)
		samples++
	}
	assert.Positive(t, samples)
}

func TestMetricsUnavailableWithoutExporter(t *testing.T) {
	initLoggers(t)

	exporter, system := observability.PrometheusExporter, observability.TelemetrySystem
	observability.PrometheusExporter, observability.TelemetrySystem = nil, nil
	t.Cleanup(func() {
		observability.PrometheusExporter, observability.TelemetrySystem = exporter, system
	})

	ts := serve(t, server.New("127.0.0.1", 0))
	resp, _ := fetchText(t, ts.Client(), ts.URL+"/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = fetchText(t, ts.Client(), ts.URL+"/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsRouteDisabled(t *testing.T) {
	initLoggers(t)

	ts := serve(t, server.New("127.0.0.1", 0, server.WithMetricsProxy(false)))
	resp, _ := fetchText(t, ts.Client(), ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBankProxyEndToEnd(t *testing.T) {
	initLoggers(t)

	upstream := newFakePaystack(t)
	ts := serve(t, server.New("127.0.0.1", 0, server.WithAPI(upstream.api())))
	client := ts.Client()

	t.Run("directory is cached after first fetch", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			resp, body := fetchText(t, client, ts.URL+"/api/banks")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, `"code":"058"`)
		}
		assert.Equal(t, int32(1), upstream.bankCalls.Load())
	})

	t.Run("resolves a known account", func(t *testing.T) {
		var out map[string]any
		resp := call(t, client, http.MethodPost, ts.URL+"/api/verify-account",
			`{"accountNumber":"0123456789","bankCode":"044"}`, &out)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, out, "account_name")
		assert.Equal(t, "ADA OBI", out["account_name"])
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		resp := call(t, client, http.MethodPost, ts.URL+"/api/verify-account", `{}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
