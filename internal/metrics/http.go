package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// HTTP metric names
const (
	HTTPRequestsTotal    = "http_requests_total"
	HTTPRequestDuration  = "http_request_duration_ms"
	HTTPRequestSizeBytes = "http_request_size_bytes"
	HTTPResponseSize     = "http_response_size_bytes"
	HTTPErrorsTotal      = "http_errors_total"
)

// HTTPRequest describes one completed request. Endpoint must be a route
// pattern, never a raw path, to keep label cardinality bounded.
type HTTPRequest struct {
	Method       string
	Endpoint     string
	Status       int
	Duration     time.Duration
	RequestSize  int64
	ResponseSize int64
}

// RecordHTTPRequest emits the request counter, latency histogram, size
// gauges and, for 4xx/5xx responses, the error counter.
func RecordHTTPRequest(req HTTPRequest) {
	status := strconv.Itoa(req.Status)
	labels := map[string]string{
		"method":   req.Method,
		"endpoint": req.Endpoint,
		"status":   status,
	}
	sizeLabels := map[string]string{
		"method":   req.Method,
		"endpoint": req.Endpoint,
	}

	count(HTTPRequestsTotal, labels)
	observe(HTTPRequestDuration, req.Duration, labels)
	gauge(HTTPRequestSizeBytes, float64(req.RequestSize), sizeLabels)
	gauge(HTTPResponseSize, float64(req.ResponseSize), sizeLabels)

	if errorType := httpErrorType(req.Status); errorType != "" {
		count(HTTPErrorsTotal, map[string]string{
			"method":     req.Method,
			"endpoint":   req.Endpoint,
			"status":     status,
			"error_type": errorType,
		})
	}
}

// httpErrorType classifies error statuses. Claim throttling (429) and task
// state conflicts (409) are expected traffic and get their own buckets.
func httpErrorType(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "throttled"
	case status == http.StatusConflict:
		return "conflict"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return ""
	}
}
