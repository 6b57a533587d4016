package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureRequestID(t *testing.T, header string) (string, string) {
	t.Helper()

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/banks", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec.Header().Get(RequestIDHeader)
}

func TestRequestIDReusesCallerHeader(t *testing.T) {
	seen, echoed := captureRequestID(t, "client-req-42")
	assert.Equal(t, "client-req-42", seen)
	assert.Equal(t, "client-req-42", echoed)
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	seen, echoed := captureRequestID(t, "")
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, echoed)
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("x", maxRequestIDLength+1)} {
		seen, _ := captureRequestID(t, bad)
		assert.NotEqual(t, bad, seen)
		assert.Len(t, seen, 36)
	}
}
