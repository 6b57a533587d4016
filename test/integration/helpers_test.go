package integration

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/earnbuzz/earnbuzz/internal/core/paystack"
	"github.com/earnbuzz/earnbuzz/internal/observability"
	"github.com/earnbuzz/earnbuzz/internal/server"
	"github.com/earnbuzz/earnbuzz/internal/server/handlers"
)

const testSecretKey = "sk_test_integration"

// sandboxDenied reports whether err means the environment refuses sockets.
func sandboxDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") || strings.Contains(msg, "not permitted")
}

func initLoggers(t *testing.T) {
	t.Helper()
	observability.InitCLILogger("test", false)
	observability.InitServerLogger("test", "info")
	handlers.InitHealthManager("test")
}

// startExporter brings up the Prometheus exporter on an ephemeral port and
// stops it when the test ends.
func startExporter(t *testing.T) {
	t.Helper()
	if err := observability.InitMetrics("test", 0, "test"); err != nil {
		if sandboxDenied(err) {
			t.Skipf("metrics exporter unavailable in sandbox: %v", err)
		}
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = observability.StopMetrics() })
}

// fakePaystack serves the two Paystack endpoints the proxy calls and counts
// directory fetches so cache hits are observable.
type fakePaystack struct {
	*httptest.Server
	bankCalls atomic.Int32
}

func newFakePaystack(t *testing.T) *fakePaystack {
	t.Helper()
	fake := &fakePaystack{}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testSecretKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"status":false,"message":"Invalid key"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bank":
			fake.bankCalls.Add(1)
			_, _ = io.WriteString(w, `{"status":true,"data":[{"name":"Access Bank","code":"044"},{"name":"GTBank","code":"058"}]}`)
		case "/bank/resolve":
			if r.URL.Query().Get("account_number") != "0123456789" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, `{"status":false,"message":"Could not resolve account name"}`)
				return
			}
			_, _ = io.WriteString(w, `{"status":true,"data":{"account_number":"0123456789","account_name":"ADA OBI"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fake.Close)
	return fake
}

func (f *fakePaystack) api() *handlers.API {
	client := paystack.NewClient(f.URL, testSecretKey, time.Second, 0, 0)
	return &handlers.API{
		Directory: &paystack.Directory{Client: client, Cache: paystack.NewMemoryCache()},
		Resolver:  &paystack.Resolver{Client: client},
	}
}

// serve runs srv on an IPv4 loopback listener.
func serve(t *testing.T, srv *server.Server) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if sandboxDenied(err) {
			t.Skipf("loopback listener unavailable in sandbox: %v", err)
		}
		require.NoError(t, err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

// call issues a request and decodes a JSON body into out when out is non-nil.
func call(t *testing.T, client *http.Client, method, url, body string, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp
}

func fetchText(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}
