// Package paystack proxies the bank directory and account resolution
// endpoints of the Paystack API.
package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/earnbuzz/earnbuzz/internal/metrics"
)

// DefaultBaseURL is the production Paystack API.
const DefaultBaseURL = "https://api.paystack.co"

const maxResponseBytes = 4 << 20

// Client performs authenticated GET requests against Paystack.
type Client struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
	// Limiter throttles outbound calls when set. Waiting is bounded by the
	// request context.
	Limiter *rate.Limiter
}

// NewClient builds a client with the given timeout and optional throttle.
// A non-positive requestsPerSecond disables throttling.
func NewClient(baseURL, secretKey string, timeout time.Duration, requestsPerSecond float64, burst int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: timeout},
	}
	if requestsPerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return c
}

// HasCredential reports whether a secret key is configured.
func (c *Client) HasCredential() bool {
	return c != nil && strings.TrimSpace(c.SecretKey) != ""
}

// response is a decoded upstream reply. Body is {} when the payload was not JSON.
type response struct {
	Status int
	Body   any
}

func (r response) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// get issues GET path?query. Transport failures are returned as errors; any
// HTTP status is returned as a response.
func (c *Client) get(ctx context.Context, operation, path string, query url.Values) (response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return response{}, fmt.Errorf("paystack throttle: %w", err)
		}
	}

	target, err := c.endpoint(path, query)
	if err != nil {
		return response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.SecretKey))
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordPaystackRequest(operation, 0)
		return response{}, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	metrics.RecordPaystackRequest(operation, resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("read paystack response: %w", err)
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		body = map[string]any{}
	}

	return response{Status: resp.StatusCode, Body: body}, nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid paystack base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("invalid paystack base url: scheme and host are required")
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + path
	if len(query) > 0 {
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

// upstreamMessage picks data.message, then data.error, then fallback.
func upstreamMessage(body any, fallback string) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return fallback
	}
	if msg := stringField(obj, "message"); msg != "" {
		return msg
	}
	if msg := stringField(obj, "error"); msg != "" {
		return msg
	}
	return fallback
}

// stringField returns the first non-empty scalar among keys, rendered as text.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		case bool:
			if v {
				return "true"
			}
		}
	}
	return ""
}
