// Package api is a client for the upstream invitation API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
	tracerName     = "github.com/dukerupert/undangan/internal/api"
)

// ErrNotConfigured is returned by every call when no base URL is set.
var ErrNotConfigured = errors.New("api base URL not configured")

// Error is a non-2xx response from the API.
type Error struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// DecodeError reports a response that does not match the expected schema.
type DecodeError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("decode %s: missing field %q", e.Endpoint, e.Field)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UserMessage returns the server-provided message of an API error, or
// fallback for any other error.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Client talks to the invitation API. The zero base URL yields a client whose
// calls all fail with ErrNotConfigured.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for baseURL (e.g. "https://example.com/api/v1").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		tracer:     otel.Tracer(tracerName),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return c, nil
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", baseURL)
	}
	c.base = u
	return c, nil
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c.base != nil
}

// Origin returns scheme://host of the API, or "".
func (c *Client) Origin() string {
	if c.base == nil {
		return ""
	}
	return c.base.Scheme + "://" + c.base.Host
}

// ResolveURL resolves a possibly relative asset reference against the API
// origin. Absolute URLs are returned unchanged.
func (c *Client) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || c.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	origin := &url.URL{Scheme: c.base.Scheme, Host: c.base.Host, Path: "/"}
	return origin.ResolveReference(u).String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

// do performs a request and returns the body of a 2xx response. name is a
// low-cardinality label for logs and spans.
func (c *Client) do(ctx context.Context, name, method, path string, query url.Values, body any) ([]byte, error) {
	if c.base == nil {
		return nil, ErrNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "api."+name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", name, err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.endpoint(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", req.URL.Path),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.logger.Warn("api request failed", "endpoint", name, "error", err)
		return nil, fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read %s response: %w", name, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("api request",
		"endpoint", name,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Endpoint: name, Status: resp.StatusCode, Message: errorMessage(data)}
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}
	return data, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// unwrapData returns the contents of a top-level "data" member when present,
// otherwise body itself.
func unwrapData(body []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return body
	}
	trimmed := bytes.TrimSpace(env.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return body
	}
	return trimmed
}
