// Package upstream is the JSON-over-HTTP client shared by the source adapters.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/pulse/internal/domain/activity"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// DefaultTimeout bounds every outbound call.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

// Request outcomes recorded in metrics.
const (
	outcomeOK        = "ok"
	outcomeStatus    = "http_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
)

// StatusError is returned for non-2xx responses. It unwraps to
// activity.ErrUpstream.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Source, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Source, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return activity.ErrUpstream }

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client performs JSON requests against one upstream.
type Client struct {
	source string
	http   *http.Client
	log    logger.Logger
}

// New creates a Client labelled source for logs and metrics.
func New(source string, opts ...Option) *Client {
	c := &Client{
		source: source,
		http:   &http.Client{Timeout: DefaultTimeout},
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the client's label.
func (c *Client) Source() string { return c.source }

// GetJSON issues a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.source, err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// PostJSON encodes body, POSTs it and decodes a 2xx body into out.
func (c *Client) PostJSON(ctx context.Context, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", c.source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.source, err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	ctx := req.Context()
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordUpstreamLatency(c.source, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordUpstreamRequest(c.source, outcomeTransport)
		return fmt.Errorf("%s: %s %s: %w", c.source, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordUpstreamRequest(c.source, outcomeStatus)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Debug(ctx, "upstream returned error status",
			logger.String("source", c.source),
			logger.String("path", req.URL.Path),
			logger.Int("status", resp.StatusCode))
		return &StatusError{Source: c.source, Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	if out == nil {
		metrics.RecordUpstreamRequest(c.source, outcomeOK)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.RecordUpstreamRequest(c.source, outcomeDecode)
		return fmt.Errorf("%w: %s: decode response: %v", activity.ErrUpstream, c.source, err)
	}
	metrics.RecordUpstreamRequest(c.source, outcomeOK)
	return nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}
