/*
   Copyright 2026 The Tapp Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package transport executes backend endpoints over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"tapp.so/tapp/apis"
)

var tracer = otel.Tracer("tapp.so/tapp/transport")

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 1 << 20

// HeaderRequestID carries a per-request UUID.
const HeaderRequestID = "X-Request-ID"

// ErrNilEndpointURL is returned for an endpoint without URL.
var ErrNilEndpointURL = errors.New("tapp(transport): empty endpoint url")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// Body is the (possibly truncated) response body.
	Body []byte
}

// Error implements error.
func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("tapp(transport): status %d: %s", e.Code, bytes.TrimSpace(body))
}

// Client implements apis.Executor with net/http.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	maxBody   int64
	userAgent string
}

// Ensure Client implements apis.Executor.
var _ apis.Executor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps requests per second. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New constructs a Client with a 30s http.Client and no rate limit.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBody:   DefaultMaxBodyBytes,
		userAgent: "tapp-go",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FromOptions builds a Client honoring the rate limit in o.
func FromOptions(o apis.Options, logger *slog.Logger) *Client {
	return New(WithRateLimit(o.RateLimit, o.RateBurst), WithLogger(logger))
}

// Execute POSTs ep.Body as JSON and returns the response body.
func (c *Client) Execute(ctx context.Context, ep apis.Endpoint) ([]byte, error) {
	if ep.URL == "" {
		return nil, ErrNilEndpointURL
	}
	requestID := uuid.NewString()

	ctx, span := tracer.Start(ctx, "tapp.remote",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodPost),
			attribute.String("url.full", ep.URL),
			attribute.String("tapp.request_id", requestID),
		))
	defer span.End()

	fail := func(err error) ([]byte, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("tapp(transport): rate limit: %w", err))
		}
	}

	payload, err := json.Marshal(ep.Body)
	if err != nil {
		return fail(fmt.Errorf("tapp(transport): encode body: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("tapp(transport): build request: %w", err))
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fail(fmt.Errorf("tapp(transport): %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("backend call",
		slog.String("url", ep.URL),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))
	if err != nil {
		return fail(fmt.Errorf("tapp(transport): read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(&StatusError{Code: resp.StatusCode, Body: body})
	}
	return body, nil
}
