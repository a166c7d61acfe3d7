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

// Package resolver is the client of the Tapp resolution backend.
//
// Endpoint builders are pure functions of (Options, Configuration, request)
// and can be tested without I/O. Client executes them through an
// apis.Executor and parses the JSON bodies into typed responses, treating a
// missing "error" field as an error.
package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/metrics"
)

// RemoteError is a failure reported by the backend itself (error=true).
type RemoteError struct {
	// Op is the backend path.
	Op string
	// Message is the server message.
	Message string
}

// Error implements error.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("tapp(resolver): %s: %s", e.Op, e.Message)
}

// Client implements apis.Client over an apis.Executor.
type Client struct {
	exec    apis.Executor
	opts    apis.Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Ensure Client implements apis.Client.
var _ apis.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New constructs a Client.
func New(exec apis.Executor, opts apis.Options, options ...Option) *Client {
	c := &Client{
		exec:   exec,
		opts:   opts,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// FetchSecrets fetches the app token.
func (c *Client) FetchSecrets(ctx context.Context, cfg apis.Configuration) (apis.SecretsResponse, error) {
	raw, err := c.call(ctx, PathSecrets, SecretsEndpoint(c.opts, cfg))
	if err != nil {
		return apis.SecretsResponse{}, err
	}
	return ParseSecrets(raw)
}

// ReportImpression reports that deeplink opened the app.
// A server-side rejection is returned as *RemoteError.
func (c *Client) ReportImpression(ctx context.Context, cfg apis.Configuration, deeplink string) (apis.ImpressionResponse, error) {
	raw, err := c.call(ctx, PathDeeplink, DeeplinkEndpoint(c.opts, cfg, deeplink))
	if err != nil {
		return apis.ImpressionResponse{}, err
	}
	resp, err := ParseStatus(PathDeeplink, raw)
	if err != nil {
		return apis.ImpressionResponse{}, err
	}
	if resp.Error {
		msg := resp.Message
		if msg == "" {
			msg = "impression rejected"
		}
		return resp, &RemoteError{Op: PathDeeplink, Message: msg}
	}
	return resp, nil
}

// FetchLinkData looks up the attribution payload of linkToken. A server-side
// error comes back as a response with Error set, not as a Go error.
func (c *Client) FetchLinkData(ctx context.Context, cfg apis.Configuration, linkToken string) (apis.LinkDataResponse, error) {
	raw, err := c.call(ctx, PathLinkData, LinkDataEndpoint(c.opts, cfg, linkToken))
	if err != nil {
		return apis.LinkDataResponse{}, err
	}
	return ParseLinkData(raw)
}

// FetchDeferredLink submits a fingerprint. A nil response means no answer.
func (c *Client) FetchDeferredLink(ctx context.Context, cfg apis.Configuration, req apis.DeferredLinkRequest) (*apis.DeferredLinkResponse, error) {
	raw, err := c.call(ctx, PathFingerprint, FingerprintEndpoint(c.opts, cfg, req))
	if err != nil {
		return nil, err
	}
	return ParseDeferredLink(raw)
}

// TrackEvent reports ev. Dropped metadata is logged, never fatal.
func (c *Client) TrackEvent(ctx context.Context, cfg apis.Configuration, ev apis.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	ep, dropped := EventEndpoint(c.opts, cfg, ev)
	for _, d := range dropped {
		c.logger.Warn("dropping event metadata",
			slog.String("event", string(ev.Action)),
			slog.String("key", d.Key),
			slog.String("reason", d.Reason))
	}
	c.metrics.MetadataDropped(len(dropped))

	raw, err := c.call(ctx, PathEvent, ep)
	if err != nil {
		return err
	}
	resp, err := ParseStatus(PathEvent, raw)
	if err != nil {
		return err
	}
	if resp.Error {
		return &RemoteError{Op: PathEvent, Message: resp.Message}
	}
	return nil
}

// GenerateURL asks the backend for an influencer URL.
func (c *Client) GenerateURL(ctx context.Context, cfg apis.Configuration, req apis.AffiliateURLRequest) (apis.AffiliateURLResponse, error) {
	raw, err := c.call(ctx, PathInfluencerAdd, GenerateURLEndpoint(c.opts, cfg, req))
	if err != nil {
		return apis.AffiliateURLResponse{}, err
	}
	return ParseAffiliateURL(raw)
}

func (c *Client) call(ctx context.Context, op string, ep apis.Endpoint) ([]byte, error) {
	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := c.exec.Execute(ctx, ep)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		c.logger.Debug("backend call failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	c.metrics.ObserveRemote(op, outcome, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("tapp(resolver): %s: %w", op, err)
	}
	return raw, nil
}
