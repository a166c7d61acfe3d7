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

// Package fingerprint collects device signals for cold-install matching and
// runs the bounded deferred-link lookup.
//
// Every signal source is optional and time-bounded: a source that is missing,
// fails or exceeds its deadline contributes nothing, and collection proceeds.
package fingerprint

import (
	"context"
	"io"
	"log/slog"
	"time"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/utils/normalize"
)

// AdvertisingInfo is the platform advertising identifier.
type AdvertisingInfo struct {
	// ID is the advertising id.
	ID string
	// LimitAdTracking is the user's opt-out. When set, ID is never sent.
	LimitAdTracking bool
}

// AdvertisingIDSource reads the advertising id.
type AdvertisingIDSource interface {
	AdvertisingID(ctx context.Context) (AdvertisingInfo, error)
}

// InstallReferrerSource reads the raw install referrer string.
type InstallReferrerSource interface {
	InstallReferrer(ctx context.Context) (string, error)
}

// DeviceInfo is the static and telemetry part of the fingerprint.
type DeviceInfo struct {
	Platform           string
	OSVersion          string
	DeviceModel        string
	DeviceManufacturer string
	ScreenResolution   string
	ScreenDensity      float64
	Locale             string
	Timezone           string
	BatteryLevel       int
	IsCharging         bool
	TotalRAMBytes      int64
	TotalStorageBytes  int64
	AvailStorageBytes  int64
	DeviceUptimeMillis int64
}

// DeviceInfoSource reads DeviceInfo.
type DeviceInfoSource interface {
	DeviceInfo(ctx context.Context) (DeviceInfo, error)
}

// Collector assembles an apis.DeferredLinkRequest from its sources.
type Collector struct {
	ads             AdvertisingIDSource
	referrer        InstallReferrerSource
	device          DeviceInfoSource
	referrerTimeout time.Duration
	adTimeout       time.Duration
	deviceTimeout   time.Duration
	logger          *slog.Logger
}

// Option configures a Collector.
type Option func(*Collector)

// WithAdvertisingID sets the advertising id source.
func WithAdvertisingID(src AdvertisingIDSource) Option {
	return func(c *Collector) { c.ads = src }
}

// WithInstallReferrer sets the install referrer source.
func WithInstallReferrer(src InstallReferrerSource) Option {
	return func(c *Collector) { c.referrer = src }
}

// WithDeviceInfo sets the device info source.
func WithDeviceInfo(src DeviceInfoSource) Option {
	return func(c *Collector) { c.device = src }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCollector builds a Collector using the timeouts in opts.
// Without sources it produces a request with the platform defaults only.
func NewCollector(opts apis.Options, options ...Option) *Collector {
	c := &Collector{
		referrerTimeout: opts.ReferrerTimeout,
		adTimeout:       opts.AdvertisingIDTimeout,
		deviceTimeout:   opts.DeviceInfoTimeout,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Retimed returns a copy of c with the timeouts in opts. c is unchanged.
func (c *Collector) Retimed(opts apis.Options) *Collector {
	n := *c
	n.referrerTimeout = opts.ReferrerTimeout
	n.adTimeout = opts.AdvertisingIDTimeout
	n.deviceTimeout = opts.DeviceInfoTimeout
	return &n
}

// Collect reads every source concurrently, each under its own deadline.
func (c *Collector) Collect(ctx context.Context, deviceID string) apis.DeferredLinkRequest {
	type adResult struct {
		info AdvertisingInfo
		ok   bool
	}
	type refResult struct {
		raw string
		ok  bool
	}
	type devResult struct {
		info DeviceInfo
		ok   bool
	}
	adCh := make(chan adResult, 1)
	refCh := make(chan refResult, 1)
	devCh := make(chan devResult, 1)

	go func() {
		if c.ads == nil {
			adCh <- adResult{}
			return
		}
		info, ok := bounded(ctx, c.adTimeout, c.ads.AdvertisingID)
		adCh <- adResult{info, ok}
	}()
	go func() {
		if c.referrer == nil {
			refCh <- refResult{}
			return
		}
		raw, ok := bounded(ctx, c.referrerTimeout, c.referrer.InstallReferrer)
		refCh <- refResult{raw, ok}
	}()
	go func() {
		if c.device == nil {
			devCh <- devResult{}
			return
		}
		info, ok := bounded(ctx, c.deviceTimeout, c.device.DeviceInfo)
		devCh <- devResult{info, ok}
	}()

	ad, ref, dev := <-adCh, <-refCh, <-devCh

	req := apis.DeferredLinkRequest{Platform: "Android", DeviceID: deviceID}
	if dev.ok {
		req = withDevice(req, dev.info)
	} else if c.device != nil {
		c.logger.Warn("device info unavailable, continuing without it")
	}
	switch {
	case !ad.ok:
		if c.ads != nil {
			c.logger.Warn("advertising id unavailable, continuing without it")
		}
	case ad.info.LimitAdTracking:
		c.logger.Info("limit ad tracking enabled, omitting advertising id")
	default:
		req.AdvertisingID = ad.info.ID
	}
	if ref.ok {
		req.InstallReferrer = ref.raw
		if id, ok := normalize.ClickID(ref.raw); ok {
			req.ClickID = id
		}
	} else if c.referrer != nil {
		c.logger.Warn("install referrer unavailable, continuing without it")
	}
	return req
}

func withDevice(req apis.DeferredLinkRequest, d DeviceInfo) apis.DeferredLinkRequest {
	if d.Platform != "" {
		req.Platform = d.Platform
	}
	req.OSVersion = d.OSVersion
	req.DeviceModel = d.DeviceModel
	req.DeviceManufacturer = d.DeviceManufacturer
	req.ScreenResolution = d.ScreenResolution
	req.ScreenDensity = d.ScreenDensity
	req.Locale = d.Locale
	req.Timezone = d.Timezone
	req.BatteryLevel = d.BatteryLevel
	req.IsCharging = d.IsCharging
	req.TotalRAMBytes = d.TotalRAMBytes
	req.TotalStorageBytes = d.TotalStorageBytes
	req.AvailStorageBytes = d.AvailStorageBytes
	req.DeviceUptimeMillis = d.DeviceUptimeMillis
	return req
}

// bounded runs fn under a deadline of d and gives up when it expires, even
// if fn ignores its context.
func bounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, bool) {
	var zero T
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return zero, false
		}
		return r.v, true
	case <-ctx.Done():
		return zero, false
	}
}
