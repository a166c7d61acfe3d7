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

package config

import (
	"time"

	"tapp.so/tapp/apis"
)

const (
	// DefaultProductionBaseURL is the production backend root.
	DefaultProductionBaseURL = "https://api.tapp.so/v1/ref"
	// DefaultSandboxBaseURL is the staging backend root.
	DefaultSandboxBaseURL = "https://api.staging.tapp.so/v1/ref"
	// DefaultRequestTimeout bounds one backend call.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultRateLimit is the outbound request rate per second.
	DefaultRateLimit = 10.0
	// DefaultRateBurst is the outbound request burst.
	DefaultRateBurst = 5
	// DefaultReferrerTimeout bounds the install referrer read.
	DefaultReferrerTimeout = 2 * time.Second
	// DefaultAdvertisingIDTimeout bounds the advertising id read.
	DefaultAdvertisingIDTimeout = 2500 * time.Millisecond
	// DefaultDeviceInfoTimeout bounds the device info read.
	DefaultDeviceInfoTimeout = time.Second
	// DefaultFingerprintCallTimeout bounds one fingerprint request.
	DefaultFingerprintCallTimeout = 4 * time.Second
	// DefaultFingerprintRetryDelay is the pause before the fingerprint retry.
	DefaultFingerprintRetryDelay = 200 * time.Millisecond
	// DefaultTestEventDelay is the SimulateTestEvent delay.
	DefaultTestEventDelay = 5 * time.Second
	// DefaultBootstrapOnStart makes Start fetch secrets eagerly.
	DefaultBootstrapOnStart = true
)

// NewOptions constructs apis.Options from the given options.
func NewOptions(opts ...Option) apis.Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return Normalize(o)
}

// DefaultOptions is the configuration used when none is provided.
func DefaultOptions() apis.Options {
	return apis.Options{
		ProductionBaseURL:      DefaultProductionBaseURL,
		SandboxBaseURL:         DefaultSandboxBaseURL,
		RequestTimeout:         DefaultRequestTimeout,
		RateLimit:              DefaultRateLimit,
		RateBurst:              DefaultRateBurst,
		ReferrerTimeout:        DefaultReferrerTimeout,
		AdvertisingIDTimeout:   DefaultAdvertisingIDTimeout,
		DeviceInfoTimeout:      DefaultDeviceInfoTimeout,
		FingerprintCallTimeout: DefaultFingerprintCallTimeout,
		FingerprintRetryDelay:  DefaultFingerprintRetryDelay,
		TestEventDelay:         DefaultTestEventDelay,
		BootstrapOnStart:       DefaultBootstrapOnStart,
	}
}

// Normalize replaces unusable values with defaults. Zero delays are kept.
func Normalize(o apis.Options) apis.Options {
	if o.ProductionBaseURL == "" {
		o.ProductionBaseURL = DefaultProductionBaseURL
	}
	if o.SandboxBaseURL == "" {
		o.SandboxBaseURL = DefaultSandboxBaseURL
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.RateLimit < 0 {
		o.RateLimit = DefaultRateLimit
	}
	if o.RateBurst <= 0 {
		o.RateBurst = DefaultRateBurst
	}
	if o.ReferrerTimeout <= 0 {
		o.ReferrerTimeout = DefaultReferrerTimeout
	}
	if o.AdvertisingIDTimeout <= 0 {
		o.AdvertisingIDTimeout = DefaultAdvertisingIDTimeout
	}
	if o.DeviceInfoTimeout <= 0 {
		o.DeviceInfoTimeout = DefaultDeviceInfoTimeout
	}
	if o.FingerprintCallTimeout <= 0 {
		o.FingerprintCallTimeout = DefaultFingerprintCallTimeout
	}
	if o.FingerprintRetryDelay < 0 {
		o.FingerprintRetryDelay = DefaultFingerprintRetryDelay
	}
	if o.TestEventDelay < 0 {
		o.TestEventDelay = DefaultTestEventDelay
	}
	return o
}

// Option is a functional option that mutates apis.Options during construction.
type Option func(*apis.Options)

// WithBaseURLs overrides both backend roots. Empty values keep the current root.
func WithBaseURLs(production, sandbox string) Option {
	return func(o *apis.Options) {
		if production != "" {
			o.ProductionBaseURL = production
		}
		if sandbox != "" {
			o.SandboxBaseURL = sandbox
		}
	}
}

// WithRequestTimeout sets the per-call timeout.
// A non-positive value resets to the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *apis.Options) {
		o.RequestTimeout = d
	}
}

// WithRateLimit sets the outbound rate. A zero rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *apis.Options) {
		o.RateLimit = perSecond
		o.RateBurst = burst
	}
}

// WithFingerprintTimeouts sets the referrer, advertising id and call bounds.
func WithFingerprintTimeouts(referrer, advertisingID, call time.Duration) Option {
	return func(o *apis.Options) {
		o.ReferrerTimeout = referrer
		o.AdvertisingIDTimeout = advertisingID
		o.FingerprintCallTimeout = call
	}
}

// WithDeviceInfoTimeout sets the device info read bound.
// A non-positive value resets to the default.
func WithDeviceInfoTimeout(d time.Duration) Option {
	return func(o *apis.Options) {
		o.DeviceInfoTimeout = d
	}
}

// WithFingerprintRetryDelay sets the pause before the fingerprint retry.
func WithFingerprintRetryDelay(d time.Duration) Option {
	return func(o *apis.Options) {
		o.FingerprintRetryDelay = d
	}
}

// WithTestEventDelay sets the SimulateTestEvent delay.
func WithTestEventDelay(d time.Duration) Option {
	return func(o *apis.Options) {
		o.TestEventDelay = d
	}
}

// WithDevice sets the bundle and device identifiers stored by Start.
func WithDevice(bundleID, deviceID string) Option {
	return func(o *apis.Options) {
		o.BundleID = bundleID
		o.DeviceID = deviceID
	}
}

// WithBootstrapOnStart toggles the eager bootstrap in Start.
func WithBootstrapOnStart(enabled bool) Option {
	return func(o *apis.Options) {
		o.BootstrapOnStart = enabled
	}
}
