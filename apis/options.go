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

package apis

import "time"

// Options carries runtime knobs of the engine and its collaborators.
// It is passed by value and should be treated as immutable.
type Options struct {
	// ProductionBaseURL is the backend root used in PRODUCTION.
	ProductionBaseURL string `yaml:"production_base_url"`
	// SandboxBaseURL is the backend root used in SANDBOX.
	SandboxBaseURL string `yaml:"sandbox_base_url"`

	// RequestTimeout bounds a single backend call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	// RateBurst is the limiter bucket size.
	RateBurst int `yaml:"rate_burst"`

	// ReferrerTimeout bounds the install referrer read.
	ReferrerTimeout time.Duration `yaml:"referrer_timeout"`
	// AdvertisingIDTimeout bounds the advertising id read.
	AdvertisingIDTimeout time.Duration `yaml:"advertising_id_timeout"`
	// DeviceInfoTimeout bounds the device info read.
	DeviceInfoTimeout time.Duration `yaml:"device_info_timeout"`
	// FingerprintCallTimeout bounds one fingerprint request.
	FingerprintCallTimeout time.Duration `yaml:"fingerprint_call_timeout"`
	// FingerprintRetryDelay is the pause before the single retry.
	FingerprintRetryDelay time.Duration `yaml:"fingerprint_retry_delay"`

	// TestEventDelay is the delay of SimulateTestEvent.
	TestEventDelay time.Duration `yaml:"test_event_delay"`

	// BundleID and DeviceID identify the app and device; Start stores them when set.
	BundleID string `yaml:"bundle_id"`
	DeviceID string `yaml:"device_id"`

	// BootstrapOnStart makes Start fetch secrets and initialize the provider.
	BootstrapOnStart bool `yaml:"bootstrap_on_start"`
}
