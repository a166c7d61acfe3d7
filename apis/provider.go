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

import (
	"context"
	"log/slog"
)

// Provider is the capability set every measurement partner exposes.
// Instances are built per call by a Registry and hold no resolution state.
type Provider interface {
	// Initialize prepares the partner. A nil error means the provider is usable.
	Initialize(ctx context.Context) error
	// SetEnabled records the enablement decided by the engine.
	SetEnabled(enabled bool)
	// IsEnabled reports the current enablement. It must be cheap.
	IsEnabled() bool
	// HandleEvent forwards a partner event token.
	HandleEvent(ctx context.Context, token string) error
	// HandleCallback forwards an opened URL to the partner.
	HandleCallback(ctx context.Context, url string) error
}

// ProviderFactory builds a Provider from its dependencies.
// Construction must be cheap and free of side effects.
type ProviderFactory func(deps ProviderDeps) Provider

// ProviderDeps is what a factory may wire into a provider.
type ProviderDeps struct {
	// Store is the persisted configuration.
	Store Store
	// Client talks to the resolution backend.
	Client Client
	// Flags holds enablement shared across provider instances.
	Flags Enablement
	// Native starts the one-shot fingerprint resolution.
	Native NativeTrigger
	// Logger is never nil when built by the engine.
	Logger *slog.Logger
}

// Enablement stores the per-affiliate enabled flag outside provider instances.
type Enablement interface {
	Enabled(a Affiliate) bool
	SetEnabled(a Affiliate, enabled bool)
}

// NativeTrigger starts the fingerprint resolution at most once per engine.
// It reports whether this call started it.
type NativeTrigger interface {
	ResolveNative(ctx context.Context) bool
}

// PurchaseVerifier is implemented by providers able to verify store purchases.
type PurchaseVerifier interface {
	VerifyPurchase(ctx context.Context, p Purchase) (PurchaseVerification, error)
}

// AdRevenueTracker is implemented by providers that accept ad revenue reports.
type AdRevenueTracker interface {
	TrackAdRevenue(ctx context.Context, r AdRevenue) error
}

// AttributionIDProvider is implemented by providers that expose their device id
// (adid for Adjust, AppsFlyer UID for AppsFlyer).
type AttributionIDProvider interface {
	AttributionID(ctx context.Context) (string, error)
}

// Purchase describes an in-app purchase to verify.
type Purchase struct {
	ProductID     string `json:"product_id" validate:"required"`
	PurchaseToken string `json:"purchase_token" validate:"required"`
	OrderID       string `json:"order_id,omitempty"`
}

// PurchaseVerification is the partner's verdict.
type PurchaseVerification struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AdRevenue is one ad impression revenue report.
type AdRevenue struct {
	Source    string  `json:"source" validate:"required"`
	Revenue   float64 `json:"revenue"`
	Currency  string  `json:"currency" validate:"required,len=3"`
	Network   string  `json:"network,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Placement string  `json:"placement,omitempty"`
}
