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

package provider

import (
	"context"

	"tapp.so/tapp/apis"
)

// AdjustSDK is the subset of the Adjust SDK the provider drives.
type AdjustSDK interface {
	Start(ctx context.Context, appToken string, env apis.Environment) error
	TrackEvent(ctx context.Context, token string) error
	ProcessDeeplink(ctx context.Context, url string) error
	VerifyPurchase(ctx context.Context, p apis.Purchase) (apis.PurchaseVerification, error)
	TrackAdRevenue(ctx context.Context, r apis.AdRevenue) error
	ADID(ctx context.Context) (string, error)
}

// Adjust forwards to an injected AdjustSDK.
type Adjust struct {
	base
	sdk AdjustSDK
}

var (
	_ apis.Provider              = (*Adjust)(nil)
	_ apis.PurchaseVerifier      = (*Adjust)(nil)
	_ apis.AdRevenueTracker      = (*Adjust)(nil)
	_ apis.AttributionIDProvider = (*Adjust)(nil)
)

// AdjustFactory returns the apis.ProviderFactory for sdk.
func AdjustFactory(sdk AdjustSDK) apis.ProviderFactory {
	return func(deps apis.ProviderDeps) apis.Provider {
		return &Adjust{base: newBase(apis.AffiliateAdjust, deps), sdk: sdk}
	}
}

// RegisterAdjust registers sdk for apis.AffiliateAdjust.
// It reports false when an Adjust factory is already registered.
func RegisterAdjust(reg apis.Registry, sdk AdjustSDK) bool {
	if reg == nil || sdk == nil {
		return false
	}
	return reg.Register(apis.AffiliateAdjust, AdjustFactory(sdk))
}

// Initialize starts the SDK with the app token and environment.
func (p *Adjust) Initialize(ctx context.Context) error {
	cfg, err := p.secretConfig(ctx)
	if err != nil {
		return apis.InitializationFailed(p.affiliate, err)
	}
	if err := p.sdk.Start(ctx, cfg.AppToken, cfg.Environment); err != nil {
		return apis.InitializationFailed(p.affiliate, err)
	}
	return nil
}

// HandleEvent tracks an Adjust event token.
func (p *Adjust) HandleEvent(ctx context.Context, token string) error {
	return p.wrap(p.sdk.TrackEvent(ctx, token))
}

// HandleCallback hands the opened URL to Adjust.
func (p *Adjust) HandleCallback(ctx context.Context, url string) error {
	return p.wrap(p.sdk.ProcessDeeplink(ctx, url))
}

func (p *Adjust) VerifyPurchase(ctx context.Context, pu apis.Purchase) (apis.PurchaseVerification, error) {
	v, err := p.sdk.VerifyPurchase(ctx, pu)
	return v, p.wrap(err)
}

func (p *Adjust) TrackAdRevenue(ctx context.Context, r apis.AdRevenue) error {
	return p.wrap(p.sdk.TrackAdRevenue(ctx, r))
}

// AttributionID returns the Adjust device id (adid).
func (p *Adjust) AttributionID(ctx context.Context) (string, error) {
	id, err := p.sdk.ADID(ctx)
	return id, p.wrap(err)
}

func (p *Adjust) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &apis.AffiliateServiceError{Affiliate: p.affiliate, Err: err}
}
