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

// AppsflyerSDK is the subset of the AppsFlyer SDK the provider drives.
type AppsflyerSDK interface {
	Start(ctx context.Context, devKey string, env apis.Environment) error
	LogEvent(ctx context.Context, name string) error
	HandleDeepLink(ctx context.Context, url string) error
	LogAdRevenue(ctx context.Context, r apis.AdRevenue) error
	UID(ctx context.Context) (string, error)
}

// Appsflyer forwards to an injected AppsflyerSDK.
type Appsflyer struct {
	base
	sdk AppsflyerSDK
}

var (
	_ apis.Provider              = (*Appsflyer)(nil)
	_ apis.AdRevenueTracker      = (*Appsflyer)(nil)
	_ apis.AttributionIDProvider = (*Appsflyer)(nil)
)

// AppsflyerFactory returns the apis.ProviderFactory for sdk.
func AppsflyerFactory(sdk AppsflyerSDK) apis.ProviderFactory {
	return func(deps apis.ProviderDeps) apis.Provider {
		return &Appsflyer{base: newBase(apis.AffiliateAppsflyer, deps), sdk: sdk}
	}
}

// RegisterAppsflyer registers sdk for apis.AffiliateAppsflyer.
func RegisterAppsflyer(reg apis.Registry, sdk AppsflyerSDK) bool {
	if reg == nil || sdk == nil {
		return false
	}
	return reg.Register(apis.AffiliateAppsflyer, AppsflyerFactory(sdk))
}

// Initialize starts the SDK; the app token doubles as the dev key.
func (p *Appsflyer) Initialize(ctx context.Context) error {
	cfg, err := p.secretConfig(ctx)
	if err != nil {
		return apis.InitializationFailed(p.affiliate, err)
	}
	if err := p.sdk.Start(ctx, cfg.AppToken, cfg.Environment); err != nil {
		return apis.InitializationFailed(p.affiliate, err)
	}
	return nil
}

func (p *Appsflyer) HandleEvent(ctx context.Context, token string) error {
	return p.wrap(p.sdk.LogEvent(ctx, token))
}

func (p *Appsflyer) HandleCallback(ctx context.Context, url string) error {
	return p.wrap(p.sdk.HandleDeepLink(ctx, url))
}

func (p *Appsflyer) TrackAdRevenue(ctx context.Context, r apis.AdRevenue) error {
	return p.wrap(p.sdk.LogAdRevenue(ctx, r))
}

// AttributionID returns the AppsFlyer UID.
func (p *Appsflyer) AttributionID(ctx context.Context) (string, error) {
	id, err := p.sdk.UID(ctx)
	return id, p.wrap(err)
}

func (p *Appsflyer) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &apis.AffiliateServiceError{Affiliate: p.affiliate, Err: err}
}
