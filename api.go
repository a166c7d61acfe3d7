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

package tapp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/config"
	"tapp.so/tapp/resolver"
	"tapp.so/tapp/utils/normalize"
)

// TestEventMessage is delivered by SimulateTestEvent.
const TestEventMessage = "Simulated test event from SDK"

// FetchLinkData looks up the attribution payload of url. It bootstraps the
// secret when none is stored and never changes the processed flag. A
// backend-side failure comes back as a response with Error set.
func (e *Engine) FetchLinkData(ctx context.Context, url string) (apis.LinkDataResponse, error) {
	cfg, err := e.load(ctx)
	if err != nil {
		return apis.LinkDataResponse{}, err
	}
	token, ok := normalize.LinkToken(url, cfg.Affiliate)
	if !ok {
		return apis.LinkDataResponse{}, fmt.Errorf("%w: %s", apis.ErrNotProcessable, url)
	}
	if !cfg.HasSecret() {
		if err := e.ensureReady(ctx); err != nil {
			return apis.LinkDataResponse{}, err
		}
		if cfg, err = e.load(ctx); err != nil {
			return apis.LinkDataResponse{}, err
		}
	}
	resp, err := e.client().FetchLinkData(ctx, cfg, token)
	if err != nil {
		return apis.LinkDataResponse{}, &apis.AffiliateServiceError{Affiliate: apis.AffiliateTapp, Err: err}
	}
	resp.IsFirstSession = !cfg.HasProcessedReferralEngine
	return resp, nil
}

// FetchOriginalLinkData looks up the payload of the URL that attributed this
// install.
func (e *Engine) FetchOriginalLinkData(ctx context.Context) (apis.LinkDataResponse, error) {
	cfg, err := e.load(ctx)
	if err != nil {
		return apis.LinkDataResponse{}, err
	}
	if cfg.DeepLinkURL == "" {
		return apis.LinkDataResponse{}, ErrNoStoredLink
	}
	return e.FetchLinkData(ctx, cfg.DeepLinkURL)
}

// GenerateURL mints an influencer URL. A backend rejection is returned as
// *resolver.RemoteError together with the response.
func (e *Engine) GenerateURL(ctx context.Context, req apis.AffiliateURLRequest) (apis.AffiliateURLResponse, error) {
	if err := config.Validate(req); err != nil {
		return apis.AffiliateURLResponse{}, err
	}
	cfg, err := e.load(ctx)
	if err != nil {
		return apis.AffiliateURLResponse{}, err
	}
	resp, err := e.client().GenerateURL(ctx, cfg, req)
	if err != nil {
		return resp, &apis.AffiliateServiceError{Affiliate: apis.AffiliateTapp, Err: err}
	}
	if resp.Error {
		return resp, &resolver.RemoteError{Op: resolver.PathInfluencerAdd, Message: resp.Message}
	}
	return resp, nil
}

// HandleEvent forwards a partner event token to the configured provider.
func (e *Engine) HandleEvent(ctx context.Context, token string) error {
	p, cfg, err := e.activeProvider(ctx)
	if err != nil {
		return err
	}
	if err := p.HandleEvent(ctx, token); err != nil {
		return &apis.AffiliateServiceError{Affiliate: cfg.Affiliate, Err: err}
	}
	return nil
}

// TrackEvent reports a Tapp event. The stored deep link is sent as the
// event URL and unsupported metadata values are dropped.
func (e *Engine) TrackEvent(ctx context.Context, ev apis.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	cfg, err := e.load(ctx)
	if err != nil {
		return err
	}
	if err := e.client().TrackEvent(ctx, cfg, ev); err != nil {
		e.logger.Error("failed to track tapp event", slog.String("event", string(ev.Action)), slog.Any("error", err))
		return &apis.AffiliateServiceError{Affiliate: apis.AffiliateTapp, Err: err}
	}
	e.logger.Info("tapp event tracked", slog.String("event", string(ev.Action)))
	return nil
}

// Config returns the public view of the stored configuration.
func (e *Engine) Config(ctx context.Context) (apis.ExternalConfiguration, error) {
	cfg, err := e.load(ctx)
	if err != nil {
		return apis.ExternalConfiguration{}, err
	}
	return cfg.External(), nil
}

// LogConfig logs the stored configuration with credentials masked.
func (e *Engine) LogConfig(ctx context.Context) {
	cfg, err := e.load(ctx)
	if err != nil {
		e.logger.Error("no configuration found", slog.Any("error", err))
		return
	}
	e.logger.Info("current configuration", slog.Any("config", cfg))
}

// SimulateTestEvent delivers OnTestEvent after Options.TestEventDelay,
// unless ctx ends first.
func (e *Engine) SimulateTestEvent(ctx context.Context) {
	delay := e.Options().TestEventDelay
	e.spawn(func() {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return
		}
		e.logger.Info("test event", slog.String("message", TestEventMessage))
		e.dispatch(func() { e.delegate.OnTestEvent(TestEventMessage) })
	})
}

// VerifyPurchase asks the configured provider to verify p.
func (e *Engine) VerifyPurchase(ctx context.Context, p apis.Purchase) (apis.PurchaseVerification, error) {
	if err := config.Validate(p); err != nil {
		return apis.PurchaseVerification{}, err
	}
	prov, cfg, err := e.activeProvider(ctx)
	if err != nil {
		return apis.PurchaseVerification{}, err
	}
	v, ok := prov.(apis.PurchaseVerifier)
	if !ok {
		return apis.PurchaseVerification{}, unsupported(cfg.Affiliate, "purchase verification")
	}
	return v.VerifyPurchase(ctx, p)
}

// TrackAdRevenue reports r through the configured provider.
func (e *Engine) TrackAdRevenue(ctx context.Context, r apis.AdRevenue) error {
	if err := config.Validate(r); err != nil {
		return err
	}
	prov, cfg, err := e.activeProvider(ctx)
	if err != nil {
		return err
	}
	t, ok := prov.(apis.AdRevenueTracker)
	if !ok {
		return unsupported(cfg.Affiliate, "ad revenue")
	}
	return t.TrackAdRevenue(ctx, r)
}

// AttributionID returns the configured provider's device id.
func (e *Engine) AttributionID(ctx context.Context) (string, error) {
	prov, cfg, err := e.activeProvider(ctx)
	if err != nil {
		return "", err
	}
	p, ok := prov.(apis.AttributionIDProvider)
	if !ok {
		return "", unsupported(cfg.Affiliate, "attribution id")
	}
	return p.AttributionID(ctx)
}

func (e *Engine) activeProvider(ctx context.Context) (apis.Provider, apis.Configuration, error) {
	cfg, err := e.load(ctx)
	if err != nil {
		return nil, cfg, err
	}
	p, err := e.provider(cfg.Affiliate)
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}

func unsupported(a apis.Affiliate, what string) error {
	return fmt.Errorf("%w: %s: %s", apis.ErrCapabilityUnsupported, a, what)
}
