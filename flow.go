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
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/config"
	"tapp.so/tapp/metrics"
	"tapp.so/tapp/resolver"
	"tapp.so/tapp/utils/normalize"
)

const (
	pathOpen   = "open"
	pathNative = "native"
)

// Start stores the four identity fields, plus bundle and device id when
// configured, and keeps every other stored field. It may be called any
// number of times. With Options.BootstrapOnStart it then fetches the secret
// and initializes the provider; a failure there is logged and retried by the
// next resolution.
func (e *Engine) Start(ctx context.Context, so apis.StartOptions) error {
	if err := config.Validate(so); err != nil {
		return fmt.Errorf("tapp: invalid start options: %w", err)
	}
	opts := e.Options()
	patch := so.Patch()
	if opts.BundleID != "" {
		patch.BundleID = &opts.BundleID
	}
	if opts.DeviceID != "" {
		patch.DeviceID = &opts.DeviceID
	}
	cfg, err := e.update(ctx, patch, true)
	if err != nil {
		return err
	}
	e.logger.Info("configuration stored", slog.Any("config", cfg))

	if !opts.BootstrapOnStart {
		return nil
	}
	if err := e.ensureReady(ctx); err != nil {
		e.logger.Warn("failed to initialize referral engine", slog.Any("error", err))
		return nil
	}
	e.logger.Info("referral engine initialized")
	return nil
}

// ensureReady makes sure the secret is stored and the configured provider is
// enabled. The cheap check is evaluated on every call.
func (e *Engine) ensureReady(ctx context.Context) error {
	cfg, err := e.load(ctx)
	if err != nil {
		return err
	}
	p, err := e.provider(cfg.Affiliate)
	if err != nil {
		return err
	}
	if cfg.HasSecret() && p.IsEnabled() {
		e.metrics.Bootstrap(metrics.OutcomeSkipped)
		return nil
	}
	_, err, _ = e.boot.Do("bootstrap", func() (any, error) {
		return nil, e.bootstrap(context.WithoutCancel(ctx))
	})
	return err
}

// bootstrap fetches the secret when absent, then initializes the provider.
func (e *Engine) bootstrap(ctx context.Context) (err error) {
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
		}
		e.metrics.Bootstrap(outcome)
	}()

	cfg, err := e.load(ctx)
	if err != nil {
		return err
	}
	if !cfg.HasSecret() {
		resp, err := e.client().FetchSecrets(ctx, cfg)
		if err != nil {
			return &apis.AffiliateServiceError{Affiliate: apis.AffiliateTapp, Err: err}
		}
		if cfg, err = e.update(ctx, apis.ConfigPatch{AppToken: &resp.Secret}, false); err != nil {
			return err
		}
		e.logger.Debug("secret stored")
	}
	return e.initProvider(ctx, cfg.Affiliate)
}

func (e *Engine) initProvider(ctx context.Context, a apis.Affiliate) error {
	p, err := e.provider(a)
	if err != nil {
		return err
	}
	if p.IsEnabled() {
		e.logger.Debug("provider already enabled, skipping initialization", slog.String("affiliate", a.String()))
		return nil
	}
	if err := p.Initialize(ctx); err != nil {
		p.SetEnabled(false)
		if errors.Is(err, apis.ErrInitializationFailed) {
			return err
		}
		return apis.InitializationFailed(a, err)
	}
	p.SetEnabled(true)
	return nil
}

// ShouldProcess reports whether url carries the link token of the
// configured affiliate.
func (e *Engine) ShouldProcess(ctx context.Context, url string) bool {
	cfg, err := e.load(ctx)
	if err != nil {
		return false
	}
	_, ok := normalize.LinkToken(url, cfg.Affiliate)
	return ok
}

// OnAppOpen attributes url to this install at most once.
//
// It returns nil without doing anything when url is empty, when the install
// is already processed or when url carries no link token for the configured
// affiliate. On a rejected impression the delegate's failure callback runs
// and the install stays unprocessed, so the next open retries.
func (e *Engine) OnAppOpen(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		e.logger.Debug("no url provided, skipping app open")
		return nil
	}
	cfg, ok, err := e.store.Get(ctx)
	if err != nil {
		return err
	}
	if ok && cfg.HasProcessedReferralEngine {
		e.metrics.Resolution(pathOpen, metrics.OutcomeSkipped)
		return nil
	}
	if !ok {
		return apis.ErrMissingConfiguration
	}
	if _, ok := normalize.LinkToken(url, cfg.Affiliate); !ok {
		e.logger.Info("url is not processable, skipping", slog.String("url", url))
		e.metrics.Resolution(pathOpen, metrics.OutcomeNotProcessable)
		return nil
	}
	if err := e.ensureReady(ctx); err != nil {
		e.metrics.Resolution(pathOpen, metrics.OutcomeFailure)
		return err
	}

	cfg, committed, err := e.commit(ctx, url)
	if err != nil || !committed {
		return err
	}
	e.metrics.Resolution(pathOpen, metrics.OutcomeSuccess)

	// The install is committed; caller cancellation must not lose the payload.
	resp := e.linkData(context.WithoutCancel(ctx), cfg, cfg.LinkToken)
	resp.IsFirstSession = true
	e.dispatch(func() { e.delegate.OnDeferredLinkReceived(resp) })
	return nil
}

// OnAppOpenAsync runs OnAppOpen on a new goroutine and hands the result to
// done through the dispatcher. done may be nil.
func (e *Engine) OnAppOpenAsync(ctx context.Context, url string, done func(error)) {
	e.spawn(func() {
		err := e.OnAppOpen(ctx, url)
		if done != nil {
			e.dispatch(func() { done(err) })
		}
	})
}

// commit reports the impression of url and, when accepted, stores url, its
// link token and the processed flag. It re-reads the configuration under
// the flow lock; committed is false when another flow got there before.
// A rejected impression is reported to the delegate after the lock is
// released, so the callback may start a new flow.
func (e *Engine) commit(ctx context.Context, url string) (apis.Configuration, bool, error) {
	cfg, committed, failure, err := e.commitLocked(ctx, url)
	if failure != nil {
		e.dispatch(func() { e.delegate.OnResolutionFailed(*failure) })
	}
	return cfg, committed, err
}

func (e *Engine) commitLocked(ctx context.Context, url string) (apis.Configuration, bool, *apis.ResolutionFailure, error) {
	e.flowMu.Lock()
	defer e.flowMu.Unlock()

	cfg, err := e.load(ctx)
	if err != nil {
		return cfg, false, nil, err
	}
	if cfg.HasProcessedReferralEngine {
		return cfg, false, nil, nil
	}

	if _, err := e.client().ReportImpression(ctx, cfg, url); err != nil {
		msg := fmt.Sprintf("Couldn't resolve the deeplink %s", url)
		var re *resolver.RemoteError
		if errors.As(err, &re) && re.Message != "" {
			msg = re.Message
		}
		e.logger.Warn("impression rejected", slog.String("url", url), slog.Any("error", err))
		return cfg, false, &apis.ResolutionFailure{Error: msg, URL: url},
			&apis.AffiliateServiceError{Affiliate: cfg.Affiliate, Err: err}
	}

	processed := true
	patch := apis.ConfigPatch{DeepLinkURL: &url, HasProcessedReferralEngine: &processed}
	if token, ok := normalize.LinkToken(url, cfg.Affiliate); ok {
		patch.LinkToken = &token
	}
	cfg, err = e.update(ctx, patch, false)
	if err != nil {
		return cfg, false, nil, err
	}
	e.logger.Info("referral processed", slog.String("url", url), slog.String("link_token", cfg.LinkToken))
	return cfg, true, nil, nil
}

// linkData fetches the payload of token. Failures come back as an
// error-shaped response.
func (e *Engine) linkData(ctx context.Context, cfg apis.Configuration, token string) apis.LinkDataResponse {
	resp, err := e.client().FetchLinkData(ctx, cfg, token)
	if err != nil {
		e.logger.Warn("link data fetch failed", slog.String("link_token", token), slog.Any("error", err))
		return apis.ErrorLinkData(err.Error())
	}
	return resp
}
