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

// Package provider implements the affiliate providers: the Tapp backend, the
// native fingerprint path, and pass-through wrappers for partner SDKs.
//
// Providers are rebuilt by the registry on every lookup. They keep no state
// of their own: enablement lives in ProviderDeps.Flags and configuration in
// ProviderDeps.Store.
package provider

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"tapp.so/tapp/apis"
)

// ErrMissingSecret means the stored configuration has no app token yet.
var ErrMissingSecret = errors.New("tapp(provider): app token not fetched")

// ErrNoFlags means the provider was built without an enablement table.
var ErrNoFlags = errors.New("tapp(provider): enablement table is nil")

// base carries what every provider shares.
type base struct {
	affiliate apis.Affiliate
	deps      apis.ProviderDeps
	logger    *slog.Logger
}

func newBase(a apis.Affiliate, deps apis.ProviderDeps) base {
	l := deps.Logger
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return base{affiliate: a, deps: deps, logger: l.With(slog.String("affiliate", a.String()))}
}

func (b base) SetEnabled(enabled bool) {
	if b.deps.Flags == nil {
		b.logger.Warn("enablement ignored", slog.Any("error", ErrNoFlags))
		return
	}
	b.deps.Flags.SetEnabled(b.affiliate, enabled)
}

func (b base) IsEnabled() bool {
	return b.deps.Flags != nil && b.deps.Flags.Enabled(b.affiliate)
}

// config loads the stored configuration.
func (b base) config(ctx context.Context) (apis.Configuration, error) {
	if b.deps.Store == nil {
		return apis.Configuration{}, apis.ErrMissingConfiguration
	}
	cfg, ok, err := b.deps.Store.Get(ctx)
	if err != nil {
		return apis.Configuration{}, err
	}
	if !ok {
		return apis.Configuration{}, apis.ErrMissingConfiguration
	}
	return cfg, nil
}

// secretConfig loads the configuration and requires the app token.
func (b base) secretConfig(ctx context.Context) (apis.Configuration, error) {
	cfg, err := b.config(ctx)
	if err != nil {
		return cfg, err
	}
	if !cfg.HasSecret() {
		return cfg, ErrMissingSecret
	}
	return cfg, nil
}

// trackCustom reports token as a custom Tapp event.
func (b base) trackCustom(ctx context.Context, token string) error {
	cfg, err := b.config(ctx)
	if err != nil {
		return err
	}
	if b.deps.Client == nil {
		return apis.MissingAffiliateService(apis.AffiliateTapp)
	}
	ev := apis.Event{Action: apis.Custom(token)}
	if err := ev.Validate(); err != nil {
		return err
	}
	return b.deps.Client.TrackEvent(ctx, cfg, ev)
}
