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
	"log/slog"

	"tapp.so/tapp/apis"
)

// Native resolves cold installs by device fingerprint.
type Native struct{ base }

// Ensure Native implements apis.Provider.
var _ apis.Provider = (*Native)(nil)

// NewNative is the apis.ProviderFactory for apis.AffiliateTappNative.
func NewNative(deps apis.ProviderDeps) apis.Provider {
	return &Native{base: newBase(apis.AffiliateTappNative, deps)}
}

// Initialize triggers the one-shot fingerprint resolution unless the install
// is already processed. A second trigger on the same engine is a no-op.
func (p *Native) Initialize(ctx context.Context) error {
	cfg, err := p.config(ctx)
	if err != nil {
		return apis.InitializationFailed(p.affiliate, err)
	}
	if cfg.HasProcessedReferralEngine {
		p.logger.Debug("install already processed, skipping fingerprint")
		return nil
	}
	if p.deps.Native == nil {
		return apis.InitializationFailed(p.affiliate, apis.MissingAffiliateService(p.affiliate))
	}
	if started := p.deps.Native.ResolveNative(ctx); !started {
		p.logger.Debug("fingerprint resolution already started")
	}
	return nil
}

// HandleEvent reports token as a custom Tapp event.
func (p *Native) HandleEvent(ctx context.Context, token string) error {
	return p.trackCustom(ctx, token)
}

// HandleCallback is a no-op.
func (p *Native) HandleCallback(_ context.Context, url string) error {
	p.logger.Debug("callback ignored", slog.String("url", url))
	return nil
}
