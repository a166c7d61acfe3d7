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

// Tapp is the first-party provider. Attribution happens in the engine; the
// provider only confirms readiness and forwards events.
type Tapp struct{ base }

// Ensure Tapp implements apis.Provider.
var _ apis.Provider = (*Tapp)(nil)

// NewTapp is the apis.ProviderFactory for apis.AffiliateTapp.
func NewTapp(deps apis.ProviderDeps) apis.Provider {
	return &Tapp{base: newBase(apis.AffiliateTapp, deps)}
}

// Initialize succeeds once a configuration with an app token is stored.
func (p *Tapp) Initialize(ctx context.Context) error {
	if _, err := p.secretConfig(ctx); err != nil {
		return apis.InitializationFailed(p.affiliate, err)
	}
	p.logger.Debug("provider ready")
	return nil
}

// HandleEvent reports token as a custom Tapp event.
func (p *Tapp) HandleEvent(ctx context.Context, token string) error {
	return p.trackCustom(ctx, token)
}

// HandleCallback is a no-op: the engine resolves Tapp links itself.
func (p *Tapp) HandleCallback(_ context.Context, url string) error {
	p.logger.Debug("callback ignored", slog.String("url", url))
	return nil
}
