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

import "context"

// Store persists the single Configuration record.
type Store interface {
	// Get returns the stored configuration; ok is false when none exists.
	Get(ctx context.Context) (cfg Configuration, ok bool, err error)
	// Save replaces the stored configuration.
	Save(ctx context.Context, cfg Configuration) error
}

// Endpoint is one backend call: a POST of Body as JSON to URL.
// It is built once and never mutated.
type Endpoint struct {
	URL     string
	Headers map[string]string
	Body    map[string]any
}

// Executor runs a single request/response cycle and returns the raw body.
type Executor interface {
	Execute(ctx context.Context, ep Endpoint) ([]byte, error)
}

// Client is the remote resolution service.
type Client interface {
	FetchSecrets(ctx context.Context, cfg Configuration) (SecretsResponse, error)
	ReportImpression(ctx context.Context, cfg Configuration, deeplink string) (ImpressionResponse, error)
	FetchLinkData(ctx context.Context, cfg Configuration, linkToken string) (LinkDataResponse, error)
	FetchDeferredLink(ctx context.Context, cfg Configuration, req DeferredLinkRequest) (*DeferredLinkResponse, error)
	TrackEvent(ctx context.Context, cfg Configuration, ev Event) error
	GenerateURL(ctx context.Context, cfg Configuration, req AffiliateURLRequest) (AffiliateURLResponse, error)
}

// Delegate receives terminal resolution outcomes. It is implemented by the
// embedding application.
type Delegate interface {
	OnDeferredLinkReceived(resp LinkDataResponse)
	OnResolutionFailed(failure ResolutionFailure)
	OnTestEvent(message string)
}

// Dispatcher runs delegate callbacks on the caller's expected context.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }
