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

// Package tapp is the referral resolution engine of the Tapp SDK.
//
// The engine decides, for an app open or a cold install, whether and how to
// fetch, validate and deliver deferred deep link data exactly once. It
// coordinates four collaborators:
//
//   - a persisted configuration store (apis.Store) holding the single
//     Configuration record of the install,
//
//   - a provider registry (apis.Registry) mapping each affiliate to a factory
//     of apis.Provider values,
//
//   - the remote resolution client (apis.Client) that talks JSON to the
//     backend,
//
//   - the embedding application's apis.Delegate, which receives terminal
//     outcomes through an apis.Dispatcher.
//
// # Design
//
// An engine keeps a read-mostly snapshot of its runtime options, registry and
// client. Readers load the snapshot atomically; SetOptions and SetRegistry
// build a new one under a short lock and publish it with a pointer swap.
//
// All durable state lives in the Configuration. Every mutation re-reads the
// stored record and merges a patch over it (config.Merge), so concurrent
// writers never persist a stale snapshot. HasProcessedReferralEngine is the
// commit point of a resolution: once stored as true, every later OnAppOpen
// returns immediately, and it is persisted before any success callback runs.
//
// # Flows
//
// OnAppOpen resolves an explicit URL:
//
//	empty url / already processed / not processable  -> no-op
//	ensureReady (secret + provider)                   -> error, nothing stored
//	report impression                                 -> failure callback, nothing stored
//	store url + link token + processed flag
//	fetch link data                                   -> OnDeferredLinkReceived
//
// The native provider triggers ResolveNative, a one-shot fingerprint lookup
// per engine. A match goes through OnNativeFingerprintResolved with the same
// commit semantics; a mismatch is recorded as NativeNotProcessable and leaves
// the install open for a later explicit URL.
//
// Resolution flows are serialized per engine. Secret bootstrap is shared by
// concurrent callers (golang.org/x/sync/singleflight).
//
// # Usage
//
//	eng, err := tapp.New(store.NewMemory(), delegate)
//	if err != nil { ... }
//	err = eng.Start(ctx, apis.StartOptions{
//		AuthToken:    "auth",
//		Environment:  apis.EnvironmentProduction,
//		ProjectToken: "project",
//		Affiliate:    apis.AffiliateTapp,
//	})
//	err = eng.OnAppOpen(ctx, "myapp://open?t=abc123")
package tapp
