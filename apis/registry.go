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

// Registry maps affiliates to provider factories.
// Keep it minimal so implementations can be lock-free or sync.Map-backed.
type Registry interface {
	// Register stores f for a unless a factory is already present.
	// It reports whether f was stored; the first registration wins.
	Register(a Affiliate, f ProviderFactory) bool
	// Resolve builds a fresh provider for a.
	Resolve(a Affiliate, deps ProviderDeps) (Provider, bool)
	// Entries returns a snapshot for diagnostics (order is unspecified).
	Entries() []Entry
	// Count returns the number of registered affiliates.
	Count() int
}

// Entry is a single (affiliate, factory) association in a Registry snapshot.
type Entry struct {
	// Affiliate is the registered affiliate.
	Affiliate Affiliate
	// Factory builds providers for Affiliate.
	Factory ProviderFactory
}
