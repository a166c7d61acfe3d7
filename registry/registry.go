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

package registry

import (
	"sync"

	"tapp.so/tapp/apis"
)

// New constructs an empty provider Registry.
func New() *Registry {
	return &Registry{}
}

// Registry is a first-writer-wins provider Registry backed by sync.Map.
// One instance belongs to one engine; there is no package-level registry.
type Registry struct {
	// mu guards write-side consistency and counter
	mu sync.Mutex
	// m maps apis.Affiliate to apis.ProviderFactory.
	m sync.Map
	// count tracks the number of registered entries.
	count int
}

// Ensure Registry implements apis.Registry.
var _ apis.Registry = (*Registry)(nil)

// Register stores f for a unless a factory is already registered.
// It reports whether f was stored. Unknown affiliates and nil factories are
// rejected.
func (r *Registry) Register(a apis.Affiliate, f apis.ProviderFactory) bool {
	if !a.Valid() || f == nil {
		return false
	}

	// Fast read path: first writer already won.
	if _, ok := r.m.Load(a); ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// LoadOrStore under lock keeps count exact.
	if _, loaded := r.m.LoadOrStore(a, f); loaded {
		return false
	}
	r.count++
	return true
}

// Resolve builds a fresh provider for a. Every call runs the factory.
func (r *Registry) Resolve(a apis.Affiliate, deps apis.ProviderDeps) (apis.Provider, bool) {
	v, ok := r.m.Load(a)
	if !ok {
		return nil, false
	}
	p := v.(apis.ProviderFactory)(deps)
	if p == nil {
		return nil, false
	}
	return p, true
}

// Entries returns a snapshot for diagnostics (order is unspecified).
func (r *Registry) Entries() []apis.Entry {
	entries := make([]apis.Entry, 0, r.Count())
	r.m.Range(func(key, value any) bool {
		entries = append(entries, apis.Entry{
			Affiliate: key.(apis.Affiliate),
			Factory:   value.(apis.ProviderFactory),
		})
		return true
	})
	return entries
}

// Count returns the number of registered affiliates.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
