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

package builder

import (
	"tapp.so/tapp/apis"
	"tapp.so/tapp/provider"
	"tapp.so/tapp/registry"
)

// New creates and returns a new instance of an apis.Builder.
func New() apis.Builder {
	return &builder{}
}

// builder is an empty struct to be used as a receiver for builder methods.
type builder struct{}

// BuildRegistry returns a fresh registry holding the built-in Tapp and native
// factories. Entries of prev are copied first, so a factory already present
// in prev takes precedence over the built-in one for the same affiliate.
func (b *builder) BuildRegistry(prev apis.Registry) apis.Registry {
	nreg := registry.New()
	if prev != nil {
		for _, e := range prev.Entries() {
			_ = nreg.Register(e.Affiliate, e.Factory)
		}
	}
	_ = nreg.Register(apis.AffiliateTapp, provider.NewTapp)
	_ = nreg.Register(apis.AffiliateTappNative, provider.NewNative)
	return nreg
}
