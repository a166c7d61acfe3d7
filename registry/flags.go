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

// Flags is the per-affiliate enablement table shared by provider instances.
// The zero value is ready to use; every affiliate starts disabled.
type Flags struct {
	mu      sync.RWMutex
	enabled map[apis.Affiliate]bool
}

// Ensure Flags implements apis.Enablement.
var _ apis.Enablement = (*Flags)(nil)

// Enabled reports whether a is enabled.
func (f *Flags) Enabled(a apis.Affiliate) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.enabled[a]
}

// SetEnabled records the enablement of a.
func (f *Flags) SetEnabled(a apis.Affiliate, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enabled == nil {
		f.enabled = make(map[apis.Affiliate]bool)
	}
	f.enabled[a] = enabled
}
