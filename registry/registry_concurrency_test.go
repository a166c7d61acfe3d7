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

package registry_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/registry"
)

// TestConcurrentRegisterAndResolve verifies that Register/Resolve/Entries/Count
// are race-free and that exactly one writer wins per affiliate.
func TestConcurrentRegisterAndResolve(t *testing.T) {
	reg := registry.New()
	affiliates := apis.Affiliates()

	var wins [5]atomic.Int32
	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4

	// Writers race to register every affiliate.
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for _, a := range affiliates {
				if reg.Register(a, factory(a.String())) {
					wins[a].Add(1)
				}
			}
		}()
	}

	// Readers resolve while writers run.
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			deps := apis.ProviderDeps{Flags: &registry.Flags{}}
			for i := 0; i < 2000; i++ {
				a := affiliates[(i+id)%len(affiliates)]
				if p, ok := reg.Resolve(a, deps); ok && p == nil {
					t.Errorf("Resolve(%s) = nil, true", a)
					return
				}
				_ = reg.Count()
				_ = reg.Entries()
			}
		}(w)
	}

	wg.Wait()

	for _, a := range affiliates {
		if n := wins[a].Load(); n != 1 {
			t.Fatalf("%s registered %d times, want exactly 1", a, n)
		}
	}
	if reg.Count() != len(affiliates) {
		t.Fatalf("count mismatch: got %d want %d", reg.Count(), len(affiliates))
	}
	if len(reg.Entries()) != len(affiliates) {
		t.Fatalf("entries mismatch: got %d want %d", len(reg.Entries()), len(affiliates))
	}
}

// TestConcurrentFlags hammers the enablement table.
func TestConcurrentFlags(t *testing.T) {
	var flags registry.Flags
	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 2
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				flags.SetEnabled(apis.AffiliateTapp, (i+id)%2 == 0)
				_ = flags.Enabled(apis.AffiliateTapp)
			}
		}(w)
	}
	wg.Wait()
	flags.SetEnabled(apis.AffiliateTapp, true)
	if !flags.Enabled(apis.AffiliateTapp) {
		t.Fatalf("final SetEnabled(true) not observed")
	}
}
