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

package main

import (
	"encoding/json"
	"io"
	"sync"

	"tapp.so/tapp/apis"
)

// printer is the engine delegate of tappctl. Every callback and command
// result is one JSON line.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

var _ apis.Delegate = (*printer)(nil)

type line struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

func (p *printer) print(kind string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.NewEncoder(p.w).Encode(line{Kind: kind, Payload: payload})
}

func (p *printer) OnDeferredLinkReceived(resp apis.LinkDataResponse) {
	_ = p.print("deferred_link", resp)
}

func (p *printer) OnResolutionFailed(f apis.ResolutionFailure) {
	_ = p.print("resolution_failed", f)
}

func (p *printer) OnTestEvent(msg string) {
	_ = p.print("test_event", msg)
}
