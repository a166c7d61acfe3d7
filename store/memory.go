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

// Package store provides apis.Store implementations: in-memory, Badger and
// Redis. Each holds exactly one Configuration record, JSON encoded.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tapp.so/tapp/apis"
)

// Memory is a process-local store. The zero value is empty and ready to use.
type Memory struct {
	mu  sync.RWMutex
	cfg *apis.Configuration
}

// Ensure Memory implements apis.Store.
var _ apis.Store = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory { return &Memory{} }

// Get returns a copy of the stored record.
func (m *Memory) Get(_ context.Context) (apis.Configuration, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg == nil {
		return apis.Configuration{}, false, nil
	}
	return *m.cfg, true, nil
}

// Save replaces the stored record.
func (m *Memory) Save(_ context.Context, cfg apis.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = &cfg
	return nil
}

func encode(cfg apis.Configuration) ([]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("tapp(store): encode configuration: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) (apis.Configuration, error) {
	var cfg apis.Configuration
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return apis.Configuration{}, fmt.Errorf("tapp(store): decode configuration: %w", err)
	}
	return cfg, nil
}
