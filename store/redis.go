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

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tapp.so/tapp/apis"
)

// Redis keeps the record under a single Redis key. It suits hosts that run
// the engine server-side for many short-lived workers.
type Redis struct {
	client *redis.Client
	key    string
}

// Ensure Redis implements apis.Store.
var _ apis.Store = (*Redis)(nil)

// NewRedis wraps client. An empty key uses "tapp:config".
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = "tapp:config"
	}
	return &Redis{client: client, key: key}
}

// Get reads the record.
func (s *Redis) Get(ctx context.Context) (apis.Configuration, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return apis.Configuration{}, false, nil
	}
	if err != nil {
		return apis.Configuration{}, false, fmt.Errorf("tapp(store): redis get %s: %w", s.key, err)
	}
	cfg, err := decode(raw)
	if err != nil {
		return apis.Configuration{}, false, err
	}
	return cfg, true, nil
}

// Save writes the record without expiry.
func (s *Redis) Save(ctx context.Context, cfg apis.Configuration) error {
	raw, err := encode(cfg)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("tapp(store): redis save %s: %w", s.key, err)
	}
	return nil
}
