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

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"tapp.so/tapp/apis"
)

// Store kinds accepted in File.Store.Kind.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreRedis  = "redis"
)

// DefaultRedisKey is the key holding the configuration record in Redis.
const DefaultRedisKey = "tapp:config"

// File is the on-disk configuration of tappctl and other hosts.
type File struct {
	// Start holds the inputs of Engine.Start.
	Start apis.StartOptions `yaml:"start"`
	// Options holds the engine runtime knobs.
	Options apis.Options `yaml:"options"`
	// Store selects the configuration store.
	Store StoreConfig `yaml:"store"`
}

// StoreConfig selects and parameterizes the configuration store.
type StoreConfig struct {
	Kind      string `yaml:"kind" validate:"oneof=memory badger redis"`
	Path      string `yaml:"path" validate:"required_if=Kind badger"`
	RedisAddr string `yaml:"redis_addr" validate:"required_if=Kind redis"`
	RedisKey  string `yaml:"redis_key"`
}

// ErrEmptyPath is returned by LoadFile for an empty path.
var ErrEmptyPath = errors.New("tapp(config): empty config path")

// DefaultFile returns a File with default options and an in-memory store.
func DefaultFile() File {
	return File{
		Options: DefaultOptions(),
		Store:   StoreConfig{Kind: StoreMemory, RedisKey: DefaultRedisKey},
	}
}

// LoadFile reads a YAML file over DefaultFile and applies TAPP_* environment
// overrides. Values absent from the file keep their defaults.
func LoadFile(path string) (File, error) {
	if path == "" {
		return File{}, ErrEmptyPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("tapp(config): read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes the same way LoadFile does.
func Parse(raw []byte) (File, error) {
	f := DefaultFile()
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("tapp(config): parse config file: %w", err)
	}
	if err := ApplyEnv(&f); err != nil {
		return File{}, err
	}
	f.Options = Normalize(f.Options)
	if f.Store.Kind == "" {
		f.Store.Kind = StoreMemory
	}
	if f.Store.RedisKey == "" {
		f.Store.RedisKey = DefaultRedisKey
	}
	return f, nil
}

// ApplyEnv overrides f from TAPP_* environment variables.
func ApplyEnv(f *File) error {
	f.Start.AuthToken = envString("TAPP_AUTH_TOKEN", f.Start.AuthToken)
	f.Start.ProjectToken = envString("TAPP_PROJECT_TOKEN", f.Start.ProjectToken)
	if raw := os.Getenv("TAPP_ENVIRONMENT"); raw != "" {
		env, err := apis.ParseEnvironment(raw)
		if err != nil {
			return fmt.Errorf("tapp(config): TAPP_ENVIRONMENT: %w", err)
		}
		f.Start.Environment = env
	}
	if raw := os.Getenv("TAPP_AFFILIATE"); raw != "" {
		aff, err := apis.ParseAffiliate(raw)
		if err != nil {
			return fmt.Errorf("tapp(config): TAPP_AFFILIATE: %w", err)
		}
		f.Start.Affiliate = aff
	}
	f.Options.ProductionBaseURL = envString("TAPP_BASE_URL", f.Options.ProductionBaseURL)
	f.Options.SandboxBaseURL = envString("TAPP_SANDBOX_BASE_URL", f.Options.SandboxBaseURL)
	f.Options.BundleID = envString("TAPP_BUNDLE_ID", f.Options.BundleID)
	f.Options.DeviceID = envString("TAPP_DEVICE_ID", f.Options.DeviceID)
	f.Options.RateLimit = envFloat("TAPP_RATE_LIMIT", f.Options.RateLimit)
	f.Store.Kind = envString("TAPP_STORE", f.Store.Kind)
	f.Store.Path = envString("TAPP_STORE_PATH", f.Store.Path)
	f.Store.RedisAddr = envString("TAPP_REDIS_ADDR", f.Store.RedisAddr)
	return nil
}

// Validate checks v against its validate tags.
func Validate(v any) error {
	if err := validate().Struct(v); err != nil {
		return fmt.Errorf("tapp(config): %w", err)
	}
	return nil
}

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInst
}

func envString(name, fallback string) string {
	if raw := os.Getenv(name); raw != "" {
		return raw
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}
