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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/config"
)

func TestDefaultOptionsValues(t *testing.T) {
	got := config.DefaultOptions()

	if got.ProductionBaseURL != config.DefaultProductionBaseURL {
		t.Fatalf("ProductionBaseURL = %q, want %q", got.ProductionBaseURL, config.DefaultProductionBaseURL)
	}
	if got.SandboxBaseURL != config.DefaultSandboxBaseURL {
		t.Fatalf("SandboxBaseURL = %q, want %q", got.SandboxBaseURL, config.DefaultSandboxBaseURL)
	}
	if got.ReferrerTimeout != 2*time.Second {
		t.Fatalf("ReferrerTimeout = %v, want 2s", got.ReferrerTimeout)
	}
	if got.AdvertisingIDTimeout != 2500*time.Millisecond {
		t.Fatalf("AdvertisingIDTimeout = %v, want 2.5s", got.AdvertisingIDTimeout)
	}
	if got.DeviceInfoTimeout != time.Second {
		t.Fatalf("DeviceInfoTimeout = %v, want 1s", got.DeviceInfoTimeout)
	}
	if got.FingerprintCallTimeout != 4*time.Second {
		t.Fatalf("FingerprintCallTimeout = %v, want 4s", got.FingerprintCallTimeout)
	}
	if got.FingerprintRetryDelay != 200*time.Millisecond {
		t.Fatalf("FingerprintRetryDelay = %v, want 200ms", got.FingerprintRetryDelay)
	}
	if !got.BootstrapOnStart {
		t.Fatalf("BootstrapOnStart = false, want true")
	}
}

func TestNewOptions_NoOptions_EqualsDefault(t *testing.T) {
	def := config.DefaultOptions()
	got := config.NewOptions()
	if got != def {
		t.Fatalf("NewOptions() = %+v, want default %+v", got, def)
	}
}

func TestWithRequestTimeout_NonPositive_ResetsToDefault(t *testing.T) {
	o := config.NewOptions(config.WithRequestTimeout(-1))
	if o.RequestTimeout != config.DefaultRequestTimeout {
		t.Fatalf("RequestTimeout = %v, want default %v", o.RequestTimeout, config.DefaultRequestTimeout)
	}
}

func TestWithDeviceInfoTimeout(t *testing.T) {
	o := config.NewOptions(config.WithDeviceInfoTimeout(300 * time.Millisecond))
	if o.DeviceInfoTimeout != 300*time.Millisecond {
		t.Fatalf("DeviceInfoTimeout = %v, want 300ms", o.DeviceInfoTimeout)
	}
	if o.AdvertisingIDTimeout != config.DefaultAdvertisingIDTimeout {
		t.Fatalf("AdvertisingIDTimeout = %v, want default %v", o.AdvertisingIDTimeout, config.DefaultAdvertisingIDTimeout)
	}

	o = config.NewOptions(config.WithDeviceInfoTimeout(0))
	if o.DeviceInfoTimeout != config.DefaultDeviceInfoTimeout {
		t.Fatalf("DeviceInfoTimeout = %v, want default %v", o.DeviceInfoTimeout, config.DefaultDeviceInfoTimeout)
	}
}

func TestWithBaseURLs_EmptyKeepsCurrent(t *testing.T) {
	o := config.NewOptions(config.WithBaseURLs("http://prod.local", ""))
	if o.ProductionBaseURL != "http://prod.local" {
		t.Fatalf("ProductionBaseURL = %q, want http://prod.local", o.ProductionBaseURL)
	}
	if o.SandboxBaseURL != config.DefaultSandboxBaseURL {
		t.Fatalf("SandboxBaseURL = %q, want default", o.SandboxBaseURL)
	}
}

func TestZeroDelaysAreKept(t *testing.T) {
	o := config.NewOptions(
		config.WithFingerprintRetryDelay(0),
		config.WithTestEventDelay(0),
	)
	if o.FingerprintRetryDelay != 0 || o.TestEventDelay != 0 {
		t.Fatalf("delays = %v/%v, want 0/0", o.FingerprintRetryDelay, o.TestEventDelay)
	}
}

func TestOptionsOrder_LastWins(t *testing.T) {
	o := config.NewOptions(
		config.WithDevice("a", "b"),
		config.WithDevice("com.example.app", "dev-1"),
		config.WithBootstrapOnStart(true),
		config.WithBootstrapOnStart(false),
	)
	if o.BundleID != "com.example.app" || o.DeviceID != "dev-1" {
		t.Errorf("device = %q/%q, want com.example.app/dev-1 (last option wins)", o.BundleID, o.DeviceID)
	}
	if o.BootstrapOnStart {
		t.Errorf("BootstrapOnStart = true, want false (last option wins)")
	}
}

func ptr[T any](v T) *T { return &v }

func TestMerge_AppliesOnlySetFields(t *testing.T) {
	old := apis.Configuration{
		AuthToken:    "old-auth",
		Environment:  apis.EnvironmentSandbox,
		ProjectToken: "proj",
		Affiliate:    apis.AffiliateTapp,
		AppToken:     "secret",
		DeepLinkURL:  "myapp://open?t=1",
	}
	got := config.Merge(old, apis.ConfigPatch{AuthToken: ptr("new-auth"), LinkToken: ptr("1")})

	assert.Equal(t, "new-auth", got.AuthToken)
	assert.Equal(t, "secret", got.AppToken)
	assert.Equal(t, "myapp://open?t=1", got.DeepLinkURL)
	assert.Equal(t, "1", got.LinkToken)
	assert.Equal(t, "old-auth", old.AuthToken, "Merge must not mutate its input")
}

func TestMerge_ProcessedFlagIsMonotonic(t *testing.T) {
	cfg := config.Merge(apis.Configuration{}, apis.ConfigPatch{HasProcessedReferralEngine: ptr(true)})
	require.True(t, cfg.HasProcessedReferralEngine)

	cfg = config.Merge(cfg, apis.ConfigPatch{HasProcessedReferralEngine: ptr(false)})
	assert.True(t, cfg.HasProcessedReferralEngine, "processed flag must never revert")
}

func TestStartPatch_PreservesReferralState(t *testing.T) {
	old := apis.Configuration{
		AuthToken:                  "a1",
		Affiliate:                  apis.AffiliateAdjust,
		AppToken:                   "secret",
		HasProcessedReferralEngine: true,
		DeepLinkURL:                "myapp://x?adj_t=abc",
		LinkToken:                  "abc",
	}
	start := apis.StartOptions{
		AuthToken:    "a2",
		Environment:  apis.EnvironmentProduction,
		ProjectToken: "p2",
		Affiliate:    apis.AffiliateTapp,
	}
	got := config.Merge(old, start.Patch())

	assert.Equal(t, "a2", got.AuthToken)
	assert.Equal(t, apis.AffiliateTapp, got.Affiliate)
	assert.Equal(t, "secret", got.AppToken)
	assert.True(t, got.HasProcessedReferralEngine)
	assert.Equal(t, "abc", got.LinkToken)
}

const sampleYAML = `
start:
  auth_token: auth-123
  environment: sandbox
  project_token: proj-9
  affiliate: adjust
options:
  production_base_url: http://localhost:8080/v1/ref
  referrer_timeout: 1s
store:
  kind: badger
  path: /tmp/tapp
`

func TestParse(t *testing.T) {
	f, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "auth-123", f.Start.AuthToken)
	assert.Equal(t, apis.EnvironmentSandbox, f.Start.Environment)
	assert.Equal(t, apis.AffiliateAdjust, f.Start.Affiliate)
	assert.Equal(t, "http://localhost:8080/v1/ref", f.Options.ProductionBaseURL)
	assert.Equal(t, config.DefaultSandboxBaseURL, f.Options.SandboxBaseURL)
	assert.Equal(t, time.Second, f.Options.ReferrerTimeout)
	assert.Equal(t, config.DefaultFingerprintCallTimeout, f.Options.FingerprintCallTimeout)
	assert.Equal(t, config.StoreBadger, f.Store.Kind)
	assert.Equal(t, config.DefaultRedisKey, f.Store.RedisKey)
	require.NoError(t, config.Validate(f))
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("TAPP_AUTH_TOKEN", "from-env")
	t.Setenv("TAPP_AFFILIATE", "tapp")
	t.Setenv("TAPP_ENVIRONMENT", "PRODUCTION")

	f, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", f.Start.AuthToken)
	assert.Equal(t, apis.AffiliateTapp, f.Start.Affiliate)
	assert.Equal(t, apis.EnvironmentProduction, f.Start.Environment)
}

func TestLoadFile_BadEnvAffiliate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))
	t.Setenv("TAPP_AFFILIATE", "branch")

	_, err := config.LoadFile(path)
	require.ErrorIs(t, err, apis.ErrUnknownAffiliate)
}

func TestLoadFile_EmptyPath(t *testing.T) {
	_, err := config.LoadFile("")
	require.ErrorIs(t, err, config.ErrEmptyPath)
}

func TestValidate_StartOptions(t *testing.T) {
	err := config.Validate(apis.StartOptions{AuthToken: "a", ProjectToken: "p"})
	require.Error(t, err)

	err = config.Validate(apis.StartOptions{
		AuthToken:    "a",
		Environment:  apis.EnvironmentProduction,
		ProjectToken: "p",
		Affiliate:    apis.AffiliateAppsflyer,
	})
	require.NoError(t, err)
}

func TestValidate_StoreRequiresPath(t *testing.T) {
	f := config.DefaultFile()
	f.Start = apis.StartOptions{AuthToken: "a", Environment: apis.EnvironmentSandbox, ProjectToken: "p", Affiliate: apis.AffiliateTapp}
	f.Store.Kind = config.StoreBadger
	require.Error(t, config.Validate(f))

	f.Store.Path = t.TempDir()
	require.NoError(t, config.Validate(f))
}
