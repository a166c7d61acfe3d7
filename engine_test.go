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

package tapp_test

import (
	"context"
	"errors"
	"math"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapp.so/tapp"
	"tapp.so/tapp/apis"
	"tapp.so/tapp/config"
	"tapp.so/tapp/fingerprint"
	"tapp.so/tapp/mockserver"
	"tapp.so/tapp/provider"
	"tapp.so/tapp/registry"
	"tapp.so/tapp/resolver"
	"tapp.so/tapp/store"
)

// recorder is a Delegate that keeps every callback.
type recorder struct {
	mu       sync.Mutex
	links    []apis.LinkDataResponse
	failures []apis.ResolutionFailure
	tests    []string
}

func (r *recorder) OnDeferredLinkReceived(resp apis.LinkDataResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, resp)
}

func (r *recorder) OnResolutionFailed(f apis.ResolutionFailure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
}

func (r *recorder) OnTestEvent(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, msg)
}

func (r *recorder) snapshot() ([]apis.LinkDataResponse, []apis.ResolutionFailure, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]apis.LinkDataResponse(nil), r.links...),
		append([]apis.ResolutionFailure(nil), r.failures...),
		append([]string(nil), r.tests...)
}

// fakeAdjust is a controllable partner SDK.
type fakeAdjust struct {
	mu       sync.Mutex
	startErr error
	starts   int
}

func (f *fakeAdjust) Start(context.Context, string, apis.Environment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}
func (f *fakeAdjust) setStartErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr = err
}
func (f *fakeAdjust) TrackEvent(context.Context, string) error      { return nil }
func (f *fakeAdjust) ProcessDeeplink(context.Context, string) error { return nil }
func (f *fakeAdjust) VerifyPurchase(context.Context, apis.Purchase) (apis.PurchaseVerification, error) {
	return apis.PurchaseVerification{Status: "verified", Code: 200, Message: "ok"}, nil
}
func (f *fakeAdjust) TrackAdRevenue(context.Context, apis.AdRevenue) error { return nil }
func (f *fakeAdjust) ADID(context.Context) (string, error)                 { return "adid-1", nil }

type harness struct {
	eng   *tapp.Engine
	srv   *mockserver.Server
	store *store.Memory
	del   *recorder
	sdk   *fakeAdjust
}

func newHarness(t *testing.T, extra ...config.Option) *harness {
	t.Helper()
	srv := mockserver.New(mockserver.WithSecret("s3cr3t"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	base := ts.URL + mockserver.Prefix
	opts := append([]config.Option{
		config.WithBaseURLs(base, base),
		config.WithRateLimit(0, 0),
		config.WithDevice("com.example.app", "device-1"),
		config.WithFingerprintTimeouts(50*time.Millisecond, 50*time.Millisecond, 500*time.Millisecond),
		config.WithFingerprintRetryDelay(10 * time.Millisecond),
		config.WithTestEventDelay(10 * time.Millisecond),
	}, extra...)

	sdk := &fakeAdjust{}
	reg := registry.New()
	provider.RegisterAdjust(reg, sdk)

	h := &harness{srv: srv, store: store.NewMemory(), del: &recorder{}, sdk: sdk}
	eng, err := tapp.New(h.store, h.del,
		tapp.WithOptions(config.NewOptions(opts...)),
		tapp.WithRegistry(reg),
	)
	require.NoError(t, err)
	h.eng = eng
	t.Cleanup(eng.Wait)
	return h
}

func (h *harness) start(t *testing.T, a apis.Affiliate) {
	t.Helper()
	require.NoError(t, h.eng.Start(context.Background(), apis.StartOptions{
		AuthToken:    "auth-token",
		Environment:  apis.EnvironmentSandbox,
		ProjectToken: "project-token",
		Affiliate:    a,
	}))
}

func (h *harness) config(t *testing.T) apis.Configuration {
	t.Helper()
	cfg, ok, err := h.store.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	return cfg
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := tapp.New(nil, nil); !errors.Is(err, tapp.ErrNilStore) {
		t.Fatalf("New(nil) err = %v, want ErrNilStore", err)
	}
}

func TestOnAppOpen_DeliversExactlyOnce(t *testing.T) {
	cases := []struct {
		affiliate apis.Affiliate
		url       string
	}{
		{apis.AffiliateTapp, "myapp://open?t=XYZ"},
		{apis.AffiliateAdjust, "myapp://open?adj_t=XYZ"},
	}
	for _, tc := range cases {
		t.Run(tc.affiliate.String(), func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			h.srv.SetLinkData("XYZ", apis.LinkDataResponse{Message: "Ok", TappURL: "https://tapp.so/XYZ", Influencer: "bob"})
			h.start(t, tc.affiliate)

			require.NoError(t, h.eng.OnAppOpen(ctx, tc.url))

			links, failures, _ := h.del.snapshot()
			require.Len(t, links, 1)
			assert.Empty(t, failures)
			assert.False(t, links[0].Error)
			assert.Equal(t, "bob", links[0].Influencer)
			assert.True(t, links[0].IsFirstSession)

			cfg := h.config(t)
			assert.True(t, cfg.HasProcessedReferralEngine)
			assert.Equal(t, tc.url, cfg.DeepLinkURL)
			assert.Equal(t, "XYZ", cfg.LinkToken)

			// At most once: later opens are no-ops.
			require.NoError(t, h.eng.OnAppOpen(ctx, tc.url))
			require.NoError(t, h.eng.OnAppOpen(ctx, "myapp://open?t=OTHER&adj_t=OTHER"))
			assert.Equal(t, 1, h.srv.Count(resolver.PathDeeplink))
			links, _, _ = h.del.snapshot()
			assert.Len(t, links, 1)

			imp := h.srv.Calls(resolver.PathDeeplink)[0]
			assert.Equal(t, "Bearer auth-token", imp.Authorization)
			assert.Equal(t, tc.url, imp.Body["deeplink"])
			assert.EqualValues(t, tc.affiliate.MMP(), imp.Body["mmp"])
		})
	}
}

func TestOnAppOpen_ImpressionFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)
	h.srv.FailImpressions("no match")

	const url = "myapp://open?t=XYZ"
	err := h.eng.OnAppOpen(ctx, url)

	var se *apis.AffiliateServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apis.AffiliateTapp, se.Affiliate)

	links, failures, _ := h.del.snapshot()
	assert.Empty(t, links)
	require.Len(t, failures, 1)
	assert.Equal(t, url, failures[0].URL)
	assert.Equal(t, "no match", failures[0].Error)
	assert.False(t, h.config(t).HasProcessedReferralEngine)

	h.srv.FailImpressions("")
	require.NoError(t, h.eng.OnAppOpen(ctx, url))
	assert.Equal(t, 2, h.srv.Count(resolver.PathDeeplink))
	assert.True(t, h.config(t).HasProcessedReferralEngine)
}

// retryingDelegate opens the failed URL again from its first failure callback.
type retryingDelegate struct {
	recorder
	eng     *tapp.Engine
	once    atomic.Bool
	retried chan error
}

func (d *retryingDelegate) OnResolutionFailed(f apis.ResolutionFailure) {
	d.recorder.OnResolutionFailed(f)
	if d.once.CompareAndSwap(false, true) {
		d.retried <- d.eng.OnAppOpen(context.Background(), f.URL)
	}
}

func TestOnAppOpen_FailureCallbackMayRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)
	h.srv.FailImpressions("no match")

	del := &retryingDelegate{retried: make(chan error, 1)}
	eng, err := tapp.New(h.store, del, tapp.WithOptions(h.eng.Options()))
	require.NoError(t, err)
	t.Cleanup(eng.Wait)
	del.eng = eng

	const url = "myapp://open?t=XYZ"
	done := make(chan error, 1)
	go func() { done <- eng.OnAppOpen(ctx, url) }()

	select {
	case err := <-done:
		var se *apis.AffiliateServiceError
		require.ErrorAs(t, err, &se)
	case <-time.After(3 * time.Second):
		t.Fatal("OnAppOpen blocked while the failure callback re-opened the url")
	}
	var se *apis.AffiliateServiceError
	require.ErrorAs(t, <-del.retried, &se)

	_, failures, _ := del.snapshot()
	assert.Len(t, failures, 2)
	assert.Equal(t, 2, h.srv.Count(resolver.PathDeeplink))

	// The flow lock was released: a later open commits.
	h.srv.FailImpressions("")
	require.NoError(t, eng.OnAppOpen(ctx, url))
	assert.True(t, h.config(t).HasProcessedReferralEngine)
}

func TestOnAppOpen_NoOps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	require.NoError(t, h.eng.OnAppOpen(ctx, ""))
	require.ErrorIs(t, h.eng.OnAppOpen(ctx, "myapp://open?t=abc"), apis.ErrMissingConfiguration)

	h.start(t, apis.AffiliateAdjust)
	// The Tapp key is not the Adjust key.
	require.NoError(t, h.eng.OnAppOpen(ctx, "myapp://open?t=abc"))
	if n := h.srv.Count(resolver.PathDeeplink); n != 0 {
		t.Fatalf("deeplink calls = %d, want 0", n)
	}
	assert.False(t, h.eng.ShouldProcess(ctx, "myapp://open?t=abc"))
	assert.True(t, h.eng.ShouldProcess(ctx, "myapp://open?adj_t=abc"))
}

func TestEnsureReady_SecondCallIsFree(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.WithBootstrapOnStart(false))
	h.start(t, apis.AffiliateTapp)

	require.NoError(t, h.eng.EnsureReady(ctx))
	before := len(h.srv.Calls(""))
	require.Equal(t, 1, h.srv.Count(resolver.PathSecrets))
	assert.Equal(t, "s3cr3t", h.config(t).AppToken)

	require.NoError(t, h.eng.EnsureReady(ctx))
	if after := len(h.srv.Calls("")); after != before {
		t.Fatalf("network calls after second EnsureReady = %d, want %d", after, before)
	}
}

func TestEnsureReady_ConcurrentCallersShareBootstrap(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.WithBootstrapOnStart(false))
	h.start(t, apis.AffiliateTapp)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.eng.EnsureReady(ctx); err != nil {
				t.Errorf("EnsureReady: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, h.srv.Count(resolver.PathSecrets), 2)
}

func TestEnsureReady_InitializationFailureLeavesProviderDisabled(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.WithBootstrapOnStart(false))
	h.sdk.setStartErr(errors.New("sdk refused"))
	h.start(t, apis.AffiliateAdjust)

	err := h.eng.OnAppOpen(ctx, "myapp://open?adj_t=abc")
	require.ErrorIs(t, err, apis.ErrInitializationFailed)

	cfg := h.config(t)
	assert.Equal(t, "s3cr3t", cfg.AppToken, "secret stays stored for the retry")
	assert.False(t, cfg.HasProcessedReferralEngine)
	assert.Zero(t, h.srv.Count(resolver.PathDeeplink))

	h.sdk.setStartErr(nil)
	require.NoError(t, h.eng.OnAppOpen(ctx, "myapp://open?adj_t=abc"))
	assert.Equal(t, 1, h.srv.Count(resolver.PathSecrets), "secret is not fetched twice")
	assert.True(t, h.config(t).HasProcessedReferralEngine)
}

func TestOnAppOpen_MissingAffiliateService(t *testing.T) {
	h := newHarness(t, config.WithBootstrapOnStart(false))
	h.start(t, apis.AffiliateAppsflyer)

	err := h.eng.OnAppOpen(context.Background(), "myapp://open?af_t=abc")
	require.ErrorIs(t, err, apis.ErrMissingAffiliateService)
}

func TestOnAppOpen_ConcurrentOpensCommitOnce(t *testing.T) {
	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		h.eng.OnAppOpenAsync(context.Background(), "myapp://open?t=XYZ", func(err error) {
			defer wg.Done()
			if err != nil {
				t.Errorf("OnAppOpenAsync: %v", err)
			}
		})
	}
	wg.Wait()
	h.eng.Wait()

	assert.Equal(t, 1, h.srv.Count(resolver.PathDeeplink))
	links, _, _ := h.del.snapshot()
	assert.Len(t, links, 1)
}

func TestStart_OverwritesIdentityOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.WithBootstrapOnStart(false))
	require.NoError(t, h.store.Save(ctx, apis.Configuration{
		AuthToken:                  "old",
		Environment:                apis.EnvironmentProduction,
		ProjectToken:               "old",
		Affiliate:                  apis.AffiliateAdjust,
		AppToken:                   "kept-secret",
		HasProcessedReferralEngine: true,
		DeepLinkURL:                "myapp://open?t=kept",
		LinkToken:                  "kept",
	}))

	h.start(t, apis.AffiliateTapp)

	cfg := h.config(t)
	assert.Equal(t, "auth-token", cfg.AuthToken)
	assert.Equal(t, apis.EnvironmentSandbox, cfg.Environment)
	assert.Equal(t, "project-token", cfg.ProjectToken)
	assert.Equal(t, apis.AffiliateTapp, cfg.Affiliate)
	assert.Equal(t, "com.example.app", cfg.BundleID)
	assert.Equal(t, "device-1", cfg.DeviceID)
	assert.Equal(t, "kept-secret", cfg.AppToken)
	assert.True(t, cfg.HasProcessedReferralEngine)
	assert.Equal(t, "kept", cfg.LinkToken)

	err := h.eng.Start(ctx, apis.StartOptions{AuthToken: "x", Environment: "LOCAL", ProjectToken: "p", Affiliate: apis.AffiliateTapp})
	require.Error(t, err)
}

func TestStart_BootstrapFailureIsNotReturned(t *testing.T) {
	h := newHarness(t)
	h.sdk.setStartErr(errors.New("sdk refused"))
	h.start(t, apis.AffiliateAdjust)
	assert.Equal(t, 1, h.srv.Count(resolver.PathSecrets))
}

func TestFetchLinkData(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.WithBootstrapOnStart(false))
	h.srv.SetLinkData("abc", apis.LinkDataResponse{Message: "Ok", TappURL: "https://tapp.so/abc", Data: map[string]string{"k": "v"}})
	h.start(t, apis.AffiliateTapp)

	_, err := h.eng.FetchOriginalLinkData(ctx)
	require.ErrorIs(t, err, tapp.ErrNoStoredLink)

	_, err = h.eng.FetchLinkData(ctx, "myapp://open?adj_t=abc")
	require.ErrorIs(t, err, apis.ErrNotProcessable)

	resp, err := h.eng.FetchLinkData(ctx, "myapp://open?t=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://tapp.so/abc", resp.TappURL)
	assert.Equal(t, "v", resp.Data["k"])
	assert.True(t, resp.IsFirstSession)
	assert.Equal(t, 1, h.srv.Count(resolver.PathSecrets), "bootstraps without a stored secret")
	assert.False(t, h.config(t).HasProcessedReferralEngine)

	require.NoError(t, h.eng.OnAppOpen(ctx, "myapp://open?t=abc"))
	resp, err = h.eng.FetchOriginalLinkData(ctx)
	require.NoError(t, err)
	assert.False(t, resp.IsFirstSession)

	resp, err = h.eng.FetchLinkData(ctx, "myapp://open?t=unknown")
	require.NoError(t, err)
	assert.True(t, resp.Error)
}

func TestTrackEvent_SanitizesMetadata(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)
	require.NoError(t, h.eng.OnAppOpen(ctx, "myapp://open?t=abc"))

	err := h.eng.TrackEvent(ctx, apis.Event{
		Action:   apis.EventPurchase,
		Metadata: map[string]any{"a": "ok", "b": math.NaN(), "c": []int{1, 2, 3}},
	})
	require.NoError(t, err)

	calls := h.srv.Calls(resolver.PathEvent)
	require.Len(t, calls, 1)
	assert.Equal(t, "tapp_purchase", calls[0].Body["event_name"])
	assert.Equal(t, "myapp://open?t=abc", calls[0].Body["event_url"])
	assert.Equal(t, map[string]any{"a": "ok"}, calls[0].Body["metadata"])

	require.ErrorIs(t, h.eng.TrackEvent(ctx, apis.Event{}), apis.ErrEmptyEventName)
}

func TestHandleEvent_RoutesToConfiguredProvider(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)

	require.NoError(t, h.eng.HandleEvent(ctx, "level_up"))
	calls := h.srv.Calls(resolver.PathEvent)
	require.Len(t, calls, 1)
	assert.Equal(t, "level_up", calls[0].Body["event_name"])
}

func TestGenerateURL(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)

	resp, err := h.eng.GenerateURL(ctx, apis.AffiliateURLRequest{Influencer: "bob", AdGroup: "g1"})
	require.NoError(t, err)
	assert.Equal(t, "https://tapp.so/i/bob", resp.InfluencerURL)

	body := h.srv.Calls(resolver.PathInfluencerAdd)[0].Body
	assert.Equal(t, "g1", body["adgroup"])
	assert.NotContains(t, body, "creative")

	_, err = h.eng.GenerateURL(ctx, apis.AffiliateURLRequest{})
	require.Error(t, err)
}

func TestCapabilities(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.start(t, apis.AffiliateTapp)
	_, err := h.eng.VerifyPurchase(ctx, apis.Purchase{ProductID: "sku", PurchaseToken: "tok"})
	require.ErrorIs(t, err, apis.ErrCapabilityUnsupported)
	_, err = h.eng.AttributionID(ctx)
	require.ErrorIs(t, err, apis.ErrCapabilityUnsupported)

	h = newHarness(t)
	h.start(t, apis.AffiliateAdjust)
	v, err := h.eng.VerifyPurchase(ctx, apis.Purchase{ProductID: "sku", PurchaseToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "verified", v.Status)
	id, err := h.eng.AttributionID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "adid-1", id)
	require.NoError(t, h.eng.TrackAdRevenue(ctx, apis.AdRevenue{Source: "admob", Revenue: 0.01, Currency: "USD"}))
	require.Error(t, h.eng.TrackAdRevenue(ctx, apis.AdRevenue{Source: "admob", Currency: "US"}))
}

func TestConfig(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.eng.Config(ctx)
	require.ErrorIs(t, err, apis.ErrMissingConfiguration)

	h.start(t, apis.AffiliateTapp)
	ext, err := h.eng.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, "project-token", ext.ProjectToken)
	assert.Equal(t, "com.example.app", ext.BundleID)
	h.eng.LogConfig(ctx)
}

func TestSimulateTestEvent(t *testing.T) {
	h := newHarness(t)
	h.eng.SimulateTestEvent(context.Background())
	h.eng.Wait()

	_, _, tests := h.del.snapshot()
	assert.Equal(t, []string{tapp.TestEventMessage}, tests)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.eng.SimulateTestEvent(ctx)
	h.eng.Wait()
	_, _, tests = h.del.snapshot()
	assert.Len(t, tests, 1, "a cancelled context suppresses the event")
}

func TestWait_ConcurrentWithNewWork(t *testing.T) {
	h := newHarness(t, config.WithTestEventDelay(0))

	const workers, rounds = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				h.eng.SimulateTestEvent(context.Background())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				h.eng.Wait()
			}
		}()
	}
	wg.Wait()
	h.eng.Wait()

	_, _, tests := h.del.snapshot()
	if got := len(tests); got != workers*rounds {
		t.Fatalf("test events = %d, want %d", got, workers*rounds)
	}
}

// stalledDevice never answers before its context ends.
type stalledDevice struct{}

func (stalledDevice) DeviceInfo(ctx context.Context) (fingerprint.DeviceInfo, error) {
	<-ctx.Done()
	return fingerprint.DeviceInfo{}, ctx.Err()
}

func TestSetOptions_RetimesCollector(t *testing.T) {
	slow := config.NewOptions(config.WithDeviceInfoTimeout(10 * time.Second))
	col := fingerprint.NewCollector(slow, fingerprint.WithDeviceInfo(stalledDevice{}))
	eng, err := tapp.New(store.NewMemory(), nil, tapp.WithOptions(slow), tapp.WithCollector(col))
	require.NoError(t, err)

	fast := slow
	fast.DeviceInfoTimeout = 30 * time.Millisecond
	eng.SetOptions(fast)

	start := time.Now()
	req := eng.Collector().Collect(context.Background(), "dev-1")
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("Collect took %v, want bounded by the new device info timeout", elapsed)
	}
	assert.Equal(t, "Android", req.Platform)

	// The default collector is rebuilt too.
	def, err := tapp.New(store.NewMemory(), nil, tapp.WithOptions(slow))
	require.NoError(t, err)
	before := def.Collector()
	def.SetOptions(fast)
	assert.NotSame(t, before, def.Collector())
}

func TestDispatcher_ReceivesEveryCallback(t *testing.T) {
	srv := mockserver.New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var mu sync.Mutex
	dispatched := 0
	d := apis.DispatcherFunc(func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		fn()
	})
	del := &recorder{}
	base := ts.URL + mockserver.Prefix
	eng, err := tapp.New(store.NewMemory(), del,
		tapp.WithOptions(config.NewOptions(config.WithBaseURLs(base, base), config.WithRateLimit(0, 0))),
		tapp.WithDispatcher(d),
	)
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background(), apis.StartOptions{
		AuthToken: "a", Environment: apis.EnvironmentProduction, ProjectToken: "p", Affiliate: apis.AffiliateTapp,
	}))
	require.NoError(t, eng.OnAppOpen(context.Background(), "myapp://open?t=abc"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dispatched)
}

func TestSetRegistryKeepsBuiltins(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.eng.SetRegistry(registry.New()))
	for _, a := range []apis.Affiliate{apis.AffiliateTapp, apis.AffiliateTappNative} {
		if _, ok := h.eng.Registry().Resolve(a, apis.ProviderDeps{}); !ok {
			t.Fatalf("Resolve(%s) after SetRegistry: ok = false", a)
		}
	}
	if _, ok := h.eng.Registry().Resolve(apis.AffiliateAdjust, apis.ProviderDeps{}); ok {
		t.Fatalf("Resolve(adjust) after SetRegistry: ok = true, want replaced registry")
	}

	o := h.eng.Options()
	o.TestEventDelay = time.Millisecond
	h.eng.SetOptions(o)
	assert.Equal(t, time.Millisecond, h.eng.Options().TestEventDelay)
}
