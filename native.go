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

package tapp

import (
	"context"
	"fmt"
	"log/slog"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/fingerprint"
	"tapp.so/tapp/metrics"
)

// NativeOutcome is the state of the engine's fingerprint resolution.
type NativeOutcome int

const (
	// NativePending means no result yet, including not started.
	NativePending NativeOutcome = iota
	// NativeMatched means a fingerprint match was committed.
	NativeMatched
	// NativeNotProcessable means the backend found no match, or never
	// answered. No further fingerprint attempts are made.
	NativeNotProcessable
	// NativeFailed means a match was found but could not be committed.
	NativeFailed
	// NativeSuperseded means a match was found after another flow had
	// already attributed the install.
	NativeSuperseded
)

// String implements fmt.Stringer.
func (o NativeOutcome) String() string {
	switch o {
	case NativePending:
		return "pending"
	case NativeMatched:
		return "matched"
	case NativeNotProcessable:
		return "not_processable"
	case NativeFailed:
		return "failed"
	case NativeSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("NativeOutcome(%d)", int(o))
	}
}

// Ensure Engine implements apis.NativeTrigger.
var _ apis.NativeTrigger = (*Engine)(nil)

// ResolveNative starts the fingerprint resolution. Only the first call on an
// engine starts it and returns true; every later call is a no-op.
func (e *Engine) ResolveNative(ctx context.Context) bool {
	e.nativeMu.Lock()
	if e.nativeStarted {
		e.nativeMu.Unlock()
		return false
	}
	e.nativeStarted = true
	e.nativeMu.Unlock()

	e.spawn(func() { e.resolveNative(context.WithoutCancel(ctx)) })
	return true
}

// NativeOutcome returns the current fingerprint resolution outcome.
func (e *Engine) NativeOutcome() NativeOutcome {
	e.nativeMu.Lock()
	defer e.nativeMu.Unlock()
	return e.nativeOutcome
}

func (e *Engine) setNativeOutcome(o NativeOutcome) {
	e.nativeMu.Lock()
	e.nativeOutcome = o
	e.nativeMu.Unlock()
}

func (e *Engine) resolveNative(ctx context.Context) {
	cfg, err := e.load(ctx)
	if err != nil {
		e.logger.Warn("fingerprint resolution aborted", slog.Any("error", err))
		e.setNativeOutcome(NativeFailed)
		return
	}
	st := e.st.Load()
	opts := st.opts
	req := st.collector.Collect(ctx, cfg.DeviceID)
	client := st.client

	resp, err := fingerprint.Resolve(ctx, opts.FingerprintCallTimeout, opts.FingerprintRetryDelay,
		func(ctx context.Context) (*apis.DeferredLinkResponse, error) {
			return client.FetchDeferredLink(ctx, cfg, req)
		})
	if err != nil {
		e.logger.Info("no deferred link from fingerprint", slog.Any("error", err))
		e.setNativeOutcome(NativeNotProcessable)
		e.metrics.Resolution(pathNative, metrics.OutcomeNotProcessable)
		return
	}
	if err := e.OnNativeFingerprintResolved(ctx, *resp); err != nil {
		e.logger.Info("fingerprint resolution ended without commit", slog.Any("error", err))
	}
}

// OnNativeFingerprintResolved commits a fingerprint match. A response with
// its error flag set is recorded as not processable and returns
// apis.ErrNotProcessable without touching the stored configuration, so a
// later explicit URL can still be attributed.
func (e *Engine) OnNativeFingerprintResolved(ctx context.Context, resp apis.DeferredLinkResponse) error {
	if resp.Error {
		e.setNativeOutcome(NativeNotProcessable)
		e.metrics.Resolution(pathNative, metrics.OutcomeNotProcessable)
		msg := resp.Message
		if msg == "" {
			msg = "fingerprint mismatch"
		}
		return fmt.Errorf("%w: %s", apis.ErrNotProcessable, msg)
	}
	url := resp.URL()
	if url == "" {
		e.setNativeOutcome(NativeFailed)
		return apis.InvalidResponse("deferred link response carries no url")
	}

	cfg, err := e.load(ctx)
	if err != nil {
		e.setNativeOutcome(NativeFailed)
		return err
	}
	if cfg.HasProcessedReferralEngine {
		e.setNativeOutcome(NativeSuperseded)
		e.metrics.Resolution(pathNative, metrics.OutcomeSkipped)
		return nil
	}
	if err := e.ensureReady(ctx); err != nil {
		e.setNativeOutcome(NativeFailed)
		e.metrics.Resolution(pathNative, metrics.OutcomeFailure)
		return err
	}

	_, committed, err := e.commit(ctx, url)
	if err != nil {
		e.setNativeOutcome(NativeFailed)
		e.metrics.Resolution(pathNative, metrics.OutcomeFailure)
		return err
	}
	if !committed {
		e.setNativeOutcome(NativeSuperseded)
		e.metrics.Resolution(pathNative, metrics.OutcomeSkipped)
		return nil
	}
	e.setNativeOutcome(NativeMatched)
	e.metrics.Resolution(pathNative, metrics.OutcomeSuccess)

	data := apis.LinkDataResponse{
		Message:        "Success on deferred deep link",
		TappURL:        resp.TappURL,
		AttrTappURL:    resp.AttrTappURL,
		Influencer:     resp.Influencer,
		Data:           resp.Data,
		IsFirstSession: true,
		DeepLink:       resp.DeepLink,
	}
	e.dispatch(func() { e.delegate.OnDeferredLinkReceived(data) })
	return nil
}
