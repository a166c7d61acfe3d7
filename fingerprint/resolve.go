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

package fingerprint

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"tapp.so/tapp/apis"
)

// ErrNoAnswer means both lookup attempts produced nothing.
var ErrNoAnswer = errors.New("tapp(fingerprint): no deferred link response")

// Lookup performs one deferred-link request.
type Lookup func(ctx context.Context) (*apis.DeferredLinkResponse, error)

// Resolve calls lookup with a per-call timeout and, when the call yields
// nothing (nil, timeout or transport error), retries exactly once after
// retryDelay. Malformed responses are not retried.
func Resolve(ctx context.Context, callTimeout, retryDelay time.Duration, lookup Lookup) (*apis.DeferredLinkResponse, error) {
	op := func() (*apis.DeferredLinkResponse, error) {
		callCtx := ctx
		if callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, callTimeout)
			defer cancel()
		}
		resp, err := lookup(callCtx)
		switch {
		case errors.Is(err, apis.ErrInvalidResponse):
			return nil, backoff.Permanent(err)
		case err != nil:
			return nil, err
		case resp == nil:
			return nil, ErrNoAnswer
		}
		return resp, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(retryDelay)),
		backoff.WithMaxTries(2),
	)
}
