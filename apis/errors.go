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

package apis

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration means no configuration is stored; call Start.
	ErrMissingConfiguration = errors.New("tapp: missing configuration")
	// ErrMissingAffiliateService means no provider is registered for the affiliate.
	ErrMissingAffiliateService = errors.New("tapp: affiliate service not available")
	// ErrInvalidResponse means the backend payload was malformed or incomplete.
	ErrInvalidResponse = errors.New("tapp: invalid response")
	// ErrInitializationFailed means the provider failed to initialize.
	ErrInitializationFailed = errors.New("tapp: initialization failed")
	// ErrNotProcessable means the URL carries no link token for the affiliate.
	ErrNotProcessable = errors.New("tapp: url is not processable")
	// ErrCapabilityUnsupported means the active provider lacks an optional capability.
	ErrCapabilityUnsupported = errors.New("tapp: capability not supported by affiliate")
)

// AffiliateServiceError attributes a provider or network failure to an affiliate.
type AffiliateServiceError struct {
	Affiliate Affiliate
	Err       error
}

// Error implements error.
func (e *AffiliateServiceError) Error() string {
	return fmt.Sprintf("tapp: affiliate %s: %v", e.Affiliate, e.Err)
}

// Unwrap returns the cause.
func (e *AffiliateServiceError) Unwrap() error { return e.Err }

// MissingAffiliateService wraps ErrMissingAffiliateService with the affiliate.
func MissingAffiliateService(a Affiliate) error {
	return fmt.Errorf("%w: %s", ErrMissingAffiliateService, a)
}

// InvalidResponse wraps ErrInvalidResponse with a parse diagnostic.
func InvalidResponse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}

// InitializationFailed wraps ErrInitializationFailed with the affiliate and cause.
func InitializationFailed(a Affiliate, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrInitializationFailed, a)
	}
	return fmt.Errorf("%w: %s: %w", ErrInitializationFailed, a, cause)
}
