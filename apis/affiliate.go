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
	"strings"
)

// Affiliate identifies the measurement partner that attributes installs.
// Values match the backend "mmp" identifiers.
type Affiliate int

const (
	// AffiliateUnknown is the zero value and never valid.
	AffiliateUnknown Affiliate = 0
	// AffiliateAdjust routes attribution through the Adjust SDK.
	AffiliateAdjust Affiliate = 1
	// AffiliateAppsflyer routes attribution through the AppsFlyer SDK.
	AffiliateAppsflyer Affiliate = 2
	// AffiliateTappNative resolves cold installs through device fingerprinting.
	AffiliateTappNative Affiliate = 3
	// AffiliateTapp is the first-party backend.
	AffiliateTapp Affiliate = 4
)

// ErrUnknownAffiliate is returned when an affiliate name or value is not recognized.
var ErrUnknownAffiliate = errors.New("tapp(apis): unknown affiliate")

type affiliateInfo struct {
	name     string
	tokenKey string
}

// affiliates is the single source of truth for per-affiliate URL keys.
var affiliates = map[Affiliate]affiliateInfo{
	AffiliateAdjust:     {name: "adjust", tokenKey: "adj_t"},
	AffiliateAppsflyer:  {name: "appsflyer", tokenKey: "af_t"},
	AffiliateTappNative: {name: "tapp_native", tokenKey: "t"},
	AffiliateTapp:       {name: "tapp", tokenKey: "t"},
}

// Affiliates returns every known affiliate in ascending order.
func Affiliates() []Affiliate {
	return []Affiliate{AffiliateAdjust, AffiliateAppsflyer, AffiliateTappNative, AffiliateTapp}
}

// Valid reports whether a is a known affiliate.
func (a Affiliate) Valid() bool {
	_, ok := affiliates[a]
	return ok
}

// TokenKey returns the URL query key that carries the link token for a.
// It returns "" for unknown affiliates.
func (a Affiliate) TokenKey() string {
	return affiliates[a].tokenKey
}

// MMP returns the backend identifier of a.
func (a Affiliate) MMP() int { return int(a) }

// String returns the lower-case name of a.
func (a Affiliate) String() string {
	if info, ok := affiliates[a]; ok {
		return info.name
	}
	return fmt.Sprintf("affiliate(%d)", int(a))
}

// MarshalText encodes a by name.
func (a Affiliate) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAffiliate, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes a name produced by MarshalText.
func (a *Affiliate) UnmarshalText(b []byte) error {
	v, err := ParseAffiliate(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAffiliate maps a case-insensitive affiliate name to its value.
// "native" is accepted as a shorthand for tapp_native.
func ParseAffiliate(s string) (Affiliate, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "native" {
		return AffiliateTappNative, nil
	}
	for a, info := range affiliates {
		if info.name == name {
			return a, nil
		}
	}
	return AffiliateUnknown, fmt.Errorf("%w: %q", ErrUnknownAffiliate, s)
}

// Environment selects the backend the SDK talks to.
type Environment string

const (
	// EnvironmentProduction targets the production backend.
	EnvironmentProduction Environment = "PRODUCTION"
	// EnvironmentSandbox targets the staging backend.
	EnvironmentSandbox Environment = "SANDBOX"
)

// ErrUnknownEnvironment is returned by ParseEnvironment for unrecognized input.
var ErrUnknownEnvironment = errors.New("tapp(apis): unknown environment")

// ParseEnvironment accepts production|prod|sandbox|staging in any case.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return EnvironmentProduction, nil
	case "sandbox", "staging":
		return EnvironmentSandbox, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
}

// UnmarshalText lets config files spell the environment loosely.
func (e *Environment) UnmarshalText(b []byte) error {
	v, err := ParseEnvironment(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
