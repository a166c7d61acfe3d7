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

import "log/slog"

// Configuration is the single persisted record describing one install.
// It is treated as a value: mutations go through config.Merge and a Store.Save.
type Configuration struct {
	// AuthToken authorizes every backend call (Bearer token).
	AuthToken string `json:"auth_token"`
	// Environment selects the backend base URL.
	Environment Environment `json:"env"`
	// ProjectToken is the tapp token that identifies the project.
	ProjectToken string `json:"tapp_token"`
	// Affiliate is the active measurement partner.
	Affiliate Affiliate `json:"affiliate"`
	// BundleID is the application package identifier.
	BundleID string `json:"bundle_id,omitempty"`
	// DeviceID is the platform device identifier.
	DeviceID string `json:"android_id,omitempty"`
	// AppToken is the server-issued secret. Empty until bootstrap succeeds.
	AppToken string `json:"app_token,omitempty"`
	// HasProcessedReferralEngine becomes true once and never reverts.
	HasProcessedReferralEngine bool `json:"has_processed_referral_engine"`
	// DeepLinkURL is the last URL that was attributed.
	DeepLinkURL string `json:"deep_link_url,omitempty"`
	// LinkToken is the token extracted from DeepLinkURL.
	LinkToken string `json:"link_token,omitempty"`
}

// HasSecret reports whether the secret has been fetched.
func (c Configuration) HasSecret() bool { return c.AppToken != "" }

// External returns the view exposed to the embedding application.
func (c Configuration) External() ExternalConfiguration {
	return ExternalConfiguration{
		AuthToken:                  c.AuthToken,
		Environment:                c.Environment,
		ProjectToken:               c.ProjectToken,
		Affiliate:                  c.Affiliate,
		BundleID:                   c.BundleID,
		AppToken:                   c.AppToken,
		HasProcessedReferralEngine: c.HasProcessedReferralEngine,
		DeepLinkURL:                c.DeepLinkURL,
		LinkToken:                  c.LinkToken,
	}
}

// LogValue masks credentials so the record can be logged as is.
func (c Configuration) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("auth_token", mask(c.AuthToken)),
		slog.String("env", string(c.Environment)),
		slog.String("tapp_token", c.ProjectToken),
		slog.String("affiliate", c.Affiliate.String()),
		slog.String("bundle_id", orNotSet(c.BundleID)),
		slog.String("android_id", orNotSet(c.DeviceID)),
		slog.String("app_token", mask(c.AppToken)),
		slog.Bool("has_processed_referral_engine", c.HasProcessedReferralEngine),
		slog.String("deep_link_url", orNotSet(c.DeepLinkURL)),
		slog.String("link_token", orNotSet(c.LinkToken)),
	)
}

// ExternalConfiguration is Configuration without the device identifier.
type ExternalConfiguration struct {
	AuthToken                  string      `json:"auth_token"`
	Environment                Environment `json:"env"`
	ProjectToken               string      `json:"tapp_token"`
	Affiliate                  Affiliate   `json:"affiliate"`
	BundleID                   string      `json:"bundle_id,omitempty"`
	AppToken                   string      `json:"app_token,omitempty"`
	HasProcessedReferralEngine bool        `json:"has_processed_referral_engine"`
	DeepLinkURL                string      `json:"deep_link_url,omitempty"`
	LinkToken                  string      `json:"link_token,omitempty"`
}

// ConfigPatch is a partial update. Nil fields leave the stored value untouched.
type ConfigPatch struct {
	AuthToken                  *string
	Environment                *Environment
	ProjectToken               *string
	Affiliate                  *Affiliate
	BundleID                   *string
	DeviceID                   *string
	AppToken                   *string
	HasProcessedReferralEngine *bool
	DeepLinkURL                *string
	LinkToken                  *string
}

// StartOptions are the inputs of Engine.Start. They overwrite the stored
// values on every call.
type StartOptions struct {
	AuthToken    string      `yaml:"auth_token" validate:"required"`
	Environment  Environment `yaml:"environment" validate:"required,oneof=PRODUCTION SANDBOX"`
	ProjectToken string      `yaml:"project_token" validate:"required"`
	Affiliate    Affiliate   `yaml:"affiliate" validate:"required,min=1,max=4"`
}

// Patch converts s into the patch applied by Start.
func (s StartOptions) Patch() ConfigPatch {
	return ConfigPatch{
		AuthToken:    &s.AuthToken,
		Environment:  &s.Environment,
		ProjectToken: &s.ProjectToken,
		Affiliate:    &s.Affiliate,
	}
}

func mask(s string) string {
	switch {
	case s == "":
		return "Not Set"
	case len(s) <= 4:
		return "****"
	default:
		return s[:4] + "****"
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "Not Set"
	}
	return s
}
