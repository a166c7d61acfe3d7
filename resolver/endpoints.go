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

package resolver

import (
	"strings"

	"tapp.so/tapp/apis"
	"tapp.so/tapp/utils/normalize"
)

// Backend paths, relative to the environment base URL.
const (
	PathSecrets       = "secrets"
	PathDeeplink      = "deeplink"
	PathLinkData      = "linkData"
	PathEvent         = "event"
	PathFingerprint   = "fingerprint"
	PathInfluencerAdd = "influencer/add"
)

// BaseURL returns the backend root for env without a trailing slash.
// Anything other than SANDBOX selects production.
func BaseURL(opts apis.Options, env apis.Environment) string {
	base := opts.ProductionBaseURL
	if env == apis.EnvironmentSandbox {
		base = opts.SandboxBaseURL
	}
	return strings.TrimRight(base, "/")
}

// SecretsEndpoint builds the secrets fetch.
func SecretsEndpoint(opts apis.Options, cfg apis.Configuration) apis.Endpoint {
	body := baseBody(cfg)
	body["mmp"] = cfg.Affiliate.MMP()
	return endpoint(opts, cfg, PathSecrets, body)
}

// DeeplinkEndpoint builds the impression report for deeplink.
func DeeplinkEndpoint(opts apis.Options, cfg apis.Configuration, deeplink string) apis.Endpoint {
	body := baseBody(cfg)
	body["android_id"] = cfg.DeviceID
	body["deeplink"] = deeplink
	body["mmp"] = cfg.Affiliate.MMP()
	return endpoint(opts, cfg, PathDeeplink, body)
}

// LinkDataEndpoint builds the link data lookup for linkToken.
func LinkDataEndpoint(opts apis.Options, cfg apis.Configuration, linkToken string) apis.Endpoint {
	body := baseBody(cfg)
	body["link_token"] = linkToken
	return endpoint(opts, cfg, PathLinkData, body)
}

// EventEndpoint builds a Tapp event report. Metadata is sanitized; the
// dropped entries are returned for diagnostics.
func EventEndpoint(opts apis.Options, cfg apis.Configuration, ev apis.Event) (apis.Endpoint, []normalize.Dropped) {
	body := baseBody(cfg)
	body["event_name"] = string(ev.Action)
	body["event_url"] = cfg.DeepLinkURL
	meta, dropped := normalize.SanitizeMetadata(ev.Metadata)
	if len(meta) > 0 {
		body["metadata"] = meta
	}
	return endpoint(opts, cfg, PathEvent, body), dropped
}

// FingerprintEndpoint builds the deferred link lookup. Absent signals are omitted.
func FingerprintEndpoint(opts apis.Options, cfg apis.Configuration, req apis.DeferredLinkRequest) apis.Endpoint {
	body := baseBody(cfg)
	body["fp"] = true
	body["platform"] = req.Platform
	body["os_version"] = req.OSVersion
	body["device_model"] = req.DeviceModel
	body["device_manufacturer"] = req.DeviceManufacturer
	body["screen_resolution"] = req.ScreenResolution
	body["screen_density"] = req.ScreenDensity
	body["locale"] = req.Locale
	body["timezone"] = req.Timezone
	body["battery_level"] = req.BatteryLevel
	body["is_charging"] = req.IsCharging
	body["total_ram_bytes"] = req.TotalRAMBytes
	body["total_storage_bytes"] = req.TotalStorageBytes
	body["avail_storage_bytes"] = req.AvailStorageBytes
	body["device_uptime_ms"] = req.DeviceUptimeMillis
	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = cfg.DeviceID
	}
	setIfPresent(body, "android_id", deviceID)
	setIfPresent(body, "advertising_id", req.AdvertisingID)
	setIfPresent(body, "install_referrer", req.InstallReferrer)
	setIfPresent(body, "click_id", req.ClickID)
	return endpoint(opts, cfg, PathFingerprint, body)
}

// GenerateURLEndpoint builds the influencer URL request.
func GenerateURLEndpoint(opts apis.Options, cfg apis.Configuration, req apis.AffiliateURLRequest) apis.Endpoint {
	body := baseBody(cfg)
	body["mmp"] = cfg.Affiliate.MMP()
	body["influencer"] = req.Influencer
	setIfPresent(body, "adgroup", req.AdGroup)
	setIfPresent(body, "creative", req.Creative)
	if len(req.Data) > 0 {
		data := make(map[string]string, len(req.Data))
		for k, v := range req.Data {
			data[k] = v
		}
		body["data"] = data
	}
	return endpoint(opts, cfg, PathInfluencerAdd, body)
}

func endpoint(opts apis.Options, cfg apis.Configuration, path string, body map[string]any) apis.Endpoint {
	return apis.Endpoint{
		URL: BaseURL(opts, cfg.Environment) + "/" + path,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + cfg.AuthToken,
		},
		Body: body,
	}
}

func baseBody(cfg apis.Configuration) map[string]any {
	return map[string]any{
		"tapp_token": cfg.ProjectToken,
		"bundle_id":  cfg.BundleID,
	}
}

func setIfPresent(body map[string]any, key, value string) {
	if value != "" {
		body[key] = value
	}
}
