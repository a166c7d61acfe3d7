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

// AffiliateURLRequest asks the backend to mint an influencer URL.
type AffiliateURLRequest struct {
	Influencer string            `json:"influencer" validate:"required"`
	AdGroup    string            `json:"adgroup,omitempty"`
	Creative   string            `json:"creative,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// AffiliateURLResponse carries the generated influencer URL.
type AffiliateURLResponse struct {
	Error         bool   `json:"error"`
	Message       string `json:"message"`
	InfluencerURL string `json:"influencer_url"`
}

// LinkDataResponse is the attribution payload delivered to the Delegate.
type LinkDataResponse struct {
	Error          bool              `json:"error"`
	Message        string            `json:"message"`
	TappURL        string            `json:"tapp_url,omitempty"`
	AttrTappURL    string            `json:"attr_tapp_url,omitempty"`
	Influencer     string            `json:"influencer,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	IsFirstSession bool              `json:"is_first_session"`
	// DeepLink is set on the native path only.
	DeepLink string `json:"deeplink,omitempty"`
}

// ErrorLinkData builds the failure-shaped LinkDataResponse.
func ErrorLinkData(message string) LinkDataResponse {
	return LinkDataResponse{Error: true, Message: message}
}

// DeferredLinkRequest is the fingerprint payload used on cold installs.
// Absent signals stay empty and are omitted from the request body.
type DeferredLinkRequest struct {
	AdvertisingID      string
	Platform           string
	OSVersion          string
	DeviceModel        string
	DeviceManufacturer string
	ScreenResolution   string
	ScreenDensity      float64
	Locale             string
	Timezone           string
	InstallReferrer    string
	ClickID            string
	DeviceID           string
	BatteryLevel       int
	IsCharging         bool
	TotalRAMBytes      int64
	TotalStorageBytes  int64
	AvailStorageBytes  int64
	DeviceUptimeMillis int64
}

// DeferredLinkResponse is the fingerprint-match result.
type DeferredLinkResponse struct {
	DeepLink    string            `json:"deeplink,omitempty"`
	TappURL     string            `json:"tapp_url,omitempty"`
	AttrTappURL string            `json:"attr_tapp_url,omitempty"`
	Influencer  string            `json:"influencer,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Error       bool              `json:"error"`
	Message     string            `json:"message,omitempty"`
}

// URL returns the link to attribute: the deep link, else the tapp URL.
func (r DeferredLinkResponse) URL() string {
	if r.DeepLink != "" {
		return r.DeepLink
	}
	return r.TappURL
}

// SecretsResponse carries the server-issued app token.
type SecretsResponse struct {
	Secret string `json:"secret"`
}

// ImpressionResponse is the acknowledgement of a deeplink report.
type ImpressionResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// ResolutionFailure is handed to Delegate.OnResolutionFailed.
type ResolutionFailure struct {
	Error string `json:"error"`
	URL   string `json:"url"`
}
