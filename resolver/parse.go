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
	"bytes"
	"encoding/json"
	"strconv"

	"tapp.so/tapp/apis"
)

// status is the common envelope. A missing error field decodes to nil,
// which every parser treats as an error.
type status struct {
	Error   *bool   `json:"error"`
	Message *string `json:"message"`
}

func (s status) failed() bool { return s.Error == nil || *s.Error }

func (s status) message(fallback string) string {
	if s.Message == nil || *s.Message == "" {
		return fallback
	}
	return *s.Message
}

type secretsWire struct {
	Secret string `json:"secret"`
}

type linkDataWire struct {
	status
	TappURL     string         `json:"tapp_url"`
	AttrTappURL string         `json:"attr_tapp_url"`
	Influencer  string         `json:"influencer"`
	Data        map[string]any `json:"data"`
}

type deferredWire struct {
	status
	DeepLink    string         `json:"deeplink"`
	TappURL     string         `json:"tapp_url"`
	AttrTappURL string         `json:"attr_tapp_url"`
	Influencer  string         `json:"influencer"`
	Data        map[string]any `json:"data"`
	Fingerprint string         `json:"fingerprint"`
}

type affiliateURLWire struct {
	status
	InfluencerURL string `json:"influencer_url"`
}

func decode(op string, raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apis.InvalidResponse("%s: %v", op, err)
	}
	return nil
}

// ParseSecrets decodes a secrets response. An empty secret is invalid.
func ParseSecrets(raw []byte) (apis.SecretsResponse, error) {
	var w secretsWire
	if err := decode(PathSecrets, raw, &w); err != nil {
		return apis.SecretsResponse{}, err
	}
	if w.Secret == "" {
		return apis.SecretsResponse{}, apis.InvalidResponse("%s: missing secret", PathSecrets)
	}
	return apis.SecretsResponse{Secret: w.Secret}, nil
}

// ParseStatus decodes an error/message acknowledgement.
func ParseStatus(op string, raw []byte) (apis.ImpressionResponse, error) {
	var w status
	if err := decode(op, raw, &w); err != nil {
		return apis.ImpressionResponse{}, err
	}
	return apis.ImpressionResponse{Error: w.failed(), Message: w.message("")}, nil
}

// ParseLinkData decodes a link data response.
func ParseLinkData(raw []byte) (apis.LinkDataResponse, error) {
	var w linkDataWire
	if err := decode(PathLinkData, raw, &w); err != nil {
		return apis.LinkDataResponse{}, err
	}
	return apis.LinkDataResponse{
		Error:       w.failed(),
		Message:     w.message("Ok"),
		TappURL:     w.TappURL,
		AttrTappURL: w.AttrTappURL,
		Influencer:  w.Influencer,
		Data:        stringify(w.Data),
	}, nil
}

// ParseDeferredLink decodes a fingerprint response. An empty body or JSON
// null yields nil with no error: the server had nothing to say.
func ParseDeferredLink(raw []byte) (*apis.DeferredLinkResponse, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var w deferredWire
	if err := decode(PathFingerprint, trimmed, &w); err != nil {
		return nil, err
	}
	return &apis.DeferredLinkResponse{
		DeepLink:    w.DeepLink,
		TappURL:     w.TappURL,
		AttrTappURL: w.AttrTappURL,
		Influencer:  w.Influencer,
		Data:        stringify(w.Data),
		Fingerprint: w.Fingerprint,
		Error:       w.failed(),
		Message:     w.message(""),
	}, nil
}

// ParseAffiliateURL decodes an influencer/add response.
func ParseAffiliateURL(raw []byte) (apis.AffiliateURLResponse, error) {
	var w affiliateURLWire
	if err := decode(PathInfluencerAdd, raw, &w); err != nil {
		return apis.AffiliateURLResponse{}, err
	}
	return apis.AffiliateURLResponse{
		Error:         w.failed(),
		Message:       w.message("Unknown error"),
		InfluencerURL: w.InfluencerURL,
	}, nil
}

// stringify flattens JSON values to strings: strings as is, null as "",
// everything else as its JSON text.
func stringify(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch x := v.(type) {
		case string:
			out[k] = x
		case nil:
			out[k] = ""
		case bool:
			out[k] = strconv.FormatBool(x)
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			b, err := json.Marshal(x)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
