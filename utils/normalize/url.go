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

package normalize

import (
	"net/url"
	"strings"

	"tapp.so/tapp/apis"
)

// QueryParam returns the first non-empty value of key in rawURL's query.
// Custom schemes (myapp://open?x=1) are supported.
func QueryParam(rawURL, key string) (string, bool) {
	if rawURL == "" || key == "" {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	v := u.Query().Get(key)
	if v == "" {
		return "", false
	}
	return v, true
}

// LinkToken extracts the link token for affiliate a from rawURL.
func LinkToken(rawURL string, a apis.Affiliate) (string, bool) {
	return QueryParam(rawURL, a.TokenKey())
}

// ClickID extracts click_id from an install referrer. The referrer is either
// a bare query string ("utm_source=x&click_id=y") or a store URL whose
// "referrer" parameter holds that query string.
func ClickID(referrer string) (string, bool) {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return "", false
	}
	query := referrer
	if i := strings.IndexByte(referrer, '?'); i >= 0 {
		query = referrer[i+1:]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", false
	}
	if id := values.Get("click_id"); id != "" {
		return id, true
	}
	if nested := values.Get("referrer"); nested != "" && nested != referrer {
		return ClickID(nested)
	}
	return "", false
}
