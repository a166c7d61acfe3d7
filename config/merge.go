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

package config

import "tapp.so/tapp/apis"

// Merge returns old with every non-nil field of patch applied.
// HasProcessedReferralEngine only ever moves from false to true.
func Merge(old apis.Configuration, patch apis.ConfigPatch) apis.Configuration {
	next := old
	setString(&next.AuthToken, patch.AuthToken)
	setString(&next.ProjectToken, patch.ProjectToken)
	setString(&next.BundleID, patch.BundleID)
	setString(&next.DeviceID, patch.DeviceID)
	setString(&next.AppToken, patch.AppToken)
	setString(&next.DeepLinkURL, patch.DeepLinkURL)
	setString(&next.LinkToken, patch.LinkToken)
	if patch.Environment != nil {
		next.Environment = *patch.Environment
	}
	if patch.Affiliate != nil {
		next.Affiliate = *patch.Affiliate
	}
	if patch.HasProcessedReferralEngine != nil {
		next.HasProcessedReferralEngine = old.HasProcessedReferralEngine || *patch.HasProcessedReferralEngine
	}
	return next
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
