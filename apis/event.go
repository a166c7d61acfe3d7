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

import "errors"

// EventAction names a Tapp event. Predefined actions use the tapp_ prefix;
// anything else is sent verbatim as a custom event.
type EventAction string

// Predefined event actions.
const (
	EventAddPaymentInfo       EventAction = "tapp_add_payment_info"
	EventAddToCart            EventAction = "tapp_add_to_cart"
	EventAddToWishlist        EventAction = "tapp_add_to_wishlist"
	EventCompleteRegistration EventAction = "tapp_complete_registration"
	EventContact              EventAction = "tapp_contact"
	EventCustomizeProduct     EventAction = "tapp_customize_product"
	EventDonate               EventAction = "tapp_donate"
	EventFindLocation         EventAction = "tapp_find_location"
	EventInitiateCheckout     EventAction = "tapp_initiate_checkout"
	EventGenerateLead         EventAction = "tapp_generate_lead"
	EventPurchase             EventAction = "tapp_purchase"
	EventSchedule             EventAction = "tapp_schedule"
	EventSearch               EventAction = "tapp_search"
	EventStartTrial           EventAction = "tapp_start_trial"
	EventSubmitApplication    EventAction = "tapp_submit_application"
	EventSubscribe            EventAction = "tapp_subscribe"
	EventViewContent          EventAction = "tapp_view_content"
	EventClickButton          EventAction = "tapp_click_button"
	EventDownloadFile         EventAction = "tapp_download_file"
	EventJoinGroup            EventAction = "tapp_join_group"
	EventAchieveLevel         EventAction = "tapp_achieve_level"
	EventCreateGroup          EventAction = "tapp_create_group"
	EventCreateRole           EventAction = "tapp_create_role"
	EventLinkClick            EventAction = "tapp_link_click"
	EventLinkImpression       EventAction = "tapp_link_impression"
	EventApplyForLoan         EventAction = "tapp_apply_for_loan"
	EventLoanApproval         EventAction = "tapp_loan_approval"
	EventLoanDisbursal        EventAction = "tapp_loan_disbursal"
	EventLogin                EventAction = "tapp_login"
	EventRate                 EventAction = "tapp_rate"
	EventSpendCredits         EventAction = "tapp_spend_credits"
	EventUnlockAchievement    EventAction = "tapp_unlock_achievement"
	EventAddShippingInfo      EventAction = "tapp_add_shipping_info"
	EventEarnVirtualCurrency  EventAction = "tapp_earn_virtual_currency"
	EventStartLevel           EventAction = "tapp_start_level"
	EventCompleteLevel        EventAction = "tapp_complete_level"
	EventPostScore            EventAction = "tapp_post_score"
	EventSelectContent        EventAction = "tapp_select_content"
	EventBeginTutorial        EventAction = "tapp_begin_tutorial"
	EventCompleteTutorial     EventAction = "tapp_complete_tutorial"
)

// ErrEmptyEventName is returned for an event without a name.
var ErrEmptyEventName = errors.New("tapp(apis): empty event name")

// Custom returns a custom event action. The name is sent as given.
func Custom(name string) EventAction { return EventAction(name) }

// Event is a Tapp event report.
type Event struct {
	// Action is the event name.
	Action EventAction
	// Metadata is optional; unsupported values are dropped before sending.
	Metadata map[string]any
}

// Validate rejects events that cannot be reported.
func (e Event) Validate() error {
	if e.Action == "" {
		return ErrEmptyEventName
	}
	return nil
}
