package types

import "time"

// EventType enumerates the subscription lifecycle events the billing
// provider pushes. Anything outside this set is rejected.
type EventType string

const (
	EventTypeTest                 EventType = "TEST"
	EventTypeInitialPurchase      EventType = "INITIAL_PURCHASE"
	EventTypeNonRenewingPurchase  EventType = "NON_RENEWING_PURCHASE"
	EventTypeRenewal              EventType = "RENEWAL"
	EventTypeProductChange        EventType = "PRODUCT_CHANGE"
	EventTypeCancellation         EventType = "CANCELLATION"
	EventTypeUncancellation       EventType = "UNCANCELLATION"
	EventTypeBillingIssue         EventType = "BILLING_ISSUE"
	EventTypeSubscriptionPaused   EventType = "SUBSCRIPTION_PAUSED"
	EventTypeSubscriptionExtended EventType = "SUBSCRIPTION_EXTENDED"
	EventTypeExpiration           EventType = "EXPIRATION"
	EventTypeTransfer             EventType = "TRANSFER"
)

// WebhookEvent is the provider's wire format for a single lifecycle
// event. ID is provider-assigned and doubles as the idempotency key;
// AppUserID identifies the account the event is about. Timestamps are
// epoch milliseconds, matching the provider.
type WebhookEvent struct {
	ID                        string    `json:"id"`
	Type                      EventType `json:"type"`
	AppUserID                 string    `json:"app_user_id"`
	SubscriptionID            string    `json:"subscription_id"`
	ProductID                 string    `json:"product_id"`
	Price                     float64   `json:"price"`
	Currency                  string    `json:"currency"`
	EventTimestampMs          int64     `json:"event_timestamp_ms"`
	PurchasedAtMs             int64     `json:"purchased_at_ms"`
	ExpirationAtMs            int64     `json:"expiration_at_ms"`
	GracePeriodExpirationAtMs int64     `json:"grace_period_expiration_at_ms"`
	AutoResumeAtMs            int64     `json:"auto_resume_at_ms"`
	TransferredFrom           []string  `json:"transferred_from"`
	TransferredTo             []string  `json:"transferred_to"`
}

// MsToTime converts a provider epoch-millisecond timestamp to a *time.Time,
// returning nil for the zero value the provider uses for "absent".
func MsToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
