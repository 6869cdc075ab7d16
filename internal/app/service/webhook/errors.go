package webhook

import (
	"errors"

	"github.com/fatflowers/memberhub/internal/app/service/account"
	"github.com/fatflowers/memberhub/internal/app/service/lifecycle"
)

// Sentinel errors for the webhook taxonomy. Messages of the exported
// ones are stable substrings callers match on, so they are part of the
// HTTP contract and must not change.
var (
	// ErrInvalidSignature: request not authenticated by the provider's
	// signing key. Permanent, never audit-logged (the event identity is
	// untrusted).
	ErrInvalidSignature = errors.New("Invalid signature")

	// ErrMalformedPayload: body is not a parseable event. Permanent.
	ErrMalformedPayload = errors.New("Malformed webhook payload")

	// ErrMissingAppUserID: event names no account. Permanent, logged.
	ErrMissingAppUserID = errors.New("Missing user_id")

	// ErrStoreUnavailable: a downstream write or read failed. Transient;
	// the provider's redelivery is expected to succeed later because the
	// event's log entry stays success=false.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Retryable reports whether a delivery failure is transient, i.e. the
// failed audit entry must not block a later redelivery.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Permanent rejection classes, re-exported for callers that switch over
// the taxonomy without importing the producing packages.
var (
	ErrUnknownEventType = lifecycle.ErrUnknownEventType
	ErrAccountNotFound  = account.ErrAccountNotFound
)
