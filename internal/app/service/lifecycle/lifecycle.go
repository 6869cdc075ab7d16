// Package lifecycle maps provider webhook events onto account-status
// transitions. Apply is a pure function: it decides which columns change
// and leaves all persistence to the caller.
//
// Events are applied against whatever status is stored at processing
// time. The provider may redeliver out of order, so a stale RENEWAL
// arriving after a CANCELLATION will still stamp last_payment_date; the
// feed gives no ordering guarantee and no monotonicity guard is applied
// here.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/fatflowers/memberhub/internal/models"
	"github.com/fatflowers/memberhub/pkg/types"
)

// ErrUnknownEventType rejects event types outside the closed enum. The
// message is part of the webhook response contract.
var ErrUnknownEventType = errors.New("Unknown event type")

// Mutation is one account's pending change: the column set handed to the
// store adapter as a partial update.
type Mutation struct {
	AccountID string
	Updates   map[string]any
}

// Outcome is the full effect of one event. Target is nil for events that
// touch no account (TEST, events against deleted accounts); Source is
// non-nil only for TRANSFER events with a resolvable source account.
// Source must be applied before Target.
type Outcome struct {
	Target *Mutation
	Source *Mutation
}

// Touches reports whether the outcome mutates any account.
func (o *Outcome) Touches() bool {
	return o != nil && (o.Target != nil || o.Source != nil)
}

// Apply computes the transition for event against the current target
// account. source is only consulted for TRANSFER and may be nil when the
// event names no source or the source account does not exist. now stamps
// payment dates.
func Apply(event *types.WebhookEvent, target *models.Account, source *models.Account, now time.Time) (*Outcome, error) {
	out := &Outcome{}

	switch event.Type {
	case types.EventTypeTest:
		// Audit-logged only, no account touched.
		return out, nil

	case types.EventTypeInitialPurchase, types.EventTypeNonRenewingPurchase:
		out.Target = mutate(target, map[string]any{
			"status":            types.AccountStatusActive,
			"subscription_id":   subscriptionID(event),
			"last_payment_date": now,
		})
		if event.ProductID != "" {
			addUpdate(out.Target, "product_id", lo.ToPtr(event.ProductID))
		}
		if t := types.MsToTime(event.ExpirationAtMs); t != nil {
			addUpdate(out.Target, "subscription_expires_date", t)
		}

	case types.EventTypeRenewal:
		// Status unchanged; only the payment date moves.
		out.Target = mutate(target, map[string]any{
			"last_payment_date": now,
		})

	case types.EventTypeProductChange:
		// Status unchanged; the account now maps to a different product.
		out.Target = mutate(target, map[string]any{
			"product_id": lo.ToPtr(event.ProductID),
		})

	case types.EventTypeCancellation:
		out.Target = mutate(target, map[string]any{
			"status": types.AccountStatusCanceled,
		})

	case types.EventTypeUncancellation:
		out.Target = mutate(target, map[string]any{
			"status": types.AccountStatusActive,
		})

	case types.EventTypeSubscriptionPaused:
		out.Target = mutate(target, map[string]any{
			"status":           types.AccountStatusPaused,
			"auto_resume_date": types.MsToTime(event.AutoResumeAtMs),
		})

	case types.EventTypeSubscriptionExtended:
		out.Target = mutate(target, map[string]any{
			"status":                    types.AccountStatusActive,
			"subscription_expires_date": types.MsToTime(event.ExpirationAtMs),
		})

	case types.EventTypeBillingIssue:
		out.Target = mutate(target, map[string]any{
			"status":                    types.AccountStatusPastDue,
			"grace_period_expires_date": types.MsToTime(event.GracePeriodExpirationAtMs),
		})

	case types.EventTypeExpiration:
		out.Target = mutate(target, map[string]any{
			"status": types.AccountStatusFrozen,
		})

	case types.EventTypeTransfer:
		// Source loses the subscription, target picks it up. With no
		// resolvable source this degrades to a target-only activation.
		if source != nil {
			out.Source = mutate(source, map[string]any{
				"status":          types.AccountStatusFrozen,
				"subscription_id": (*string)(nil),
			})
		}
		out.Target = mutate(target, map[string]any{
			"status":          types.AccountStatusActive,
			"subscription_id": subscriptionID(event),
		})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type)
	}

	return out, nil
}

// mutate builds a Mutation unless the account is terminal. Deleted
// accounts accept events but never change.
func mutate(acct *models.Account, updates map[string]any) *Mutation {
	if acct == nil || acct.Status.Terminal() {
		return nil
	}
	return &Mutation{AccountID: acct.ID, Updates: updates}
}

func addUpdate(m *Mutation, column string, value any) {
	if m == nil {
		return
	}
	m.Updates[column] = value
}

func subscriptionID(event *types.WebhookEvent) *string {
	if event.SubscriptionID != "" {
		return lo.ToPtr(event.SubscriptionID)
	}
	if event.ProductID != "" {
		return lo.ToPtr(event.ProductID)
	}
	return nil
}
