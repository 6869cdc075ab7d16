// Package webhook turns signed provider deliveries into account-status
// transitions, exactly once per event id.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/memberhub/internal/app/service/account"
	"github.com/fatflowers/memberhub/internal/app/service/eventlog"
	"github.com/fatflowers/memberhub/internal/app/service/lifecycle"
	"github.com/fatflowers/memberhub/internal/models"
	"github.com/fatflowers/memberhub/pkg/config"
	"github.com/fatflowers/memberhub/pkg/logctx"
	"github.com/fatflowers/memberhub/pkg/metrics"
	"github.com/fatflowers/memberhub/pkg/types"
)

type Handler struct {
	cfg      *config.Config
	accounts *account.Service
	events   *eventlog.Service
	Logger   *zap.SugaredLogger
}

func NewHandler(cfg *config.Config, accounts *account.Service, events *eventlog.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{cfg: cfg, accounts: accounts, events: events, Logger: log}
}

// SignatureHeader is the request header carrying the provider signature.
func (h *Handler) SignatureHeader() string {
	return h.cfg.RevenueCat.SignatureHeader
}

// HandleDelivery runs the full pipeline for one delivery attempt:
// verify -> parse -> claim -> transition -> finalize.
//
// Redelivery of an already-applied event returns nil without touching
// the account. An unauthenticated request leaves no audit trace. Every
// other signature-valid event ends with exactly one log row whose
// success flag matches whether the transition was applied.
func (h *Handler) HandleDelivery(ctx context.Context, raw []byte, signature string) error {
	// Raw bytes first; the body is untrusted until the HMAC checks out.
	if !VerifySignature(raw, signature, []byte(h.cfg.RevenueCat.WebhookSecret)) {
		metrics.WebhookEventObserve("", metrics.WebhookOutcomeRejected)
		return ErrInvalidSignature
	}

	ev, err := ParseEvent(raw)
	if err != nil {
		metrics.WebhookEventObserve("", metrics.WebhookOutcomeRejected)
		return err
	}

	log := logctx.FromCtx(ctx, h.Logger).With("event_id", ev.ID, "event_type", ev.Type)

	// Bound total processing time; a deadline hit between claim and
	// finalize leaves an abandoned claim that a later redelivery reclaims.
	ctx, cancel := context.WithTimeout(ctx, h.cfg.RevenueCat.RequestTimeout)
	defer cancel()

	// Claiming the log row before applying is the mutex substitute
	// scoped to this event id: the atomic insert admits exactly one
	// delivery, so concurrent duplicates never both reach the account.
	state, err := h.events.Claim(ctx, ev, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if state == eventlog.ClaimReplay {
		log.Infow("webhook_event_replayed")
		metrics.WebhookEventObserve(string(ev.Type), metrics.WebhookOutcomeReplayed)
		return nil
	}

	procErr := h.process(ctx, ev)

	var result *datatypes.JSON
	if procErr != nil {
		resBytes, _ := json.Marshal(map[string]any{
			"error":     procErr.Error(),
			"retryable": Retryable(procErr),
		})
		result = lo.ToPtr(datatypes.JSON(resBytes))
	}

	recorded, markErr := h.events.Finalize(ctx, ev, procErr == nil, result)
	if markErr != nil {
		// Outcome not durably recorded; report transient so the provider
		// redelivers against the still-open claim.
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, markErr)
	}
	if !recorded {
		// The claim stalled past its TTL, was taken over, and the rival
		// delivery already recorded success.
		log.Infow("webhook_event_replayed", "race", true)
		metrics.WebhookEventObserve(string(ev.Type), metrics.WebhookOutcomeReplayed)
		return nil
	}
	if procErr != nil {
		log.Errorw("webhook_event_failed", "error", procErr.Error(), "retryable", Retryable(procErr))
		return procErr
	}

	log.Infow("webhook_event_applied")
	metrics.WebhookEventObserve(string(ev.Type), metrics.WebhookOutcomeApplied)
	return nil
}

// process validates the event and applies its transition. It performs no
// audit writes; HandleDelivery records the outcome either way.
func (h *Handler) process(ctx context.Context, ev *types.WebhookEvent) error {
	if strings.TrimSpace(ev.AppUserID) == "" {
		return fmt.Errorf("%w (event %s)", ErrMissingAppUserID, ev.ID)
	}

	// TEST events are audit-logged only; no account is touched.
	if ev.Type == types.EventTypeTest {
		return nil
	}

	target, err := h.accounts.Get(ctx, ev.AppUserID)
	if err != nil {
		return h.storeErr(err)
	}

	var source *models.Account
	if ev.Type == types.EventTypeTransfer && len(ev.TransferredFrom) > 0 {
		src, err := h.accounts.Get(ctx, ev.TransferredFrom[0])
		switch {
		case err == nil:
			source = src
		case errors.Is(err, account.ErrAccountNotFound):
			// Freezing a nonexistent source is a no-op; apply target-only.
			logctx.FromCtx(ctx, h.Logger).Warnw("transfer_source_missing",
				"event_id", ev.ID, "source_id", ev.TransferredFrom[0])
		default:
			// Fail closed: never activate the target when the source
			// lookup itself failed.
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	out, err := lifecycle.Apply(ev, target, source, time.Now())
	if err != nil {
		return err
	}

	// Source first, so the subscription is never live on two accounts.
	if out.Source != nil {
		if err := h.accounts.Update(ctx, out.Source.AccountID, out.Source.Updates); err != nil {
			return h.storeErr(err)
		}
	}
	if out.Target != nil {
		if err := h.accounts.Update(ctx, out.Target.AccountID, out.Target.Updates); err != nil {
			return h.storeErr(err)
		}
	}
	return nil
}

// storeErr keeps not-found as a permanent business rejection and folds
// everything else into the retryable store-unavailable class.
func (h *Handler) storeErr(err error) error {
	if errors.Is(err, account.ErrAccountNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
