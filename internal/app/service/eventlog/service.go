// Package eventlog owns the durable webhook event log. One table serves
// two roles: dedupe ledger (unique event_id, atomic insert) and audit
// trail (verbatim payload plus outcome for every signature-valid event).
// Rows are never deleted here; retention is an external concern.
package eventlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/memberhub/internal/models"
	"github.com/fatflowers/memberhub/pkg/logctx"
	"github.com/fatflowers/memberhub/pkg/metrics"
	"github.com/fatflowers/memberhub/pkg/tool"
	"github.com/fatflowers/memberhub/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// ClaimState is the outcome of Claim for one delivery attempt.
type ClaimState int

const (
	// ClaimAcquired: this delivery owns the event id and must apply the
	// transition, then Finalize.
	ClaimAcquired ClaimState = iota
	// ClaimReplay: the event is already applied, or another delivery
	// holds a live claim and will record the outcome. Respond success
	// without touching the account.
	ClaimReplay
)

// claimTTL bounds how long an unfinalized claim shields its event id
// from other deliveries. It must exceed the webhook request deadline so
// only a claim abandoned by a crashed attempt is ever taken over.
const claimTTL = 30 * time.Second

// Claim admits at most one live delivery per event id. The atomic
// INSERT .. ON CONFLICT(event_id) DO NOTHING is the arbiter between
// concurrent deliveries: exactly one inserts the claim row and proceeds
// to apply the transition; rivals observe the conflict and exit as
// replays. A finalized failure is reclaimed immediately so the
// provider's redelivery can retry it; an abandoned claim is reclaimed
// after claimTTL, guarded by the updated_at read so rival takeovers
// also resolve to a single winner.
func (s *Service) Claim(ctx context.Context, ev *types.WebhookEvent, payload []byte) (ClaimState, error) {
	row := &models.WebhookEventLog{
		ID:         tool.GenerateUUIDV7(),
		EventID:    ev.ID,
		EventType:  string(ev.Type),
		Success:    false,
		Payload:    datatypes.JSON(payload),
		ReceivedAt: time.Now(),
	}
	if id := strings.TrimSpace(ev.AppUserID); id != "" {
		row.AccountID = lo.ToPtr(id)
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(row)
	if res.Error != nil {
		return ClaimReplay, fmt.Errorf("failed to claim webhook event %s: %w", ev.ID, res.Error)
	}
	if res.RowsAffected > 0 {
		return ClaimAcquired, nil
	}

	var existing models.WebhookEventLog
	if err := s.db.WithContext(ctx).Where("event_id = ?", ev.ID).First(&existing).Error; err != nil {
		return ClaimReplay, fmt.Errorf("failed to load webhook event %s: %w", ev.ID, err)
	}
	if existing.Success {
		return ClaimReplay, nil
	}
	// Result is null while a claim is in flight and set once finalized.
	if existing.Result == nil && time.Since(existing.UpdatedAt) < claimTTL {
		return ClaimReplay, nil
	}

	take := s.db.WithContext(ctx).
		Model(&models.WebhookEventLog{}).
		Where("event_id = ? AND success = ? AND updated_at = ?", ev.ID, false, existing.UpdatedAt).
		Updates(map[string]any{
			"result":      nil,
			"payload":     row.Payload,
			"received_at": row.ReceivedAt,
			"updated_at":  time.Now(),
		})
	if take.Error != nil {
		return ClaimReplay, fmt.Errorf("failed to reclaim webhook event %s: %w", ev.ID, take.Error)
	}
	if take.RowsAffected == 0 {
		// A rival reclaimed it first.
		return ClaimReplay, nil
	}
	return ClaimAcquired, nil
}

// Finalize durably records the outcome on the claimed row. recorded is
// false when the row was meanwhile taken over and finalized successful
// by a rival delivery; the caller must then respond as a replay. A
// success row is immutable either way.
func (s *Service) Finalize(ctx context.Context, ev *types.WebhookEvent, success bool, result *datatypes.JSON) (recorded bool, err error) {
	updates := map[string]any{
		"success":    success,
		"updated_at": time.Now(),
	}
	if result != nil {
		updates["result"] = *result
	} else {
		updates["result"] = nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.WebhookEventLog{}).
		Where("event_id = ? AND success = ?", ev.ID, false).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record webhook event %s: %w", ev.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if !success {
		s.alertFailure(ctx, ev)
	}
	return true, nil
}

// alertFailure feeds the failure side channel without blocking the
// response; only the durable write above is on the critical path.
func (s *Service) alertFailure(ctx context.Context, ev *types.WebhookEvent) {
	e := *ev
	go func() {
		metrics.WebhookEventObserve(string(e.Type), metrics.WebhookOutcomeFailed)
		logctx.FromCtx(ctx, s.log).Warnw("webhook_event_failed",
			"event_id", e.ID,
			"event_type", e.Type,
			"account_id", e.AppUserID,
		)
	}()
}

type ScanEventsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanEventsResponse struct {
	Items []*models.WebhookEventLog `json:"items"`
	Total int64                     `json:"total"`
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// ScanEvents implements the paginated audit-log listing for operational
// triage.
func (s *Service) ScanEvents(ctx context.Context, req *ScanEventsRequest) (*ScanEventsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.WebhookEventLog{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count webhook events: %w", err)
	}

	var rows []*models.WebhookEventLog

	q := tx.Limit(req.Size)

	if req.From > 0 {
		q = q.Offset(req.From)
	}

	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}

	return &ScanEventsResponse{Items: rows, Total: total}, nil
}
