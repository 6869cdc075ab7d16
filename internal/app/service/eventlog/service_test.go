package eventlog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/memberhub/internal/models"
	"github.com/fatflowers/memberhub/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.WebhookEventLog{}))
	return conn
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestDB(t), zap.NewNop().Sugar())
}

func event(id string) *types.WebhookEvent {
	return &types.WebhookEvent{ID: id, Type: types.EventTypeRenewal, AppUserID: "U1"}
}

func failureResult() *datatypes.JSON {
	return lo.ToPtr(datatypes.JSON(`{"error":"Account not found","retryable":false}`))
}

func logRow(t *testing.T, db *gorm.DB, eventID string) models.WebhookEventLog {
	t.Helper()
	var rows []models.WebhookEventLog
	require.NoError(t, db.Where("event_id = ?", eventID).Find(&rows).Error)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestClaim_FirstDeliveryAcquires(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	state, err := svc.Claim(ctx, event("e1"), []byte(`{"id":"e1"}`))
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)

	row := logRow(t, svc.db, "e1")
	assert.False(t, row.Success)
	assert.Nil(t, row.Result)
	require.NotNil(t, row.AccountID)
	assert.Equal(t, "U1", *row.AccountID)
	assert.Equal(t, "RENEWAL", row.EventType)
}

func TestClaim_LiveClaimShieldsEvent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	state, err := svc.Claim(ctx, event("e1"), []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, state)

	// A concurrent duplicate loses the insert race and must not apply.
	state, err = svc.Claim(ctx, event("e1"), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, ClaimReplay, state)

	logRow(t, svc.db, "e1")
}

func TestClaim_SuccessRowReplays(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ev := event("e1")
	state, err := svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, state)

	recorded, err := svc.Finalize(ctx, ev, true, nil)
	require.NoError(t, err)
	require.True(t, recorded)

	state, err = svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, ClaimReplay, state)

	assert.True(t, logRow(t, svc.db, "e1").Success)
}

func TestClaim_FailedRowIsReclaimed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ev := event("e1")
	state, err := svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, state)

	recorded, err := svc.Finalize(ctx, ev, false, failureResult())
	require.NoError(t, err)
	require.True(t, recorded)

	// The provider redelivers; the failed row goes back in flight.
	state, err = svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)

	row := logRow(t, svc.db, "e1")
	assert.False(t, row.Success)
	assert.Nil(t, row.Result)

	recorded, err = svc.Finalize(ctx, ev, true, nil)
	require.NoError(t, err)
	assert.True(t, recorded)
	assert.True(t, logRow(t, svc.db, "e1").Success)
}

func TestClaim_AbandonedClaimIsTakenOver(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ev := event("e1")
	state, err := svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, ClaimAcquired, state)

	// Age the claim past its TTL, as if the owning attempt crashed.
	require.NoError(t, svc.db.Model(&models.WebhookEventLog{}).
		Where("event_id = ?", "e1").
		UpdateColumn("updated_at", time.Now().Add(-2*time.Minute)).Error)

	state, err = svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
}

func TestFinalize_SuccessRowIsImmutable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ev := event("e1")
	_, err := svc.Claim(ctx, ev, []byte(`{}`))
	require.NoError(t, err)

	recorded, err := svc.Finalize(ctx, ev, true, nil)
	require.NoError(t, err)
	require.True(t, recorded)

	// A delivery that lost its claim after a stall finalizes late and
	// must see recorded=false instead of clobbering the success row.
	recorded, err = svc.Finalize(ctx, ev, false, failureResult())
	require.NoError(t, err)
	assert.False(t, recorded)

	row := logRow(t, svc.db, "e1")
	assert.True(t, row.Success)
	assert.Nil(t, row.Result)
}

func TestScanEvents_FiltersAndPaging(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := event(fmt.Sprintf("e%d", i))
		if i == 4 {
			ev.AppUserID = "U2"
		}
		_, err := svc.Claim(ctx, ev, []byte(`{}`))
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = svc.Finalize(ctx, ev, true, nil)
		} else {
			_, err = svc.Finalize(ctx, ev, false, failureResult())
		}
		require.NoError(t, err)
	}

	res, err := svc.ScanEvents(ctx, &ScanEventsRequest{
		Filters: []*types.CommonFilter{
			{Field: "account_id", Operator: types.CommonFilterOperatorEq, Values: []any{"U1"}},
		},
		Size:   2,
		SortBy: "event_id",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	assert.Len(t, res.Items, 2)

	res, err = svc.ScanEvents(ctx, &ScanEventsRequest{
		Filters: []*types.CommonFilter{
			{Field: "success", Operator: types.CommonFilterOperatorEq, Values: []any{true}},
		},
		Size: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
}

func TestScanEvents_NilRequest(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ScanEvents(context.Background(), nil)
	require.Error(t, err)
}
