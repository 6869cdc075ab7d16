package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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
	require.NoError(t, conn.AutoMigrate(&models.Account{}))
	return conn
}

func TestGet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Account{ID: "U1", Status: types.AccountStatusTrial}).Error)

	acct, err := svc.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, types.AccountStatusTrial, acct.Status)

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccountNotFound))
	assert.Contains(t, err.Error(), "Account not found")
}

func TestUpdate_PartialFieldsOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	paid := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Account{
		ID:              "U1",
		Status:          types.AccountStatusActive,
		SubscriptionID:  lo.ToPtr("sub-1"),
		LastPaymentDate: &paid,
	}).Error)

	err := svc.Update(ctx, "U1", map[string]any{"status": types.AccountStatusPastDue})
	require.NoError(t, err)

	var acct models.Account
	require.NoError(t, db.First(&acct, "id = ?", "U1").Error)
	assert.Equal(t, types.AccountStatusPastDue, acct.Status)
	// untouched columns survive
	require.NotNil(t, acct.SubscriptionID)
	assert.Equal(t, "sub-1", *acct.SubscriptionID)
	require.NotNil(t, acct.LastPaymentDate)
	assert.Equal(t, paid.Unix(), acct.LastPaymentDate.Unix())
}

func TestUpdate_ClearsNullableColumn(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	require.NoError(t, db.Create(&models.Account{
		ID:             "U1",
		Status:         types.AccountStatusActive,
		SubscriptionID: lo.ToPtr("sub-1"),
	}).Error)

	err := svc.Update(context.Background(), "U1", map[string]any{
		"status":          types.AccountStatusFrozen,
		"subscription_id": (*string)(nil),
	})
	require.NoError(t, err)

	var acct models.Account
	require.NoError(t, db.First(&acct, "id = ?", "U1").Error)
	assert.Equal(t, types.AccountStatusFrozen, acct.Status)
	assert.Nil(t, acct.SubscriptionID)
}

func TestUpdate_MissingAccount(t *testing.T) {
	svc := NewService(newTestDB(t), zap.NewNop().Sugar())
	err := svc.Update(context.Background(), "ghost", map[string]any{"status": types.AccountStatusActive})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccountNotFound))
}

func TestUpdate_EmptyFieldsIsNoOp(t *testing.T) {
	svc := NewService(newTestDB(t), zap.NewNop().Sugar())
	require.NoError(t, svc.Update(context.Background(), "U1", nil))
}
