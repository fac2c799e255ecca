package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	saved := fakeState(t, 4)
	saved.Prefs.FreezeAssets = true
	saved.AddCategoryRule(ledger.SceneExpense, "滴滴", "交通")
	rt := time.Date(2024, 7, 2, 9, 0, 0, 0, time.Local)
	saved.Transactions[1].RecordTime = &rt
	saved.Transactions[1].RecordSource = "支付宝"
	saved.Transactions[1].Platform = ledger.PlatformAlipay
	require.NoError(t, s.Save(ctx, saved))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Transactions, 4)
	require.Len(t, loaded.Accounts, 2)

	got := loaded.Transactions[1]
	assert.Equal(t, saved.Transactions[1].ID, got.ID)
	assert.True(t, saved.Transactions[1].Time.Equal(got.Time))
	assert.True(t, saved.Transactions[1].Amount.Equal(got.Amount))
	assert.Equal(t, ledger.PlatformAlipay, got.Platform)
	assert.Equal(t, "支付宝", got.RecordSource)
	require.NotNil(t, got.RecordTime)
	assert.True(t, rt.Equal(*got.RecordTime))

	credit := loaded.FindAccount("信用卡")
	require.NotNil(t, credit)
	assert.True(t, credit.Limit.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, 5, credit.BillDay)

	assert.True(t, loaded.Prefs.FreezeAssets)
	assert.Equal(t, saved.CategoryRules, loaded.CategoryRules)
	assert.Equal(t, saved.Categories, loaded.Categories)
}

func TestSQLiteSaveReplacesPreviousState(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, fakeState(t, 6)))

	smaller := fakeState(t, 2)
	require.NoError(t, s.Save(ctx, smaller))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Transactions, 2)
	assert.Equal(t, smaller.Transactions[0].ID, loaded.Transactions[0].ID)
}

func TestSQLiteLoadFreshDatabase(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	state, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Transactions)
	assert.NotEmpty(t, state.Categories[ledger.SceneExpense])
}

func TestSQLiteBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewSQLite(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, fakeState(t, 1)))
	path, err := s.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backups"), filepath.Dir(path))
}
