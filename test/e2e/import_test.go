// Package e2etest exercises the full import pipeline end to end: statement
// file on disk, import orchestration, persisted ledger, and search.
package e2etest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ylzheng/zhangben/internal/domain/imports/mapper"
	"github.com/ylzheng/zhangben/internal/domain/imports/service"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/internal/domain/ledger/store"
	"github.com/ylzheng/zhangben/internal/domain/search"
)

const wechatExport = "微信支付账单明细\n" +
	"导出时间：2024-01-03 08:00:00\n" +
	"交易时间,收/支,金额(元),交易类型,交易对方,商品,备注\n" +
	"2024-01-01 12:30:00,支出,25.50,商户消费,小面馆,午餐,\n" +
	"2024-01-02 09:00:00,收入,3000.00,工资,公司,,\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedLedger(t *testing.T, st store.Store) {
	t.Helper()
	state := ledger.NewState()
	state.AddAccount(ledger.Account{Name: "招商银行", Type: "现金"})
	require.NoError(t, st.Save(context.Background(), state))
}

func TestWeChatImportPipeline(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	billPath := filepath.Join(dir, "微信支付账单.csv")
	require.NoError(t, os.WriteFile(billPath, []byte(wechatExport), 0o644))

	st := store.NewJSON(filepath.Join(dir, "ledger.json"))
	seedLedger(t, st)
	imp := service.NewImporter(st, discardLogger())

	opts := service.Options{DefaultAccount: "招商银行"}
	res, err := imp.ImportWithMapper(ctx, []string{billPath}, mapper.WeChat{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.Success)

	state, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state.Transactions, 2)

	expense := state.Transactions[0]
	assert.Equal(t, ledger.TypeExpense, expense.Type)
	assert.Equal(t, "25.5", expense.Amount.String())
	assert.Equal(t, "招商银行", expense.Account)
	assert.Equal(t, "微信", expense.RecordSource)

	income := state.Transactions[1]
	assert.Equal(t, ledger.TypeIncome, income.Type)
	assert.Equal(t, "3000", income.Amount.String())

	// Net effect on the default account: +3000 - 25.50.
	acct := state.FindAccount("招商银行")
	require.NotNil(t, acct)
	assert.Equal(t, "2974.5", acct.Balance.String())

	t.Run("ReimportIsIdempotent", func(t *testing.T) {
		res, err := imp.ImportWithMapper(ctx, []string{billPath}, mapper.WeChat{}, opts)
		require.NoError(t, err)
		assert.Zero(t, res.Success)
		assert.Equal(t, 2, res.Duplicates)

		state, err := st.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, state.Transactions, 2)
		assert.Equal(t, "2974.5", state.FindAccount("招商银行").Balance.String())
	})

	t.Run("SearchFindsImportedRows", func(t *testing.T) {
		idx, err := search.New()
		require.NoError(t, err)
		defer idx.Close()

		state, err := st.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, idx.Rebuild(state))

		ids, err := idx.Search("午餐", 10)
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, state.Transactions[0].ID, ids[0])
	})

	t.Run("ExportRoundTrip", func(t *testing.T) {
		state, err := st.Load(ctx)
		require.NoError(t, err)

		out := filepath.Join(dir, "export.csv")
		require.NoError(t, service.ExportTemplate(out, state))

		res, err := imp.ImportWithMapper(ctx, []string{out}, mapper.Standard{}, opts)
		require.NoError(t, err)
		assert.Zero(t, res.Success)
		assert.Equal(t, 2, res.Duplicates)
	})
}

func TestOverridePipelineOnSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	billPath := filepath.Join(dir, "bill.csv")
	require.NoError(t, os.WriteFile(billPath, []byte(wechatExport), 0o644))

	st, err := store.NewSQLite(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	defer st.Close()
	seedLedger(t, st)

	imp := service.NewImporter(st, discardLogger())
	opts := service.Options{DefaultAccount: "招商银行"}

	_, err = imp.ImportWithMapper(ctx, []string{billPath}, mapper.WeChat{}, opts)
	require.NoError(t, err)

	opts.Mode = service.ModeOverride
	res, err := imp.ImportWithMapper(ctx, []string{billPath}, mapper.WeChat{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.FileExists(t, res.BackupPath)

	state, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Transactions, 2)
	assert.Equal(t, "2974.5", state.FindAccount("招商银行").Balance.String())
}
