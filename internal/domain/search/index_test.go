package search

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

func seedState() *ledger.State {
	state := ledger.NewState()
	state.Transactions = []ledger.Transaction{
		{ID: "tx1", Amount: decimal.NewFromInt(30), Type: ledger.TypeExpense,
			Account: "零钱", Category: "三餐", Note: "便利店 | 午餐饭团"},
		{ID: "tx2", Amount: decimal.NewFromInt(12), Type: ledger.TypeExpense,
			Account: "招商银行", Category: "交通", Note: "滴滴出行 | 快车"},
		{ID: "tx3", Amount: decimal.NewFromInt(5000), Type: ledger.TypeIncome,
			Account: "招商银行", Category: "工资", Note: "8月工资"},
	}
	return state
}

func TestSearchByNote(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Rebuild(seedState()))

	ids, err := idx.Search("滴滴", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx2"}, ids)
}

func TestSearchByCategoryAndAccount(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Rebuild(seedState()))

	ids, err := idx.Search("工资", 10)
	require.NoError(t, err)
	assert.Contains(t, ids, "tx3")

	ids, err = idx.Search("招商银行", 10)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "tx2")
	assert.Contains(t, ids, "tx3")
}

func TestSearchNoMatch(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Rebuild(seedState()))

	ids, err := idx.Search("火锅", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRemoveAndReindex(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)
	defer idx.Close()
	require.NoError(t, idx.Rebuild(seedState()))

	require.NoError(t, idx.Remove("tx2"))
	ids, err := idx.Search("滴滴", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, idx.IndexTransaction(&ledger.Transaction{
		ID: "tx4", Type: ledger.TypeExpense, Note: "滴滴代驾",
	}))
	ids, err = idx.Search("滴滴", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"tx4"}, ids)
}
