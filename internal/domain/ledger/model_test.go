package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTxTypeValid(t *testing.T) {
	assert.True(t, TypeIncome.Valid())
	assert.True(t, TypeTransfer.Valid())
	assert.False(t, TypeRepayment.Valid())
	assert.False(t, TxType("打赏").Valid())
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, TypeIncome, NormalizeType(" 收入 "))
	assert.Equal(t, TypeExpense, NormalizeType("　支出"))
}

func TestScene(t *testing.T) {
	sc, ok := TypeReimburseIncome.Scene()
	require.True(t, ok)
	assert.Equal(t, SceneIncome, sc)

	_, ok = TypeTransfer.Scene()
	assert.False(t, ok)
}

func TestSignature(t *testing.T) {
	tx := Transaction{
		Time:   time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local),
		Amount: dec("25.50"),
		Note:   "  Lunch AT Cafe ",
	}
	assert.Equal(t, "2024-03-05 08:30:00|25.5|lunch at cafe", tx.Signature())

	// Sub-second differences collapse into the same signature.
	tx2 := tx
	tx2.Time = tx.Time.Add(500 * time.Millisecond)
	assert.Equal(t, tx.Signature(), tx2.Signature())
}

func TestApplyDelta(t *testing.T) {
	s := NewState()
	s.AddAccount(Account{Name: "现金", Balance: dec("100")})
	s.AddAccount(Account{Name: "银行卡", Balance: dec("1000")})

	income := Transaction{Type: TypeIncome, Account: "现金", Amount: dec("50")}
	s.ApplyDelta(&income, 1)
	assert.True(t, s.FindAccount("现金").Balance.Equal(dec("150")))

	expense := Transaction{Type: TypeExpense, Account: "现金", Amount: dec("30")}
	s.ApplyDelta(&expense, 1)
	assert.True(t, s.FindAccount("现金").Balance.Equal(dec("120")))

	transfer := Transaction{Type: TypeTransfer, FromAccount: "银行卡", ToAccount: "现金", Amount: dec("200")}
	s.ApplyDelta(&transfer, 1)
	assert.True(t, s.FindAccount("银行卡").Balance.Equal(dec("800")))
	assert.True(t, s.FindAccount("现金").Balance.Equal(dec("320")))

	// Reverting restores the original balances.
	s.ApplyDelta(&transfer, -1)
	s.ApplyDelta(&expense, -1)
	s.ApplyDelta(&income, -1)
	assert.True(t, s.FindAccount("现金").Balance.Equal(dec("100")))
	assert.True(t, s.FindAccount("银行卡").Balance.Equal(dec("1000")))
}

func TestApplyDeltaRepaymentFallsBackToAccount(t *testing.T) {
	s := NewState()
	s.AddAccount(Account{Name: "信用卡", Balance: dec("-500")})

	tx := Transaction{Type: TypeRepayment, Account: "信用卡", Amount: dec("500")}
	s.ApplyDelta(&tx, 1)
	assert.True(t, s.FindAccount("信用卡").Balance.IsZero())
}

func TestApplyDeltaFrozen(t *testing.T) {
	s := NewState()
	s.AddAccount(Account{Name: "现金", Balance: dec("100")})
	s.Prefs.FreezeAssets = true

	tx := Transaction{Type: TypeIncome, Account: "现金", Amount: dec("50")}
	s.ApplyDelta(&tx, 1)
	assert.True(t, s.FindAccount("现金").Balance.Equal(dec("100")))
}

func TestRenameAccountCascades(t *testing.T) {
	s := NewState()
	s.AddAccount(Account{Name: "旧卡"})
	s.Transactions = []Transaction{
		{ID: "1", Account: "旧卡"},
		{ID: "2", Type: TypeTransfer, FromAccount: "旧卡", ToAccount: "现金"},
	}
	s.RenameAccount("旧卡", "新卡")
	assert.Equal(t, "新卡", s.Accounts[0].Name)
	assert.Equal(t, "新卡", s.Transactions[0].Account)
	assert.Equal(t, "新卡", s.Transactions[1].FromAccount)
}

func TestRemoveTransactionRevertsBalance(t *testing.T) {
	s := NewState()
	s.AddAccount(Account{Name: "现金", Balance: dec("0")})
	s.Append(Transaction{ID: "t1", Type: TypeIncome, Account: "现金", Amount: dec("80")})
	assert.True(t, s.FindAccount("现金").Balance.Equal(dec("80")))

	require.True(t, s.RemoveTransaction("t1"))
	assert.True(t, s.FindAccount("现金").Balance.IsZero())
	assert.Empty(t, s.Transactions)
	assert.False(t, s.RemoveTransaction("t1"))
}

func TestAddCategoryAndRules(t *testing.T) {
	s := NewState()
	s.AddCategory(SceneExpense, "宠物")
	s.AddCategory(SceneExpense, "宠物")
	assert.True(t, s.HasCategory(SceneExpense, "宠物"))

	s.AddCategoryRule(SceneExpense, "罗森", "零食")
	s.AddCategoryRule(SceneExpense, "罗森", "零食")
	s.AddCategoryRule(SceneExpense, " ", "零食")
	assert.Len(t, s.CategoryRules[SceneExpense], 1)
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, NewID())
}
