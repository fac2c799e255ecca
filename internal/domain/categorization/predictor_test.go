package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

func TestPredictBuiltinTable(t *testing.T) {
	p := NewPredictor(ledger.NewState())

	tests := []struct {
		name  string
		text  string
		scene ledger.Scene
		want  string
	}{
		{"meal keyword", "某某餐厅 | 外卖 | 午餐", ledger.SceneExpense, "三餐"},
		{"transport keyword", "滴滴出行 | 快车", ledger.SceneExpense, "交通"},
		{"utilities keyword", "4月电费代扣", ledger.SceneExpense, "水电煤"},
		{"entertainment latin keyword", "钱柜KTV欢唱", ledger.SceneExpense, "娱乐"},
		{"salary keyword", "8月薪资发放", ledger.SceneIncome, "工资"},
		{"red packet keyword", "春节礼金", ledger.SceneIncome, "收红包"},
		{"funds keyword", "基金分红到账", ledger.SceneIncome, "股票基金"},
		{"no match", "……", ledger.SceneExpense, ""},
		{"empty text", "", ledger.SceneExpense, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Predict(tt.text, tt.scene))
		})
	}
}

func TestPredictGroupPrecedence(t *testing.T) {
	p := NewPredictor(ledger.NewState())
	// 奶茶 (三餐) appears after 电影 (娱乐) in the text, but 三餐 is the
	// earlier group and must win.
	assert.Equal(t, "三餐", p.Predict("看电影顺便买了奶茶", ledger.SceneExpense))
}

func TestPredictUserRulesWin(t *testing.T) {
	state := ledger.NewState()
	state.AddCategoryRule(ledger.SceneExpense, "奶茶", "零食")
	p := NewPredictor(state)

	assert.Equal(t, "零食", p.Predict("一点点奶茶", ledger.SceneExpense))
	// Other builtin keywords are unaffected.
	assert.Equal(t, "三餐", p.Predict("午餐", ledger.SceneExpense))
}

func TestPredictUserRuleCaseInsensitive(t *testing.T) {
	state := ledger.NewState()
	state.AddCategoryRule(ledger.SceneExpense, "Steam", "娱乐")
	p := NewPredictor(state)
	assert.Equal(t, "娱乐", p.Predict("STEAM 充值", ledger.SceneExpense))
}

func TestPredictTransactionScene(t *testing.T) {
	p := NewPredictor(ledger.NewState())

	expense := &ledger.Transaction{Type: ledger.TypeExpense, Note: "地铁出行"}
	assert.Equal(t, "交通", p.PredictTransaction(expense))

	// 薪资 is an income keyword; an expense-scene transaction must not see
	// the income table.
	wrongScene := &ledger.Transaction{Type: ledger.TypeExpense, Note: "薪资"}
	assert.Equal(t, "", p.PredictTransaction(wrongScene))

	transfer := &ledger.Transaction{Type: ledger.TypeTransfer, Note: "午餐"}
	assert.Equal(t, "", p.PredictTransaction(transfer))
}

func TestPredictTransactionUsesSourceAndAccount(t *testing.T) {
	state := ledger.NewState()
	state.AddCategoryRule(ledger.SceneExpense, "微信", "零食")
	state.AddCategoryRule(ledger.SceneExpense, "信用卡", "还款手续费")
	p := NewPredictor(state)

	// The note alone matches nothing; the stamped record source does.
	bySource := &ledger.Transaction{Type: ledger.TypeExpense, Note: "小店", RecordSource: "微信"}
	assert.Equal(t, "零食", p.PredictTransaction(bySource))

	byAccount := &ledger.Transaction{Type: ledger.TypeExpense, Note: "小店", Account: "招行信用卡"}
	assert.Equal(t, "还款手续费", p.PredictTransaction(byAccount))

	noteOnly := &ledger.Transaction{Type: ledger.TypeExpense, Note: "小店"}
	assert.Equal(t, "", p.PredictTransaction(noteOnly))
}
