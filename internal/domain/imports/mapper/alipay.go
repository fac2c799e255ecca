package mapper

import (
	"fmt"

	"github.com/ylzheng/zhangben/internal/domain/imports/normalizer"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/pkg/money"
)

// Alipay maps official Alipay bill exports. These files carry a long text
// preamble and occasional summary rows, so rows without a transaction time
// are skipped rather than reported; rows flagged 不计收支 are bookkeeping
// noise (red packets, balance moves) and are counted but not imported.
type Alipay struct{}

func (Alipay) Name() string { return "alipay" }

func (Alipay) Map(src Source, accounts AccountSet) ([]ledger.Transaction, Stats, error) {
	var (
		stats    Stats
		out      []ledger.Transaction
		failures []RowFailure
	)
	for i, row := range src.Rows {
		tstr := row.Get("交易时间", "交易创建时间")
		if tstr == "" {
			continue
		}
		if row.Get("收/支") == "不计收支" {
			stats.SkippedNotCounted++
			continue
		}

		ttype := ledger.TypeExpense
		if row.Get("收/支") == "收入" {
			ttype = ledger.TypeIncome
		}

		raw := row.Get("金额(元)", "金额", "金额（元）")
		if raw == "" {
			raw = "0"
		}
		amount, err := money.Parse(raw)
		if err != nil {
			failures = append(failures, RowFailure{Row: i, Reason: "unparseable amount", Value: snippet(raw)})
			continue
		}

		prod := row.Get("商品说明")
		if prod == "" {
			prod = row.Get("商品名称")
		}
		note := normalizer.JoinNote(row.Get("交易对方"), prod, row.Get("备注"))

		account := ""
		if pay := row.Get("收/付款方式", "支付方式"); accounts.Has(pay) {
			account = pay
		}

		out = append(out, ledger.Transaction{
			ID:          ledger.NewID(),
			Time:        normalizer.ParseDateTime(tstr),
			Amount:      amount,
			Category:    row.Get("交易分类"),
			Type:        ttype,
			Account:     account,
			Note:        note,
			Platform:    ledger.PlatformAlipay,
			ParseStatus: ledger.ParseStatusOK,
		})
	}
	if len(out) == 0 && stats.SkippedNotCounted == 0 && len(failures) == 0 {
		return nil, stats, fmt.Errorf("alipay: %w", ErrNoRows)
	}
	return batchOrRows("alipay", out, stats, failures)
}
