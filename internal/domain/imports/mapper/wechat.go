package mapper

import (
	"fmt"

	"github.com/ylzheng/zhangben/internal/domain/imports/normalizer"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/pkg/money"
)

// WeChat maps official WeChat Pay bill exports. The export prefixes the data
// with a free-text preamble, so any row missing the 交易时间 or 金额(元)
// columns is treated as preamble and skipped.
type WeChat struct{}

func (WeChat) Name() string { return "wechat" }

func (WeChat) Map(src Source, accounts AccountSet) ([]ledger.Transaction, Stats, error) {
	var (
		stats    Stats
		out      []ledger.Transaction
		failures []RowFailure
	)
	for i, row := range src.Rows {
		if !row.Has("交易时间") || !row.Has("金额(元)") {
			continue
		}

		ttype := ledger.TypeExpense
		if row.Get("收/支") == "收入" {
			ttype = ledger.TypeIncome
		}

		raw := row.Get("金额(元)")
		if raw == "" {
			raw = "0"
		}
		amount, err := money.Parse(raw)
		if err != nil {
			failures = append(failures, RowFailure{Row: i, Reason: "unparseable amount", Value: snippet(raw)})
			continue
		}

		category := row.Get("交易类型")
		note := normalizer.JoinNote(category, row.Get("交易对方"), row.Get("商品"), row.Get("备注"))

		account := ""
		if pay := row.Get("支付方式"); accounts.Has(pay) {
			account = pay
		}

		out = append(out, ledger.Transaction{
			ID:          ledger.NewID(),
			Time:        normalizer.ParseDateTime(row.Get("交易时间")),
			Amount:      amount,
			Category:    category,
			Type:        ttype,
			Account:     account,
			Note:        note,
			Platform:    ledger.PlatformWeChat,
			ParseStatus: ledger.ParseStatusOK,
		})
	}
	if len(out) == 0 && len(failures) == 0 {
		return nil, stats, fmt.Errorf("wechat: %w", ErrNoRows)
	}
	return batchOrRows("wechat", out, stats, failures)
}
