package mapper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ylzheng/zhangben/internal/domain/imports/normalizer"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/pkg/money"
)

// citicSynonyms lists acceptable column-name fragments per logical field.
// CITIC exports vary across channels (branch, app, online banking), so
// columns are resolved by case-insensitive substring match instead of exact
// names.
var citicSynonyms = map[string][]string{
	"date":         {"交易日期", "日期", "date"},
	"time":         {"交易时间", "时间", "time"},
	"income":       {"收入金额", "存入金额", "贷方发生额", "收入"},
	"expense":      {"支出金额", "支取金额", "借方发生额", "支出"},
	"summary":      {"摘要", "summary"},
	"counterparty": {"对方户名", "交易对方", "对方"},
}

// CITIC maps 中信银行 statements. Income and expense live in separate
// columns; when both are populated the larger one wins and fixes the
// direction. That rule is legacy behavior kept for determinism.
type CITIC struct{}

func (CITIC) Name() string { return "citic" }

// resolveColumns maps each logical field to the first header key matching
// one of its synonyms. Header keys are scanned in sorted order so resolution
// is deterministic.
func resolveColumns(keys []string) map[string]string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	resolved := make(map[string]string, len(citicSynonyms))
	for field, syns := range citicSynonyms {
		for _, syn := range syns {
			for _, key := range sorted {
				if strings.HasPrefix(key, "列") {
					continue
				}
				if strings.Contains(strings.ToLower(key), strings.ToLower(syn)) {
					resolved[field] = key
					break
				}
			}
			if _, ok := resolved[field]; ok {
				break
			}
		}
	}
	return resolved
}

// citicTime combines the date and time cells. Dates arrive either as
// bare 8-digit codes (20240102) or as already-separated strings; times as
// 4 or 6-digit codes (1030, 103000) or HH:MM:SS.
func citicTime(dateRaw, timeRaw string) time.Time {
	d := strings.TrimSpace(dateRaw)
	t := strings.TrimSpace(timeRaw)

	if len(d) == 8 && normalizer.IsNumeric(d) {
		d = d[:4] + "-" + d[4:6] + "-" + d[6:]
	} else {
		d = strings.ReplaceAll(normalizer.NormalizeChineseDate(d), "/", "-")
	}
	switch {
	case len(t) == 6 && normalizer.IsNumeric(t):
		t = t[:2] + ":" + t[2:4] + ":" + t[4:]
	case len(t) == 4 && normalizer.IsNumeric(t):
		t = t[:2] + ":" + t[2:] + ":00"
	}
	if t == "" {
		return normalizer.ParseDateTime(d)
	}
	return normalizer.ParseDateTime(d + " " + t)
}

func citicAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return money.Parse(raw)
}

func (CITIC) Map(src Source, accounts AccountSet) ([]ledger.Transaction, Stats, error) {
	var stats Stats
	if len(src.Rows) == 0 {
		return nil, stats, &StructuralError{Platform: "citic", Missing: []string{"交易日期", "收入金额/支出金额"}}
	}

	cols := resolveColumns(src.Rows[0].Keys())
	var missing []string
	if cols["date"] == "" {
		missing = append(missing, "交易日期")
	}
	if cols["income"] == "" && cols["expense"] == "" {
		missing = append(missing, "收入金额/支出金额")
	}
	if len(missing) > 0 {
		return nil, stats, &StructuralError{Platform: "citic", Missing: missing}
	}

	account := ""
	if accounts.Has(ledger.PlatformCITIC.SourceLabel()) {
		account = ledger.PlatformCITIC.SourceLabel()
	}

	var (
		out      []ledger.Transaction
		failures []RowFailure
	)
	for i, row := range src.Rows {
		dateRaw := row.Get(cols["date"])
		if dateRaw == "" {
			continue
		}

		income, err := citicAmount(row.Get(cols["income"]))
		if err != nil {
			failures = append(failures, RowFailure{Row: i, Reason: "unparseable income amount", Value: snippet(row.Get(cols["income"]))})
			continue
		}
		expense, err := citicAmount(row.Get(cols["expense"]))
		if err != nil {
			failures = append(failures, RowFailure{Row: i, Reason: "unparseable expense amount", Value: snippet(row.Get(cols["expense"]))})
			continue
		}
		if income.IsZero() && expense.IsZero() {
			continue
		}

		// Both columns populated: the larger magnitude wins the direction.
		amount, ttype := income, ledger.TypeIncome
		if expense.GreaterThan(income) {
			amount, ttype = expense, ledger.TypeExpense
		}

		out = append(out, ledger.Transaction{
			ID:          ledger.NewID(),
			Time:        citicTime(dateRaw, row.Get(cols["time"])),
			Amount:      amount,
			Type:        ttype,
			Account:     account,
			Note:        normalizer.JoinNote(row.Get(cols["summary"]), row.Get(cols["counterparty"])),
			Platform:    ledger.PlatformCITIC,
			ParseStatus: ledger.ParseStatusOK,
		})
	}
	if len(out) == 0 && len(failures) == 0 {
		return nil, stats, fmt.Errorf("citic: %w", ErrNoRows)
	}
	return batchOrRows("citic", out, stats, failures)
}
