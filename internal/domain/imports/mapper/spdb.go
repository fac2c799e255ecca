package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ylzheng/zhangben/internal/domain/imports/normalizer"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/pkg/money"
)

// SPDB column positions. The bank's export has no reliable header row, so
// cells are addressed by position instead of name.
const (
	spdbTimeCol   = 0
	spdbAmountCol = 1
)

var spdbNoteCols = []int{2, 3, 4}

// SPDB maps 浦发银行 debit-card statements. The export is position-based:
// rows whose time cell matches none of the known encodings are treated as
// header or footer noise and skipped. Direction comes from the sign of the
// raw amount string; the magnitude is always stored positive.
type SPDB struct{}

func (SPDB) Name() string { return "spdb" }

// spdbTime recognizes the three time encodings seen in SPDB exports, in
// priority order: slash-separated date+time, Chinese-character date, and a
// raw Excel serial number.
func spdbTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	switch {
	case strings.Contains(s, "/"):
		return normalizer.ParseDateTime(s), true
	case strings.Contains(s, "年"):
		return normalizer.ParseDateTime(normalizer.NormalizeChineseDate(s)), true
	case normalizer.IsNumeric(s):
		serial, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return normalizer.FromExcelSerial(serial), true
	}
	return time.Time{}, false
}

func (SPDB) Map(src Source, accounts AccountSet) ([]ledger.Transaction, Stats, error) {
	var (
		stats    Stats
		out      []ledger.Transaction
		failures []RowFailure
	)

	account := ""
	if accounts.Has(ledger.PlatformSPDB.SourceLabel()) {
		account = ledger.PlatformSPDB.SourceLabel()
	}

	for i, cells := range src.Grid {
		if len(cells) <= spdbAmountCol {
			continue
		}
		t, ok := spdbTime(cells[spdbTimeCol])
		if !ok {
			continue
		}

		raw := cells[spdbAmountCol]
		amount, err := money.Parse(raw)
		if err != nil {
			failures = append(failures, RowFailure{Row: i, Reason: "unparseable amount", Value: snippet(raw)})
			continue
		}
		ttype := ledger.TypeIncome
		if money.IsNegative(raw) {
			ttype = ledger.TypeExpense
		}

		parts := make([]string, 0, len(spdbNoteCols))
		for _, c := range spdbNoteCols {
			if c < len(cells) {
				parts = append(parts, cells[c])
			}
		}

		out = append(out, ledger.Transaction{
			ID:          ledger.NewID(),
			Time:        t,
			Amount:      amount,
			Type:        ttype,
			Account:     account,
			Note:        normalizer.JoinNote(parts...),
			Platform:    ledger.PlatformSPDB,
			ParseStatus: ledger.ParseStatusOK,
		})
	}
	if len(out) == 0 && len(failures) == 0 {
		return nil, stats, fmt.Errorf("spdb: %w", ErrNoRows)
	}
	return batchOrRows("spdb", out, stats, failures)
}
