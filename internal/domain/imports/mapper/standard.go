package mapper

import (
	"strconv"

	"github.com/ylzheng/zhangben/internal/domain/imports/normalizer"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/pkg/money"
)

// standardColumns are required in every row of the app's own template.
// A time column (交易时间 or 格式化时间) is required on top of these.
var standardColumns = []string{"金额", "消费类别", "所属类别", "账户", "转入账户", "转出账户", "备注"}

// Standard maps the app's own export template back into transactions. It is
// the strictest mapper: the template is machine-written, so every deviation
// is treated as data corruption rather than tolerated.
type Standard struct{}

func (Standard) Name() string { return "standard" }

func (Standard) Map(src Source, accounts AccountSet) ([]ledger.Transaction, Stats, error) {
	var stats Stats
	if len(src.Rows) == 0 {
		return nil, stats, &StructuralError{Platform: "standard", Missing: append([]string{"交易时间"}, standardColumns...)}
	}

	first := src.Rows[0]
	var missing []string
	if !first.Has("交易时间") && !first.Has("格式化时间") {
		missing = append(missing, "交易时间")
	}
	for _, col := range standardColumns {
		if !first.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, stats, &StructuralError{Platform: "standard", Missing: missing}
	}

	var (
		out      []ledger.Transaction
		failures []RowFailure
	)
	for i, row := range src.Rows {
		ttype := ledger.NormalizeType(row.Get("所属类别"))
		if !ttype.Valid() && ttype != ledger.TypeRepayment {
			failures = append(failures, RowFailure{Row: i, Reason: "unknown transaction type", Value: snippet(row.Get("所属类别"))})
			continue
		}

		account := row.Get("账户")
		toAccount := row.Get("转入账户")
		fromAccount := row.Get("转出账户")
		if account != "" && !accounts.Has(account) {
			failures = append(failures, RowFailure{Row: i, Reason: "account is not registered", Value: snippet(account)})
			continue
		}
		if ttype == ledger.TypeRepayment && toAccount == "" && account == "" {
			failures = append(failures, RowFailure{Row: i, Reason: "repayment row has no destination account"})
			continue
		}

		amount, err := money.Parse(row.Get("金额"))
		if err != nil {
			failures = append(failures, RowFailure{Row: i, Reason: "unparseable amount", Value: snippet(row.Get("金额"))})
			continue
		}

		tstr := row.Get("交易时间", "格式化时间")
		var tx ledger.Transaction
		if normalizer.IsNumeric(tstr) {
			serial, err := strconv.ParseFloat(tstr, 64)
			if err != nil {
				failures = append(failures, RowFailure{Row: i, Reason: "unparseable time", Value: snippet(tstr)})
				continue
			}
			tx.Time = normalizer.FromExcelSerial(serial)
		} else {
			tx.Time = normalizer.ParseDateTime(tstr)
		}

		tx.ID = ledger.NewID()
		tx.Amount = amount
		tx.Category = row.Get("消费类别")
		tx.Type = ttype
		tx.Account = account
		tx.ToAccount = toAccount
		tx.FromAccount = fromAccount
		tx.Note = row.Get("备注")
		tx.ParseStatus = ledger.ParseStatusOK
		out = append(out, tx)
	}
	return batchOrRows("standard", out, stats, failures)
}
