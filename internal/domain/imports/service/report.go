package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/pkg/money"
	"github.com/ylzheng/zhangben/pkg/xlsx"
)

// templateHeader is the standard template column set. Reports and template
// exports share it so an exported file can be re-imported by the standard
// mapper unchanged.
var templateHeader = []string{"交易时间", "金额", "消费类别", "所属类别", "账户", "转入账户", "转出账户", "备注"}

// templateRow is the gocsv shape of one exported transaction.
type templateRow struct {
	Time        string `csv:"交易时间"`
	Amount      string `csv:"金额"`
	Category    string `csv:"消费类别"`
	Type        string `csv:"所属类别"`
	Account     string `csv:"账户"`
	ToAccount   string `csv:"转入账户"`
	FromAccount string `csv:"转出账户"`
	Note        string `csv:"备注"`
}

func rowFor(tx *ledger.Transaction) templateRow {
	return templateRow{
		Time:        tx.Time.Format("2006-01-02 15:04:05"),
		Amount:      money.Format(tx.Amount),
		Category:    tx.Category,
		Type:        string(tx.Type),
		Account:     tx.Account,
		ToAccount:   tx.ToAccount,
		FromAccount: tx.FromAccount,
		Note:        tx.Note,
	}
}

// writeReport writes transactions to path in the standard template shape,
// as XLSX or CSV depending on the extension.
func writeReport(path string, txs []ledger.Transaction) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows := make([][]string, 0, len(txs))
		for i := range txs {
			r := rowFor(&txs[i])
			rows = append(rows, []string{
				r.Time, r.Amount, r.Category, r.Type,
				r.Account, r.ToAccount, r.FromAccount, r.Note,
			})
		}
		return xlsx.Write(path, templateHeader, rows)
	case ".csv":
		rows := make([]templateRow, 0, len(txs))
		for i := range txs {
			rows = append(rows, rowFor(&txs[i]))
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		if err := gocsv.MarshalFile(&rows, f); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFile)
}

// ExportTemplate writes the ledger's transactions (or just the header when
// empty) as a standard template file the user can edit and re-import.
func ExportTemplate(path string, state *ledger.State) error {
	return writeReport(path, state.Transactions)
}
