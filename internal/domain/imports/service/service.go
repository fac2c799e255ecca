// Package service orchestrates statement imports: file dispatch, platform
// detection, mapping, dedupe and the ledger mutation itself. It is the only
// import package that touches the ledger store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ylzheng/zhangben/internal/domain/categorization"
	"github.com/ylzheng/zhangben/internal/domain/imports/detect"
	"github.com/ylzheng/zhangben/internal/domain/imports/mapper"
	"github.com/ylzheng/zhangben/internal/domain/imports/reader"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
	"github.com/ylzheng/zhangben/internal/domain/ledger/store"
)

// Mode selects how imported rows enter the ledger.
type Mode string

const (
	// ModeAppend merges imported rows into the existing ledger.
	ModeAppend Mode = "append"
	// ModeOverride replaces the ledger: transactions are cleared and
	// non-frozen balances zeroed before the batch is replayed. The prior
	// state is backed up first.
	ModeOverride Mode = "override"
)

// recordSourceTemplate labels rows that came from the app's own template
// rather than a platform export.
const recordSourceTemplate = "模板导入"

// ErrDefaultAccountRequired blocks an import that produced rows without a
// resolvable account and no default to assign. It is a precondition, not a
// repair: the caller must prompt and retry.
var ErrDefaultAccountRequired = errors.New("some rows have no account; a default account is required")

// ErrUnsupportedFile marks a path whose extension is not an importable
// container.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Options tune one import invocation.
type Options struct {
	Mode Mode
	// DefaultAccount is assigned to rows whose account could not be
	// resolved from the statement. Must be a registered account name.
	DefaultAccount string
	// PredictCategories prefills blank categories from keyword rules and
	// the built-in table. Opt-in; counted separately in the result.
	PredictCategories bool
	// DuplicateReport, when set, is the path (.xlsx or .csv) the excluded
	// duplicates are written to for manual reconciliation.
	DuplicateReport string
}

// Result is the consolidated outcome of one import batch.
type Result struct {
	Total             int
	Success           int
	Duplicates        int
	SkippedNotCounted int
	OtherUnimported   int
	Prefilled         int
	// ImportedAmount is the summed magnitude of the rows that entered the
	// ledger; duplicates and skips contribute nothing.
	ImportedAmount decimal.Decimal

	RecordTime    time.Time
	BackupPath    string
	ReportPath    string
	DuplicateRows []ledger.Transaction
}

// Importer runs import batches against one ledger store.
type Importer struct {
	store  store.Store
	logger *slog.Logger
}

// NewImporter creates an importer bound to the given store.
func NewImporter(st store.Store, logger *slog.Logger) *Importer {
	return &Importer{store: st, logger: logger}
}

// Import reads the given statement files, detects each file's platform and
// runs the matching mapper. Detection falling through lands on the standard
// mapper, whose own column validation produces the descriptive error.
func (s *Importer) Import(ctx context.Context, paths []string, opts Options) (*Result, error) {
	return s.run(ctx, paths, nil, opts)
}

// ImportWithMapper forces every file through one mapper, bypassing
// detection. Bank statements use this: their formats are user-selected, not
// detectable from headers.
func (s *Importer) ImportWithMapper(ctx context.Context, paths []string, m mapper.Mapper, opts Options) (*Result, error) {
	return s.run(ctx, paths, m, opts)
}

func (s *Importer) run(ctx context.Context, paths []string, forced mapper.Mapper, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeAppend
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	accounts := mapper.NewAccountSet(state.AccountNames())

	var (
		batch []ledger.Transaction
		stats mapper.Stats
	)
	for _, path := range paths {
		src, err := readSource(path)
		if err != nil {
			return nil, err
		}
		m := forced
		if m == nil {
			m = mapperFor(detect.Detect(src.Rows))
		}
		txs, fileStats, err := m.Map(src, accounts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		batch = append(batch, txs...)
		stats.Add(fileStats)
	}

	result := &Result{
		Total:             len(batch) + stats.SkippedNotCounted,
		SkippedNotCounted: stats.SkippedNotCounted,
		RecordTime:        time.Now(),
	}

	// Imported categories join the scene's registry before prediction, so
	// a platform's own labels are never overwritten by guesses. The source
	// label is stamped here too: prediction matches against it.
	for i := range batch {
		label := batch[i].Platform.SourceLabel()
		if label == "" {
			label = recordSourceTemplate
		}
		batch[i].RecordSource = label
		if scene, ok := batch[i].Type.Scene(); ok && batch[i].Category != "" {
			state.AddCategory(scene, batch[i].Category)
		}
	}

	if opts.PredictCategories {
		predictor := categorization.NewPredictor(state)
		for i := range batch {
			if batch[i].Category != "" {
				continue
			}
			pred := predictor.PredictTransaction(&batch[i])
			if pred == "" {
				continue
			}
			batch[i].Category = pred
			if scene, ok := batch[i].Type.Scene(); ok {
				state.AddCategory(scene, pred)
			}
			result.Prefilled++
		}
	}

	if err := resolveAccounts(batch, accounts, opts.DefaultAccount); err != nil {
		return nil, err
	}

	if opts.Mode == ModeOverride {
		backup, err := s.store.Backup(ctx)
		if err != nil {
			return nil, fmt.Errorf("backup before override: %w", err)
		}
		result.BackupPath = backup
		state.Transactions = state.Transactions[:0]
		if !state.Prefs.FreezeAssets {
			for i := range state.Accounts {
				state.Accounts[i].Balance = decimal.Zero
			}
		}
	}

	existing := map[string]struct{}{}
	if opts.Mode == ModeAppend {
		existing = state.Signatures()
	}
	batchSigs := map[string]struct{}{}

	for i := range batch {
		tx := batch[i]
		sig := tx.Signature()
		if _, dup := existing[sig]; dup {
			result.DuplicateRows = append(result.DuplicateRows, tx)
			continue
		}
		if _, dup := batchSigs[sig]; dup {
			result.DuplicateRows = append(result.DuplicateRows, tx)
			continue
		}
		batchSigs[sig] = struct{}{}

		if tx.ID == "" {
			tx.ID = ledger.NewID()
		}
		rt := result.RecordTime
		tx.RecordTime = &rt

		state.Append(tx)
		result.Success++
		result.ImportedAmount = result.ImportedAmount.Add(tx.Amount)
	}
	result.Duplicates = len(result.DuplicateRows)
	result.OtherUnimported = result.Total - result.Success - result.Duplicates - result.SkippedNotCounted

	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	if opts.DuplicateReport != "" && len(result.DuplicateRows) > 0 {
		if err := writeReport(opts.DuplicateReport, result.DuplicateRows); err != nil {
			s.logger.Warn("duplicate report not written", "path", opts.DuplicateReport, "error", err)
		} else {
			result.ReportPath = opts.DuplicateReport
		}
	}

	s.logger.Info("import finished",
		"files", len(paths),
		"mode", string(opts.Mode),
		"total", result.Total,
		"success", result.Success,
		"duplicates", result.Duplicates,
		"skipped", result.SkippedNotCounted,
		"prefilled", result.Prefilled,
	)
	return result, nil
}

// readSource loads one file into both row and grid form, dispatched by
// extension.
func readSource(path string) (mapper.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err := reader.ReadCSV(path)
		if err != nil {
			return mapper.Source{}, err
		}
		grid, err := reader.ReadCSVGrid(path)
		if err != nil {
			return mapper.Source{}, err
		}
		return mapper.Source{Rows: rows, Grid: grid}, nil
	case ".xlsx":
		rows, err := reader.ReadXLSX(path)
		if err != nil {
			return mapper.Source{}, err
		}
		grid, err := reader.ReadXLSXGrid(path)
		if err != nil {
			return mapper.Source{}, err
		}
		return mapper.Source{Rows: rows, Grid: grid}, nil
	case ".txt":
		rows, err := reader.ReadTXT(path)
		if err != nil {
			return mapper.Source{}, err
		}
		return mapper.Source{Rows: rows}, nil
	}
	return mapper.Source{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFile)
}

func mapperFor(p detect.Platform) mapper.Mapper {
	switch p {
	case detect.Alipay:
		return mapper.Alipay{}
	case detect.WeChat:
		return mapper.WeChat{}
	}
	return mapper.Standard{}
}

// resolveAccounts enforces the account precondition: every non-transfer row
// must end up with an account. A supplied default fills the gaps; without
// one, any gap blocks the whole import.
func resolveAccounts(batch []ledger.Transaction, accounts mapper.AccountSet, defaultAccount string) error {
	if defaultAccount != "" && !accounts.Has(defaultAccount) {
		return fmt.Errorf("default account %q is not registered", defaultAccount)
	}
	for i := range batch {
		tx := &batch[i]
		if tx.Type == ledger.TypeTransfer {
			continue
		}
		if tx.Type == ledger.TypeRepayment && tx.ToAccount != "" {
			continue
		}
		if tx.Account != "" {
			continue
		}
		if defaultAccount == "" {
			return ErrDefaultAccountRequired
		}
		tx.Account = defaultAccount
	}
	return nil
}
