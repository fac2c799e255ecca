// Package mapper converts platform-specific statement rows into canonical
// ledger transactions. One mapper exists per supported platform; all share
// the same contract and the same failure policy: per-row failures are
// accumulated, and any failure aborts the whole call with one aggregated
// error rather than silently dropping rows.
package mapper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ylzheng/zhangben/internal/domain/imports/reader"
	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

// AccountSet is the registry of valid account names, used to validate
// references and auto-resolve platform payment methods.
type AccountSet map[string]struct{}

// NewAccountSet builds a set from account names.
func NewAccountSet(names []string) AccountSet {
	s := make(AccountSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether the name is a known account.
func (s AccountSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Source carries both views of a parsed file: header-keyed rows for
// name-based mappers and the raw cell grid for position-based ones.
type Source struct {
	Rows []reader.Row
	Grid [][]string
}

// Stats counts soft skips that are expected outcomes, not failures.
type Stats struct {
	// SkippedNotCounted counts Alipay rows flagged 不计收支, which are
	// outside income/expense accounting and silently skipped.
	SkippedNotCounted int
}

// Add merges another mapper invocation's stats into s.
func (s *Stats) Add(other Stats) {
	s.SkippedNotCounted += other.SkippedNotCounted
}

// Mapper converts one platform's rows into canonical transactions.
type Mapper interface {
	Name() string
	Map(src Source, accounts AccountSet) ([]ledger.Transaction, Stats, error)
}

// snippetLimit bounds how much of an offending cell value a failure report
// quotes.
const snippetLimit = 60

func snippet(v string) string {
	r := []rune(strings.TrimSpace(v))
	if len(r) > snippetLimit {
		r = r[:snippetLimit]
	}
	return string(r)
}

// RowFailure records one unparseable row: its index in the file's data rows,
// the reason, and a snippet of the offending value.
type RowFailure struct {
	Row    int
	Reason string
	Value  string
}

func (f RowFailure) String() string {
	if f.Value == "" {
		return fmt.Sprintf("row %d: %s", f.Row, f.Reason)
	}
	return fmt.Sprintf("row %d: %s (value: %q)", f.Row, f.Reason, f.Value)
}

// BatchError aggregates every row failure from one mapper call. The message
// quotes the first three failures verbatim plus the total count so the user
// is not buried under hundreds of lines.
type BatchError struct {
	Platform string
	Failures []RowFailure
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d row(s) failed to parse", e.Platform, len(e.Failures))
	for i, f := range e.Failures {
		if i == 3 {
			break
		}
		b.WriteString("\n  ")
		b.WriteString(f.String())
	}
	if len(e.Failures) > 3 {
		fmt.Fprintf(&b, "\n  ... and %d more", len(e.Failures)-3)
	}
	return b.String()
}

// StructuralError marks a file that does not match the mapper's template at
// all: required columns are missing. It is fatal to that file's import.
type StructuralError struct {
	Platform string
	Missing  []string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: file does not match the expected template; missing columns: %s",
		e.Platform, strings.Join(e.Missing, ", "))
}

// ErrNoRows is wrapped by mappers when a file yields no recognizable
// statement rows, which usually means it is not the official export format.
var ErrNoRows = errors.New("no recognizable statement rows")

// batchOrRows finalizes a mapper call under the shared failure policy.
func batchOrRows(platform string, out []ledger.Transaction, stats Stats, failures []RowFailure) ([]ledger.Transaction, Stats, error) {
	if len(failures) > 0 {
		return nil, stats, &BatchError{Platform: platform, Failures: failures}
	}
	return out, stats, nil
}
