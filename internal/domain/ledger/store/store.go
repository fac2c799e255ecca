// Package store persists ledger state. Two backends implement the same
// contract: a pretty-printed JSON document (the default) and a flat SQLite
// mirror of the same shape. Both load the full state into memory and write
// it back whole; there is no partial update surface.
package store

import (
	"context"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

// Store is the persistence contract for one profile's ledger.
type Store interface {
	// Load returns the persisted state, or a freshly seeded one when
	// nothing has been saved yet.
	Load(ctx context.Context) (*ledger.State, error)
	// Save writes the full state, replacing whatever was stored.
	Save(ctx context.Context, state *ledger.State) error
	// Backup copies the current persisted state into the backup directory
	// and returns the backup's path. A missing source is not an error; the
	// returned path is empty.
	Backup(ctx context.Context) (string, error)
}

// migrate patches state loaded from older ledger files in place: missing
// registries are seeded, transactions without ids get one, and type labels
// are renormalized.
func migrate(s *ledger.State) {
	fresh := ledger.NewState()
	if s.Accounts == nil {
		s.Accounts = []ledger.Account{}
	}
	if s.Transactions == nil {
		s.Transactions = []ledger.Transaction{}
	}
	if len(s.Categories) == 0 {
		s.Categories = fresh.Categories
	}
	if len(s.AccountTypes) == 0 {
		s.AccountTypes = fresh.AccountTypes
	}
	if s.CategoryRules == nil {
		s.CategoryRules = fresh.CategoryRules
	}
	if s.Prefs.MenuLayout == "" {
		s.Prefs.MenuLayout = fresh.Prefs.MenuLayout
	}
	for i := range s.Transactions {
		tx := &s.Transactions[i]
		if tx.ID == "" {
			tx.ID = ledger.NewID()
		}
		tx.Type = ledger.NormalizeType(string(tx.Type))
	}
}
