// Package search provides the bill-list text filter: an in-memory full-text
// index over transaction notes, categories and account names. The index is
// rebuilt from ledger state on open and after imports; it is a view, never a
// source of truth.
package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

type document struct {
	Note     string `json:"note"`
	Category string `json:"category"`
	Account  string `json:"account"`
	Type     string `json:"ttype"`
}

// Index is an in-memory transaction index keyed by transaction id.
type Index struct {
	idx bleve.Index
}

// New opens an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() error { return i.idx.Close() }

// IndexTransaction adds or replaces one transaction.
func (i *Index) IndexTransaction(tx *ledger.Transaction) error {
	doc := document{
		Note:     tx.Note,
		Category: tx.Category,
		Account:  tx.Account,
		Type:     string(tx.Type),
	}
	if err := i.idx.Index(tx.ID, doc); err != nil {
		return fmt.Errorf("index transaction %s: %w", tx.ID, err)
	}
	return nil
}

// Rebuild replaces the index contents with the ledger's transactions.
func (i *Index) Rebuild(state *ledger.State) error {
	batch := i.idx.NewBatch()
	for n := range state.Transactions {
		tx := &state.Transactions[n]
		if err := batch.Index(tx.ID, document{
			Note:     tx.Note,
			Category: tx.Category,
			Account:  tx.Account,
			Type:     string(tx.Type),
		}); err != nil {
			return fmt.Errorf("index transaction %s: %w", tx.ID, err)
		}
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("apply index batch: %w", err)
	}
	return nil
}

// Remove drops a transaction from the index.
func (i *Index) Remove(id string) error {
	return i.idx.Delete(id)
}

// Search returns the ids of transactions matching the text, best first.
// All terms must match, so multi-word queries narrow rather than widen.
func (i *Index) Search(text string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	q := bleve.NewMatchQuery(text)
	q.SetOperator(query.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
