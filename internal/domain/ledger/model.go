// Package ledger defines the canonical bookkeeping model: accounts,
// transactions, category registries and the in-memory ledger state that the
// stores persist and the import pipeline mutates.
package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ylzheng/zhangben/pkg/money"
)

// TxType classifies a transaction and decides which account balances the
// amount affects, and with which sign. The values are the labels used by the
// standard template files, so they round-trip through import and export.
type TxType string

const (
	TypeIncome              TxType = "收入"
	TypeExpense             TxType = "支出"
	TypeReimburseExpense    TxType = "报销类支出"
	TypeReimburseIncome     TxType = "报销类收入"
	TypeTransfer            TxType = "转账"
	// TypeRepayment is not part of the standard template enumeration but is
	// produced by manual entry and bank statement mapping.
	TypeRepayment TxType = "还款"
)

// TransactionTypes is the fixed enumeration accepted by the standard
// template. Repayment is deliberately absent.
var TransactionTypes = []TxType{
	TypeIncome,
	TypeExpense,
	TypeReimburseExpense,
	TypeReimburseIncome,
	TypeTransfer,
}

// Valid reports whether t belongs to the standard template enumeration.
func (t TxType) Valid() bool {
	for _, v := range TransactionTypes {
		if t == v {
			return true
		}
	}
	return false
}

// NormalizeType trims the raw label, folding full-width spaces.
func NormalizeType(raw string) TxType {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "　", " "))
	return TxType(s)
}

// Scene names a category namespace: income categories and expense categories
// are separate lists in the ledger.
type Scene string

const (
	SceneIncome  Scene = "收入"
	SceneExpense Scene = "支出"
)

// Scene maps a transaction type to the category scene it belongs to.
// Transfers and repayments have no scene.
func (t TxType) Scene() (Scene, bool) {
	switch t {
	case TypeIncome, TypeReimburseIncome:
		return SceneIncome, true
	case TypeExpense, TypeReimburseExpense:
		return SceneExpense, true
	}
	return "", false
}

// Platform tags the provenance of an imported transaction.
type Platform string

const (
	PlatformAlipay Platform = "alipay"
	PlatformWeChat Platform = "wechat"
	PlatformSPDB   Platform = "spdb"
	PlatformCITIC  Platform = "citic"
)

// SourceLabel is the human-readable record_source assigned at import time.
func (p Platform) SourceLabel() string {
	switch p {
	case PlatformAlipay:
		return "支付宝"
	case PlatformWeChat:
		return "微信"
	case PlatformSPDB:
		return "浦发银行"
	case PlatformCITIC:
		return "中信银行"
	}
	return ""
}

// ParseStatusOK marks a row that a mapper parsed successfully.
const ParseStatusOK = "ok"

// Transaction is the canonical record every mapper produces and the ledger
// persists. Amount is always a non-negative magnitude; direction lives in
// Type plus which account field is populated. For non-transfer types only
// Account is set; transfers carry ToAccount/FromAccount and leave Account
// empty.
type Transaction struct {
	ID          string          `json:"id"`
	Time        time.Time       `json:"time"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        TxType          `json:"ttype"`
	Account     string          `json:"account"`
	ToAccount   string          `json:"to_account,omitempty"`
	FromAccount string          `json:"from_account,omitempty"`
	Note        string          `json:"note"`
	Platform    Platform        `json:"platform,omitempty"`
	ParseStatus string          `json:"parse_status,omitempty"`

	// Batch tag pair, stamped by the import orchestrator. The pair is the
	// de facto batch identifier used for batch-level undo.
	RecordTime   *time.Time `json:"record_time,omitempty"`
	RecordSource string     `json:"record_source,omitempty"`
}

// NewID generates a transaction id: a uuid4 rendered without dashes.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Signature computes the dedupe key for a transaction: second-precision
// timestamp, absolute amount and trimmed note joined with '|' and lowercased.
// Two genuinely distinct same-second, same-amount, same-note transactions
// collapse under this key; that false-positive rate is relied on by the
// duplicate-review flow, so the field set must not be extended.
func (tx *Transaction) Signature() string {
	ts := tx.Time.Format("2006-01-02 15:04:05")
	parts := []string{ts, money.SignatureAmount(tx.Amount), strings.TrimSpace(tx.Note)}
	return strings.ToLower(strings.Join(parts, "|"))
}

// Account is a balance-bearing account record. The credit-card fields
// (BillDay, RepayDay, RepayOffset) are only meaningful for credit accounts.
type Account struct {
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	Type        string          `json:"type"`
	Note        string          `json:"note"`
	Bank        string          `json:"bank"`
	Last4       string          `json:"last4"`
	Limit       decimal.Decimal `json:"limit"`
	Status      string          `json:"status"`
	BillDay     int             `json:"bill_day"`
	RepayDay    int             `json:"repay_day"`
	RepayOffset int             `json:"repay_offset"`
}

// DefaultAccountTypes seed new ledgers.
var DefaultAccountTypes = []string{"投资理财", "现金", "信用卡", "借款"}

// CategoryRule maps a keyword to a category within one scene.
type CategoryRule struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
}

// Prefs holds user preferences persisted with the ledger.
type Prefs struct {
	// FreezeAssets suppresses all balance mutation while set.
	FreezeAssets bool   `json:"freeze_assets"`
	MenuLayout   string `json:"menu_layout"`
}

// State is the full ledger document for one profile: accounts, transactions
// and category registries. It is loaded fully, mutated in memory and written
// back fully on save.
type State struct {
	Accounts      []Account                `json:"accounts"`
	Transactions  []Transaction            `json:"transactions"`
	Categories    map[Scene][]string       `json:"categories"`
	AccountTypes  []string                 `json:"account_types"`
	CategoryRules map[Scene][]CategoryRule `json:"category_rules"`
	Prefs         Prefs                    `json:"prefs"`
}

// NewState returns a ledger seeded with the default category lists.
func NewState() *State {
	return &State{
		Accounts:     []Account{},
		Transactions: []Transaction{},
		Categories: map[Scene][]string{
			SceneExpense: {
				"三餐", "零食", "衣服", "交通", "娱乐", "医疗",
				"学习", "日用品", "住房", "美妆", "子女教育", "水电煤",
			},
			SceneIncome: {
				"工资", "生活费", "收红包", "外快", "股票基金",
			},
		},
		AccountTypes: append([]string(nil), DefaultAccountTypes...),
		CategoryRules: map[Scene][]CategoryRule{
			SceneIncome:  {},
			SceneExpense: {},
		},
		Prefs: Prefs{MenuLayout: "classic"},
	}
}

// AccountNames returns account names in ledger order.
func (s *State) AccountNames() []string {
	names := make([]string, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		names = append(names, a.Name)
	}
	return names
}

// FindAccount returns the account with the given name, or nil.
func (s *State) FindAccount(name string) *Account {
	for i := range s.Accounts {
		if s.Accounts[i].Name == name {
			return &s.Accounts[i]
		}
	}
	return nil
}

// AddAccount appends an account unless the name is already taken.
func (s *State) AddAccount(a Account) {
	if s.FindAccount(a.Name) != nil {
		return
	}
	s.Accounts = append(s.Accounts, a)
}

// RemoveAccount deletes the named account. Transactions referencing it are
// left untouched, matching the original behavior.
func (s *State) RemoveAccount(name string) {
	kept := s.Accounts[:0]
	for _, a := range s.Accounts {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	s.Accounts = kept
}

// RenameAccount renames an account and cascades the rename into every
// transaction reference.
func (s *State) RenameAccount(old, new string) {
	for i := range s.Accounts {
		if s.Accounts[i].Name == old {
			s.Accounts[i].Name = new
		}
	}
	for i := range s.Transactions {
		tx := &s.Transactions[i]
		if tx.Account == old {
			tx.Account = new
		}
		if tx.ToAccount == old {
			tx.ToAccount = new
		}
		if tx.FromAccount == old {
			tx.FromAccount = new
		}
	}
}

// AddCategory registers a category under the scene if not already present.
func (s *State) AddCategory(scene Scene, name string) {
	if name == "" {
		return
	}
	if s.Categories == nil {
		s.Categories = map[Scene][]string{}
	}
	for _, c := range s.Categories[scene] {
		if c == name {
			return
		}
	}
	s.Categories[scene] = append(s.Categories[scene], name)
}

// HasCategory reports whether the scene already lists the category.
func (s *State) HasCategory(scene Scene, name string) bool {
	for _, c := range s.Categories[scene] {
		if c == name {
			return true
		}
	}
	return false
}

// AddCategoryRule registers a keyword rule, ignoring blank or duplicate
// entries.
func (s *State) AddCategoryRule(scene Scene, keyword, category string) {
	k := strings.TrimSpace(keyword)
	c := strings.TrimSpace(category)
	if k == "" || c == "" {
		return
	}
	if s.CategoryRules == nil {
		s.CategoryRules = map[Scene][]CategoryRule{}
	}
	for _, r := range s.CategoryRules[scene] {
		if r.Keyword == k && r.Category == c {
			return
		}
	}
	s.CategoryRules[scene] = append(s.CategoryRules[scene], CategoryRule{Keyword: k, Category: c})
}

// ApplyDelta applies a transaction's signed effect to the referenced account
// balances. sign is +1 when recording and -1 when reverting. The call is a
// no-op while assets are frozen or when a referenced account does not exist.
func (s *State) ApplyDelta(tx *Transaction, sign int64) {
	if s.Prefs.FreezeAssets {
		return
	}
	amt := tx.Amount.Mul(decimal.NewFromInt(sign))
	switch tx.Type {
	case TypeIncome, TypeReimburseIncome:
		if a := s.FindAccount(tx.Account); a != nil {
			a.Balance = a.Balance.Add(amt)
		}
	case TypeExpense, TypeReimburseExpense:
		if a := s.FindAccount(tx.Account); a != nil {
			a.Balance = a.Balance.Sub(amt)
		}
	case TypeTransfer:
		if fa := s.FindAccount(tx.FromAccount); fa != nil {
			fa.Balance = fa.Balance.Sub(amt)
		}
		if ta := s.FindAccount(tx.ToAccount); ta != nil {
			ta.Balance = ta.Balance.Add(amt)
		}
	case TypeRepayment:
		target := tx.ToAccount
		if target == "" {
			target = tx.Account
		}
		if ta := s.FindAccount(target); ta != nil {
			ta.Balance = ta.Balance.Add(amt)
		}
		if fa := s.FindAccount(tx.FromAccount); fa != nil {
			fa.Balance = fa.Balance.Sub(amt)
		}
	}
}

// Append records a transaction and applies its balance effect.
func (s *State) Append(tx Transaction) {
	s.Transactions = append(s.Transactions, tx)
	s.ApplyDelta(&s.Transactions[len(s.Transactions)-1], 1)
}

// RemoveTransaction deletes a transaction by id, reverting its balance
// effect first. It reports whether a transaction was removed.
func (s *State) RemoveTransaction(id string) bool {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			s.ApplyDelta(&s.Transactions[i], -1)
			s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
			return true
		}
	}
	return false
}

// Signatures returns the dedupe signatures of every recorded transaction.
func (s *State) Signatures() map[string]struct{} {
	sigs := make(map[string]struct{}, len(s.Transactions))
	for i := range s.Transactions {
		sigs[s.Transactions[i].Signature()] = struct{}{}
	}
	return sigs
}
