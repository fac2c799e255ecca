package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

// SQLite mirrors the ledger into flat tables: one row per transaction, one
// per account, and a meta table holding the category registries and prefs as
// JSON values. It is a storage toggle, not a relational redesign; Save still
// replaces the whole document.
type SQLite struct {
	path string
	db   *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id            TEXT PRIMARY KEY,
	time          TEXT NOT NULL,
	amount        TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	ttype         TEXT NOT NULL,
	account       TEXT NOT NULL DEFAULT '',
	to_account    TEXT NOT NULL DEFAULT '',
	from_account  TEXT NOT NULL DEFAULT '',
	note          TEXT NOT NULL DEFAULT '',
	platform      TEXT NOT NULL DEFAULT '',
	parse_status  TEXT NOT NULL DEFAULT '',
	record_time   TEXT,
	record_source TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS accounts (
	name          TEXT PRIMARY KEY,
	balance       TEXT NOT NULL,
	type          TEXT NOT NULL DEFAULT '',
	note          TEXT NOT NULL DEFAULT '',
	bank          TEXT NOT NULL DEFAULT '',
	last4         TEXT NOT NULL DEFAULT '',
	credit_limit  TEXT NOT NULL DEFAULT '0',
	status        TEXT NOT NULL DEFAULT '',
	bill_day      INTEGER NOT NULL DEFAULT 0,
	repay_day     INTEGER NOT NULL DEFAULT 0,
	repay_offset  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// NewSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return &SQLite{path: path, db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Load(ctx context.Context) (*ledger.State, error) {
	state := ledger.NewState()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time, amount, category, ttype, account, to_account,
		       from_account, note, platform, parse_status, record_time, record_source
		FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tx            ledger.Transaction
			tstr, amount  string
			recordTime    sql.NullString
			platform      string
		)
		if err := rows.Scan(&tx.ID, &tstr, &amount, &tx.Category, &tx.Type,
			&tx.Account, &tx.ToAccount, &tx.FromAccount, &tx.Note,
			&platform, &tx.ParseStatus, &recordTime, &tx.RecordSource); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Time, err = time.Parse(time.RFC3339Nano, tstr); err != nil {
			return nil, fmt.Errorf("transaction %s: bad time %q: %w", tx.ID, tstr, err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s: bad amount %q: %w", tx.ID, amount, err)
		}
		tx.Platform = ledger.Platform(platform)
		if recordTime.Valid {
			rt, err := time.Parse(time.RFC3339Nano, recordTime.String)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: bad record_time: %w", tx.ID, err)
			}
			tx.RecordTime = &rt
		}
		state.Transactions = append(state.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	accRows, err := s.db.QueryContext(ctx, `
		SELECT name, balance, type, note, bank, last4, credit_limit, status,
		       bill_day, repay_day, repay_offset
		FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer accRows.Close()
	for accRows.Next() {
		var (
			a              ledger.Account
			balance, limit string
		)
		if err := accRows.Scan(&a.Name, &balance, &a.Type, &a.Note, &a.Bank,
			&a.Last4, &limit, &a.Status, &a.BillDay, &a.RepayDay, &a.RepayOffset); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if a.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, fmt.Errorf("account %s: bad balance %q: %w", a.Name, balance, err)
		}
		if a.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("account %s: bad limit %q: %w", a.Name, limit, err)
		}
		state.Accounts = append(state.Accounts, a)
	}
	if err := accRows.Err(); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	if err := s.loadMeta(ctx, "categories", &state.Categories); err != nil {
		return nil, err
	}
	if err := s.loadMeta(ctx, "account_types", &state.AccountTypes); err != nil {
		return nil, err
	}
	if err := s.loadMeta(ctx, "category_rules", &state.CategoryRules); err != nil {
		return nil, err
	}
	if err := s.loadMeta(ctx, "prefs", &state.Prefs); err != nil {
		return nil, err
	}

	migrate(state)
	return state, nil
}

// loadMeta decodes one meta value into dst; an absent key keeps the seeded
// default.
func (s *SQLite) loadMeta(ctx context.Context, key string, dst any) error {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load meta %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return fmt.Errorf("decode meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, state *ledger.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "accounts", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range state.Transactions {
		var recordTime any
		if t.RecordTime != nil {
			recordTime = t.RecordTime.Format(time.RFC3339Nano)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions
			(id, time, amount, category, ttype, account, to_account,
			 from_account, note, platform, parse_status, record_time, record_source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Time.Format(time.RFC3339Nano), t.Amount.String(),
			t.Category, string(t.Type), t.Account, t.ToAccount, t.FromAccount,
			t.Note, string(t.Platform), t.ParseStatus, recordTime, t.RecordSource); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	for _, a := range state.Accounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts
			(name, balance, type, note, bank, last4, credit_limit, status,
			 bill_day, repay_day, repay_offset)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Name, a.Balance.String(), a.Type, a.Note, a.Bank, a.Last4,
			a.Limit.String(), a.Status, a.BillDay, a.RepayDay, a.RepayOffset); err != nil {
			return fmt.Errorf("insert account %s: %w", a.Name, err)
		}
	}

	meta := map[string]any{
		"categories":     state.Categories,
		"account_types":  state.AccountTypes,
		"category_rules": state.CategoryRules,
		"prefs":          state.Prefs,
	}
	for key, value := range meta {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode meta %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`,
			key, string(encoded)); err != nil {
			return fmt.Errorf("insert meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLite) Backup(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read ledger for backup: %w", err)
	}

	dir := filepath.Join(filepath.Dir(s.path), "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("ledger-%s.db", time.Now().Format("20060102-150405")))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}
