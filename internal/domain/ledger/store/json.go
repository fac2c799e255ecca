package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ylzheng/zhangben/internal/domain/ledger"
)

// JSON persists the ledger as one pretty-printed UTF-8 JSON document. Writes
// go through a temp file plus rename so a crash mid-save cannot truncate the
// ledger.
type JSON struct {
	path string
}

// NewJSON returns a JSON store rooted at path. Backups land in a backups/
// directory next to the ledger file.
func NewJSON(path string) *JSON {
	return &JSON{path: path}
}

func (s *JSON) Path() string { return s.path }

func (s *JSON) Load(ctx context.Context) (*ledger.State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return ledger.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var state ledger.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", s.path, err)
	}
	migrate(&state)
	return &state, nil
}

func (s *JSON) Save(ctx context.Context, state *ledger.State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (s *JSON) Backup(ctx context.Context) (string, error) {
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
	name := fmt.Sprintf("ledger-%s.json", time.Now().Format("20060102-150405"))
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}
