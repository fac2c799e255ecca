// Package profile implements optional local user separation: named profiles,
// each owning its own ledger file, with an optional bcrypt-hashed password.
// Opening a profile hands back its ledger path for explicit injection into
// the store; nothing here keeps a process-wide "current profile".
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrExists        = errors.New("profile already exists")
	ErrWrongPassword = errors.New("wrong password")
)

// Profile is one registry entry. PasswordHash is empty for open profiles.
type Profile struct {
	Name         string `json:"name"`
	LedgerPath   string `json:"ledger_path"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// Manager reads and writes the profile registry file.
type Manager struct {
	dataDir string
}

// NewManager roots profiles under dataDir; each profile's ledger lives in
// its own subdirectory.
func NewManager(dataDir string) *Manager {
	return &Manager{dataDir: dataDir}
}

func (m *Manager) registryPath() string {
	return filepath.Join(m.dataDir, "profiles.json")
}

func (m *Manager) load() ([]Profile, error) {
	data, err := os.ReadFile(m.registryPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

func (m *Manager) save(profiles []Profile) error {
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	if err := os.WriteFile(m.registryPath(), data, 0o600); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// List returns all registered profiles, passwords redacted.
func (m *Manager) List() ([]Profile, error) {
	profiles, err := m.load()
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].PasswordHash = ""
	}
	return profiles, nil
}

// Create registers a profile. An empty password means the profile opens
// without one.
func (m *Manager) Create(name, password string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("profile name is empty")
	}
	profiles, err := m.load()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return nil, fmt.Errorf("%s: %w", name, ErrExists)
		}
	}

	p := Profile{
		Name:       name,
		LedgerPath: filepath.Join(m.dataDir, name, "ledger.json"),
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		p.PasswordHash = string(hash)
	}

	profiles = append(profiles, p)
	if err := m.save(profiles); err != nil {
		return nil, err
	}
	return &p, nil
}

// Open verifies the password and returns the profile's ledger path.
func (m *Manager) Open(name, password string) (string, error) {
	profiles, err := m.load()
	if err != nil {
		return "", err
	}
	for _, p := range profiles {
		if p.Name != name {
			continue
		}
		if p.PasswordHash == "" {
			return p.LedgerPath, nil
		}
		if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
			return "", fmt.Errorf("%s: %w", name, ErrWrongPassword)
		}
		return p.LedgerPath, nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Remove drops a profile from the registry. The ledger file is left on disk;
// deleting data is the user's call, not a side effect.
func (m *Manager) Remove(name string) error {
	profiles, err := m.load()
	if err != nil {
		return err
	}
	kept := profiles[:0]
	found := false
	for _, p := range profiles {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return m.save(kept)
}
