package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/writetoearn/scorer/internal/twitter"
)

// CredentialStore persists one cookie blob per service account. The blob is
// stored exactly as issued by the platform and restored exactly; the file is
// always rewritten whole, never patched.
type CredentialStore struct {
	dir string
}

// NewCredentialStore creates a store rooted at dir.
func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) path(account string) string {
	return filepath.Join(s.dir, account+".cookies.json")
}

// Save writes the credential blob for the given account, creating the store
// directory on first use.
func (s *CredentialStore) Save(account string, records []twitter.CookieRecord) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create cookie dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if err := os.WriteFile(s.path(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}
	return nil
}

// Load reads the credential blob for the given account. A missing record is
// reported as (nil, false, nil) so callers fall through to fresh login.
func (s *CredentialStore) Load(account string) ([]twitter.CookieRecord, bool, error) {
	data, err := os.ReadFile(s.path(account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cookies: %w", err)
	}

	var records []twitter.CookieRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to parse cookies: %w", err)
	}
	return records, true, nil
}

// Clear removes the stored blob for the given account.
func (s *CredentialStore) Clear(account string) error {
	err := os.Remove(s.path(account))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
