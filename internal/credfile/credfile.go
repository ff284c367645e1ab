// Package credfile reads and writes the persisted credential file: a small
// human-inspectable TOML document with one table per application key, each
// holding the refresh token and associated metadata from an interactive
// login. Only the refresh token is required for reuse; the access token is
// re-derived on demand by the provider.
package credfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FilePerms restricts the credential file to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the credential directory.
const DirPerms = 0o700

// Record is one persisted credential, keyed by application key. A record is
// never mutated in place — Save rewrites it wholesale after a fresh
// interactive login.
type Record struct {
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	AccountID    string    `toml:"account_id"`
	Scope        string    `toml:"scope"`
	Expiration   time.Time `toml:"expiration"`
}

// file is the on-disk shape: app key → record.
type file map[string]Record

// Load reads the credential record for appKey. A missing file or a file
// without a table for appKey is a normal first-run condition and returns
// (nil, nil); malformed content fails loudly.
func Load(path, appKey string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("credfile: reading %s: %w", path, err)
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("credfile: decoding %s: %w", path, err)
	}

	rec, ok := f[appKey]
	if !ok {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	return &rec, nil
}

// Save writes the record for appKey, overwriting any existing record for
// that key and preserving records under other keys. The write is atomic
// (temp file + rename) with 0600 permissions.
func Save(path, appKey string, rec *Record) error {
	f := file{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credfile: reading %s: %w", path, err)
	}

	if err == nil {
		if decErr := toml.Unmarshal(data, &f); decErr != nil {
			return fmt.Errorf("credfile: decoding %s: %w", path, decErr)
		}
	}

	f[appKey] = *rec

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("credfile: encoding: %w", err)
	}

	return writeAtomic(path, buf.Bytes())
}

// writeAtomic writes data via a temp file in the same directory followed by
// rename, so a crash can never leave a partial credential file behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return fmt.Errorf("credfile: creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("credfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("credfile: renaming: %w", err)
	}

	success = true

	return nil
}
