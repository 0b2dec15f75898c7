// Durable storage for the access/refresh token pair.
//
// One JSON file under the config dir plays the role the browser build gave to
// localStorage: a single key, absence means anonymous. The store is
// process-global shared state with a single-writer assumption; callers read
// it fresh before every request rather than caching the pair.
package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/taskdeck/cli/internal/model"
)

const tokenFileName = "tokens.json"

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, tokenFileName)
}

// Save persists the pair, replacing any prior value. The write goes through a
// temp file and rename so a crash never leaves a half-written pair behind.
func (s *Store) Save(pair model.TokenPair) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	tmpPath := s.path() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write tokens: %w", err)
	}

	if err := os.Rename(tmpPath, s.path()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename token file: %w", err)
	}

	return nil
}

// Load returns the persisted pair and whether one exists. A missing file is
// not an error, and a malformed file is treated as absent: an unreadable pair
// cannot be trusted any more than a missing one.
func (s *Store) Load() (model.TokenPair, bool, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return model.TokenPair{}, false, nil
		}
		return model.TokenPair{}, false, fmt.Errorf("failed to read tokens: %w", err)
	}

	var pair model.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return model.TokenPair{}, false, nil
	}
	if pair.Access == "" {
		return model.TokenPair{}, false, nil
	}

	return pair, true, nil
}

// Clear removes the persisted pair. Clearing an absent pair is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
