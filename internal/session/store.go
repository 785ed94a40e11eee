// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists the outcome of the latest run for later
// inspection with `gencommit last`.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/bartekus/gencommit/internal/render"
)

// DirName is the directory under the git dir that holds gencommit state.
const DirName = "gencommit"

// Store handles reading and writing run state.
type Store struct {
	baseDir string
}

// NewStore creates a store at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// ForGitDir creates the store kept inside a repository's git directory.
func ForGitDir(gitDir string) *Store {
	return NewStore(filepath.Join(gitDir, DirName))
}

// Path is the location of the last-run record.
func (s *Store) Path() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

// Read loads the last run. A missing record is not an error and yields nil.
func (s *Store) Read() (*LastRun, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading last run")
	}

	var last LastRun
	if err := json.Unmarshal(data, &last); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.Path())
	}
	return &last, nil
}

// Write replaces the last-run record atomically.
func (s *Store) Write(last *LastRun) error {
	data, err := json.MarshalIndent(last, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding last run")
	}
	return render.AtomicWrite(s.Path(), append(data, '\n'))
}

// Reset clears the state directory.
func (s *Store) Reset() error {
	return os.RemoveAll(s.baseDir)
}
