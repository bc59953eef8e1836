// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata resolves bibliographic records for source files through
// an ordered chain of lookup strategies, caching successes and memoizing
// failures on disk so repeated passes over a corpus stay cheap.
// Implements: prd001-resolution (R1-R5).
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// outliersDir is the subtree under the metadata root holding failure memos.
const outliersDir = "outliers"

// LoadState classifies the outcome of reading a persisted cache entry, so
// callers can branch without treating corruption as an error condition.
type LoadState int

const (
	// LoadAbsent means no entry exists for the stem.
	LoadAbsent LoadState = iota

	// LoadValid means the entry deserialized cleanly.
	LoadValid

	// LoadCorruptRemoved means the entry failed to parse and was deleted
	// so it cannot block future resolution attempts.
	LoadCorruptRemoved
)

// Store persists one record per file stem under <root>/<category>/. The
// category is part of the key namespace: two files with the same stem in
// different categories never collide because each category has its own
// storage subtree.
type Store[R any] struct {
	root     string
	category types.Category
}

// NewStore returns a record store for one category rooted at root.
func NewStore[R any](root string, category types.Category) *Store[R] {
	return &Store[R]{root: root, category: category}
}

func (s *Store[R]) dir() string {
	return filepath.Join(s.root, string(s.category))
}

// Path returns the storage path for a stem.
func (s *Store[R]) Path(stem string) string {
	return filepath.Join(s.dir(), stem+".json")
}

// Load reads the cached record for stem. A payload that fails to parse is
// deleted and reported as LoadCorruptRemoved; a partially written or
// otherwise corrupt entry must never block a later resolution attempt.
func (s *Store[R]) Load(stem string) (*R, LoadState) {
	path := s.Path(stem)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, LoadAbsent
	}

	var rec R
	if err := json.Unmarshal(data, &rec); err != nil {
		os.Remove(path)
		return nil, LoadCorruptRemoved
	}
	return &rec, LoadValid
}

// Save writes the record for stem, creating the category subtree if absent.
// The write goes through a temp file and an atomic rename so a crash leaves
// either the old entry or the new one, never a partial payload.
func (s *Store[R]) Save(stem string, rec *R) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", s.dir(), err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", stem, err)
	}

	return writeAtomic(s.Path(stem), data)
}

// writeAtomic writes data to dest via a temp file in the same directory
// followed by a rename.
func writeAtomic(dest string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", dest, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
