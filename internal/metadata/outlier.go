// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// OutlierStore persists, per category, which lookup strategies have already
// been attempted and failed for a file, so re-running the resolver does not
// repeat network calls known to be fruitless. Entries live under
// <root>/outliers/<category>/ and mirror the record store's key namespace.
type OutlierStore struct {
	root     string
	category types.Category
}

// NewOutlierStore returns an outlier store for one category rooted at root.
func NewOutlierStore(root string, category types.Category) *OutlierStore {
	return &OutlierStore{root: root, category: category}
}

func (s *OutlierStore) dir() string {
	return filepath.Join(s.root, outliersDir, string(s.category))
}

// Path returns the storage path for a stem.
func (s *OutlierStore) Path(stem string) string {
	return filepath.Join(s.dir(), stem+".json")
}

// Failed returns the set of strategy names known to have failed for stem.
// A missing entry yields an empty set; a corrupt entry is deleted and also
// yields an empty set, exactly like the record store's corruption rule.
func (s *OutlierStore) Failed(stem string) map[string]bool {
	path := s.Path(stem)
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]bool{}
	}

	var entry types.OutlierEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		os.Remove(path)
		return map[string]bool{}
	}

	failed := make(map[string]bool, len(entry.Attempted))
	for _, name := range entry.Attempted {
		failed[name] = true
	}
	return failed
}

// Record overwrites the entry for stem with the complete set of strategies
// attempted in the most recent exhausting pass. It overwrites rather than
// appends: the entry reflects everything tried and failed as of that pass.
func (s *OutlierStore) Record(stem, filePath string, attempted []string) error {
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return fmt.Errorf("creating outlier directory %s: %w", s.dir(), err)
	}

	entry := types.OutlierEntry{FilePath: filePath, Attempted: attempted}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling outlier entry %s: %w", stem, err)
	}

	return writeAtomic(s.Path(stem), data)
}

// Clear removes any outlier entry for stem. Called once a record exists,
// which supersedes the failure memo.
func (s *OutlierStore) Clear(stem string) {
	os.Remove(s.Path(stem))
}
