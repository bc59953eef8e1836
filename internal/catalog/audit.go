// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// OutlierReport describes one file the resolver gave up on. Stale is set
// when a metadata record now exists for the stem, meaning the outlier entry
// was left behind and will be cleared on the next successful resolve.
type OutlierReport struct {
	Stem      string         `json:"stem" yaml:"stem"`
	Category  types.Category `json:"category" yaml:"category"`
	FilePath  string         `json:"filepath" yaml:"filepath"`
	Attempted []string       `json:"strategies_attempted" yaml:"strategies_attempted"`
	Stale     bool           `json:"stale" yaml:"stale"`
}

// Audit reads the persisted outlier entries for a category and reports each
// one, flagging entries whose stem has since been resolved. Entries that
// fail to parse are skipped; a missing outlier directory yields an empty
// report.
func Audit(metadataDir string, category types.Category) ([]OutlierReport, error) {
	dir := filepath.Join(metadataDir, outliersDir, string(category))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading outlier directory %s: %w", dir, err)
	}

	var reports []OutlierReport
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), ".json")
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}

		var oe types.OutlierEntry
		if err := json.Unmarshal(data, &oe); err != nil {
			continue
		}

		recordPath := filepath.Join(metadataDir, string(category), stem+".json")
		_, statErr := os.Stat(recordPath)

		reports = append(reports, OutlierReport{
			Stem:      stem,
			Category:  category,
			FilePath:  oe.FilePath,
			Attempted: oe.Attempted,
			Stale:     statErr == nil,
		})
	}

	return reports, nil
}
