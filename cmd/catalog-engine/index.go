// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/catalog"
	"github.com/pdiddy/catalog-engine/internal/metadata"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the searchable catalog from resolved records",
	Long: `Index ingests the persisted metadata records into a SQLite database with
FTS5 full-text indexing and writes a YAML export. Records whose files are
unchanged since the last run are skipped.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := catalogConfig()

	unlock, err := metadata.LockRoot(cfg.MetadataDir)
	if err != nil {
		return err
	}
	defer unlock()

	store, err := catalog.New(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	if err := store.ExportYAML(cmd.Context(), catalog.QueryOptions{}); err != nil {
		return err
	}
	fmt.Println("Exported to", filepath.Join(cfg.MetadataDir, "index", "export.yaml"))

	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed indexing", summary.Failed)
	}
	return nil
}
