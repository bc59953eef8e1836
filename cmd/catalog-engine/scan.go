// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/metadata"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Resolve metadata for every file in the library",
	Long: `Scan walks the configured books and papers directories (non-recursively)
and resolves a metadata record for every supported file. Cached records and
memoized failures make repeat scans cheap: only new files and new strategies
cause network traffic.

The metadata tree is locked for the duration of the scan; a second concurrent
scan fails rather than queueing.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	lib := libraryConfig()

	unlock, err := metadata.LockRoot(lib.MetadataDir)
	if err != nil {
		return err
	}
	defer unlock()

	text, err := newTextContext()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var failed int

	fmt.Printf("Scanning %s\n", lib.BooksDir)
	_, books, err := newBookResolver(text).ScanBatch(ctx, lib.BooksDir, os.Stdout)
	if err != nil {
		return err
	}
	failed += books.Failed

	fmt.Printf("\nScanning %s\n", lib.PapersDir)
	_, papers, err := newPaperResolver(text).ScanBatch(ctx, lib.PapersDir, os.Stdout)
	if err != nil {
		return err
	}
	failed += papers.Failed

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed resolution", failed)
	}
	return nil
}
