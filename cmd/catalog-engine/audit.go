// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/catalog"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report the files the lookup chain gave up on",
	Long: `Audit lists the persisted outlier entries: files every lookup strategy was
tried on without producing a record. Entries whose file has since been
resolved are flagged as stale; they clear on the next successful resolve.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().String("category", "", "filter by category: books or papers")
	auditCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	categoryFlag, _ := cmd.Flags().GetString("category")

	categories := []types.Category{types.CategoryBooks, types.CategoryPapers}
	if categoryFlag != "" {
		category := types.Category(categoryFlag)
		if !category.Valid() {
			return fmt.Errorf("invalid category %q: use books or papers", categoryFlag)
		}
		categories = []types.Category{category}
	}

	metadataDir := libraryConfig().MetadataDir
	var reports []catalog.OutlierReport
	for _, category := range categories {
		r, err := catalog.Audit(metadataDir, category)
		if err != nil {
			return err
		}
		reports = append(reports, r...)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	if len(reports) == 0 {
		fmt.Println("No outliers recorded.")
		return nil
	}

	rows := make([][]string, len(reports))
	for i, r := range reports {
		stale := ""
		if r.Stale {
			stale = "yes"
		}
		rows[i] = []string{
			r.Stem,
			string(r.Category),
			strings.Join(r.Attempted, ", "),
			stale,
			truncate(r.FilePath, 60),
		}
	}
	fmt.Println(renderTable([]string{"Stem", "Category", "Attempted", "Stale", "File"}, rows))
	fmt.Printf("\n%d outlier(s)\n", len(reports))
	return nil
}
