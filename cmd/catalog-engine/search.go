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

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the catalog with full-text search and filters",
	Long: `Search queries the catalog built by index using FTS5 full-text search over
titles, descriptions, and authors, optionally restricted to one category.
Full-text results are ranked by relevance.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("category", "", "filter by category: books or papers")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	categoryFlag, _ := cmd.Flags().GetString("category")
	category := types.Category(categoryFlag)
	if categoryFlag != "" && !category.Valid() {
		return fmt.Errorf("invalid category %q: use books or papers", categoryFlag)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	opts := catalog.QueryOptions{
		Query:      strings.Join(args, " "),
		Category:   category,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query or --category")
	}

	store, err := catalog.New(catalogConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			r.Stem,
			string(r.Category),
			truncate(r.Title, 50),
			r.Identifier,
			r.Date,
			truncate(strings.Join(r.Authors, "; "), 40),
		}
	}
	fmt.Println(renderTable([]string{"Stem", "Category", "Title", "Identifier", "Date", "Authors"}, rows))
	fmt.Printf("\n%d results\n", len(results))
	return nil
}
