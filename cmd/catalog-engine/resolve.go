// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/catalog-engine/internal/metadata"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [files...]",
	Short: "Resolve metadata records for individual library files",
	Long: `Resolve runs each file through its category's lookup chain and persists
the resulting record. Already-resolved files return the cached record without
any network traffic; files every strategy has already failed on are skipped
until a new strategy joins the chain.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("category", "", "record category: books or papers (required)")
	resolveCmd.Flags().Bool("json", false, "print resolved records as JSON")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more file paths")
	}

	categoryFlag, _ := cmd.Flags().GetString("category")
	category := types.Category(categoryFlag)
	if !category.Valid() {
		return fmt.Errorf("invalid category %q: use books or papers", categoryFlag)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	text, err := newTextContext()
	if err != nil {
		return err
	}

	switch category {
	case types.CategoryBooks:
		return resolveFiles(cmd.Context(), newBookResolver(text), args, jsonOutput)
	default:
		return resolveFiles(cmd.Context(), newPaperResolver(text), args, jsonOutput)
	}
}

func resolveFiles[R any](ctx context.Context, r *metadata.Resolver[R], paths []string, jsonOutput bool) error {
	var records []*R
	for _, path := range paths {
		rec, err := r.Resolve(ctx, path)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Printf("missed:   %s\n", metadata.Stem(path))
			continue
		}
		fmt.Printf("resolved: %s\n", metadata.Stem(path))
		records = append(records, rec)
	}

	if jsonOutput && len(records) > 0 {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	return nil
}
