// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Strategy attempts to produce a metadata record for one file. A nil record
// with a nil error is an ordinary miss. Each strategy is identified by a
// stable name used as the outlier-tracking key, so renaming a strategy
// invalidates its failure history.
type Strategy[R any] interface {
	Name() string
	Extract(ctx context.Context, text *textextract.Context, path string) (*R, error)
}

// Resolver resolves records for one category through its fixed lookup chain.
// Construction binds the category to its suffix allow-list, chain, and
// storage subtree; there is no runtime category dispatch.
type Resolver[R any] struct {
	category types.Category
	suffixes map[string]bool
	chain    []Strategy[R]
	store    *Store[R]
	outliers *OutlierStore
	text     *textextract.Context

	// mu guards stems. Per-stem locks serialize concurrent work on the
	// same file so strategies are never double-invoked and outlier writes
	// are never lost; different stems never contend.
	mu    sync.Mutex
	stems map[string]*sync.Mutex
}

// NewResolver builds a resolver for category. suffixes is the allow-list of
// file extensions (with leading dot, matched case-insensitively); chain is
// the lookup strategies in priority order.
func NewResolver[R any](category types.Category, suffixes []string, chain []Strategy[R], metadataRoot string, text *textextract.Context) *Resolver[R] {
	allowed := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		allowed[strings.ToLower(s)] = true
	}
	return &Resolver[R]{
		category: category,
		suffixes: allowed,
		chain:    chain,
		store:    NewStore[R](metadataRoot, category),
		outliers: NewOutlierStore(metadataRoot, category),
		text:     text,
		stems:    make(map[string]*sync.Mutex),
	}
}

// Category returns the category this resolver serves.
func (r *Resolver[R]) Category() types.Category { return r.category }

// Allowed reports whether path carries a suffix in the category allow-list.
func (r *Resolver[R]) Allowed(path string) bool {
	return r.suffixes[strings.ToLower(filepath.Ext(path))]
}

// Stem returns the cache key for path: the file name without extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Resolve resolves a record for the file at path:
//
//  1. Files that do not exist, are not regular, or carry a disallowed
//     suffix are an expected silent skip (nil, nil), not an error.
//  2. A cached record is returned unconditionally; no strategy runs.
//  3. Strategies already recorded as failed for this file are skipped.
//  4. Remaining strategies run in priority order; the first success is
//     persisted and returned, and any stale outlier entry is removed.
//  5. Exhausting the chain persists the complete attempted set as an
//     outlier entry, superseding any prior partial record, and returns
//     (nil, nil).
//
// A strategy failing internally (network error, unreadable file) counts as
// a miss for that strategy and never aborts the chain. The returned error
// covers only persistence failures and context cancellation.
func (r *Resolver[R]) Resolve(ctx context.Context, path string) (*R, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || !r.Allowed(path) {
		return nil, nil
	}

	stem := Stem(path)
	unlock := r.lockStem(stem)
	defer unlock()

	if rec, state := r.store.Load(stem); state == LoadValid {
		return rec, nil
	}

	failed := r.outliers.Failed(stem)

	attempted := make([]string, 0, len(r.chain))
	for _, strat := range r.chain {
		attempted = append(attempted, strat.Name())
		if failed[strat.Name()] {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := strat.Extract(ctx, r.text, path)
		if err != nil || rec == nil {
			continue
		}

		if err := r.store.Save(stem, rec); err != nil {
			return nil, fmt.Errorf("persisting record for %s: %w", stem, err)
		}
		r.outliers.Clear(stem)
		return rec, nil
	}

	// attempted holds the full chain here: previously failed names plus
	// everything freshly tried in this pass.
	if err := r.outliers.Record(stem, path, attempted); err != nil {
		return nil, fmt.Errorf("persisting outlier entry for %s: %w", stem, err)
	}
	return nil, nil
}

// lockStem acquires the per-stem mutex, creating it on first use, and
// returns the unlock function.
func (r *Resolver[R]) lockStem(stem string) func() {
	r.mu.Lock()
	m, ok := r.stems[stem]
	if !ok {
		m = &sync.Mutex{}
		r.stems[stem] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Records lazily yields the records resolvable from the files in dir,
// enumerated non-recursively. Files that yield no record are silently
// dropped; the persisted outlier entries are the audit trail for why.
// The sequence is restartable: re-iterating re-walks the directory and
// re-invokes the resolver, which is cache-aware and cheap on repeat.
// Ordering follows directory iteration order and is not guaranteed stable
// across platforms.
func (r *Resolver[R]) Records(ctx context.Context, dir string) iter.Seq[*R] {
	return func(yield func(*R) bool) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			rec, err := r.Resolve(ctx, filepath.Join(dir, entry.Name()))
			if err != nil || rec == nil {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// ScanSummary holds counts from a batch resolution pass over a directory.
type ScanSummary struct {
	Resolved int
	Missed   int
	Skipped  int
	Failed   int
}

// Total returns the number of directory entries processed.
func (s ScanSummary) Total() int {
	return s.Resolved + s.Missed + s.Skipped + s.Failed
}

// ScanBatch resolves every eligible file in dir, printing per-file status
// to w and returning the resolved records with a summary. Unsupported
// entries count as skipped without output; exhausted chains count as
// missed, with the outlier store holding the reason.
func (r *Resolver[R]) ScanBatch(ctx context.Context, dir string, w io.Writer) ([]*R, ScanSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ScanSummary{}, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	var (
		records []*R
		summary ScanSummary
	)

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() || !r.Allowed(path) {
			summary.Skipped++
			continue
		}

		rec, err := r.Resolve(ctx, path)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return records, summary, err
			}
			fmt.Fprintf(w, "failed:   %s (%v)\n", Stem(path), err)
			summary.Failed++
		case rec == nil:
			fmt.Fprintf(w, "missed:   %s\n", Stem(path))
			summary.Missed++
		default:
			fmt.Fprintf(w, "resolved: %s\n", Stem(path))
			summary.Resolved++
			records = append(records, rec)
		}
	}

	fmt.Fprintf(w, "\nScan summary: %d resolved, %d missed, %d skipped, %d failed (total: %d)\n",
		summary.Resolved, summary.Missed, summary.Skipped, summary.Failed, summary.Total())
	return records, summary, nil
}
