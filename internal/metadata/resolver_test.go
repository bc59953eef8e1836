// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// fakeStrategy returns a fixed record, error, or miss, counting invocations.
type fakeStrategy[R any] struct {
	name  string
	rec   *R
	err   error
	calls int
}

func (f *fakeStrategy[R]) Name() string { return f.name }

func (f *fakeStrategy[R]) Extract(_ context.Context, _ *textextract.Context, _ string) (*R, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func newBookResolver(root string, chain ...Strategy[types.BookRecord]) *Resolver[types.BookRecord] {
	text := textextract.NewContext(&textextract.RawExtractor{})
	return NewResolver(types.CategoryBooks, []string{".pdf", ".epub"}, chain, root, text)
}

func newPaperResolver(root string, chain ...Strategy[types.PaperRecord]) *Resolver[types.PaperRecord] {
	text := textextract.NewContext(&textextract.RawExtractor{})
	return NewResolver(types.CategoryPapers, []string{".pdf"}, chain, root, text)
}

func TestResolve_CacheHitInvokesNoStrategies(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "9780131103627.pdf")

	strat := &fakeStrategy[types.BookRecord]{name: "isbn", rec: &types.BookRecord{Title: "K&R", ISBN: "9780131103627"}}
	r := newBookResolver(root, strat)

	first, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, strat.calls)

	second, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, strat.calls, "second resolve must be a pure cache hit")
}

func TestResolve_ExhaustionRecordsFullChainAndSkipsRetries(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "unknown.pdf")

	a := &fakeStrategy[types.BookRecord]{name: "isbn"}
	b := &fakeStrategy[types.BookRecord]{name: "openlibrary"}
	r := newBookResolver(root, a, b)

	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	outliers := NewOutlierStore(root, types.CategoryBooks)
	assert.Equal(t, map[string]bool{"isbn": true, "openlibrary": true}, outliers.Failed("unknown"))

	// The second pass must invoke neither strategy and record the same set.
	rec, err = r.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, map[string]bool{"isbn": true, "openlibrary": true}, outliers.Failed("unknown"))
}

func TestResolve_FirstSuccessWins(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "book.pdf")

	a := &fakeStrategy[types.BookRecord]{name: "isbn", rec: &types.BookRecord{Title: "from A"}}
	b := &fakeStrategy[types.BookRecord]{name: "openlibrary", rec: &types.BookRecord{Title: "from B"}}
	r := newBookResolver(root, a, b)

	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "from A", rec.Title)
	assert.Equal(t, 0, b.calls, "lower-priority strategy must not run after a success")

	stored, state := NewStore[types.BookRecord](root, types.CategoryBooks).Load("book")
	require.Equal(t, LoadValid, state)
	assert.Equal(t, "from A", stored.Title)
}

func TestResolve_CorruptCacheBehavesAsMiss(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "book.pdf")

	strat := &fakeStrategy[types.BookRecord]{name: "isbn", rec: &types.BookRecord{Title: "valid"}}
	r := newBookResolver(root, strat)

	_, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, 1, strat.calls)

	// Smash the cache slot.
	store := NewStore[types.BookRecord](root, types.CategoryBooks)
	require.NoError(t, os.WriteFile(store.Path("book"), []byte("{truncated"), 0o644))

	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err, "corruption must never surface as an error")
	require.NotNil(t, rec)
	assert.Equal(t, 2, strat.calls, "chain must re-run after a corrupt cache slot")

	stored, state := store.Load("book")
	require.Equal(t, LoadValid, state)
	assert.Equal(t, "valid", stored.Title)
}

func TestResolve_DisallowedSuffixIsSilentSkip(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "notes.txt")

	strat := &fakeStrategy[types.BookRecord]{name: "isbn", rec: &types.BookRecord{Title: "x"}}
	r := newBookResolver(root, strat)

	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, strat.calls)

	// Neither store may gain an entry.
	entries, _ := os.ReadDir(root)
	assert.Empty(t, entries)
}

func TestResolve_MissingFileAndDirectorySkip(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	r := newBookResolver(root, &fakeStrategy[types.BookRecord]{name: "isbn"})

	rec, err := r.Resolve(context.Background(), filepath.Join(corpus, "absent.pdf"))
	require.NoError(t, err)
	assert.Nil(t, rec)

	sub := filepath.Join(corpus, "shelf.pdf")
	require.NoError(t, os.Mkdir(sub, 0o755))
	rec, err = r.Resolve(context.Background(), sub)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestResolve_StrategyErrorTreatedAsMiss(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "book.pdf")

	a := &fakeStrategy[types.BookRecord]{name: "isbn", err: errors.New("connection refused")}
	b := &fakeStrategy[types.BookRecord]{name: "openlibrary", rec: &types.BookRecord{Title: "rescued"}}
	r := newBookResolver(root, a, b)

	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "rescued", rec.Title)

	// Success means no outlier entry survives.
	outliers := NewOutlierStore(root, types.CategoryBooks)
	assert.Empty(t, outliers.Failed("book"))
}

func TestResolve_SuccessSupersedesOutlierEntry(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "book.pdf")

	// First run: the only strategy misses and is memoized.
	miss := &fakeStrategy[types.BookRecord]{name: "isbn"}
	r := newBookResolver(root, miss)
	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	require.Nil(t, rec)

	// Later run with an extended chain: the memoized strategy is skipped,
	// the new one succeeds, and the outlier entry is removed.
	skipped := &fakeStrategy[types.BookRecord]{name: "isbn", rec: &types.BookRecord{Title: "should not run"}}
	added := &fakeStrategy[types.BookRecord]{name: "openlibrary", rec: &types.BookRecord{Title: "found"}}
	r2 := newBookResolver(root, skipped, added)

	rec, err = r2.Resolve(context.Background(), file)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "found", rec.Title)
	assert.Equal(t, 0, skipped.calls)

	outliers := NewOutlierStore(root, types.CategoryBooks)
	assert.Empty(t, outliers.Failed("book"))
	_, err = os.Stat(outliers.Path("book"))
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_PaperScenario(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "2101.00001.pdf")

	arxiv := &fakeStrategy[types.PaperRecord]{name: "arxiv"}
	r := newPaperResolver(root, arxiv)

	rec, err := r.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Nil(t, rec)

	outliers := NewOutlierStore(root, types.CategoryPapers)
	assert.Equal(t, map[string]bool{"arxiv": true}, outliers.Failed("2101.00001"))

	rec, err = r.Resolve(context.Background(), file)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, arxiv.calls, "memoized miss must not re-invoke the strategy")
}

func TestResolve_ContextCancellation(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	file := touch(t, corpus, "book.pdf")

	strat := &fakeStrategy[types.BookRecord]{name: "isbn"}
	r := newBookResolver(root, strat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, file)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, strat.calls)

	// A cancelled pass is not an exhausting pass; nothing is memoized.
	outliers := NewOutlierStore(root, types.CategoryBooks)
	assert.Empty(t, outliers.Failed("book"))
}

func TestRecords_YieldsOnlyResolved(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	touch(t, corpus, "9780131103627.pdf")
	touch(t, corpus, "unknown.pdf")
	touch(t, corpus, "notes.txt")

	strat := &hitByStem{hits: map[string]*types.BookRecord{
		"9780131103627": {Title: "K&R", ISBN: "9780131103627"},
	}}
	r := newBookResolver(root, strat)

	var titles []string
	for rec := range r.Records(context.Background(), corpus) {
		titles = append(titles, rec.Title)
	}
	assert.Equal(t, []string{"K&R"}, titles)

	// Restartable: a second iteration yields the same records from cache.
	calls := strat.calls
	titles = nil
	for rec := range r.Records(context.Background(), corpus) {
		titles = append(titles, rec.Title)
	}
	assert.Equal(t, []string{"K&R"}, titles)
	assert.Equal(t, calls, strat.calls, "re-iteration must be served from cache")
}

func TestScanBatch_SummaryAndStatusLines(t *testing.T) {
	corpus, root := t.TempDir(), t.TempDir()
	touch(t, corpus, "9780131103627.pdf")
	touch(t, corpus, "unknown.pdf")
	touch(t, corpus, "notes.txt")

	strat := &hitByStem{hits: map[string]*types.BookRecord{
		"9780131103627": {Title: "K&R"},
	}}
	r := newBookResolver(root, strat)

	var out strings.Builder
	records, summary, err := r.ScanBatch(context.Background(), corpus, &out)
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Equal(t, ScanSummary{Resolved: 1, Missed: 1, Skipped: 1}, summary)
	assert.Equal(t, 3, summary.Total())
	assert.Contains(t, out.String(), "resolved: 9780131103627")
	assert.Contains(t, out.String(), "missed:   unknown")
	assert.Contains(t, out.String(), "Scan summary: 1 resolved, 1 missed, 1 skipped, 0 failed (total: 3)")
}

// hitByStem succeeds only for stems present in its map.
type hitByStem struct {
	hits  map[string]*types.BookRecord
	calls int
}

func (h *hitByStem) Name() string { return "isbn" }

func (h *hitByStem) Extract(_ context.Context, _ *textextract.Context, path string) (*types.BookRecord, error) {
	h.calls++
	return h.hits[Stem(path)], nil
}
