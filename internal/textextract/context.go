// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textextract

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTextWindow is the number of bytes of text a lookup scans for
// identifiers when no window is configured.
const DefaultTextWindow = 4096

// memoSize bounds the number of (file, limit) results kept in memory.
// Evicted entries are recomputed on demand; recomputation is idempotent.
const memoSize = 512

// Context memoizes text extraction so repeated lookup invocations on the
// same file do not re-run the extraction engine. It is an explicit instance
// passed to every lookup call, never ambient state, so tests can inject a
// fresh context. The memo is safe for concurrent readers.
type Context struct {
	extractor Extractor
	memo      *lru.Cache[textKey, string]
}

type textKey struct {
	path  string
	limit int
}

// NewContext returns a Context backed by the given extractor.
func NewContext(extractor Extractor) *Context {
	// lru.New only fails for a non-positive size.
	memo, _ := lru.New[textKey, string](memoSize)
	return &Context{extractor: extractor, memo: memo}
}

// Text returns up to limit bytes of extracted text from the file at path.
// A limit of 0 returns the entire extractable text. Results are memoized
// per (path, limit) pair: the underlying extractor runs at most once per
// distinct pair while the entry stays resident. An unreadable file yields
// an *ExtractionError.
func (c *Context) Text(path string, limit int) (string, error) {
	key := textKey{path: path, limit: limit}
	if text, ok := c.memo.Get(key); ok {
		return text, nil
	}

	raw, err := c.extractor.ExtractText(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	c.memo.Add(key, raw)
	return raw, nil
}
