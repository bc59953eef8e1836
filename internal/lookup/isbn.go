// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup implements the metadata lookup strategies chained by the
// resolver: ISBN search against Google Books, the Open Library backup, and
// arXiv ID resolution.
// Implements: prd002-lookup (R1-R4).
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Strategy names are the keys written to outlier entries. They must stay
// stable across releases: renaming one discards its failure history.
const (
	NameISBN        = "isbn"
	NameOpenLibrary = "openlibrary"
	NameArxiv       = "arxiv"
)

// googleBooksAPIBase is the Google Books volumes endpoint. Declared as a
// var so tests can substitute an httptest server.
var googleBooksAPIBase = "https://www.googleapis.com/books/v1/volumes"

// isbnPattern matches ISBN-10 and ISBN-13 candidates in extracted text,
// tolerating hyphen or space group separators and an optional label.
var isbnPattern = regexp.MustCompile(
	`(?:ISBN(?:-1[03])?:?\s*)?\b(97[89][-\x{2010}\s]?(?:\d[-\x{2010}\s]?){9}\d|\d{9}[\dXx])\b`)

// FindISBNs scans text for ISBN candidates and returns them normalized
// (separators stripped, check digit upper-cased), deduplicated, in order
// of appearance.
func FindISBNs(text string) []string {
	var (
		found []string
		seen  = make(map[string]bool)
	)
	for _, m := range isbnPattern.FindAllStringSubmatch(text, -1) {
		isbn := normalizeISBN(m[1])
		if len(isbn) != 10 && len(isbn) != 13 {
			continue
		}
		if seen[isbn] {
			continue
		}
		seen[isbn] = true
		found = append(found, isbn)
	}
	return found
}

func normalizeISBN(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// ISBNStrategy scans the leading window of extracted text for ISBN
// candidates and resolves them against the Google Books volumes API.
type ISBNStrategy struct {
	Client *http.Client
	Config types.LookupConfig
}

// Name returns the strategy identifier.
func (s *ISBNStrategy) Name() string { return NameISBN }

// Extract scans the file's leading text for ISBNs and returns the first
// volume match. Returning (nil, nil) means no candidate resolved.
func (s *ISBNStrategy) Extract(ctx context.Context, text *textextract.Context, path string) (*types.BookRecord, error) {
	window := s.Config.TextWindow
	if window <= 0 {
		window = textextract.DefaultTextWindow
	}

	leading, err := text.Text(path, window)
	if err != nil {
		return nil, err
	}

	for _, isbn := range FindISBNs(leading) {
		rec, err := s.queryVolume(ctx, isbn)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	return nil, nil
}

// Google Books volumes API JSON structures.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	PublishedDate       string   `json:"publishedDate"`
	Authors             []string `json:"authors"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
}

// queryVolume looks one ISBN up in the volumes API. A zero-hit response is
// a miss, not an error.
func (s *ISBNStrategy) queryVolume(ctx context.Context, isbn string) (*types.BookRecord, error) {
	apiURL := fmt.Sprintf("%s?q=%s", googleBooksAPIBase, url.QueryEscape("isbn:"+isbn))
	if s.Config.GoogleBooksAPIKey != "" {
		apiURL += "&key=" + url.QueryEscape(s.Config.GoogleBooksAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Google Books API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Google Books API returned HTTP %d", resp.StatusCode)
	}

	var vr volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("parsing Google Books response: %w", err)
	}

	if vr.TotalItems == 0 || len(vr.Items) == 0 {
		return nil, nil
	}

	info := vr.Items[0].VolumeInfo
	return &types.BookRecord{
		Title:         info.Title,
		ISBN:          pickISBN(info, isbn),
		Description:   info.Description,
		PublishedDate: info.PublishedDate,
		Authors:       info.Authors,
	}, nil
}

// pickISBN prefers the ISBN-13 identifier from the volume record, falling
// back to any reported identifier and finally to the searched candidate.
func pickISBN(info volumeInfo, searched string) string {
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			return id.Identifier
		}
	}
	if len(info.IndustryIdentifiers) > 0 {
		return info.IndustryIdentifiers[0].Identifier
	}
	return searched
}

// stemOf returns the file name without its extension.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// userAgent builds the User-Agent header, appending the contact email when
// configured (polite API access).
func userAgent(cfg types.LookupConfig) string {
	ua := cfg.UserAgent
	if ua == "" {
		ua = "catalog-engine/0.1"
	}
	if cfg.ContactEmail != "" {
		ua += " (mailto:" + cfg.ContactEmail + ")"
	}
	return ua
}
