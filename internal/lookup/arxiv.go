// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivIDPattern matches modern arXiv identifiers used as file stems:
// "2101.00001", "2301.07041v2".
var arxivIDPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(?:v\d+)?$`)

// ArxivStrategy resolves papers whose file stem is an arXiv identifier by
// querying the arXiv API's id_list endpoint. Files with non-matching stems
// are a miss without any network call.
type ArxivStrategy struct {
	Client *http.Client
	Config types.LookupConfig
}

// Name returns the strategy identifier.
func (s *ArxivStrategy) Name() string { return NameArxiv }

// Extract queries arXiv when the file stem looks like an arXiv ID.
func (s *ArxivStrategy) Extract(ctx context.Context, _ *textextract.Context, path string) (*types.PaperRecord, error) {
	stem := stemOf(path)
	if !arxivIDPattern.MatchString(stem) {
		return nil, nil
	}

	apiURL := fmt.Sprintf("%s?id_list=%s", arxivAPIBase, stem)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	// The API answers an unknown ID with an empty feed or an entry whose
	// title is missing; both are a miss.
	if len(feed.Entries) == 0 {
		return nil, nil
	}
	entry := feed.Entries[0]
	if strings.TrimSpace(entry.Title) == "" {
		return nil, nil
	}

	rec := &types.PaperRecord{
		Title:           strings.TrimSpace(entry.Title),
		ArxivID:         strings.TrimSuffix(stem, versionSuffix(stem)),
		Abstract:        strings.TrimSpace(entry.Summary),
		PublicationDate: strings.TrimSpace(entry.Published),
	}
	for _, a := range entry.Authors {
		rec.Authors = append(rec.Authors, strings.TrimSpace(a.Name))
	}
	return rec, nil
}

// versionSuffix returns the trailing "vN" of an arXiv ID, or "".
func versionSuffix(id string) string {
	idx := strings.LastIndex(id, "v")
	if idx <= 0 {
		return ""
	}
	return id[idx:]
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
