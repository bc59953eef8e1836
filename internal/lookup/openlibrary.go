// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// openLibraryAPIBase is the Open Library endpoint. Declared as a var so
// tests can substitute an httptest server.
var openLibraryAPIBase = "https://openlibrary.org"

// OpenLibraryStrategy is the backup book lookup: it reuses the ISBN
// candidates from the text window and resolves them against Open Library's
// edition endpoint. It typically runs after the Google Books strategy has
// been memoized as failed for a file.
type OpenLibraryStrategy struct {
	Client *http.Client
	Config types.LookupConfig
}

// Name returns the strategy identifier.
func (s *OpenLibraryStrategy) Name() string { return NameOpenLibrary }

// Extract resolves the file's ISBN candidates against Open Library.
func (s *OpenLibraryStrategy) Extract(ctx context.Context, text *textextract.Context, path string) (*types.BookRecord, error) {
	window := s.Config.TextWindow
	if window <= 0 {
		window = textextract.DefaultTextWindow
	}

	leading, err := text.Text(path, window)
	if err != nil {
		return nil, err
	}

	for _, isbn := range FindISBNs(leading) {
		rec, err := s.queryEdition(ctx, isbn)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	return nil, nil
}

// Open Library edition JSON. Description arrives either as a plain string
// or as a {"type": ..., "value": ...} object depending on the record.
type olEdition struct {
	Title       string          `json:"title"`
	PublishDate string          `json:"publish_date"`
	Description json.RawMessage `json:"description"`
	Authors     []struct {
		Key string `json:"key"`
	} `json:"authors"`
}

type olAuthor struct {
	Name string `json:"name"`
}

// queryEdition looks one ISBN up at /isbn/{isbn}.json. A 404 is a miss,
// not an error.
func (s *OpenLibraryStrategy) queryEdition(ctx context.Context, isbn string) (*types.BookRecord, error) {
	resp, err := s.get(ctx, fmt.Sprintf("%s/isbn/%s.json", openLibraryAPIBase, isbn))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Open Library API returned HTTP %d", resp.StatusCode)
	}

	var edition olEdition
	if err := json.NewDecoder(resp.Body).Decode(&edition); err != nil {
		return nil, fmt.Errorf("parsing Open Library response: %w", err)
	}
	if edition.Title == "" {
		return nil, nil
	}

	rec := &types.BookRecord{
		Title:         edition.Title,
		ISBN:          isbn,
		Description:   decodeDescription(edition.Description),
		PublishedDate: edition.PublishDate,
	}

	// Author fetches are best-effort: a record without author names is
	// still a usable record.
	for _, a := range edition.Authors {
		name, err := s.authorName(ctx, a.Key)
		if err != nil || name == "" {
			continue
		}
		rec.Authors = append(rec.Authors, name)
	}
	return rec, nil
}

// authorName resolves an author key like "/authors/OL123A" to a name.
func (s *OpenLibraryStrategy) authorName(ctx context.Context, key string) (string, error) {
	resp, err := s.get(ctx, fmt.Sprintf("%s%s.json", openLibraryAPIBase, key))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Open Library API returned HTTP %d", resp.StatusCode)
	}

	var author olAuthor
	if err := json.NewDecoder(resp.Body).Decode(&author); err != nil {
		return "", fmt.Errorf("parsing author response: %w", err)
	}
	return author.Name, nil
}

func (s *OpenLibraryStrategy) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(s.Config))

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Open Library API request: %w", err)
	}
	return resp, nil
}

// decodeDescription handles both description encodings.
func decodeDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var typed struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed.Value
	}
	return ""
}
