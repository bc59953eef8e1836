// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// Entry is a normalized catalog row. Identifier is the ISBN for books
// and the arXiv id for papers.
type Entry struct {
	Stem        string         `json:"stem" yaml:"stem"`
	Category    types.Category `json:"category" yaml:"category"`
	Title       string         `json:"title" yaml:"title"`
	Identifier  string         `json:"identifier" yaml:"identifier"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Date        string         `json:"date,omitempty" yaml:"date,omitempty"`
	Authors     []string       `json:"authors,omitempty" yaml:"authors,omitempty"`
}

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over title, description,
	// and authors.
	Query string

	// Category restricts results to one record category.
	Category types.Category

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == ""
}

// Retrieve queries the catalog with optional full-text search and a
// category filter. Full-text queries are ranked by relevance; filter-only
// queries are sorted by category, then stem.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.stem, r.category, r.title, r.identifier, r.description, r.date, r.authors
			FROM records_fts
			JOIN records r ON r.rowid = records_fts.rowid
			WHERE records_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.stem, r.category, r.title, r.identifier, r.description, r.date, r.authors
			FROM records r
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND r.category = ?`)
		args = append(args, string(opts.Category))
	}

	if useFTS {
		qb.WriteString(` ORDER BY records_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.category, r.stem`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var (
			ent         Entry
			category    string
			description sql.NullString
			date        sql.NullString
			authorsJSON sql.NullString
		)
		if err := rows.Scan(&ent.Stem, &category, &ent.Title, &ent.Identifier,
			&description, &date, &authorsJSON); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		ent.Category = types.Category(category)
		ent.Description = description.String
		ent.Date = date.String
		if authorsJSON.Valid && authorsJSON.String != "" {
			if err := json.Unmarshal([]byte(authorsJSON.String), &ent.Authors); err != nil {
				return nil, fmt.Errorf("parsing authors for %s: %w", ent.Stem, err)
			}
		}
		results = append(results, ent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return results, nil
}
