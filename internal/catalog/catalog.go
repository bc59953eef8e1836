// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains a searchable SQLite index over resolved
// metadata records and reports on the outlier files the resolver gave up on.
// Implements: prd003-catalog (R1-R4).
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const (
	indexDir    = "index"
	outliersDir = "outliers"
	dbFile      = "catalog.db"
)

// Store manages the catalog SQLite database under <metadataDir>/index/.
type Store struct {
	db          *sql.DB
	metadataDir string
	maxResults  int
}

// New opens or creates the catalog database at metadataDir/index/catalog.db,
// creating the schema if it does not exist.
func New(cfg types.CatalogConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.MetadataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:          db,
		metadataDir: cfg.MetadataDir,
		maxResults:  maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			stem TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT,
			identifier TEXT,
			description TEXT,
			date TEXT,
			authors TEXT,
			file_mod_time TEXT,
			UNIQUE(stem, category)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_category ON records(category)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(title, description, authors, content=records, content_rowid=rowid)`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, title, description, authors)
				VALUES (new.rowid, new.title, new.description, new.authors);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title, description, authors)
				VALUES('delete', old.rowid, old.title, old.description, old.authors);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title, description, authors)
				VALUES('delete', old.rowid, old.title, old.description, old.authors);
				INSERT INTO records_fts(rowid, title, description, authors)
				VALUES (new.rowid, new.title, new.description, new.authors);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a catalog indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of record files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads the persisted record files for both categories and populates
// the database, detecting new, changed, and unchanged files by modification
// time so repeat runs stay incremental.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, category := range []types.Category{types.CategoryBooks, types.CategoryPapers} {
		if err := s.ingestCategory(ctx, category, w, &summary); err != nil {
			return summary, err
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestCategory(ctx context.Context, category types.Category, w io.Writer, summary *IngestSummary) error {
	dir := filepath.Join(s.metadataDir, string(category))
	entries, err := os.ReadDir(dir)
	if err != nil {
		// A category with no resolved records yet is not an error.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading record directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stem := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s/%s: %v\n", category, stem, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM records WHERE stem = ? AND category = ?`,
			stem, string(category),
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s/%s\n", category, stem)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		ent, err := loadEntry(category, stem, path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s/%s: %v\n", category, stem, err)
			summary.Failed++
			continue
		}

		if err := s.upsert(ctx, ent, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s/%s: %v\n", category, stem, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s/%s\n", category, stem)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s/%s\n", category, stem)
			summary.Indexed++
		}
	}

	return nil
}

// loadEntry reads one persisted record file and normalizes it for the index.
func loadEntry(category types.Category, stem, path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}

	ent := Entry{Stem: stem, Category: category}
	switch category {
	case types.CategoryBooks:
		var rec types.BookRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return Entry{}, fmt.Errorf("parse error: %w", err)
		}
		ent.Title = rec.Title
		ent.Identifier = rec.ISBN
		ent.Description = rec.Description
		ent.Date = rec.PublishedDate
		ent.Authors = rec.Authors
	case types.CategoryPapers:
		var rec types.PaperRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return Entry{}, fmt.Errorf("parse error: %w", err)
		}
		ent.Title = rec.Title
		ent.Identifier = rec.ArxivID
		ent.Description = rec.Abstract
		ent.Date = rec.PublicationDate
		ent.Authors = rec.Authors
	default:
		return Entry{}, fmt.Errorf("unknown category %q", category)
	}
	return ent, nil
}

func (s *Store) upsert(ctx context.Context, ent Entry, modTime string) error {
	authorsJSON, _ := json.Marshal(ent.Authors)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (stem, category, title, identifier, description, date, authors, file_mod_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(stem, category) DO UPDATE SET
			title=excluded.title, identifier=excluded.identifier,
			description=excluded.description, date=excluded.date,
			authors=excluded.authors, file_mod_time=excluded.file_mod_time`,
		ent.Stem, string(ent.Category), ent.Title, ent.Identifier,
		ent.Description, ent.Date, string(authorsJSON), modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting record: %w", err)
	}
	return nil
}
