// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures for catalog-engine.
package types

// Category identifies a document corpus. The set is closed: each category
// is bound at construction time to its own suffix allow-list, lookup chain,
// and storage subtree. Adding a category means adding a new resolver, not a
// runtime registration.
type Category string

const (
	CategoryBooks  Category = "books"
	CategoryPapers Category = "papers"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryBooks || c == CategoryPapers
}

// BookRecord is the resolved metadata for one book file. Records are
// written once, on the first successful lookup, and never modified; their
// identity is the source file stem within the books category, not any
// field value.
type BookRecord struct {
	// Title is the book title.
	Title string `json:"title" yaml:"title"`

	// ISBN is the identifying code reported by the lookup source,
	// preferring ISBN-13 when both forms are available.
	ISBN string `json:"isbn" yaml:"isbn"`

	// Description is the publisher's descriptive text.
	Description string `json:"description" yaml:"description"`

	// PublishedDate is the publication date as reported by the source
	// (commonly "2006" or "2006-04-01"; kept verbatim).
	PublishedDate string `json:"published_date" yaml:"published_date"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors" yaml:"authors"`
}

// PaperRecord is the resolved metadata for one paper file. Same identity
// and write-once rules as BookRecord, within the papers category.
type PaperRecord struct {
	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// ArxivID is the arXiv identifier when the paper was resolved from
	// arXiv (e.g. "2101.00001").
	ArxivID string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// PublicationDate is the publication or preprint date as reported by
	// the source, kept verbatim.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// Authors lists the authors in source order.
	Authors []string `json:"authors" yaml:"authors"`
}

// OutlierEntry records which lookup strategies have already been attempted
// and failed for a file. A strategy name appears here only after it was
// actually invoked and produced no record. The entry is overwritten with
// the complete attempted set on every exhausting pass, and is superseded
// the moment a record exists for the same stem.
type OutlierEntry struct {
	// FilePath is the path of the file the strategies were attempted on.
	FilePath string `json:"filepath" yaml:"filepath"`

	// Attempted lists the strategy names tried and failed, in chain order.
	Attempted []string `json:"strategies_attempted" yaml:"strategies_attempted"`
}
