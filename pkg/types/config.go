package types

import "time"

// HTTPConfig holds shared HTTP settings used by lookups that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "catalog-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LibraryConfig locates the source corpora and the metadata tree.
type LibraryConfig struct {
	// BooksDir is the directory of book files, enumerated non-recursively.
	BooksDir string `json:"books_dir" yaml:"books_dir"`

	// PapersDir is the directory of paper files, enumerated non-recursively.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// MetadataDir is the root of the persisted metadata tree (contains
	// books/, papers/, outliers/, index/).
	MetadataDir string `json:"metadata_dir" yaml:"metadata_dir"`
}

// LookupConfig holds settings for the lookup strategies.
type LookupConfig struct {
	HTTPConfig `yaml:",inline"`

	// GoogleBooksAPIKey is an optional API key for the Google Books
	// volumes API (higher rate limits).
	GoogleBooksAPIKey string `json:"google_books_api_key,omitempty" yaml:"google_books_api_key,omitempty"`

	// ContactEmail is included in the User-Agent for polite API access.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`

	// TextWindow is the number of bytes of extracted text scanned for
	// identifiers (default 4096). Zero means the default; identifier
	// scanning never reads the whole document.
	TextWindow int `json:"text_window" yaml:"text_window"`
}

// CatalogConfig holds settings for the catalog index.
type CatalogConfig struct {
	// MetadataDir is the root of the persisted metadata tree.
	MetadataDir string `json:"metadata_dir" yaml:"metadata_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
