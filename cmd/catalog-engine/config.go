// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/catalog-engine/internal/httputil"
	"github.com/pdiddy/catalog-engine/internal/lookup"
	"github.com/pdiddy/catalog-engine/internal/metadata"
	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

const defaultUserAgent = "catalog-engine/0.1"

// bookSuffixes and paperSuffixes are the per-category file extension
// allow-lists. Everything else in the corpus directories is skipped.
var (
	bookSuffixes  = []string{".pdf", ".epub"}
	paperSuffixes = []string{".pdf"}
)

func init() {
	viper.SetDefault("library.books_dir", "books")
	viper.SetDefault("library.papers_dir", "papers")
	viper.SetDefault("library.metadata_dir", "metadata")
	viper.SetDefault("lookup.timeout", 60*time.Second)
	viper.SetDefault("lookup.text_window", textextract.DefaultTextWindow)
	viper.SetDefault("extract.backend", string(textextract.BackendPdftotext))
	viper.SetDefault("catalog.max_results", 20)
}

func libraryConfig() types.LibraryConfig {
	return types.LibraryConfig{
		BooksDir:    viper.GetString("library.books_dir"),
		PapersDir:   viper.GetString("library.papers_dir"),
		MetadataDir: viper.GetString("library.metadata_dir"),
	}
}

func lookupConfig() types.LookupConfig {
	return types.LookupConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("lookup.timeout"),
			UserAgent: defaultUserAgent,
		},
		GoogleBooksAPIKey: secretDefault("google-books-api-key", viper.GetString("lookup.google_books_api_key")),
		ContactEmail:      secretDefault("contact-email", viper.GetString("lookup.contact_email")),
		TextWindow:        viper.GetInt("lookup.text_window"),
	}
}

func catalogConfig() types.CatalogConfig {
	return types.CatalogConfig{
		MetadataDir: viper.GetString("library.metadata_dir"),
		MaxResults:  viper.GetInt("catalog.max_results"),
	}
}

func newTextContext() (*textextract.Context, error) {
	backend := textextract.Backend(viper.GetString("extract.backend"))
	extractor, err := textextract.NewExtractor(backend)
	if err != nil {
		return nil, err
	}
	return textextract.NewContext(extractor), nil
}

// newBookResolver wires the books lookup chain: Google Books first, Open
// Library as the fallback.
func newBookResolver(text *textextract.Context) *metadata.Resolver[types.BookRecord] {
	cfg := lookupConfig()
	client := httputil.NewClient(cfg.HTTPConfig)

	chain := []metadata.Strategy[types.BookRecord]{
		&lookup.ISBNStrategy{Client: client, Config: cfg},
		&lookup.OpenLibraryStrategy{Client: client, Config: cfg},
	}
	return metadata.NewResolver(types.CategoryBooks, bookSuffixes, chain, libraryConfig().MetadataDir, text)
}

// newPaperResolver wires the papers lookup chain: arXiv only.
func newPaperResolver(text *textextract.Context) *metadata.Resolver[types.PaperRecord] {
	cfg := lookupConfig()
	client := httputil.NewClient(cfg.HTTPConfig)

	chain := []metadata.Strategy[types.PaperRecord]{
		&lookup.ArxivStrategy{Client: client, Config: cfg},
	}
	return metadata.NewResolver(types.CategoryPapers, paperSuffixes, chain, libraryConfig().MetadataDir, text)
}
