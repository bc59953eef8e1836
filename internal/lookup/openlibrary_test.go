// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLibraryServer(t *testing.T, edition string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/9780131103627.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, edition)
	})
	mux.HandleFunc("/authors/OL1A.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name": "Brian W. Kernighan"}`)
	})
	mux.HandleFunc("/authors/OL2A.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func TestOpenLibraryStrategy_ResolvesEdition(t *testing.T) {
	ts := openLibraryServer(t, `{
		"title": "The C Programming Language",
		"publish_date": "1988",
		"description": {"type": "/type/text", "value": "The definitive reference."},
		"authors": [{"key": "/authors/OL1A"}, {"key": "/authors/OL2A"}]
	}`)
	defer ts.Close()

	old := openLibraryAPIBase
	openLibraryAPIBase = ts.URL
	defer func() { openLibraryAPIBase = old }()

	strat := &OpenLibraryStrategy{Client: ts.Client()}
	rec, err := strat.Extract(context.Background(), textCtx("ISBN 9780131103627"), "/corpus/kr.pdf")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "The C Programming Language", rec.Title)
	assert.Equal(t, "9780131103627", rec.ISBN)
	assert.Equal(t, "The definitive reference.", rec.Description)
	assert.Equal(t, "1988", rec.PublishedDate)
	// The second author 404s; author fetches are best-effort.
	assert.Equal(t, []string{"Brian W. Kernighan"}, rec.Authors)
}

func TestOpenLibraryStrategy_PlainStringDescription(t *testing.T) {
	ts := openLibraryServer(t, `{
		"title": "The C Programming Language",
		"publish_date": "1988",
		"description": "A plain description."
	}`)
	defer ts.Close()

	old := openLibraryAPIBase
	openLibraryAPIBase = ts.URL
	defer func() { openLibraryAPIBase = old }()

	strat := &OpenLibraryStrategy{Client: ts.Client()}
	rec, err := strat.Extract(context.Background(), textCtx("ISBN 9780131103627"), "/corpus/kr.pdf")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "A plain description.", rec.Description)
	assert.Empty(t, rec.Authors)
}

func TestOpenLibraryStrategy_UnknownISBNIsMiss(t *testing.T) {
	ts := openLibraryServer(t, `{}`)
	defer ts.Close()

	old := openLibraryAPIBase
	openLibraryAPIBase = ts.URL
	defer func() { openLibraryAPIBase = old }()

	strat := &OpenLibraryStrategy{Client: ts.Client()}
	rec, err := strat.Extract(context.Background(), textCtx("ISBN 0439420890"), "/corpus/other.pdf")
	require.NoError(t, err)
	assert.Nil(t, rec, "a 404 edition is a miss, not an error")
}

func TestDecodeDescription(t *testing.T) {
	assert.Equal(t, "", decodeDescription(nil))
	assert.Equal(t, "plain", decodeDescription([]byte(`"plain"`)))
	assert.Equal(t, "typed", decodeDescription([]byte(`{"type": "/type/text", "value": "typed"}`)))
	assert.Equal(t, "", decodeDescription([]byte(`42`)))
}
