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

	"github.com/pdiddy/catalog-engine/internal/textextract"
	"github.com/pdiddy/catalog-engine/pkg/types"
)

// fixedText is an extractor returning the same text for every file.
type fixedText string

func (f fixedText) ExtractText(string) (string, error) { return string(f), nil }

func textCtx(text string) *textextract.Context {
	return textextract.NewContext(fixedText(text))
}

func TestFindISBNs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "labelled isbn-13 with hyphens",
			text: "Copyright page. ISBN-13: 978-0-13-110362-7 printed in USA",
			want: []string{"9780131103627"},
		},
		{
			name: "bare isbn-13",
			text: "catalogued as 9780131103627 by the publisher",
			want: []string{"9780131103627"},
		},
		{
			name: "isbn-10 with check letter",
			text: "ISBN 043942089X first edition",
			want: []string{"043942089X"},
		},
		{
			name: "duplicates collapse in order of appearance",
			text: "ISBN 9780131103627 ... also 978-0-13-110362-7 and 0439420890",
			want: []string{"9780131103627", "0439420890"},
		},
		{
			name: "no candidates",
			text: "A page of ordinary prose with a year 2021 and a phone 555-0100.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindISBNs(tt.text))
		})
	}
}

const volumeJSON = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "The C Programming Language",
			"description": "The definitive reference.",
			"publishedDate": "1988-03-22",
			"authors": ["Brian W. Kernighan", "Dennis M. Ritchie"],
			"industryIdentifiers": [
				{"type": "ISBN_10", "identifier": "0131103628"},
				{"type": "ISBN_13", "identifier": "9780131103627"}
			]
		}
	}]
}`

func TestISBNStrategy_ResolvesFirstCandidate(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		fmt.Fprint(w, volumeJSON)
	}))
	defer ts.Close()

	old := googleBooksAPIBase
	googleBooksAPIBase = ts.URL
	defer func() { googleBooksAPIBase = old }()

	strat := &ISBNStrategy{Client: ts.Client()}
	rec, err := strat.Extract(context.Background(), textCtx("ISBN 978-0-13-110362-7"), "/corpus/kr.pdf")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "isbn:9780131103627", gotQuery)
	assert.Equal(t, "The C Programming Language", rec.Title)
	assert.Equal(t, "9780131103627", rec.ISBN, "ISBN-13 identifier preferred")
	assert.Equal(t, "1988-03-22", rec.PublishedDate)
	assert.Equal(t, []string{"Brian W. Kernighan", "Dennis M. Ritchie"}, rec.Authors)
}

func TestISBNStrategy_ZeroHitsIsMiss(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"totalItems": 0}`)
	}))
	defer ts.Close()

	old := googleBooksAPIBase
	googleBooksAPIBase = ts.URL
	defer func() { googleBooksAPIBase = old }()

	strat := &ISBNStrategy{Client: ts.Client()}
	rec, err := strat.Extract(context.Background(), textCtx("ISBN 9780131103627"), "/corpus/kr.pdf")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestISBNStrategy_NoCandidatesNoNetwork(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	defer ts.Close()

	old := googleBooksAPIBase
	googleBooksAPIBase = ts.URL
	defer func() { googleBooksAPIBase = old }()

	strat := &ISBNStrategy{Client: ts.Client()}
	rec, err := strat.Extract(context.Background(), textCtx("no identifiers here"), "/corpus/essay.pdf")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 0, calls)
}

func TestISBNStrategy_ServerErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	old := googleBooksAPIBase
	googleBooksAPIBase = ts.URL
	defer func() { googleBooksAPIBase = old }()

	strat := &ISBNStrategy{Client: ts.Client()}
	_, err := strat.Extract(context.Background(), textCtx("ISBN 9780131103627"), "/corpus/kr.pdf")
	assert.Error(t, err, "the resolver absorbs this as a strategy miss")
}

func TestISBNStrategy_SendsKeyAndUserAgent(t *testing.T) {
	var gotKey, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"totalItems": 0}`)
	}))
	defer ts.Close()

	old := googleBooksAPIBase
	googleBooksAPIBase = ts.URL
	defer func() { googleBooksAPIBase = old }()

	strat := &ISBNStrategy{
		Client: ts.Client(),
		Config: types.LookupConfig{
			HTTPConfig:        types.HTTPConfig{UserAgent: "catalog-engine/0.1"},
			GoogleBooksAPIKey: "k123",
			ContactEmail:      "ops@example.com",
		},
	}
	_, err := strat.Extract(context.Background(), textCtx("ISBN 9780131103627"), "/corpus/kr.pdf")
	require.NoError(t, err)

	assert.Equal(t, "k123", gotKey)
	assert.Equal(t, "catalog-engine/0.1 (mailto:ops@example.com)", gotUA)
}
