// Package search is the entry point every user interface goes through to
// run a query: it parses and validates the raw input, runs it against the
// live index and highlights the matches in the returned rows.
//
// The CLI, the TUI, the web page and the JSON API all share this code path,
// so they agree on what a query means and on how many results it returns.
package search

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/index"
	"github.com/rubiojr/hayao/pkg/query"
)

// MaxResults is the hard cap on results per query.
const MaxResults = index.MaxResults

// ErrEmptyQuery is returned for queries that are empty after
// normalization. Interfaces treat it as "nothing to do", not as zero
// results.
var ErrEmptyQuery = errors.New("empty query")

// Searcher runs parsed queries. The warehouse implements it.
type Searcher interface {
	Search(ctx context.Context, q query.Query, limit int) ([]index.Hit, error)
}

// SearchParams holds the parameters of one search.
type SearchParams struct {
	// Query is the raw user input. It is normalized before parsing.
	Query string

	// Limit is the maximum number of results. Values outside 1..MaxResults
	// mean MaxResults.
	Limit int
}

// Result is one matching row.
type Result struct {
	SheetName string `json:"sheet_name"`
	// Row is the original row as stored in the index.
	Row core.Row `json:"original_data"`
	// Fields holds the row values with matches highlighted, in column order.
	Fields []highlight.Field `json:"fields"`
}

// SearchResults is the outcome of a search.
type SearchResults struct {
	// Query is the normalized query.
	Query string `json:"query"`
	// Tokens are the highlighted terms.
	Tokens     []string `json:"tokens"`
	Results    []Result `json:"results"`
	TotalCount int      `json:"total_count"`
	Limit      int      `json:"limit"`
}

// Service runs searches and highlights results with a fixed marker.
type Service struct {
	searcher   Searcher
	marker     highlight.Marker
	maxResults int
}

// NewSearchService creates a service. maxResults lowers the per-query cap;
// values outside 1..MaxResults mean MaxResults.
func NewSearchService(searcher Searcher, marker highlight.Marker, maxResults int) *Service {
	if maxResults <= 0 || maxResults > MaxResults {
		maxResults = MaxResults
	}
	return &Service{searcher: searcher, marker: marker, maxResults: maxResults}
}

// Search parses params.Query and runs it.
//
// Errors:
//   - ErrEmptyQuery when there is nothing to search for; the index is not
//     touched.
//   - *query.ParseError for unsupported syntax.
//   - whatever the Searcher returns, e.g. *core.SourceUnavailableError when
//     the index had to be built and the source failed.
func (s *Service) Search(ctx context.Context, params SearchParams) (*SearchResults, error) {
	q, err := query.Parse(params.Query)
	if err != nil {
		return nil, err
	}
	if q.Empty() {
		return nil, ErrEmptyQuery
	}

	limit := params.Limit
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	hits, err := s.searcher.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	h := highlight.ForQuery(q.Normalized, s.marker)
	results := make([]Result, len(hits))
	for i, hit := range hits {
		results[i] = Result{
			SheetName: hit.SheetName,
			Row:       hit.OriginalData,
			Fields:    h.Row(hit.OriginalData),
		}
	}

	return &SearchResults{
		Query:      q.Normalized,
		Tokens:     h.Tokens(),
		Results:    results,
		TotalCount: len(results),
		Limit:      limit,
	}, nil
}

// ParseSearchParams reads q and limit from HTTP query parameters. A missing
// or out of range limit means MaxResults; a non-numeric one is an error.
//
// Example:
//
//	params, err := ParseSearchParams(r.URL.Query())
func ParseSearchParams(values url.Values) (SearchParams, error) {
	params := SearchParams{
		Query: values.Get("q"),
		Limit: MaxResults,
	}
	if limitStr := values.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return params, err
		}
		if parsed > 0 && parsed <= MaxResults {
			params.Limit = parsed
		}
	}
	return params, nil
}
