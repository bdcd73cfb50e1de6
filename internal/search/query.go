package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string    // User's search query
	Kinds []DocKind // Kinds to include (empty = all)

	Limit  int
	Offset int

	SortBy string // "relevance", "title", "rating"

	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		SortBy:    "relevance",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Kind       DocKind           `json:"kind"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Rating     int               `json:"rating,omitempty"`
	Date       string            `json:"date,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("author")
	}

	searchRequest.Fields = []string{"kind", "title", "author", "rating", "date"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if k, ok := hit.Fields["kind"].(string); ok {
			searchHit.Kind = DocKind(k)
		}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}
		if r, ok := hit.Fields["rating"].(float64); ok {
			searchHit.Rating = int(r)
		}
		if d, ok := hit.Fields["date"].(string); ok {
			searchHit.Date = d
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)

		explanationMatch := bleve.NewMatchQuery(q)
		explanationMatch.SetField("explanation")
		explanationMatch.SetBoost(0.5)

		// Typo tolerance on titles
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, authorMatch, explanationMatch, fuzzyQuery}

		// Prefix query for autocomplete (minimum 2 chars)
		if len(q) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Kinds) > 0 {
		kindQueries := make([]query.Query, len(params.Kinds))
		for i, k := range params.Kinds {
			tq := bleve.NewTermQuery(string(k))
			tq.SetField("kind")
			kindQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(kindQueries...))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title":
		req.SortBy([]string{"title", "_id"})
	case "rating":
		req.SortBy([]string{"-rating", "-_score"})
	default:
		req.SortBy([]string{"-_score", "_id"})
	}
}
