package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/search",
		Summary:     "Search library",
		Description: "Full-text search over read books and accepted recommendations",
		Tags:        []string{"Search"},
	}, s.handleSearchLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Looks up books in the external catalog. Returns an empty list when the catalog is unavailable",
		Tags:        []string{"Search"},
	}, s.handleSearchBooks)
}

// SearchLibraryInput contains library search parameters.
type SearchLibraryInput struct {
	Query  string   `query:"q" doc:"Search query"`
	Kinds  []string `query:"kind" doc:"Filter by kind: read, recommendation"`
	Sort   string   `query:"sort" enum:"relevance,title,rating" default:"relevance" doc:"Result ordering"`
	Limit  int      `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Max results"`
	Offset int      `query:"offset" minimum:"0" default:"0" doc:"Results to skip"`
}

// SearchLibraryOutput wraps the search result for Huma.
type SearchLibraryOutput struct {
	Body *search.SearchResult
}

// SearchBooksInput contains catalog search parameters.
type SearchBooksInput struct {
	Query string `query:"q" doc:"Title or author to look up"`
	Limit int    `query:"limit" minimum:"0" maximum:"40" default:"10" doc:"Max results"`
}

// SearchBooksResponse contains catalog matches.
type SearchBooksResponse struct {
	Books []domain.SearchBook `json:"books" doc:"Matching books, empty when nothing matched or the catalog failed"`
}

// SearchBooksOutput wraps catalog matches for Huma.
type SearchBooksOutput struct {
	Body SearchBooksResponse
}

func (s *Server) handleSearchLibrary(ctx context.Context, input *SearchLibraryInput) (*SearchLibraryOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("search index not configured")
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.SortBy = input.Sort
	params.Offset = input.Offset
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	for _, k := range input.Kinds {
		switch kind := search.DocKind(k); kind {
		case search.KindRead, search.KindRecommendation:
			params.Kinds = append(params.Kinds, kind)
		case "":
		default:
			return nil, huma.Error400BadRequest("unknown kind: " + k)
		}
	}

	res, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, s.fail(err, "search failed")
	}
	return &SearchLibraryOutput{Body: res}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	var books []domain.SearchBook
	if s.services.BookSearch != nil {
		books = s.services.BookSearch.Search(ctx, input.Query, input.Limit)
	}
	if books == nil {
		books = []domain.SearchBook{}
	}
	return &SearchBooksOutput{Body: SearchBooksResponse{Books: books}}, nil
}
