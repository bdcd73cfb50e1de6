package service

import (
	"context"
	"log/slog"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/normalize"
)

const defaultBookSearchLimit = 10

// BookSearcher looks up books in an external catalogue.
type BookSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchBook, error)
}

// BookSearchService proxies the external catalogue. Lookup failures are
// logged and produce an empty result.
type BookSearchService struct {
	searcher BookSearcher
	logger   *slog.Logger
}

// NewBookSearchService creates a new book search service.
func NewBookSearchService(searcher BookSearcher, logger *slog.Logger) *BookSearchService {
	return &BookSearchService{
		searcher: searcher,
		logger:   logger,
	}
}

// Search returns up to limit matches for query, never nil.
func (s *BookSearchService) Search(ctx context.Context, query string, limit int) []domain.SearchBook {
	query = normalize.Text(query)
	if query == "" {
		return []domain.SearchBook{}
	}
	if limit <= 0 {
		limit = defaultBookSearchLimit
	}

	books, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		s.logger.Warn("book search failed", "query", query, "error", err)
		return []domain.SearchBook{}
	}
	if books == nil {
		books = []domain.SearchBook{}
	}
	return books
}
