package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/search"
)

// SearchService keeps the library search index in step with the read list
// and the accepted recommendations.
type SearchService struct {
	index  *search.SearchIndex
	lists  *Lists
	logger *slog.Logger
}

// NewSearchService indexes the current lists and subscribes to later changes.
func NewSearchService(index *search.SearchIndex, lists *Lists, logger *slog.Logger) (*SearchService, error) {
	s := &SearchService{
		index:  index,
		lists:  lists,
		logger: logger,
	}

	if err := s.indexBooks(lists.Read.List()); err != nil {
		return nil, err
	}
	if err := s.indexRecommendations(lists.Recommendations.List()); err != nil {
		return nil, err
	}

	lists.Read.Subscribe(func(books []domain.ReadBook) {
		if err := s.indexBooks(books); err != nil {
			s.logger.Warn("failed to reindex read list", "error", err)
		}
	})
	lists.Recommendations.Subscribe(func(recs []domain.Recommendation) {
		if err := s.indexRecommendations(recs); err != nil {
			s.logger.Warn("failed to reindex recommendations", "error", err)
		}
	})

	return s, nil
}

// Search runs a query against the index.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	return s.index.Search(ctx, params)
}

func (s *SearchService) indexBooks(books []domain.ReadBook) error {
	docs := make([]*search.Document, len(books))
	for i, b := range books {
		docs[i] = search.ReadBookDocument(b)
	}
	if err := s.index.ReplaceKind(search.KindRead, docs); err != nil {
		return fmt.Errorf("index read list: %w", err)
	}
	return nil
}

func (s *SearchService) indexRecommendations(recs []domain.Recommendation) error {
	docs := make([]*search.Document, len(recs))
	for i, r := range recs {
		docs[i] = search.RecommendationDocument(r)
	}
	if err := s.index.ReplaceKind(search.KindRecommendation, docs); err != nil {
		return fmt.Errorf("index recommendations: %w", err)
	}
	return nil
}
