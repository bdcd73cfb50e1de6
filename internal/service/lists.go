// Package service implements the library and recommendation workflows on
// top of the persisted collections.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marlowai/marlow/internal/collection"
	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/store"
)

// Lists holds the four persisted lists of the library.
type Lists struct {
	Read            *collection.Collection[domain.ReadBook]
	Recommendations *collection.Collection[domain.Recommendation]
	Proposed        *collection.Collection[domain.Recommendation]
	Removed         *collection.Collection[domain.Recommendation]
}

// OpenLists hydrates every list from repo. Lists that were never stored
// start empty and are written back immediately.
func OpenLists(ctx context.Context, repo store.Repository, logger *slog.Logger) (*Lists, error) {
	opt := collection.WithLogger(logger)

	read, err := collection.Open(ctx, repo, domain.KeyRead, domain.ReadBookTitle, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("open read list: %w", err)
	}

	recs := make(map[string]*collection.Collection[domain.Recommendation], 3)
	for _, key := range []string{domain.KeyRecommendations, domain.KeyProposed, domain.KeyRemoved} {
		c, err := collection.Open(ctx, repo, key, domain.RecommendationTitle, nil, opt)
		if err != nil {
			return nil, fmt.Errorf("open %s list: %w", key, err)
		}
		recs[key] = c
	}

	return &Lists{
		Read:            read,
		Recommendations: recs[domain.KeyRecommendations],
		Proposed:        recs[domain.KeyProposed],
		Removed:         recs[domain.KeyRemoved],
	}, nil
}

// SeenTitles returns every title that was ever recommended: accepted,
// awaiting review, or rejected.
func (l *Lists) SeenTitles() []string {
	titles := l.Recommendations.Titles()
	titles = append(titles, l.Proposed.Titles()...)
	return append(titles, l.Removed.Titles()...)
}
