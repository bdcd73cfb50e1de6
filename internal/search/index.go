package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// SearchIndex wraps an in-memory Bleve index. The index is derived data:
// it is rebuilt from the collections at startup and kept current by
// collection observers.
//
// Thread safety: All public methods are safe for concurrent use.
type SearchIndex struct {
	index  bleve.Index
	logger *slog.Logger

	mu  sync.RWMutex
	ids map[DocKind]map[string]struct{} // indexed IDs per kind
}

// NewSearchIndex creates an empty in-memory index.
func NewSearchIndex(logger *slog.Logger) (*SearchIndex, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SearchIndex{
		index:  index,
		logger: logger,
		ids:    make(map[DocKind]map[string]struct{}),
	}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument indexes a single document.
func (s *SearchIndex) IndexDocument(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Index(doc.ID, doc.ToMap()); err != nil {
		return err
	}
	s.track(doc.Kind)[doc.ID] = struct{}{}
	return nil
}

// DeleteDocument removes a document from the index.
func (s *SearchIndex) DeleteDocument(kind DocKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Delete(id); err != nil {
		return err
	}
	delete(s.track(kind), id)
	return nil
}

// ReplaceKind makes docs the complete set of documents of kind. Documents
// no longer present are deleted, all others are (re)indexed in one batch.
func (s *SearchIndex) ReplaceKind(kind DocKind, docs []*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.track(kind)
	next := make(map[string]struct{}, len(docs))

	batch := s.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
		next[doc.ID] = struct{}{}
	}
	for id := range current {
		if _, keep := next[id]; !keep {
			batch.Delete(id)
		}
	}

	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("commit %s batch: %w", kind, err)
	}
	s.ids[kind] = next

	s.logger.Debug("search index updated", "kind", kind, "documents", len(next))
	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

func (s *SearchIndex) track(kind DocKind) map[string]struct{} {
	ids, ok := s.ids[kind]
	if !ok {
		ids = make(map[string]struct{})
		s.ids[kind] = ids
	}
	return ids
}
