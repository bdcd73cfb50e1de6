package providers

import (
	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/search"
	"github.com/marlowai/marlow/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory Bleve index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(log.Component("search"))
	if err != nil {
		return nil, err
	}
	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService indexes the lists and keeps the index in sync.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	lists := do.MustInvoke[*service.Lists](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc, err := service.NewSearchService(indexHandle.SearchIndex, lists, log.Logger)
	if err != nil {
		return nil, err
	}

	docCount, _ := indexHandle.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)
	return svc, nil
}
