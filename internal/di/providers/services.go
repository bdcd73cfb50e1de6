package providers

import (
	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/auth"
	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/recommend"
	"github.com/marlowai/marlow/internal/service"
)

// ProvideLibraryService provides the read list service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	lists := do.MustInvoke[*service.Lists](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewLibraryService(lists, log.Logger), nil
}

// ProvideSettingsService provides the credential settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sealer := do.MustInvoke[*auth.Sealer](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewSettingsService(storeHandle.Repository, sealer, log.Logger), nil
}

// RecommendationServiceHandle wraps the recommendation service so running
// generations are cancelled on shutdown.
type RecommendationServiceHandle struct {
	*service.RecommendationService
}

// Shutdown implements do.Shutdownable.
func (h *RecommendationServiceHandle) Shutdown() error {
	return h.RecommendationService.Shutdown()
}

// ProvideRecommendationService provides the recommendation service.
func ProvideRecommendationService(i do.Injector) (*RecommendationServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	lists := do.MustInvoke[*service.Lists](i)
	workflow := do.MustInvoke[*recommend.Workflow](i)
	settings := do.MustInvoke[*service.SettingsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	dedupe, err := recommend.ParseDedupePolicy(cfg.Recommendation.Dedupe)
	if err != nil {
		return nil, err
	}

	svc := service.NewRecommendationService(lists, workflow, settings, service.RecommendationOptions{
		Count:      cfg.Recommendation.Count,
		Dedupe:     dedupe,
		ExcludeAll: cfg.Recommendation.Exclude == "all",
	}, log.Logger)

	return &RecommendationServiceHandle{RecommendationService: svc}, nil
}

// ProvideBookSearchService provides the catalog search service.
func ProvideBookSearchService(i do.Injector) (*service.BookSearchService, error) {
	catalog := do.MustInvoke[*BookCatalogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewBookSearchService(catalog.Client, log.Logger), nil
}
