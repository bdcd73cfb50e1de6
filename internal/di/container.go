// Package di provides dependency injection configuration for the marlow server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/auth"
	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/di/providers"
	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/recommend"
	"github.com/marlowai/marlow/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// The HTTP server and import inbox are registered but only started by Bootstrap.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideSealingKey)
	do.Provide(injector, providers.ProvideSealer)

	// Database layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideLists)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Outbound clients
	do.Provide(injector, providers.ProvideCompletionClient)
	do.Provide(injector, providers.ProvideWorkflow)
	do.Provide(injector, providers.ProvideBookCatalog)

	// Business services
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideRecommendationService)
	do.Provide(injector, providers.ProvideBookSearchService)

	// Workers
	do.Provide(injector, providers.ProvideImportInbox)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server and import inbox.
func Bootstrap(injector *do.RootScope) error {
	invokers := []func() error{
		invoke[*logger.Logger](injector),
		invoke[*auth.Sealer](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*service.Lists](injector),
		invoke[*providers.SearchIndexHandle](injector),
		invoke[*service.SearchService](injector),
		invoke[*recommend.Workflow](injector),
		invoke[*service.LibraryService](injector),
		invoke[*service.SettingsService](injector),
		invoke[*providers.RecommendationServiceHandle](injector),
		invoke[*service.BookSearchService](injector),
		invoke[*providers.ImportInboxHandle](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}
	for _, fn := range invokers {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
