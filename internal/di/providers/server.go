package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/api"
	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	recommendations := do.MustInvoke[*RecommendationServiceHandle](i)

	services := &api.Services{
		Library:        do.MustInvoke[*service.LibraryService](i),
		Recommendation: recommendations.RecommendationService,
		Settings:       do.MustInvoke[*service.SettingsService](i),
		BookSearch:     do.MustInvoke[*service.BookSearchService](i),
		Search:         do.MustInvoke[*service.SearchService](i),
	}

	handler := api.NewServer(storeHandle.Repository, services, api.Options{
		Version:           Version,
		CORSOrigins:       cfg.Server.CORSOrigins,
		GenerateRateLimit: cfg.Server.GenerateRateLimit,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
