package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/service"
	"github.com/marlowai/marlow/internal/store"
	"github.com/marlowai/marlow/internal/store/sqlite"
)

// Storage drivers accepted by STORE_DRIVER.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// StoreHandle wraps the repository with shutdown capability.
type StoreHandle struct {
	store.Repository
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the repository selected by the storage driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		repo store.Repository
		path string
		err  error
	)
	switch cfg.Storage.Driver {
	case DriverSQLite:
		path = filepath.Join(cfg.Storage.DataPath, "marlow.db")
		repo, err = sqlite.Open(path, log.Logger)
	case DriverBadger, "":
		path = filepath.Join(cfg.Storage.DataPath, "db")
		repo, err = store.OpenBadger(path, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", path)
	return &StoreHandle{Repository: repo}, nil
}

// ProvideLists loads the four persisted lists.
func ProvideLists(i do.Injector) (*service.Lists, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	lists, err := service.OpenLists(context.Background(), storeHandle.Repository, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Lists loaded",
		"read", lists.Read.Len(),
		"recommendations", lists.Recommendations.Len(),
		"proposed", lists.Proposed.Len(),
		"rejected", lists.Removed.Len(),
	)
	return lists, nil
}
