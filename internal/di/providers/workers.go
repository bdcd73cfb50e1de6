package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/marlowai/marlow/internal/config"
	"github.com/marlowai/marlow/internal/logger"
	"github.com/marlowai/marlow/internal/service"
	"github.com/marlowai/marlow/internal/watcher"
)

// ImportInboxHandle wraps the import inbox with shutdown capability.
// Inbox is nil when no watch directory is configured.
type ImportInboxHandle struct {
	*watcher.Inbox
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ImportInboxHandle) Shutdown() error {
	if h.Inbox == nil {
		return nil
	}
	h.cancel()
	return h.Inbox.Shutdown()
}

// ProvideImportInbox starts watching the import directory for Goodreads exports.
func ProvideImportInbox(i do.Injector) (*ImportInboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*service.LibraryService](i)

	if cfg.Import.WatchDir == "" {
		log.Info("Import inbox disabled")
		return &ImportInboxHandle{}, nil
	}

	importFile := func(ctx context.Context, path string) error {
		_, err := library.ImportFile(ctx, path, service.ImportSourceWatcher)
		return err
	}

	inbox, err := watcher.NewInbox(cfg.Import.WatchDir, importFile, log.Component("inbox"),
		watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = inbox.Run(ctx)
	}()

	log.Info("Import inbox started", "dir", cfg.Import.WatchDir)
	return &ImportInboxHandle{Inbox: inbox, cancel: cancel}, nil
}
