package watcher

import (
	"context"
	"fmt"
	"log/slog"
)

// ImportFunc imports one settled file.
type ImportFunc func(ctx context.Context, path string) error

// Inbox imports every CSV file that settles in a directory.
type Inbox struct {
	dir     string
	watcher *Watcher
	importF ImportFunc
	logger  *slog.Logger
}

// NewInbox watches dir for CSV files and passes each to importF.
func NewInbox(dir string, importF ImportFunc, logger *slog.Logger, opts Options) (*Inbox, error) {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".csv"}
	}

	w, err := New(logger, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(dir); err != nil {
		_ = w.Stop()
		return nil, fmt.Errorf("watch import inbox: %w", err)
	}

	return &Inbox{
		dir:     dir,
		watcher: w,
		importF: importF,
		logger:  logger,
	}, nil
}

// Run imports files until ctx is cancelled. Import failures are logged
// and do not stop the inbox.
func (in *Inbox) Run(ctx context.Context) error {
	go func() {
		_ = in.watcher.Start(ctx)
	}()

	in.logger.Info("import inbox watching", "dir", in.dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-in.watcher.Errors():
			in.logger.Warn("import inbox watch error", "error", err)
		case event := <-in.watcher.Events():
			if event.Type == EventRemoved {
				continue
			}
			if err := in.importF(ctx, event.Path); err != nil {
				in.logger.Warn("import inbox file failed", "path", event.Path, "event", event.Type, "error", err)
				continue
			}
			in.logger.Info("import inbox file imported", "path", event.Path, "event", event.Type)
		}
	}
}

// Shutdown stops the underlying watcher.
func (in *Inbox) Shutdown() error {
	return in.watcher.Stop()
}
