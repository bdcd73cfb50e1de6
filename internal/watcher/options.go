package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the file watcher behavior.
type Options struct {
	// Extensions limits events to files with these extensions (".csv").
	// Empty accepts every file.
	Extensions     []string
	IgnorePatterns []string
	SettleDelay    time.Duration
	IgnoreHidden   bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 250 * time.Millisecond
	}

	// nil means "not configured"; an explicit empty slice is respected.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"*.tmp",
			"*.part",
			"*.crdownload",
			"~$*",
		}
		o.IgnoreHidden = true
	}
}

// shouldIgnore checks if a path matches ignore patterns or lacks an accepted extension.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	if o.IgnoreHidden && strings.HasPrefix(base, ".") {
		return true
	}

	for _, pattern := range o.IgnorePatterns {
		matched, err := filepath.Match(pattern, base)
		if err == nil && matched {
			return true
		}
	}

	if len(o.Extensions) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range o.Extensions {
		if ext == strings.ToLower(want) {
			return false
		}
	}
	return true
}
