package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	assert.True(t, opts.IgnoreHidden, "Should ignore hidden files by default")
	assert.Equal(t, 250*time.Millisecond, opts.SettleDelay)
	assert.Contains(t, opts.IgnorePatterns, "*.part")
}

func TestOptions_CustomValues(t *testing.T) {
	opts := Options{
		IgnorePatterns: []string{},
		SettleDelay:    time.Second,
	}
	opts.setDefaults()

	assert.False(t, opts.IgnoreHidden, "explicit patterns keep the caller's hidden-file choice")
	assert.Equal(t, time.Second, opts.SettleDelay)
	assert.Empty(t, opts.IgnorePatterns)
}

func TestOptions_ShouldIgnore(t *testing.T) {
	opts := Options{Extensions: []string{".csv"}}
	opts.setDefaults()

	tests := []struct {
		path   string
		ignore bool
	}{
		{"/inbox/goodreads_library_export.csv", false},
		{"/inbox/EXPORT.CSV", false},
		{"/inbox/.hidden.csv", true},
		{"/inbox/export.csv.part", true},
		{"/inbox/notes.txt", true},
		{"/inbox/~$export.csv", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignore, opts.shouldIgnore(tt.path))
		})
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "added", EventAdded.String())
	assert.Equal(t, "modified", EventModified.String())
	assert.Equal(t, "removed", EventRemoved.String())
	assert.Equal(t, "unknown", EventType(42).String())
}
