package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/marlowai/marlow/internal/normalize"
)

// MaxUploadSize is the maximum accepted CSV upload (10 MB).
const MaxUploadSize = 10 << 20

// Content types for CSV downloads.
const (
	contentTypeCSV = "text/csv; charset=utf-8"
)

type rawPathKey struct{}

// markRawPath records whether chi will route on the escaped path. chi
// matches on URL.RawPath when it is set (e.g. for "%2F"), leaving path
// parameters escaped; otherwise they are already decoded.
func markRawPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawPath != "" {
			r = r.WithContext(context.WithValue(r.Context(), rawPathKey{}, true))
		}
		next.ServeHTTP(w, r)
	})
}

// pathTitle decodes a {title} path parameter. It unescapes only values
// taken from an escaped path, so a title containing "%20" survives.
func pathTitle(ctx context.Context, raw string) string {
	if escaped, _ := ctx.Value(rawPathKey{}).(bool); escaped {
		if title, err := url.PathUnescape(raw); err == nil {
			raw = title
		}
	}
	return normalize.Text(raw)
}

// attachment builds a Content-Disposition header value.
func attachment(filename string) string {
	return `attachment; filename="` + filename + `"`
}
