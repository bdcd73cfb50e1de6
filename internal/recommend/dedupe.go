package recommend

import (
	"fmt"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/normalize"
)

// DedupePolicy decides what happens to proposals whose titles were seen before.
type DedupePolicy string

const (
	// DedupeOff keeps every proposal. Exclusion is advisory prompt text only.
	DedupeOff DedupePolicy = "off"
	// DedupeTitle drops proposals whose normalized title was already seen,
	// including repeats within the same reply.
	DedupeTitle DedupePolicy = "title"
)

// ParseDedupePolicy parses a configured policy name. Empty means DedupeOff.
func ParseDedupePolicy(s string) (DedupePolicy, error) {
	switch DedupePolicy(s) {
	case "", DedupeOff:
		return DedupeOff, nil
	case DedupeTitle:
		return DedupeTitle, nil
	default:
		return "", fmt.Errorf("unknown dedupe policy %q (want %q or %q)", s, DedupeOff, DedupeTitle)
	}
}

// Apply filters recs against seen titles. It returns the kept proposals
// and the titles that were dropped.
func (p DedupePolicy) Apply(recs []domain.Recommendation, seen []string) (kept []domain.Recommendation, dropped []string) {
	if p != DedupeTitle {
		return recs, nil
	}

	known := make(map[string]struct{}, len(seen)+len(recs))
	for _, title := range seen {
		known[normalize.Title(title)] = struct{}{}
	}

	kept = make([]domain.Recommendation, 0, len(recs))
	for _, rec := range recs {
		key := normalize.Title(rec.Title)
		if _, dup := known[key]; dup {
			dropped = append(dropped, rec.Title)
			continue
		}
		known[key] = struct{}{}
		kept = append(kept, rec)
	}
	return kept, dropped
}
