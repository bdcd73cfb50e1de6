package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/domain"
)

func recs(titles ...string) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(titles))
	for _, t := range titles {
		out = append(out, domain.Recommendation{Title: t, Author: "a", Explanation: "e"})
	}
	return out
}

func TestParseDedupePolicy(t *testing.T) {
	p, err := ParseDedupePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DedupeOff, p)

	p, err = ParseDedupePolicy("title")
	require.NoError(t, err)
	assert.Equal(t, DedupeTitle, p)

	_, err = ParseDedupePolicy("fuzzy")
	assert.Error(t, err)
}

func TestDedupeOff_PassesDuplicatesThrough(t *testing.T) {
	kept, dropped := DedupeOff.Apply(recs("Dune", "Dune", "Emma"), []string{"Dune"})

	assert.Len(t, kept, 3, "exclusion is advisory only")
	assert.Empty(t, dropped)
}

func TestDedupeTitle_DropsSeenAndRepeated(t *testing.T) {
	kept, dropped := DedupeTitle.Apply(recs("DUNE", "Emma", "emma.", "Piranesi"), []string{"Dune"})

	titles := make([]string, 0, len(kept))
	for _, r := range kept {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"Emma", "Piranesi"}, titles)
	assert.Equal(t, []string{"DUNE", "emma."}, dropped)
}
