package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/domain"
)

func TestParse(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)

	recs, err := Parse(`[
		{"title": "The Overstory", "author": "Richard Powers", "explanation": "trees"},
		{"title": " Piranesi ", "author": "Susanna Clarke", "explanation": "halls", "year": 2020}
	]`, now)
	require.NoError(t, err)

	assert.Equal(t, []domain.Recommendation{
		{Title: "The Overstory", Author: "Richard Powers", Explanation: "trees", DateGenerated: "2024-05-01"},
		{Title: "Piranesi", Author: "Susanna Clarke", Explanation: "halls", DateGenerated: "2024-05-01"},
	}, recs)
}

func TestParse_EmptyArray(t *testing.T) {
	recs, err := Parse("  []\n", time.Now())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"not json":        "not json",
		"empty":           "",
		"object":          `{"title":"Dune","author":"Frank Herbert","explanation":"x"}`,
		"missing field":   `[{"title":"Dune","author":"Frank Herbert"}]`,
		"blank field":     `[{"title":"  ","author":"Frank Herbert","explanation":"x"}]`,
		"wrong type":      `[{"title":1,"author":"Frank Herbert","explanation":"x"}]`,
		"non-object item": `["Dune"]`,
		"null item":       `[null]`,
		"truncated":       `[{"title":"Dune"`,
		"fenced":          "```json\n[]\n```",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			recs, err := Parse(content, time.Now())
			assert.ErrorIs(t, err, ErrMalformedContent)
			assert.Nil(t, recs)
		})
	}
}
