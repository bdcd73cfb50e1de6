package recommend

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/normalize"
	"github.com/marlowai/marlow/internal/validation"
)

// ErrMalformedContent is returned when completion content is not a JSON
// array of complete recommendation objects.
var ErrMalformedContent = errors.New("recommend: malformed completion content")

type rawRecommendation struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Explanation string `json:"explanation" validate:"required"`
}

var validate = validation.New()

// Parse decodes content as a JSON array of {title, author, explanation}
// and stamps every entry with now. One invalid element fails the whole reply.
func Parse(content string, now time.Time) ([]domain.Recommendation, error) {
	trimmed := bytes.TrimSpace([]byte(content))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedContent)
	}

	var raw []rawRecommendation
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	date := now.Format(validation.DateLayout)
	recs := make([]domain.Recommendation, 0, len(raw))
	for i, r := range raw {
		r.Title = normalize.Text(r.Title)
		r.Author = normalize.Text(r.Author)
		r.Explanation = normalize.Text(r.Explanation)
		if err := validate.Validate(r); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedContent, i, err)
		}
		recs = append(recs, domain.Recommendation{
			Title:         r.Title,
			Author:        r.Author,
			Explanation:   r.Explanation,
			DateGenerated: date,
		})
	}
	return recs, nil
}
