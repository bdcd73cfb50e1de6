package domain

// Recommendation is a book suggested by the completion endpoint, keyed by title.
// DateGenerated is the calendar date (YYYY-MM-DD) the suggestion was received.
type Recommendation struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Explanation   string `json:"explanation"`
	DateGenerated string `json:"date_generated"`
}

// RecommendationTitle extracts the collection key of a Recommendation.
func RecommendationTitle(r Recommendation) string {
	return r.Title
}

// AsRead turns an accepted recommendation into a read book once the reader finishes it.
func (r Recommendation) AsRead(rating int, dateCompleted string) ReadBook {
	return ReadBook{
		Title:         r.Title,
		Author:        r.Author,
		Rating:        rating,
		DateCompleted: dateCompleted,
	}
}
