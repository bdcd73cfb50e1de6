// Package search provides full-text search over the reading list and the
// accepted recommendations using an in-memory Bleve index.
package search

import "github.com/marlowai/marlow/internal/domain"

// DocKind identifies which list a document came from.
type DocKind string

// Document kinds in the index.
const (
	KindRead           DocKind = "read"
	KindRecommendation DocKind = "recommendation"
)

// Document is the indexed form of a list record.
type Document struct {
	ID          string  `json:"id"` // kind + ":" + title
	Kind        DocKind `json:"kind"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Explanation string  `json:"explanation,omitempty"`
	Rating      int     `json:"rating,omitempty"`
	Date        string  `json:"date,omitempty"` // completion or generation date
}

// DocumentID builds the index ID for a record of kind with title.
func DocumentID(kind DocKind, title string) string {
	return string(kind) + ":" + title
}

// ToMap converts the document to a map with field names matching the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":     d.ID,
		"kind":   string(d.Kind),
		"title":  d.Title,
		"author": d.Author,
	}
	if d.Explanation != "" {
		m["explanation"] = d.Explanation
	}
	if d.Kind == KindRead {
		m["rating"] = float64(d.Rating)
	}
	if d.Date != "" {
		m["date"] = d.Date
	}
	return m
}

// ReadBookDocument converts a read book.
func ReadBookDocument(b domain.ReadBook) *Document {
	return &Document{
		ID:     DocumentID(KindRead, b.Title),
		Kind:   KindRead,
		Title:  b.Title,
		Author: b.Author,
		Rating: b.Rating,
		Date:   b.DateCompleted,
	}
}

// RecommendationDocument converts an accepted recommendation.
func RecommendationDocument(r domain.Recommendation) *Document {
	return &Document{
		ID:          DocumentID(KindRecommendation, r.Title),
		Kind:        KindRecommendation,
		Title:       r.Title,
		Author:      r.Author,
		Explanation: r.Explanation,
		Date:        r.DateGenerated,
	}
}
