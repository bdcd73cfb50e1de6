// Package domain contains the records tracked by the marlow book library.
package domain

// MaxRating is the highest star rating a reader can give. Zero means unrated.
const MaxRating = 5

// ReadBook is a book the reader has finished, keyed by title.
type ReadBook struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Rating        int    `json:"rating" validate:"gte=0,lte=5"`
	DateCompleted string `json:"dateCompleted,omitempty" validate:"omitempty,isodate"`
}

// IsRated reports whether the reader gave the book a rating.
func (b ReadBook) IsRated() bool {
	return b.Rating > 0
}

// ReadBookTitle extracts the collection key of a ReadBook.
func ReadBookTitle(b ReadBook) string {
	return b.Title
}

// SearchBook is a result from the external book-search proxy.
type SearchBook struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
}

// ToReadBook converts a search hit into an unrated read book.
func (b SearchBook) ToReadBook() ReadBook {
	return ReadBook{Title: b.Title, Author: b.Author}
}
