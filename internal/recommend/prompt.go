// Package recommend turns a rated reading list into a completion prompt,
// sends it, and parses the reply into proposed recommendations.
package recommend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/marlowai/marlow/internal/domain"
)

var (
	// ErrNoRatedBooks is returned when there is no reading list to base
	// recommendations on. The endpoint is never contacted in that case.
	ErrNoRatedBooks = errors.New("recommend: reading list is empty")

	// ErrInvalidCount is returned for a non-positive recommendation count.
	ErrInvalidCount = errors.New("recommend: count must be positive")
)

// SystemPrompt frames the assistant role for every request.
const SystemPrompt = `You are LibrarianGPT, an excellent recommendation system that strives to give good book recommendations.
Recommend books the reader has not read that they will enjoy, based on the books they have already read and their ratings.
Recommend books from a diverse set of genres and time periods.
Occasionally, recommend unique books that are not often suggested.
Ratings of "0" should be considered "not rated".
Explain each recommendation in the context of books and genres the reader already knows.`

const notRatedSentence = `Ratings of "0" should be considered "not rated".`

const outputInstructions = `Format your recommendations as a JSON array of objects with the keys "title", "author" and "explanation".
Respond with the JSON array only. For example:

[
  {"title": "The Overstory", "author": "Richard Powers", "explanation": "your explanation here"}
]`

// PointScale returns the highest rating in books. It reports false for an
// empty list, where no scale exists.
func PointScale(books []domain.ReadBook) (int, bool) {
	if len(books) == 0 {
		return 0, false
	}
	scale := books[0].Rating
	for _, b := range books[1:] {
		scale = max(scale, b.Rating)
	}
	return scale, true
}

// FormatBookLine renders one reading-list entry as "{title} - {author}: {rating}".
func FormatBookLine(b domain.ReadBook) string {
	return fmt.Sprintf("%s - %s: %d", b.Title, b.Author, b.Rating)
}

// BuildPrompt renders the user prompt for books in the given order. Every
// title in excludeTitles is listed verbatim in the exclusion instruction.
func BuildPrompt(books []domain.ReadBook, excludeTitles []string, count int) (string, error) {
	scale, ok := PointScale(books)
	if !ok {
		return "", ErrNoRatedBooks
	}
	if count <= 0 {
		return "", ErrInvalidCount
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Recommend %d books that I have not read and that you think I would really enjoy, based on the books I have already read and my ratings.\n", count)
	if scale > 0 {
		fmt.Fprintf(&b, "The ratings are on a %d point scale where 1 is the worst, meaning I disliked the book, and %d is the best, meaning I loved the book.\n", scale, scale)
	} else {
		b.WriteString("None of the books below are rated, so judge my taste from the titles and authors alone.\n")
	}
	b.WriteString(notRatedSentence + "\n")
	b.WriteString("Recommend books from a diverse set of genres and time periods.\n")
	b.WriteString("Do not recommend any book that is already in my ratings list.\n")

	if len(excludeTitles) > 0 {
		b.WriteString("Do not recommend any of the following books, which I have already been recommended:\n")
		for _, title := range excludeTitles {
			b.WriteString("- " + title + "\n")
		}
	}

	b.WriteString("Explain why you made each recommendation in detail, including why I will like it in the context of books and genres I have already read.\n")
	b.WriteString("\nMy book ratings:\n\n")
	for _, book := range books {
		b.WriteString(FormatBookLine(book) + "\n")
	}
	b.WriteString("\n" + outputInstructions + "\n")

	return b.String(), nil
}
