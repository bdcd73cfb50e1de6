// Package goodreads reads Goodreads library exports and writes the CSV
// exports of the reading and recommendation lists.
package goodreads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/normalize"
	"github.com/marlowai/marlow/internal/validation"
)

// Column names in a Goodreads export.
const (
	ColTitle          = "Title"
	ColAuthor         = "Author"
	ColMyRating       = "My Rating"
	ColDateRead       = "Date Read"
	ColExclusiveShelf = "Exclusive Shelf"
)

// ShelfRead is the exclusive shelf holding finished books.
const ShelfRead = "read"

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("goodreads: missing required column")

// Import is the result of parsing an export.
type Import struct {
	Books   []domain.ReadBook
	Rows    int // data rows seen
	Skipped int // rows on the read shelf that lacked a title or author
}

// Parse reads a Goodreads export and returns the books on the "read" shelf.
// Ratings that are not numbers become 0. Dates use "-" separators; an empty
// or unparseable date leaves the book without a completion date.
func Parse(r io.Reader) (*Import, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Import{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColTitle, ColAuthor, ColExclusiveShelf} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return normalize.Text(row[i])
	}

	out := &Import{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", out.Rows+1, err)
		}
		out.Rows++

		if field(row, ColExclusiveShelf) != ShelfRead {
			continue
		}

		book := domain.ReadBook{
			Title:         field(row, ColTitle),
			Author:        field(row, ColAuthor),
			Rating:        parseRating(field(row, ColMyRating)),
			DateCompleted: parseDate(field(row, ColDateRead)),
		}
		if book.Title == "" || book.Author == "" {
			out.Skipped++
			continue
		}
		out.Books = append(out.Books, book)
	}
	return out, nil
}

func parseRating(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return min(max(n, 0), domain.MaxRating)
}

func parseDate(raw string) string {
	date := normalize.Date(raw)
	if date == "" {
		return ""
	}
	if _, err := time.Parse(validation.DateLayout, date); err != nil {
		return ""
	}
	return date
}

// WriteReadBooks writes books in the Goodreads column layout so the file
// can be imported again.
func WriteReadBooks(w io.Writer, books []domain.ReadBook) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColTitle, ColAuthor, ColMyRating, ColDateRead, ColExclusiveShelf}); err != nil {
		return err
	}
	for _, b := range books {
		date := strings.ReplaceAll(b.DateCompleted, "-", "/")
		if err := cw.Write([]string{b.Title, b.Author, strconv.Itoa(b.Rating), date, ShelfRead}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecommendations writes recommendations with the header
// title,author,explanation,date_generated.
func WriteRecommendations(w io.Writer, recs []domain.Recommendation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "author", "explanation", "date_generated"}); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write([]string{r.Title, r.Author, r.Explanation, r.DateGenerated}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTemplate writes a minimal importable file showing the expected columns.
func WriteTemplate(w io.Writer) error {
	return WriteReadBooks(w, []domain.ReadBook{
		{Title: "Test Title", Author: "Test Author"},
		{Title: "Test Title Two", Author: "Test Author Two", Rating: 3},
		{Title: "Test Title Three", Author: "Test Author Three", Rating: 2, DateCompleted: "2022-02-12"},
	})
}
