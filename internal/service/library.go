package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/goodreads"
	"github.com/marlowai/marlow/internal/metrics"
	"github.com/marlowai/marlow/internal/normalize"
	"github.com/marlowai/marlow/internal/validation"
)

// Import sources reported in metrics and logs.
const (
	ImportSourceAPI     = "api"
	ImportSourceWatcher = "watcher"
	ImportSourceCLI     = "cli"
)

// BookUpdate holds the mutable fields of a read book. Nil fields are left as they are.
type BookUpdate struct {
	Rating        *int
	DateCompleted *string
}

// ImportResult summarizes a Goodreads import.
type ImportResult struct {
	Imported int `json:"imported"`
	Rows     int `json:"rows"`
	Skipped  int `json:"skipped"`
}

// LibraryService manages the read list.
type LibraryService struct {
	lists    *Lists
	validate *validation.Validator
	logger   *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(lists *Lists, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		lists:    lists,
		validate: validation.New(),
		logger:   logger,
	}
}

// List returns the read list sorted by title.
func (s *LibraryService) List() []domain.ReadBook {
	return s.lists.Read.List()
}

// Get returns the read book with the given title.
func (s *LibraryService) Get(title string) (domain.ReadBook, error) {
	book, ok := s.lists.Read.Get(title)
	if !ok {
		return domain.ReadBook{}, domainerrors.NotFoundf("book %q is not in the read list", title)
	}
	return book, nil
}

// Add validates book and stores it, replacing any book with the same title.
func (s *LibraryService) Add(ctx context.Context, book domain.ReadBook) (domain.ReadBook, error) {
	book = cleanBook(book)
	if err := s.validate.Validate(book); err != nil {
		return domain.ReadBook{}, err
	}

	if err := s.lists.Read.Add(ctx, book); err != nil {
		return domain.ReadBook{}, fmt.Errorf("add book: %w", err)
	}

	s.logger.Info("book added", "title", book.Title, "rating", book.Rating)
	return book, nil
}

// Update changes the rating or completion date of an existing book.
func (s *LibraryService) Update(ctx context.Context, title string, update BookUpdate) (domain.ReadBook, error) {
	book, err := s.Get(title)
	if err != nil {
		return domain.ReadBook{}, err
	}

	if update.Rating != nil {
		book.Rating = *update.Rating
	}
	if update.DateCompleted != nil {
		book.DateCompleted = normalize.Date(*update.DateCompleted)
	}
	if err := s.validate.Validate(book); err != nil {
		return domain.ReadBook{}, err
	}

	if err := s.lists.Read.Update(ctx, book); err != nil {
		return domain.ReadBook{}, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// Remove deletes the book with the given title. Removing an absent title is not an error.
func (s *LibraryService) Remove(ctx context.Context, title string) error {
	if err := s.lists.Read.RemoveKey(ctx, title); err != nil {
		return fmt.Errorf("remove book: %w", err)
	}
	return nil
}

// RemoveMany deletes several books with a single write.
func (s *LibraryService) RemoveMany(ctx context.Context, titles []string) error {
	if len(titles) == 0 {
		return domainerrors.Validation("no titles given")
	}
	if err := s.lists.Read.RemoveKeys(ctx, titles); err != nil {
		return fmt.Errorf("remove books: %w", err)
	}
	s.logger.Info("books removed", "count", len(titles))
	return nil
}

// Clear empties the read list.
func (s *LibraryService) Clear(ctx context.Context) error {
	if err := s.lists.Read.Clear(ctx); err != nil {
		return fmt.Errorf("clear read list: %w", err)
	}
	s.logger.Info("read list cleared")
	return nil
}

// ImportGoodreads adds every finished book in a Goodreads export. Books
// already in the list are replaced by the imported version.
func (s *LibraryService) ImportGoodreads(ctx context.Context, r io.Reader, source string) (*ImportResult, error) {
	parsed, err := goodreads.Parse(r)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid Goodreads export")
	}

	books := make([]domain.ReadBook, 0, len(parsed.Books))
	skipped := parsed.Skipped
	for _, book := range parsed.Books {
		if err := s.validate.Validate(book); err != nil {
			s.logger.Debug("skipping invalid imported book", "title", book.Title, "error", err)
			skipped++
			continue
		}
		books = append(books, book)
	}

	if len(books) > 0 {
		if err := s.lists.Read.AddMany(ctx, books); err != nil {
			return nil, fmt.Errorf("store imported books: %w", err)
		}
	}
	metrics.RecordImport(source, len(books))

	s.logger.Info("goodreads export imported",
		"source", source,
		"imported", len(books),
		"rows", parsed.Rows,
		"skipped", skipped,
	)

	return &ImportResult{Imported: len(books), Rows: parsed.Rows, Skipped: skipped}, nil
}

// ImportFile imports the Goodreads export at path.
func (s *LibraryService) ImportFile(ctx context.Context, path, source string) (*ImportResult, error) {
	f, err := os.Open(path) //#nosec G304 -- Import paths come from the configured inbox or the CLI
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	return s.ImportGoodreads(ctx, f, source)
}

// Export writes the read list as an importable Goodreads-style CSV.
func (s *LibraryService) Export(w io.Writer) error {
	return goodreads.WriteReadBooks(w, s.List())
}

// ExportTemplate writes an example import file.
func (s *LibraryService) ExportTemplate(w io.Writer) error {
	return goodreads.WriteTemplate(w)
}

func cleanBook(b domain.ReadBook) domain.ReadBook {
	b.Title = normalize.Text(b.Title)
	b.Author = normalize.Text(b.Author)
	b.DateCompleted = normalize.Date(b.DateCompleted)
	return b
}
