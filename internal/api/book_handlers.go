package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List read books",
		Description: "Returns the read list sorted by title",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add read book",
		Description:   "Adds a book to the read list, replacing any book with the same title",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/export",
		Summary:     "Export read books",
		Description: "Downloads the read list as a Goodreads-style CSV that can be imported again",
		Tags:        []string{"Books"},
	}, s.handleExportBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "importTemplate",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/template",
		Summary:     "Import template",
		Description: "Downloads an example CSV showing the columns the importer reads",
		Tags:        []string{"Books"},
	}, s.handleImportTemplate)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importBooks",
		Method:       http.MethodPost,
		Path:         "/api/v1/books/import",
		Summary:      "Import Goodreads export",
		Description:  "Adds every book on the read shelf of a Goodreads library export (raw CSV body)",
		Tags:         []string{"Books"},
		MaxBodyBytes: MaxUploadSize,
	}, s.handleImportBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/remove",
		Summary:     "Remove several books",
		Description: "Removes the listed titles from the read list in one write",
		Tags:        []string{"Books"},
	}, s.handleRemoveBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearBooks",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books",
		Summary:     "Clear read list",
		Tags:        []string{"Books"},
	}, s.handleClearBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{title}",
		Summary:     "Get read book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{title}",
		Summary:     "Update read book",
		Description: "Changes the rating or completion date of a book",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{title}",
		Summary:     "Remove read book",
		Description: "Removes a book from the read list. Removing an absent title succeeds",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)
}

// === DTOs ===

// BookRequest is the request body for adding a book.
type BookRequest struct {
	Title         string `json:"title" minLength:"1" doc:"Book title"`
	Author        string `json:"author" minLength:"1" doc:"Author name"`
	Rating        int    `json:"rating,omitempty" minimum:"0" maximum:"5" doc:"Star rating, 0 for unrated"`
	DateCompleted string `json:"dateCompleted,omitempty" doc:"Completion date (YYYY-MM-DD)"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	Body BookRequest
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body domain.ReadBook
}

// ListBooksResponse contains the read list.
type ListBooksResponse struct {
	Books []domain.ReadBook `json:"books" doc:"Read books sorted by title"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// TitleInput contains a {title} path parameter.
type TitleInput struct {
	Title string `path:"title" doc:"Book title (URL-encoded)"`
}

// UpdateBookRequest is the request body for updating a book.
type UpdateBookRequest struct {
	Rating        *int    `json:"rating,omitempty" minimum:"0" maximum:"5" doc:"Star rating, 0 for unrated"`
	DateCompleted *string `json:"dateCompleted,omitempty" doc:"Completion date (YYYY-MM-DD), empty to clear"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	Title string `path:"title" doc:"Book title (URL-encoded)"`
	Body  UpdateBookRequest
}

// RemoveBooksRequest is the request body for bulk removal.
type RemoveBooksRequest struct {
	Titles []string `json:"titles" minItems:"1" doc:"Titles to remove"`
}

// RemoveBooksInput wraps the bulk removal request for Huma.
type RemoveBooksInput struct {
	Body RemoveBooksRequest
}

// ImportBooksInput carries a raw Goodreads CSV export.
type ImportBooksInput struct {
	RawBody []byte
}

// ImportBooksOutput wraps the import summary for Huma.
type ImportBooksOutput struct {
	Body service.ImportResult
}

// CSVOutput is a CSV file download.
type CSVOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// MessageResponse is a simple acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps an acknowledgement for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func message(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}

// === Handlers ===

func (s *Server) handleListBooks(_ context.Context, _ *struct{}) (*ListBooksOutput, error) {
	return &ListBooksOutput{Body: ListBooksResponse{Books: s.services.Library.List()}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *TitleInput) (*BookOutput, error) {
	book, err := s.services.Library.Get(pathTitle(ctx, input.Title))
	if err != nil {
		return nil, s.fail(err, "failed to get book")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	book, err := s.services.Library.Add(ctx, domain.ReadBook{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Rating:        input.Body.Rating,
		DateCompleted: input.Body.DateCompleted,
	})
	if err != nil {
		return nil, s.fail(err, "failed to add book")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	book, err := s.services.Library.Update(ctx, pathTitle(ctx, input.Title), service.BookUpdate{
		Rating:        input.Body.Rating,
		DateCompleted: input.Body.DateCompleted,
	})
	if err != nil {
		return nil, s.fail(err, "failed to update book")
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *TitleInput) (*MessageOutput, error) {
	if err := s.services.Library.Remove(ctx, pathTitle(ctx, input.Title)); err != nil {
		return nil, s.fail(err, "failed to remove book")
	}
	return message("book removed"), nil
}

func (s *Server) handleRemoveBooks(ctx context.Context, input *RemoveBooksInput) (*MessageOutput, error) {
	if err := s.services.Library.RemoveMany(ctx, input.Body.Titles); err != nil {
		return nil, s.fail(err, "failed to remove books")
	}
	return message("books removed"), nil
}

func (s *Server) handleClearBooks(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if err := s.services.Library.Clear(ctx); err != nil {
		return nil, s.fail(err, "failed to clear read list")
	}
	return message("read list cleared"), nil
}

func (s *Server) handleImportBooks(ctx context.Context, input *ImportBooksInput) (*ImportBooksOutput, error) {
	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("request body must contain a Goodreads CSV export")
	}

	res, err := s.services.Library.ImportGoodreads(ctx, bytes.NewReader(input.RawBody), service.ImportSourceAPI)
	if err != nil {
		return nil, s.fail(err, "failed to import books")
	}
	return &ImportBooksOutput{Body: *res}, nil
}

func (s *Server) handleExportBooks(_ context.Context, _ *struct{}) (*CSVOutput, error) {
	var buf bytes.Buffer
	if err := s.services.Library.Export(&buf); err != nil {
		return nil, s.fail(err, "failed to export books")
	}
	return &CSVOutput{
		ContentType:        contentTypeCSV,
		ContentDisposition: attachment("read_books.csv"),
		Body:               buf.Bytes(),
	}, nil
}

func (s *Server) handleImportTemplate(_ context.Context, _ *struct{}) (*CSVOutput, error) {
	var buf bytes.Buffer
	if err := s.services.Library.ExportTemplate(&buf); err != nil {
		return nil, s.fail(err, "failed to write template")
	}
	return &CSVOutput{
		ContentType:        contentTypeCSV,
		ContentDisposition: attachment("import_template.csv"),
		Body:               buf.Bytes(),
	}, nil
}
