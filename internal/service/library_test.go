package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
)

func setupTestLibrary(t *testing.T) (*LibraryService, *Lists) {
	t.Helper()
	lists, _ := setupTestLists(t)
	return NewLibraryService(lists, testLogger()), lists
}

func TestLibrary_AddNormalizesAndStores(t *testing.T) {
	svc, lists := setupTestLibrary(t)

	book, err := svc.Add(context.Background(), domain.ReadBook{
		Title:         "  Dune ",
		Author:        "Frank Herbert",
		Rating:        5,
		DateCompleted: "2023/01/15",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ReadBook{Title: "Dune", Author: "Frank Herbert", Rating: 5, DateCompleted: "2023-01-15"}, book)
	got, ok := lists.Read.Get("Dune")
	require.True(t, ok)
	assert.Equal(t, book, got)
}

func TestLibrary_AddValidates(t *testing.T) {
	svc, lists := setupTestLibrary(t)

	tests := []struct {
		name string
		book domain.ReadBook
	}{
		{"missing title", domain.ReadBook{Author: "Frank Herbert"}},
		{"missing author", domain.ReadBook{Title: "Dune"}},
		{"rating too high", domain.ReadBook{Title: "Dune", Author: "Frank Herbert", Rating: 6}},
		{"negative rating", domain.ReadBook{Title: "Dune", Author: "Frank Herbert", Rating: -1}},
		{"bad date", domain.ReadBook{Title: "Dune", Author: "Frank Herbert", DateCompleted: "last week"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tt.book)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
	assert.Equal(t, 0, lists.Read.Len())
}

func TestLibrary_Update(t *testing.T) {
	svc, _ := setupTestLibrary(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, domain.ReadBook{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	rating, date := 4, "2024/02/03"
	book, err := svc.Update(ctx, "Dune", BookUpdate{Rating: &rating, DateCompleted: &date})
	require.NoError(t, err)
	assert.Equal(t, 4, book.Rating)
	assert.Equal(t, "2024-02-03", book.DateCompleted)

	_, err = svc.Update(ctx, "Emma", BookUpdate{Rating: &rating})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	bad := 9
	_, err = svc.Update(ctx, "Dune", BookUpdate{Rating: &bad})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	stored, _ := svc.Get("Dune")
	assert.Equal(t, 4, stored.Rating, "failed update must not be applied")
}

func TestLibrary_RemoveAndClear(t *testing.T) {
	lists, repo := setupTestLists(t)
	svc := NewLibraryService(lists, testLogger())
	ctx := context.Background()

	for _, title := range []string{"A", "B", "C"} {
		_, err := svc.Add(ctx, domain.ReadBook{Title: title, Author: "X"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Remove(ctx, "missing"), "removing an absent title is not an error")

	before := repo.SetCount()
	require.NoError(t, svc.RemoveMany(ctx, []string{"A", "B"}))
	assert.Equal(t, before+1, repo.SetCount(), "bulk removal writes once")
	assert.Equal(t, []string{"C"}, lists.Read.Titles())

	assert.ErrorIs(t, svc.RemoveMany(ctx, nil), domainerrors.ErrValidation)

	require.NoError(t, svc.Clear(ctx))
	assert.Empty(t, svc.List())
	_, err := repo.Get(ctx, domain.KeyRead)
	assert.Error(t, err, "clear deletes the stored entry")
}

func TestLibrary_ImportGoodreads(t *testing.T) {
	lists, repo := setupTestLists(t)
	svc := NewLibraryService(lists, testLogger())

	csv := strings.Join([]string{
		"Book Id,Title,Author,My Rating,Date Read,Exclusive Shelf",
		"1,Dune,Frank Herbert,5,2023/01/15,read",
		"2,Emma,Jane Austen,0,,read",
		"3,Middlemarch,George Eliot,4,,to-read",
		"4,,Nobody,3,,read",
	}, "\n")

	before := repo.SetCount()
	res, err := svc.ImportGoodreads(context.Background(), strings.NewReader(csv), ImportSourceAPI)
	require.NoError(t, err)

	assert.Equal(t, &ImportResult{Imported: 2, Rows: 4, Skipped: 1}, res)
	assert.Equal(t, before+1, repo.SetCount(), "import writes once")
	dune, ok := lists.Read.Get("Dune")
	require.True(t, ok)
	assert.Equal(t, "2023-01-15", dune.DateCompleted)
	assert.Equal(t, []string{"Dune", "Emma"}, lists.Read.Titles())
}

func TestLibrary_ImportRejectsMissingColumns(t *testing.T) {
	svc, _ := setupTestLibrary(t)

	_, err := svc.ImportGoodreads(context.Background(), strings.NewReader("Name,Writer\nDune,Herbert\n"), ImportSourceAPI)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLibrary_ExportRoundTrips(t *testing.T) {
	svc, _ := setupTestLibrary(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, domain.ReadBook{Title: "Dune", Author: "Frank Herbert", Rating: 5, DateCompleted: "2023-01-15"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf))

	other, _ := setupTestLibrary(t)
	_, err = other.ImportGoodreads(ctx, &buf, ImportSourceCLI)
	require.NoError(t, err)
	assert.Equal(t, svc.List(), other.List())
}

func TestLibrary_ImportFile(t *testing.T) {
	svc, lists := setupTestLibrary(t)
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Author,My Rating,Exclusive Shelf\nDune,Frank Herbert,5,read\n"), 0o600))

	res, err := svc.ImportFile(context.Background(), path, ImportSourceWatcher)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, lists.Read.Len())

	_, err = svc.ImportFile(context.Background(), path+".missing", ImportSourceWatcher)
	assert.Error(t, err)
}
