package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/shishobooks/librarr/pkg/rootfolders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) resolver() *Resolver {
	return NewResolver(env.services.Authors, env.services.Books, env.services.Editions, env.services.RootFolders)
}

func TestResolver_ExistingEntitiesAreNotAddedAgain(t *testing.T) {
	env := newTestEnv(t)
	author, book := env.seedBook("A1", "B1", "E1")
	r := env.resolver()

	for i := 0; i < 2; i++ {
		res := NewResolution()
		group := []*ImportDecision{candidate(filepath.Join(env.downloads, "a.epub"), "A1", "B1", "E1")}

		gotAuthor := r.EnsureAuthor(env.ctx, res, group)
		require.NotNil(t, gotAuthor)
		gotBook := r.EnsureBook(env.ctx, res, group)
		require.NotNil(t, gotBook)
		gotEdition := r.EnsureEdition(env.ctx, res, group)
		require.NotNil(t, gotEdition)

		assert.Equal(t, author.ID, gotAuthor.ID)
		assert.Equal(t, book.ID, gotBook.ID)
		assert.Equal(t, book.Editions[0].ID, gotEdition.ID)
		assert.Empty(t, res.AddedAuthors)
		assert.Empty(t, res.AddedBooks)
		assert.Empty(t, res.ExtendedBooks)
		assert.True(t, group[0].Approved())
	}

	assert.Equal(t, 1, env.count((*models.Author)(nil)))
	assert.Equal(t, 1, env.count((*models.Book)(nil)))
	assert.Equal(t, 1, env.count((*models.Edition)(nil)))
}

func TestResolver_NewBookMissingMatchedEdition(t *testing.T) {
	env := newTestEnv(t)
	r := env.resolver()
	res := NewResolution()

	group := []*ImportDecision{candidate(filepath.Join(env.root, "x", "a.epub"), "A1", "B1", "E1")}
	group[0].Item.Edition = &models.Edition{ForeignEditionID: "E-unknown", Title: "Kindred"}

	require.NotNil(t, r.EnsureAuthor(env.ctx, res, group))
	assert.Nil(t, r.EnsureBook(env.ctx, res, group))

	require.Len(t, group[0].Rejections, 1)
	assert.Equal(t, Rejection{Reason: "Failed to add missing book", Type: RejectionTemporary}, group[0].Rejections[0])
}

func TestResolver_EditionOfAnotherBookIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedBook("A1", "B1", "E1")
	other := &models.Book{ForeignBookID: "B2", Title: "Dawn"}
	r := env.resolver()
	res := NewResolution()

	group := []*ImportDecision{candidate(filepath.Join(env.root, "x", "a.epub"), "A1", "B2", "E1")}
	group[0].Item.Book = other
	group[0].Item.Edition = &models.Edition{ForeignEditionID: "E1", Title: "Kindred"}

	require.NotNil(t, r.EnsureAuthor(env.ctx, res, group))
	// B2 is new and carries no editions, so E1 (which belongs to B1) is not
	// acceptable.
	assert.Nil(t, r.EnsureBook(env.ctx, res, group))
	assert.False(t, group[0].Approved())
}

func TestResolver_PersistedEditionOfAnotherBookIsRejected(t *testing.T) {
	env := newTestEnv(t)
	author, kindred := env.seedBook("A1", "B1", "E1")
	dawn := &models.Book{
		AuthorMetadataID: author.AuthorMetadataID,
		ForeignBookID:    "B2",
		Title:            "Dawn",
		Editions:         []*models.Edition{{ForeignEditionID: "E2", Title: "Dawn", Monitored: true}},
	}
	require.NoError(t, env.bookService.CreateBook(env.ctx, dawn))
	r := env.resolver()
	res := NewResolution()

	group := []*ImportDecision{
		candidate(filepath.Join(env.root, "x", "a.epub"), "A1", "B2", "E1"),
		candidate(filepath.Join(env.root, "x", "b.epub"), "A1", "B2", "E1"),
	}
	for _, d := range group {
		d.Item.Author = author
		d.Item.Book = dawn
		d.Item.Edition = kindred.Editions[0]
	}

	require.NotNil(t, r.EnsureAuthor(env.ctx, res, group))
	require.NotNil(t, r.EnsureBook(env.ctx, res, group))
	assert.Nil(t, r.EnsureEdition(env.ctx, res, group))
	for _, d := range group {
		assert.Equal(t, []Rejection{{Reason: "Failed to add missing book", Type: RejectionTemporary}}, d.Rejections)
	}
	assert.Equal(t, 2, env.count((*models.Edition)(nil)))
}

func TestResolver_PersistedEntitiesFanOut(t *testing.T) {
	env := newTestEnv(t)
	author, book := env.seedBook("A1", "B1", "E1")
	r := env.resolver()
	res := NewResolution()

	group := []*ImportDecision{
		candidate(filepath.Join(env.root, "x", "a.mp3"), "A1", "B1", "E1"),
		candidate(filepath.Join(env.root, "x", "b.mp3"), "A1", "B1", "E1"),
	}
	group[0].Item.Author = author
	group[0].Item.Book = book
	group[0].Item.Edition = book.Editions[0]

	require.NotNil(t, r.EnsureAuthor(env.ctx, res, group))
	require.NotNil(t, r.EnsureBook(env.ctx, res, group))
	edition := r.EnsureEdition(env.ctx, res, group)
	require.NotNil(t, edition)

	for _, d := range group {
		assert.True(t, d.Approved())
		assert.Equal(t, book.ID, d.Item.Book.ID)
		assert.Equal(t, edition.ID, d.Item.Edition.ID)
	}
	assert.Equal(t, book, res.Books["B1"])
	assert.Equal(t, edition, res.Editions["E1"])
}

func TestResolver_BookWithoutAuthorMetadataFails(t *testing.T) {
	env := newTestEnv(t)
	r := env.resolver()
	res := NewResolution()

	group := []*ImportDecision{candidate(filepath.Join(env.root, "a.epub"), "A1", "B1", "E1")}
	// Skip EnsureAuthor so the book has no author metadata id.
	assert.Nil(t, r.EnsureBook(env.ctx, res, group))
	assert.Equal(t, "Failed to add missing book", group[0].Rejections[0].Reason)
	assert.Zero(t, env.count((*models.Book)(nil)))
}

type failingAuthors struct {
	AuthorService
}

func (failingAuthors) CreateAuthor(context.Context, *models.Author) error {
	return errors.New("UNIQUE constraint failed")
}

func TestResolver_AuthorInsertFailureRejectsGroup(t *testing.T) {
	env := newTestEnv(t)
	env.services.Authors = failingAuthors{env.authorService}
	res := NewResolution()

	group := []*ImportDecision{
		candidate(filepath.Join(env.root, "a.epub"), "A1", "B1", "E1"),
		candidate(filepath.Join(env.root, "b.epub"), "A1", "B1", "E1"),
	}
	assert.Nil(t, env.resolver().EnsureAuthor(env.ctx, res, group))
	for _, d := range group {
		assert.Equal(t, []Rejection{{Reason: "Failed to add missing author", Type: RejectionTemporary}}, d.Rejections)
	}
	assert.Empty(t, res.AddedAuthors)
}

func TestResolver_CalibreAuthorPath(t *testing.T) {
	env := newTestEnv(t)
	calibre := filepath.Join(env.dir, "calibre")
	require.NoError(t, rootfolders.NewService(env.db).CreateRootFolder(env.ctx, &models.RootFolder{Path: calibre, IsCalibreLibrary: true, DefaultMonitorOption: models.MonitorNone}))

	res := NewResolution()
	path := filepath.Join(calibre, "Octavia E. Butler", "Kindred (12)", "Kindred - Octavia E. Butler.epub")
	group := []*ImportDecision{candidate(path, "A1", "B1", "E1")}

	author := env.resolver().EnsureAuthor(env.ctx, res, group)
	require.NotNil(t, author)
	assert.Equal(t, filepath.Join(calibre, "Octavia E. Butler"), author.Path)
	assert.False(t, author.Monitored)
	require.NotNil(t, author.AddOptions)
	assert.Equal(t, models.MonitorNone, author.AddOptions.Monitor)
	assert.Equal(t, []int{author.ID}, res.AddedAuthorIDs())
}

func TestResolution_BookIDsToRefresh(t *testing.T) {
	t.Parallel()

	res := NewResolution()
	res.AddedAuthors = []*models.Author{{ID: 1, AuthorMetadataID: 10}}
	res.AddedBooks = []*models.Book{
		{ID: 100, AuthorMetadataID: 10},
		{ID: 101, AuthorMetadataID: 20},
	}
	res.ExtendedBooks = []*models.Book{
		{ID: 102, AuthorMetadataID: 20},
		{ID: 101, AuthorMetadataID: 20},
	}

	assert.Equal(t, []int{101, 102}, res.BookIDsToRefresh())
	assert.Equal(t, []int{1}, res.AddedAuthorIDs())
}
