package placement

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/mediafiles"
	"github.com/shishobooks/librarr/pkg/migrations"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/shishobooks/librarr/pkg/recyclebin"
	"github.com/shishobooks/librarr/pkg/rootfolders"
	"github.com/shishobooks/librarr/pkg/sidecar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

type fixture struct {
	dir     string
	root    string
	bin     string
	db      *bun.DB
	files   *mediafiles.Service
	placer  *Placer
	author  *models.Author
	book    *models.Book
	edition *models.Edition
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newFixture(t *testing.T, calibre bool, backend LibraryBackend) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{dir: t.TempDir(), db: newTestDB(t)}
	f.root = filepath.Join(f.dir, "library")
	f.bin = filepath.Join(f.dir, "bin")
	require.NoError(t, os.MkdirAll(f.root, 0755))

	rfs := rootfolders.NewService(f.db)
	require.NoError(t, rfs.CreateRootFolder(ctx, &models.RootFolder{Path: f.root, IsCalibreLibrary: calibre}))

	am := &models.AuthorMetadata{ForeignAuthorID: "A1", Name: "Octavia E. Butler", SortName: "Butler, Octavia E."}
	_, err := f.db.NewInsert().Model(am).Returning("*").Exec(ctx)
	require.NoError(t, err)
	f.author = &models.Author{AuthorMetadataID: am.ID, Metadata: am, Path: filepath.Join(f.root, "Octavia E. Butler")}
	_, err = f.db.NewInsert().Model(f.author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	release := time.Date(1979, 6, 1, 0, 0, 0, 0, time.UTC)
	f.book = &models.Book{AuthorMetadataID: am.ID, ForeignBookID: "B1", Title: "Kindred", ReleaseDate: &release, Author: f.author}
	_, err = f.db.NewInsert().Model(f.book).Returning("*").Exec(ctx)
	require.NoError(t, err)
	f.edition = &models.Edition{BookID: f.book.ID, ForeignEditionID: "E1", Title: "Kindred"}
	_, err = f.db.NewInsert().Model(f.edition).Returning("*").Exec(ctx)
	require.NoError(t, err)

	f.files = mediafiles.NewService(f.db)
	f.placer = New(f.files, rfs, recyclebin.New(f.bin), sidecar.NewTagWriter(true), backend)
	return f
}

func (f *fixture) request(src string) Request {
	return Request{
		SourcePath: src,
		File:       &models.BookFile{EditionID: f.edition.ID, Edition: f.edition},
		Book:       f.book,
	}
}

func TestPlace_MovesIntoAuthorBookFolder(t *testing.T) {
	f := newFixture(t, false, nil)
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")

	req := f.request(src)
	res, err := f.placer.Place(context.Background(), req, false)
	require.NoError(t, err)

	expected := filepath.Join(f.root, "Octavia E. Butler", "Kindred (1979)", "kindred.epub")
	assert.Equal(t, expected, res.Path)
	assert.Equal(t, expected, req.File.Path)
	assert.Empty(t, res.OldFiles)
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(sidecar.FileSidecarPath(expected))
	assert.NoError(t, err, "tags are written after placement")
}

func TestPlace_CopyOnlyKeepsSource(t *testing.T) {
	f := newFixture(t, false, nil)
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")

	_, err := f.placer.Place(context.Background(), f.request(src), true)
	require.NoError(t, err)
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestPlace_UpgradeRecyclesExistingFiles(t *testing.T) {
	f := newFixture(t, false, nil)
	ctx := context.Background()
	oldPath := filepath.Join(f.root, "Octavia E. Butler", "Kindred (1979)", "kindred.pdf")
	writeFile(t, oldPath, "old")
	old := &models.BookFile{EditionID: f.edition.ID, Path: oldPath}
	require.NoError(t, f.files.CreateFiles(ctx, []*models.BookFile{old}))

	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "new")

	res, err := f.placer.Place(ctx, f.request(src), false)
	require.NoError(t, err)
	require.Len(t, res.OldFiles, 1)
	assert.Equal(t, old.ID, res.OldFiles[0].ID)

	_, err = os.Stat(filepath.Join(f.bin, "Octavia E. Butler", "Kindred (1979)", "kindred.pdf"))
	assert.NoError(t, err, "old file keeps its library-relative folder inside the bin")

	remaining, err := f.files.ListFiles(ctx, mediafiles.ListFilesOptions{BookID: &f.book.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPlace_UpgradeOverMissingOldFile(t *testing.T) {
	f := newFixture(t, false, nil)
	ctx := context.Background()
	gonePath := filepath.Join(f.root, "Octavia E. Butler", "Kindred (1979)", "gone.pdf")
	stale := &models.BookFile{EditionID: f.edition.ID, Path: gonePath}
	require.NoError(t, f.files.CreateFiles(ctx, []*models.BookFile{stale}))

	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "new")

	res, err := f.placer.Place(ctx, f.request(src), false)
	require.NoError(t, err)
	require.Len(t, res.OldFiles, 1)
	assert.Equal(t, stale.ID, res.OldFiles[0].ID)

	_, err = os.Stat(filepath.Join(f.bin, "Octavia E. Butler", "Kindred (1979)", "gone.pdf"))
	assert.True(t, os.IsNotExist(err))

	remaining, err := f.files.ListFiles(ctx, mediafiles.ListFilesOptions{BookID: &f.book.ID})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPlace_RootFolderMissing(t *testing.T) {
	f := newFixture(t, false, nil)
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")
	require.NoError(t, os.RemoveAll(f.root))

	_, err := f.placer.Place(context.Background(), f.request(src), false)
	assert.True(t, errors.Is(err, ErrRootFolderMissing))
}

func TestPlace_AuthorOutsideAnyRootFolder(t *testing.T) {
	f := newFixture(t, false, nil)
	f.author.Path = filepath.Join(f.dir, "elsewhere", "Octavia E. Butler")
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")

	_, err := f.placer.Place(context.Background(), f.request(src), false)
	assert.True(t, errors.Is(err, ErrRootFolderMissing))
}

func TestPlace_DestinationExists(t *testing.T) {
	f := newFixture(t, false, nil)
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")
	writeFile(t, filepath.Join(f.root, "Octavia E. Butler", "Kindred (1979)", "kindred.epub"), "someone else")

	_, err := f.placer.Place(context.Background(), f.request(src), false)
	assert.True(t, errors.Is(err, fileutils.ErrDestinationExists))
}

func TestPlace_SamePathSkipsTransfer(t *testing.T) {
	f := newFixture(t, false, nil)
	src := filepath.Join(f.root, "Octavia E. Butler", "Kindred (1979)", "kindred.epub")
	writeFile(t, src, "book")

	res, err := f.placer.Place(context.Background(), f.request(src), false)
	require.NoError(t, err)
	assert.Equal(t, src, res.Path)
}

func TestPlace_MultiPartNaming(t *testing.T) {
	f := newFixture(t, false, nil)
	src := filepath.Join(f.dir, "downloads", "kindred.mp3")
	writeFile(t, src, "audio")

	req := f.request(src)
	req.File.Part = 3
	req.File.PartCount = 12
	res, err := f.placer.Place(context.Background(), req, false)
	require.NoError(t, err)
	assert.Equal(t, "kindred (Part 03).mp3", filepath.Base(res.Path))
}

type fakeBackend struct {
	addErr  error
	added   []string
	removed []int
}

func (b *fakeBackend) AddFile(_ context.Context, src string, _ *models.BookFile, _ *models.Book, _ bool) (string, int, error) {
	if b.addErr != nil {
		return "", 0, b.addErr
	}
	b.added = append(b.added, src)
	return "/calibre/Kindred/kindred.epub", 42, nil
}

func (b *fakeBackend) RemoveFile(_ context.Context, file *models.BookFile) error {
	b.removed = append(b.removed, file.ID)
	return nil
}

func TestPlace_ExternalLibraryBackend(t *testing.T) {
	backend := &fakeBackend{}
	f := newFixture(t, true, backend)
	ctx := context.Background()
	old := &models.BookFile{EditionID: f.edition.ID, Path: filepath.Join(f.root, "old.epub")}
	require.NoError(t, f.files.CreateFiles(ctx, []*models.BookFile{old}))
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")

	req := f.request(src)
	res, err := f.placer.Place(ctx, req, false)
	require.NoError(t, err)
	assert.Equal(t, "/calibre/Kindred/kindred.epub", res.Path)
	assert.Equal(t, 42, req.File.CalibreID)
	assert.Equal(t, []int{old.ID}, backend.removed)
	assert.Equal(t, []string{src}, backend.added)
}

func TestPlace_ExternalLibraryFailure(t *testing.T) {
	f := newFixture(t, true, &fakeBackend{addErr: errors.New("connection refused")})
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")

	_, err := f.placer.Place(context.Background(), f.request(src), false)
	assert.True(t, errors.Is(err, ErrExternalLibrary))
}

func TestPlace_ExternalLibraryWithoutBackend(t *testing.T) {
	f := newFixture(t, true, nil)
	src := filepath.Join(f.dir, "downloads", "kindred.epub")
	writeFile(t, src, "book")

	_, err := f.placer.Place(context.Background(), f.request(src), false)
	assert.True(t, errors.Is(err, ErrExternalLibrary))
}
