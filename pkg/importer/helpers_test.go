package importer

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shishobooks/librarr/pkg/authors"
	"github.com/shishobooks/librarr/pkg/books"
	"github.com/shishobooks/librarr/pkg/config"
	"github.com/shishobooks/librarr/pkg/editions"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/events"
	"github.com/shishobooks/librarr/pkg/extras"
	"github.com/shishobooks/librarr/pkg/history"
	"github.com/shishobooks/librarr/pkg/jobs"
	"github.com/shishobooks/librarr/pkg/mediafiles"
	"github.com/shishobooks/librarr/pkg/migrations"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/shishobooks/librarr/pkg/placement"
	"github.com/shishobooks/librarr/pkg/qualities"
	"github.com/shishobooks/librarr/pkg/recyclebin"
	"github.com/shishobooks/librarr/pkg/rootfolders"
	"github.com/shishobooks/librarr/pkg/sidecar"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var kindredRelease = time.Date(1979, 6, 1, 0, 0, 0, 0, time.UTC)

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

// recorder is a Publisher that remembers every event along with the file ids
// visible at the moment it was published.
type recorder struct {
	events  []events.Event
	fileIDs [][]int
}

func (r *recorder) Publish(event events.Event) {
	r.events = append(r.events, event)
	ids := []int{}
	switch e := event.(type) {
	case events.BookFileImported:
		ids = append(ids, e.File.ID)
	case events.BookImported:
		for _, f := range e.ImportedFiles {
			ids = append(ids, f.ID)
		}
	}
	r.fileIDs = append(r.fileIDs, ids)
}

func (r *recorder) ofType(eventType events.EventType) []events.Event {
	out := []events.Event{}
	for _, e := range r.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	t         *testing.T
	ctx       context.Context
	db        *bun.DB
	dir       string
	root      string
	downloads string
	events    *recorder
	services  Services

	authorService  *authors.Service
	bookService    *books.Service
	editionService *editions.Service
	fileService    *mediafiles.Service
	historyService *history.Service
	jobService     *jobs.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		t:              t,
		ctx:            context.Background(),
		db:             db,
		dir:            t.TempDir(),
		events:         &recorder{},
		authorService:  authors.NewService(db),
		bookService:    books.NewService(db),
		editionService: editions.NewService(db),
		fileService:    mediafiles.NewService(db),
		historyService: history.NewService(db),
		jobService:     jobs.NewService(db),
	}
	env.root = filepath.Join(env.dir, "library")
	env.downloads = filepath.Join(env.dir, "downloads")
	require.NoError(t, os.MkdirAll(env.root, 0755))
	require.NoError(t, os.MkdirAll(env.downloads, 0755))

	rootFolderService := rootfolders.NewService(db)
	require.NoError(t, rootFolderService.CreateRootFolder(env.ctx, &models.RootFolder{
		Path:                        env.root,
		DefaultMonitorOption:        models.MonitorAll,
		DefaultNewItemMonitorOption: models.NewItemMonitorAll,
		DefaultTags:                 []int{4},
	}))

	cfg := config.NewForTest()
	tags := sidecar.NewTagWriter(cfg.WriteSidecars)
	env.services = Services{
		Authors:     env.authorService,
		Books:       env.bookService,
		Editions:    env.editionService,
		RootFolders: rootFolderService,
		Files:       env.fileService,
		History:     env.historyService,
		Placer:      placement.New(env.fileService, rootFolderService, recyclebin.New(cfg.RecycleBinPath), tags, nil),
		Extras:      extras.NewImporter(),
		Tags:        tags,
		Events:      env.events,
		Commands:    env.jobService,
	}
	return env
}

func (env *testEnv) importer() *Importer {
	return New(env.services)
}

// download writes a file into the downloads folder and returns its path.
func (env *testEnv) download(name, content string) string {
	env.t.Helper()
	path := filepath.Join(env.downloads, name)
	require.NoError(env.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// candidate builds a decision whose author, book and edition are unsaved
// copies, the way a matcher hands them over.
func candidate(path, foreignAuthorID, foreignBookID, foreignEditionID string) *ImportDecision {
	info, _ := os.Stat(path)
	size := int64(0)
	if info != nil {
		size = info.Size()
	}
	return &ImportDecision{Item: &LocalBook{
		Path:    path,
		Size:    size,
		Quality: models.QualityModel{Quality: qualities.ForPath(path), Revision: models.Revision{Version: 1}},
		Author: &models.Author{
			Metadata: &models.AuthorMetadata{ForeignAuthorID: foreignAuthorID, Name: "Octavia E. Butler"},
		},
		Book: &models.Book{
			ForeignBookID: foreignBookID,
			Title:         "Kindred",
			ReleaseDate:   &kindredRelease,
			Editions: []*models.Edition{
				{ForeignEditionID: foreignEditionID, Title: "Kindred", Monitored: true},
			},
		},
		Edition: &models.Edition{ForeignEditionID: foreignEditionID, Title: "Kindred"},
	}}
}

// seedBook stores an author with one book and edition.
func (env *testEnv) seedBook(foreignAuthorID, foreignBookID, foreignEditionID string) (*models.Author, *models.Book) {
	env.t.Helper()
	author := &models.Author{
		Path:      filepath.Join(env.root, "Octavia E. Butler"),
		Monitored: true,
		Metadata:  &models.AuthorMetadata{ForeignAuthorID: foreignAuthorID, Name: "Octavia E. Butler"},
	}
	require.NoError(env.t, env.authorService.CreateAuthor(env.ctx, author))

	book := &models.Book{
		AuthorMetadataID: author.AuthorMetadataID,
		ForeignBookID:    foreignBookID,
		Title:            "Kindred",
		ReleaseDate:      &kindredRelease,
		Editions: []*models.Edition{
			{ForeignEditionID: foreignEditionID, Title: "Kindred", Monitored: true},
		},
	}
	require.NoError(env.t, env.bookService.CreateBook(env.ctx, book))
	return author, book
}

func (env *testEnv) count(model interface{}) int {
	env.t.Helper()
	n, err := env.db.NewSelect().Model(model).Count(env.ctx)
	require.NoError(env.t, err)
	return n
}

func (env *testEnv) jobsOfType(jobType string) []*models.Job {
	env.t.Helper()
	list, err := env.jobService.ListJobs(env.ctx, jobs.ListJobsOptions{Types: []string{jobType}})
	require.NoError(env.t, err)
	return list
}

func booksByID(id int) books.RetrieveBookOptions {
	return books.RetrieveBookOptions{ID: &id}
}

type noRootFolders struct{}

func (noRootFolders) BestRootFolder(context.Context, string) (*models.RootFolder, error) {
	return nil, errcodes.NotFound("Root folder")
}
