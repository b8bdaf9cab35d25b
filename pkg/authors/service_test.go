package authors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/migrations"
	"github.com/shishobooks/librarr/pkg/models"
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

func newAuthor(foreignID, name string) *models.Author {
	return &models.Author{
		Path:      "/books/" + name,
		Monitored: true,
		Metadata: &models.AuthorMetadata{
			ForeignAuthorID: foreignID,
			Name:            name,
		},
	}
}

func TestCreateAuthor_InsertsMetadataAndAuthor(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := newAuthor("A1", "Ursula K. Le Guin")
	err := svc.CreateAuthor(ctx, author)
	require.NoError(t, err)

	assert.NotZero(t, author.ID)
	assert.NotZero(t, author.AuthorMetadataID)
	assert.Equal(t, author.Metadata.ID, author.AuthorMetadataID)
	assert.Equal(t, "Le Guin, Ursula K.", author.Metadata.SortName)
	assert.False(t, author.Added.IsZero())

	retrieved, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ForeignAuthorID: pointerutil.String("A1")})
	require.NoError(t, err)
	assert.Equal(t, author.ID, retrieved.ID)
	require.NotNil(t, retrieved.Metadata)
	assert.Equal(t, "Ursula K. Le Guin", retrieved.Name())
	assert.Equal(t, "A1", retrieved.ForeignAuthorID())
}

func TestCreateAuthor_ReusesExistingMetadata(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	metadata := &models.AuthorMetadata{ForeignAuthorID: "A2", Name: "Iain Banks", SortName: "Banks, Iain"}
	_, err := db.NewInsert().Model(metadata).Returning("*").Exec(ctx)
	require.NoError(t, err)

	author := newAuthor("A2", "Iain Banks")
	require.NoError(t, NewService(db).CreateAuthor(ctx, author))

	assert.Equal(t, metadata.ID, author.AuthorMetadataID)
	count, err := db.NewSelect().Model((*models.AuthorMetadata)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateAuthor_RequiresForeignID(t *testing.T) {
	db := newTestDB(t)

	err := NewService(db).CreateAuthor(context.Background(), &models.Author{Path: "/books/x"})
	var ec *errcodes.Error
	require.True(t, errors.As(err, &ec))
	assert.Equal(t, "validation_error", ec.Code)
}

func TestCreateAuthor_DuplicateAuthorFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateAuthor(ctx, newAuthor("A3", "Someone")))
	assert.Error(t, svc.CreateAuthor(ctx, newAuthor("A3", "Someone")))
}

func TestRetrieveAuthor_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := NewService(db).RetrieveAuthor(context.Background(), RetrieveAuthorOptions{ForeignAuthorID: pointerutil.String("nope")})
	assert.True(t, errors.Is(err, errcodes.NotFound("Author")))
}

func TestListAuthors_ByIDs(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	a := newAuthor("A4", "First")
	b := newAuthor("A5", "Second")
	require.NoError(t, svc.CreateAuthor(ctx, a))
	require.NoError(t, svc.CreateAuthor(ctx, b))

	list, total, err := svc.ListAuthorsWithTotal(ctx, ListAuthorsOptions{IDs: []int{b.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Second", list[0].Name())
}
