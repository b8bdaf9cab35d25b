package mediafiles

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveFileOptions struct {
	ID   *int
	Path *string
}

type ListFilesOptions struct {
	BookID    *int
	EditionID *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateFiles inserts all files in a single statement. On return every file
// has its generated id.
func (svc *Service) CreateFiles(ctx context.Context, files []*models.BookFile) error {
	if len(files) == 0 {
		return nil
	}

	now := time.Now()
	for _, file := range files {
		if file.EditionID == 0 {
			return errcodes.ValidationError("Book file must belong to a persisted edition.")
		}
		if file.CreatedAt.IsZero() {
			file.CreatedAt = now
		}
		file.UpdatedAt = file.CreatedAt
		if file.DateAdded.IsZero() {
			file.DateAdded = now
		}
	}

	_, err := svc.db.
		NewInsert().
		Model(&files).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveFile(ctx context.Context, opts RetrieveFileOptions) (*models.BookFile, error) {
	file := &models.BookFile{}

	q := svc.db.
		NewSelect().
		Model(file).
		Relation("Edition")

	if opts.ID != nil {
		q = q.Where("bf.id = ?", *opts.ID)
	}
	if opts.Path != nil {
		q = q.Where("bf.path = ?", *opts.Path)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book file")
		}
		return nil, errors.WithStack(err)
	}

	return file, nil
}

func (svc *Service) ListFiles(ctx context.Context, opts ListFilesOptions) ([]*models.BookFile, error) {
	files := []*models.BookFile{}

	q := svc.db.
		NewSelect().
		Model(&files).
		Relation("Edition").
		Order("bf.id ASC")

	if opts.BookID != nil {
		q = q.Where("edition.book_id = ?", *opts.BookID)
	}
	if opts.EditionID != nil {
		q = q.Where("bf.edition_id = ?", *opts.EditionID)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return files, nil
}

// DeleteFile removes the record only; the file on disk is the caller's concern.
func (svc *Service) DeleteFile(ctx context.Context, file *models.BookFile, reason string) error {
	res, err := svc.db.
		NewDelete().
		Model(file).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Book file")
	}

	logger.FromContext(ctx).Info("deleted book file", logger.Data{"book_file_id": file.ID, "path": file.Path, "reason": reason})
	return nil
}
