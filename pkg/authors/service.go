package authors

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveAuthorOptions struct {
	ID               *int
	ForeignAuthorID  *string
	AuthorMetadataID *int
}

type ListAuthorsOptions struct {
	Limit  *int
	Offset *int
	IDs    []int

	includeTotal bool
}

type UpdateAuthorOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateAuthor inserts the author together with its metadata row. Metadata
// that already exists for the same foreign id is reused rather than duplicated.
func (svc *Service) CreateAuthor(ctx context.Context, author *models.Author) error {
	if author.Metadata == nil || author.Metadata.ForeignAuthorID == "" {
		return errcodes.ValidationError("Author metadata with a foreign author id is required.")
	}
	if strings.TrimSpace(author.Path) == "" {
		return errcodes.ValidationError("Author path is required.")
	}

	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	author.UpdatedAt = author.CreatedAt
	if author.Added.IsZero() {
		author.Added = now
	}
	if author.Metadata.SortName == "" {
		author.Metadata.SortName = SortName(author.Metadata.Name)
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing := &models.AuthorMetadata{}
		err := tx.
			NewSelect().
			Model(existing).
			Where("am.foreign_author_id = ?", author.Metadata.ForeignAuthorID).
			Scan(ctx)
		switch {
		case err == nil:
			author.Metadata = existing
		case errors.Is(err, sql.ErrNoRows):
			author.Metadata.CreatedAt = author.CreatedAt
			author.Metadata.UpdatedAt = author.UpdatedAt
			_, err = tx.
				NewInsert().
				Model(author.Metadata).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		default:
			return errors.WithStack(err)
		}

		author.AuthorMetadataID = author.Metadata.ID
		_, err = tx.
			NewInsert().
			Model(author).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.db.
		NewSelect().
		Model(author).
		Relation("Metadata").
		Relation("QualityProfile")

	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}
	if opts.ForeignAuthorID != nil {
		q = q.Where("metadata.foreign_author_id = ?", *opts.ForeignAuthorID)
	}
	if opts.AuthorMetadataID != nil {
		q = q.Where("a.author_metadata_id = ?", *opts.AuthorMetadataID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	a, _, err := svc.listAuthorsWithTotal(ctx, opts)
	return a, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	opts.includeTotal = true
	return svc.listAuthorsWithTotal(ctx, opts)
}

func (svc *Service) listAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	authors := []*models.Author{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&authors).
		Relation("Metadata").
		Order("a.id ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.IDs != nil {
		q = q.Where("a.id IN (?)", bun.In(opts.IDs))
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return authors, total, nil
}

func (svc *Service) UpdateAuthor(ctx context.Context, author *models.Author, opts UpdateAuthorOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	author.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(author).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Author")
		}
		return errors.WithStack(err)
	}

	return nil
}
