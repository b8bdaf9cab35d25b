package editions

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveEditionOptions struct {
	ID               *int
	ForeignEditionID *string
}

type ListEditionsOptions struct {
	BookID *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateEditions(ctx context.Context, editions []*models.Edition) error {
	if len(editions) == 0 {
		return nil
	}

	now := time.Now()
	for _, edition := range editions {
		if edition.BookID == 0 {
			return errcodes.ValidationError("Edition must belong to a persisted book.")
		}
		if edition.CreatedAt.IsZero() {
			edition.CreatedAt = now
		}
		edition.UpdatedAt = edition.CreatedAt
	}

	_, err := svc.db.
		NewInsert().
		Model(&editions).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveEdition(ctx context.Context, opts RetrieveEditionOptions) (*models.Edition, error) {
	edition := &models.Edition{}

	q := svc.db.
		NewSelect().
		Model(edition)

	if opts.ID != nil {
		q = q.Where("e.id = ?", *opts.ID)
	}
	if opts.ForeignEditionID != nil {
		q = q.Where("e.foreign_edition_id = ?", *opts.ForeignEditionID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Edition")
		}
		return nil, errors.WithStack(err)
	}

	return edition, nil
}

func (svc *Service) ListEditions(ctx context.Context, opts ListEditionsOptions) ([]*models.Edition, error) {
	editions := []*models.Edition{}

	q := svc.db.
		NewSelect().
		Model(&editions).
		Order("e.id ASC")

	if opts.BookID != nil {
		q = q.Where("e.book_id = ?", *opts.BookID)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return editions, nil
}

// SetMonitored makes edition the only monitored edition of its book and
// returns the book's editions as stored afterwards.
func (svc *Service) SetMonitored(ctx context.Context, edition *models.Edition) ([]*models.Edition, error) {
	if edition.ID == 0 || edition.BookID == 0 {
		return nil, errcodes.ValidationError("Edition must be persisted before it can be monitored.")
	}

	now := time.Now()
	// One statement flips every edition of the book, so there is never a moment
	// with two monitored editions.
	_, err := svc.db.
		NewUpdate().
		Model((*models.Edition)(nil)).
		Set("monitored = (id = ?)", edition.ID).
		Set("updated_at = ?", now).
		Where("book_id = ?", edition.BookID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	edition.Monitored = true
	edition.UpdatedAt = now

	return svc.ListEditions(ctx, ListEditionsOptions{BookID: &edition.BookID})
}
