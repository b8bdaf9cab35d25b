package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type ListHistoryOptions struct {
	Limit      *int
	DownloadID *string
	EventType  *string
	BookID     *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateHistory(ctx context.Context, h *models.History) error {
	if h.Date.IsZero() {
		h.Date = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(h).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

// ListHistory returns matching events newest first.
func (svc *Service) ListHistory(ctx context.Context, opts ListHistoryOptions) ([]*models.History, error) {
	events := []*models.History{}

	q := svc.db.
		NewSelect().
		Model(&events).
		Order("h.date DESC", "h.id DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.DownloadID != nil {
		q = q.Where("h.download_id = ?", *opts.DownloadID)
	}
	if opts.EventType != nil {
		q = q.Where("h.event_type = ?", *opts.EventType)
	}
	if opts.BookID != nil {
		q = q.Where("h.book_id = ?", *opts.BookID)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return events, nil
}

// MostRecentGrab returns the latest "grabbed" event for a download.
func (svc *Service) MostRecentGrab(ctx context.Context, downloadID string) (*models.History, error) {
	h := &models.History{}

	err := svc.db.
		NewSelect().
		Model(h).
		Where("h.download_id = ?", downloadID).
		Where("h.event_type = ?", models.HistoryEventGrabbed).
		Order("h.date DESC", "h.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("History")
		}
		return nil, errors.WithStack(err)
	}

	return h, nil
}
