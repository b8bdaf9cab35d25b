package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/librarr/pkg/authors"
	"github.com/shishobooks/librarr/pkg/books"
	"github.com/shishobooks/librarr/pkg/models"
)

// Refresher pulls fresh catalog metadata for authors and books.
type Refresher interface {
	RefreshAuthors(ctx context.Context, authorIDs []int, isNewAuthor bool) error
	RefreshBooks(ctx context.Context, bookIDs []int) error
}

func (w *Worker) ProcessRefreshAuthorsJob(ctx context.Context, job *models.Job) error {
	data, ok := job.DataParsed.(*models.JobRefreshAuthorsData)
	if !ok {
		return errors.Errorf("unexpected job data %T", job.DataParsed)
	}
	logger.FromContext(ctx).Info("refreshing authors", logger.Data{"author_ids": data.AuthorIDs, "is_new_author": data.IsNewAuthor})
	return w.refresher.RefreshAuthors(ctx, data.AuthorIDs, data.IsNewAuthor)
}

func (w *Worker) ProcessRefreshBooksJob(ctx context.Context, job *models.Job) error {
	data, ok := job.DataParsed.(*models.JobRefreshBooksData)
	if !ok {
		return errors.Errorf("unexpected job data %T", job.DataParsed)
	}
	logger.FromContext(ctx).Info("refreshing books", logger.Data{"book_ids": data.BookIDs})
	return w.refresher.RefreshBooks(ctx, data.BookIDs)
}

// SyncRefresher is used when no metadata source is wired up. It stamps
// last_info_sync so the rows stop looking stale.
type SyncRefresher struct {
	authorService *authors.Service
	bookService   *books.Service
	now           func() time.Time
}

func NewSyncRefresher(authorService *authors.Service, bookService *books.Service) *SyncRefresher {
	return &SyncRefresher{
		authorService: authorService,
		bookService:   bookService,
		now:           time.Now,
	}
}

func (r *SyncRefresher) RefreshAuthors(ctx context.Context, authorIDs []int, _ bool) error {
	if len(authorIDs) == 0 {
		return nil
	}
	list, err := r.authorService.ListAuthors(ctx, authors.ListAuthorsOptions{IDs: authorIDs})
	if err != nil {
		return errors.WithStack(err)
	}
	now := r.now()
	for _, a := range list {
		a.LastInfoSync = &now
		err := r.authorService.UpdateAuthor(ctx, a, authors.UpdateAuthorOptions{Columns: []string{"last_info_sync"}})
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (r *SyncRefresher) RefreshBooks(ctx context.Context, bookIDs []int) error {
	if len(bookIDs) == 0 {
		return nil
	}
	list, err := r.bookService.ListBooks(ctx, books.ListBooksOptions{IDs: bookIDs})
	if err != nil {
		return errors.WithStack(err)
	}
	now := r.now()
	for _, b := range list {
		b.LastInfoSync = &now
		err := r.bookService.UpdateBook(ctx, b, books.UpdateBookOptions{Columns: []string{"last_info_sync"}})
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
