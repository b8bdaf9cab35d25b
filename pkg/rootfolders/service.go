package rootfolders

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/fileutils"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveRootFolderOptions struct {
	ID   *int
	Path *string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateRootFolder(ctx context.Context, rf *models.RootFolder) error {
	if rf.Path == "" || !filepath.IsAbs(rf.Path) {
		return errcodes.ValidationError("Root folder path must be absolute.")
	}
	rf.Path = filepath.Clean(rf.Path)
	if rf.Name == "" {
		rf.Name = filepath.Base(rf.Path)
	}

	now := time.Now()
	if rf.CreatedAt.IsZero() {
		rf.CreatedAt = now
	}
	rf.UpdatedAt = rf.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(rf).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveRootFolder(ctx context.Context, opts RetrieveRootFolderOptions) (*models.RootFolder, error) {
	rf := &models.RootFolder{}

	q := svc.db.
		NewSelect().
		Model(rf)

	if opts.ID != nil {
		q = q.Where("rf.id = ?", *opts.ID)
	}
	if opts.Path != nil {
		q = q.Where("rf.path = ?", filepath.Clean(*opts.Path))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Root folder")
		}
		return nil, errors.WithStack(err)
	}

	return rf, nil
}

func (svc *Service) ListRootFolders(ctx context.Context) ([]*models.RootFolder, error) {
	rfs := []*models.RootFolder{}

	err := svc.db.
		NewSelect().
		Model(&rfs).
		Order("rf.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return rfs, nil
}

// BestRootFolder returns the configured root folder that most specifically
// contains path, or NotFound when none does.
func (svc *Service) BestRootFolder(ctx context.Context, path string) (*models.RootFolder, error) {
	rfs, err := svc.ListRootFolders(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var best *models.RootFolder
	for _, rf := range rfs {
		if !fileutils.IsParentPath(rf.Path, path) {
			continue
		}
		if best == nil || len(rf.Path) > len(best.Path) {
			best = rf
		}
	}
	if best == nil {
		return nil, errcodes.NotFound("Root folder")
	}

	return best, nil
}
