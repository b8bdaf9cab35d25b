package qualities

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/errcodes"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateQualityProfile(ctx context.Context, profile *models.QualityProfile) error {
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = profile.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(profile).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveQualityProfile(ctx context.Context, id int) (*models.QualityProfile, error) {
	profile := &models.QualityProfile{}

	err := svc.db.
		NewSelect().
		Model(profile).
		Where("qp.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Quality profile")
		}
		return nil, errors.WithStack(err)
	}

	return profile, nil
}

// EnsureDefaultProfile creates the default profile when no profile exists yet,
// and returns the first profile otherwise.
func (svc *Service) EnsureDefaultProfile(ctx context.Context) (*models.QualityProfile, error) {
	existing := &models.QualityProfile{}
	err := svc.db.
		NewSelect().
		Model(existing).
		Order("qp.id ASC").
		Limit(1).
		Scan(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	profile := DefaultProfile()
	if err := svc.CreateQualityProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
