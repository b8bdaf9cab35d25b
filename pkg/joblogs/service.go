package joblogs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateJobLog(ctx context.Context, log *models.JobLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(log).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// ListJobLogs returns a job's log lines in the order they were written.
func (svc *Service) ListJobLogs(ctx context.Context, jobID int) ([]*models.JobLog, error) {
	logs := []*models.JobLog{}

	err := svc.db.
		NewSelect().
		Model(&logs).
		Where("jl.job_id = ?", jobID).
		Order("jl.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return logs, nil
}
