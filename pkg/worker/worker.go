package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/librarr/pkg/authors"
	"github.com/shishobooks/librarr/pkg/books"
	"github.com/shishobooks/librarr/pkg/config"
	"github.com/shishobooks/librarr/pkg/joblogs"
	"github.com/shishobooks/librarr/pkg/jobs"
	"github.com/shishobooks/librarr/pkg/models"
	"github.com/shishobooks/librarr/pkg/recyclebin"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

const recycleBinCleanupInterval = 24 * time.Hour

type Worker struct {
	config *config.Config
	log    logger.Logger

	processFuncs map[string]func(ctx context.Context, job *models.Job) error

	jobService    *jobs.Service
	jobLogService *joblogs.Service
	refresher     Refresher
	recycleBin    *recyclebin.Bin

	queue          chan *models.Job
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneCleaning   chan struct{}
	doneProcessing chan struct{}
}

// New builds a worker. A nil refresher falls back to one that only records the
// sync time on each author and book.
func New(cfg *config.Config, db *bun.DB, refresher Refresher) *Worker {
	if refresher == nil {
		refresher = NewSyncRefresher(authors.NewService(db), books.NewService(db))
	}

	w := &Worker{
		config: cfg,
		log:    logger.New(),

		jobService:    jobs.NewService(db),
		jobLogService: joblogs.NewService(db),
		refresher:     refresher,
		recycleBin:    recyclebin.New(cfg.RecycleBinPath),

		queue:          make(chan *models.Job, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneCleaning:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}

	w.processFuncs = map[string]func(ctx context.Context, job *models.Job) error{
		models.JobTypeRefreshAuthors: w.ProcessRefreshAuthorsJob,
		models.JobTypeRefreshBooks:   w.ProcessRefreshBooksJob,
	}

	return w
}

func (w *Worker) Start() {
	go w.fetchJobs()
	go w.cleanRecycleBin()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processJobs()
	}
}

func (w *Worker) fetchJobs() {
	duration := w.config.JobPollInterval
	timer := time.NewTimer(duration)

	for {
		select {
		case <-w.shutdown:
			// We're shutting down, so stop adding more jobs to the queue.
			w.doneFetching <- struct{}{}
			return
		case <-timer.C:
			j, err := w.jobService.ListJobs(context.Background(), jobs.ListJobsOptions{
				Limit:              pointerutil.Int(1),
				Statuses:           []string{models.JobStatusPending},
				ProcessIDToExclude: &processID,
			})
			if err != nil {
				w.log.Err(err).Error("list jobs error")
				timer.Reset(duration)
				continue
			}
			for _, job := range j {
				select {
				case w.queue <- job:
				case <-w.shutdown:
				}
			}
			timer.Reset(duration)
		}
	}
}

func (w *Worker) cleanRecycleBin() {
	ticker := time.NewTicker(recycleBinCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			w.doneCleaning <- struct{}{}
			return
		case <-ticker.C:
			ctx := w.log.WithContext(context.Background())
			_, err := w.recycleBin.Cleanup(ctx, w.config.RecycleBinCleanupDays)
			if err != nil {
				w.log.Err(err).Error("recycle bin cleanup error")
			}
		}
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			w.runJob(job)
		}
	}
}

// runJob claims the job, runs its process function and records the outcome.
func (w *Worker) runJob(job *models.Job) {
	// Prep the context to be passed down to the process function.
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "type": job.Type, "process_id": processID})
	ctx := log.WithContext(context.Background())

	// Update job to be in progress and claimed by this process.
	job.Status = models.JobStatusInProgress
	job.ProcessID = &processID

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "process_id"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
		return
	}

	jobLog := w.jobLogService.NewJobLogger(ctx, job.ID, log)
	jobLog.Info("job started", nil)

	// Find and invoke the appropriate process function.
	fn, ok := w.processFuncs[job.Type]
	if !ok {
		err = errors.Errorf("no process function for job type %q", job.Type)
	} else {
		err = fn(ctx, job)
	}

	job.Status = models.JobStatusCompleted
	job.Progress = 100
	if err != nil {
		jobLog.Error("job failed", err, nil)
		job.Status = models.JobStatusFailed
	} else {
		jobLog.Info("job completed", nil)
	}

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "progress"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.doneFetching
	<-w.doneCleaning
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
