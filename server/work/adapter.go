package work

import (
	"fmt"

	"github.com/crisislink/crisislink/server/cron"
	"github.com/crisislink/crisislink/server/models"
	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
)

const (
	MAX_CONCURRENCY           = 1
	STUCK_JOB_TIMEOUT_MINUTES = 10
)

// WorkerPoolAdapter fronts the db-backed worker pool & the cron scheduler
// with one interface: Perform for fire-and-forget jobs,
// PeriodicallyPerform for recurring ones.
type WorkerPoolAdapter struct {
	cronScheduler *gocron.Scheduler
	pool          *workerPool
	requeuer      *requeuer
}

func NewWorkerAdapter(timeZoneArg string) *WorkerPoolAdapter {
	return &WorkerPoolAdapter{
		cronScheduler: cron.NewCronScheduler(timeZoneArg),
		pool:          newWorkerPool(MAX_CONCURRENCY),
		requeuer:      newRequeuer(STUCK_JOB_TIMEOUT_MINUTES),
	}
}

// Start starts the cron scheduler, worker pool & stuck-job requeuer
func (adapter *WorkerPoolAdapter) Start() {
	logg.Info("Starting cron scheduler & worker pool")
	adapter.cronScheduler.StartAsync()
	adapter.pool.start()
	adapter.requeuer.start()
}

// Stop stops the cron scheduler, worker pool & stuck-job requeuer
func (adapter *WorkerPoolAdapter) Stop() {
	logg.Info("Stopping cron scheduler & worker pool")
	adapter.cronScheduler.Stop()
	adapter.pool.stop()
	adapter.requeuer.stop()
}

// Register binds a name to a handler.
func (adapter *WorkerPoolAdapter) Register(name string, handler Handler) error {
	return adapter.pool.registerHandler(name, handler)
}

// Perform sends a new job to the queue, to be executed as soon as a worker
// is available
func (adapter *WorkerPoolAdapter) Perform(job JobParams) error {
	logg.Infof("Enqueuing job: %v", job.Name)

	err := adapter.pool.enqueue(job)
	if errors.Is(err, models.ErrDuplicateJob) {
		logg.Warnf("Duplicate job already in queue for: %v", job.Name)
		return nil
	}

	if err != nil {
		return fmt.Errorf("error enqueuing job: %v, %v", job.Name, err)
	}

	return nil
}

// PeriodicallyPerform adds a job to the queue periodically, based on the
// 'cronExpression' provided
func (adapter *WorkerPoolAdapter) PeriodicallyPerform(cronExpression string, job JobParams) error {
	_, err := adapter.cronScheduler.Cron(cronExpression).Tag(job.Name).
		Do(
			func(job JobParams) {
				err := adapter.Perform(job)
				if err != nil {
					logg.Error(err)
				}
			},
			job,
		)

	return err
}
