package work

import (
	"errors"
	"time"

	"github.com/crisislink/crisislink/colors"
	"github.com/crisislink/crisislink/server/models"
	"gorm.io/gorm"
)

// requeuer pulls jobs that stayed too long in-progress (e.g. a worker died
// mid-job) and puts them back on the queue. This is what makes the queue's
// delivery at-least-once rather than at-most-once.
type requeuer struct {
	stuckAfterMinutes uint
	stopChan          chan struct{}
}

func newRequeuer(stuckAfterMinutes uint) *requeuer {
	return &requeuer{
		stuckAfterMinutes: stuckAfterMinutes,
		stopChan:          make(chan struct{}),
	}
}

func (r *requeuer) start() {
	go r.loop()
}

func (r *requeuer) stop() {
	r.stopChan <- struct{}{}
}

func (r *requeuer) loop() {
	var job *models.Job
	var err error

	sleepBackOff := 30
	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	logg.Info("Starting stuck-job requeuer")
	for {
		select {
		case <-r.stopChan:
			logg.Info("Stopping stuck-job requeuer")
			return
		case <-rateLimiter.C:
			job, err = models.LastJobLastUpdated(r.stuckAfterMinutes, models.IN_PROGRESS_JOB)

			if errors.Is(err, gorm.ErrRecordNotFound) {
				rateLimiter.Reset(time.Duration(sleepBackOff) * time.Second)
				continue
			}

			if err != nil {
				r.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			r.requeue(job)
			rateLimiter.Reset(DefaultTickerDuration)
		}
	}
}

func (r *requeuer) requeue(job *models.Job) {
	jobStatus, err := models.FindJobStatus(models.ENQUEUED_JOB)
	if err != nil {
		r.logError(err)
		return
	}

	err = job.Update(map[string]interface{}{
		"claimed":       false,
		"job_status_id": jobStatus.ID,
	})
	if err != nil {
		r.logError(err)
		return
	}

	r.logInfof("job with id=%v requeued", job.ID)
}

func (r *requeuer) logInfof(template string, args ...interface{}) {
	prefix := colors.Yellow("[stuck-job requeuer] ")
	logg.Infof(prefix+template, args...)
}

func (r *requeuer) logError(args ...interface{}) {
	prefix := colors.Red("[stuck-job requeuer] ")
	logg.Error(append([]interface{}{prefix}, args...)...)
}
