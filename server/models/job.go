package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrDuplicateJob = errors.New("job with the given name already exists in queue")

// Job is a row in the db-backed work queue. Side effects of the disclosure
// path (audit writes, contact notifications, db backups) run through here so
// they are retried at-least-once instead of being lost with the request.
type Job struct {
	BaseModel
	Fails       int        `json:"fails"`
	Name        string     `json:"name"`
	Handler     string     `json:"handler"`
	Args        string     `json:"args"`
	LastError   string     `json:"last_error"`
	Claimed     bool       `json:"claimed" gorm:"default:false"`
	JobStatusID uint       `json:"job_status_id"`
	JobStatus   *JobStatus `json:"status"`
}

// MarkAsClaimed claims the job for a single worker. The conditional update
// makes sure only one worker wins when several race for the same row.
func (job *Job) MarkAsClaimed() (bool, error) {
	inProgressStatus, err := FindJobStatus(IN_PROGRESS_JOB)
	if err != nil {
		return false, err
	}

	res := db.Model(&Job{}).Where("id = ? AND claimed = ?", job.ID, false).Updates(map[string]interface{}{
		"claimed":       true,
		"job_status_id": inProgressStatus.ID,
	})

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (job *Job) Update(data map[string]interface{}) error {
	return db.Model(job).Updates(data).Error
}

// CreateJob enqueues a job unconditionally.
func CreateJob(name, handler, args string) error {
	enqueuedStatus, err := FindJobStatus(ENQUEUED_JOB)
	if err != nil {
		return err
	}

	return db.Create(&Job{
		Name:        name,
		Handler:     handler,
		Args:        args,
		JobStatusID: enqueuedStatus.ID,
	}).Error
}

// CreateUniqueJobByName enqueues a job unless one with the same name is
// already enqueued or in progress.
func CreateUniqueJobByName(name, handler, args string) error {
	queuedStatusIDs, err := queuedJobStatusIDs()
	if err != nil {
		return err
	}

	result := db.Where("name = ? AND job_status_id IN ?", name, queuedStatusIDs).First(&Job{})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	if result.RowsAffected > 0 {
		return ErrDuplicateJob
	}

	return CreateJob(name, handler, args)
}

// LastJob returns the newest job with the given status & claim state.
func LastJob(status string, claimed bool) (*Job, error) {
	job := Job{}
	err := db.Joins(
		"INNER JOIN job_statuses ON job_statuses.id = jobs.job_status_id AND job_statuses.name = ? AND claimed = ?",
		status, claimed).Last(&job).Error
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// LastJobLastUpdated returns the last job of 'status' that was last updated
// at least 'minutesAgo' minutes ago.
//
// WARNING: THIS QUERY IS UNIQUE TO SQLITE, REMEMBER TO UPDATE IT IF/WHEN
// OTHER SQL DATABASES ARE SUPPORTED
func LastJobLastUpdated(minutesAgo uint, status string) (*Job, error) {
	jobStatus, err := FindJobStatus(status)
	if err != nil {
		return nil, err
	}

	job := Job{}
	err = db.Where(
		fmt.Sprintf("job_status_id = ? AND datetime(updated_at, '+%v minute') <= datetime('now')", minutesAgo),
		jobStatus.ID,
	).Last(&job).Error
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func queuedJobStatusIDs() ([]uint, error) {
	queuedStatuses := []JobStatus{}
	err := db.Where("name IN ?", []string{ENQUEUED_JOB, IN_PROGRESS_JOB}).Find(&queuedStatuses).Error
	if err != nil {
		return nil, err
	}

	statusIDs := []uint{}
	for _, status := range queuedStatuses {
		statusIDs = append(statusIDs, status.ID)
	}

	return statusIDs, nil
}
