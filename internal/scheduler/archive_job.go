package scheduler

import (
	"context"
	"time"

	"github.com/aristath/degiro/internal/archive"
)

// ArchiveJob archives the trailing Lookback window of account history
type ArchiveJob struct {
	archiver *archive.Archiver
	lookback time.Duration
	timeout  time.Duration
	now      func() time.Time
}

// NewArchiveJob creates an archive job. Overlapping windows are fine; rows
// already archived are skipped.
func NewArchiveJob(archiver *archive.Archiver, lookback time.Duration) *ArchiveJob {
	return &ArchiveJob{
		archiver: archiver,
		lookback: lookback,
		timeout:  5 * time.Minute,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *ArchiveJob) Name() string {
	return "archive_history"
}

// Run archives from today minus the lookback to today
func (j *ArchiveJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	now := j.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.Add(-j.lookback)

	_, err := j.archiver.Run(ctx, from, to)
	return err
}
