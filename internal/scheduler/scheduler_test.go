package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/degiro/internal/archive"
	testingpkg "github.com/aristath/degiro/internal/testing"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJob_RejectsInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("every tuesday", &countingJob{})

	assert.Error(t, err)
	assert.Equal(t, 0, s.Entries())
}

func TestAddJob_AcceptsSchedules(t *testing.T) {
	s := New(zerolog.Nop())

	for _, schedule := range []string{"0 30 6 * * *", "30 6 * * MON-FRI", "@daily", "@every 12h"} {
		require.NoError(t, s.AddJob(schedule, &countingJob{}), schedule)
	}
	assert.Equal(t, 4, s.Entries())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("ignored")}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestArchiveJob_Window(t *testing.T) {
	broker := testingpkg.NewMockBrokerClient()
	db := testingpkg.NewTestDB(t)
	repo := archive.NewRepository(db.Conn())
	job := NewArchiveJob(archive.NewArchiver(broker, repo, 1, zerolog.Nop()), 30*24*time.Hour)
	job.now = func() time.Time { return time.Date(2021, 3, 31, 18, 45, 0, 0, time.UTC) }

	require.NoError(t, job.Run())

	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), broker.LastFrom)
	assert.Equal(t, time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC), broker.LastTo)

	batches, err := repo.ListBatches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].CashMovements)
}
