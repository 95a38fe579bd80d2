package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-todo/internal/jobs"
)

type stubPurger struct {
	cutoff time.Time
	rows   int64
	err    error
	calls  int
}

func (s *stubPurger) PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.cutoff = cutoff
	return s.rows, s.err
}

func newPurgeJob(store SessionPurger, now time.Time) *SessionsPurgeJob {
	job := NewSessionsPurgeJob(store, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return now }
	return job
}

func TestSessionsPurgeUsesGraceCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubPurger{rows: 4}
	task, err := NewSessionsPurgeTask(24 * time.Hour)
	require.NoError(t, err)

	require.NoError(t, newPurgeJob(store, now).Handle(context.Background(), task))

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, now.Add(-24*time.Hour), store.cutoff)
}

func TestSessionsPurgeClampsNegativeGrace(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &stubPurger{}
	task := asynq.NewTask(TaskSessionsPurge, []byte(`{"grace_seconds":-60}`))

	require.NoError(t, newPurgeJob(store, now).Handle(context.Background(), task))
	assert.Equal(t, now, store.cutoff)
}

func TestSessionsPurgeSkipsRetryOnBadPayload(t *testing.T) {
	store := &stubPurger{}
	task := asynq.NewTask(TaskSessionsPurge, []byte("not json"))

	err := newPurgeJob(store, time.Now()).Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, store.calls)
}

func TestSessionsPurgeReturnsStoreError(t *testing.T) {
	boom := errors.New("db down")
	task, err := NewSessionsPurgeTask(time.Hour)
	require.NoError(t, err)

	err = newPurgeJob(&stubPurger{err: boom}, time.Now()).Handle(context.Background(), task)
	assert.ErrorIs(t, err, boom)
}

func TestSessionsPurgeRequiresStore(t *testing.T) {
	var job *SessionsPurgeJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskSessionsPurge, nil)))
}
