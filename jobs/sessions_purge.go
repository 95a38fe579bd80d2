package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-todo/internal/jobs"
)

// SessionPurger deletes session audit rows that expired before cutoff.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionsPurgeJob removes stale login audit rows so user_sessions only
// tracks sessions that may still be live.
type SessionsPurgeJob struct {
	Store   SessionPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionsPurgeJob initialises the purge handler.
func NewSessionsPurgeJob(store SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionsPurgeJob {
	return &SessionsPurgeJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one purge run.
func (j *SessionsPurgeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("sessions purge: handler not configured")
	}
	var payload SessionsPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("sessions purge: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.GraceSeconds < 0 {
		payload.GraceSeconds = 0
	}

	tracker := j.Metrics.Track(TaskSessionsPurge)
	defer func() {
		err = tracker.End(err)
	}()

	cutoff := j.now().Add(-payload.Grace())
	logger := j.logger().With(slog.Time("cutoff", cutoff))

	purged, err := j.Store.PurgeExpiredSessions(ctx, cutoff)
	if err != nil {
		logger.Error("purge expired sessions", slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurgedSessions(purged)
	logger.Info("purged expired sessions", slog.Int64("rows", purged))
	return nil
}

func (j *SessionsPurgeJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *SessionsPurgeJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
