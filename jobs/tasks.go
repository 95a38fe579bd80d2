package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPurge deletes expired session audit rows.
	TaskSessionsPurge = "sessions:purge"
)

// SessionsPurgePayload configures one purge run. Rows whose expiry lies
// more than GraceSeconds in the past are deleted.
type SessionsPurgePayload struct {
	GraceSeconds int64 `json:"grace_seconds"`
}

// Grace returns the payload grace period as a duration.
func (p SessionsPurgePayload) Grace() time.Duration {
	return time.Duration(p.GraceSeconds) * time.Second
}

// NewSessionsPurgeTask constructs an Asynq task.
func NewSessionsPurgeTask(grace time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(SessionsPurgePayload{GraceSeconds: int64(grace / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPurge, data), nil
}
