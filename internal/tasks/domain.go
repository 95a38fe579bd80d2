package tasks

import (
	"fmt"
	"time"
)

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          int64
	Description string
	Complete    bool
	OwnerID     int64
	CreatedAt   time.Time
}

// NewTask carries the columns written when a task is created.
type NewTask struct {
	Description string
	OwnerID     int64
}

// Policy decides who may see and change a task.
type Policy string

const (
	// PolicyOwner scopes listing and mutation to the task owner.
	PolicyOwner Policy = "owner"
	// PolicyShared lists every task and lets any signed-in user change any task.
	PolicyShared Policy = "shared"
)

// ParsePolicy validates a configured policy name. Empty means PolicyOwner.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case "", PolicyOwner:
		return PolicyOwner, nil
	case PolicyShared:
		return PolicyShared, nil
	default:
		return "", fmt.Errorf("tasks: unknown list policy %q", raw)
	}
}
