package tasks

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// Service executes task operations on behalf of a caller identity.
type Service struct {
	repo   Repository
	policy Policy
}

// NewService builds Service instance. An empty policy means PolicyOwner.
func NewService(repo Repository, policy Policy) *Service {
	if policy == "" {
		policy = PolicyOwner
	}
	return &Service{repo: repo, policy: policy}
}

// Policy reports the active list policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Create stores an incomplete task owned by caller.
func (s *Service) Create(ctx context.Context, caller shared.Identity, description string) (*Task, error) {
	if !caller.IsResolved() {
		return nil, shared.ErrUnauthenticated
	}
	return s.repo.Create(ctx, NewTask{Description: description, OwnerID: caller.ID()})
}

// Toggle flips the complete flag of task id.
func (s *Service) Toggle(ctx context.Context, caller shared.Identity, id int64) (*Task, error) {
	task, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return s.repo.ToggleComplete(ctx, task.ID, task.OwnerID)
}

// Delete removes task id.
func (s *Service) Delete(ctx context.Context, caller shared.Identity, id int64) error {
	task, err := s.authorize(ctx, caller, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, task.ID, task.OwnerID)
}

// ListForHome returns the tasks shown on the home page: none for an
// anonymous caller, otherwise the caller's own or, under PolicyShared, all.
func (s *Service) ListForHome(ctx context.Context, caller shared.Identity) ([]Task, error) {
	if !caller.IsResolved() {
		return nil, nil
	}
	if s.policy == PolicyShared {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByOwner(ctx, caller.ID())
}

func (s *Service) authorize(ctx context.Context, caller shared.Identity, id int64) (*Task, error) {
	if !caller.IsResolved() {
		return nil, shared.ErrUnauthenticated
	}
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.policy == PolicyOwner && task.OwnerID != caller.ID() {
		return nil, fmt.Errorf("tasks: task %d owned by another user: %w", id, shared.ErrForbidden)
	}
	return task, nil
}
