package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/tasks"
)

const taskColumns = `id, description, complete, owner_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

// Create inserts an incomplete task.
func (s *Store) Create(ctx context.Context, task tasks.NewTask) (*tasks.Task, error) {
	created, err := scanTask(s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO tasks (description, complete, owner_id, created_at) VALUES (?, 0, ?, ?) RETURNING `+taskColumns,
		task.Description, task.OwnerID, toMillis(time.Now())))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// Get fetches a task by id.
func (s *Store) Get(ctx context.Context, id int64) (*tasks.Task, error) {
	task, err := scanTask(s.sqlDB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, nil
}

// ToggleComplete flips the complete flag in a single statement.
func (s *Store) ToggleComplete(ctx context.Context, id, ownerID int64) (*tasks.Task, error) {
	task, err := scanTask(s.sqlDB.QueryRowContext(ctx,
		`UPDATE tasks SET complete = NOT complete WHERE id = ? AND owner_id = ? RETURNING `+taskColumns,
		id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("toggle task %d: %w", id, err)
	}
	return task, nil
}

// Delete removes a task.
func (s *Store) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByOwner returns the tasks of one user ordered by id.
func (s *Store) ListByOwner(ctx context.Context, ownerID int64) ([]tasks.Task, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %d: %w", ownerID, err)
	}
	return collectTasks(rows)
}

// ListAll returns every task ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]tasks.Task, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

func scanTask(row scanner) (*tasks.Task, error) {
	var (
		task      tasks.Task
		createdAt int64
	)
	if err := row.Scan(&task.ID, &task.Description, &task.Complete, &task.OwnerID, &createdAt); err != nil {
		return nil, err
	}
	task.CreatedAt = fromMillis(createdAt)
	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]tasks.Task, error) {
	defer rows.Close()
	var out []tasks.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ tasks.Repository = (*Store)(nil)
