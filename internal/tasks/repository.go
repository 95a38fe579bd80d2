package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

// Repository defines persistence operations for the task store. Mutations
// are scoped to an owner so a task cannot change hands mid-request.
type Repository interface {
	Create(ctx context.Context, task NewTask) (*Task, error)
	Get(ctx context.Context, id int64) (*Task, error)
	ToggleComplete(ctx context.Context, id, ownerID int64) (*Task, error)
	Delete(ctx context.Context, id, ownerID int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]Task, error)
	ListAll(ctx context.Context) ([]Task, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskColumns = `id, description, complete, owner_id, created_at`

// Create inserts an incomplete task.
func (r *PGRepository) Create(ctx context.Context, task NewTask) (*Task, error) {
	created, err := scanTask(r.pool.QueryRow(ctx,
		`INSERT INTO tasks (description, complete, owner_id) VALUES ($1, FALSE, $2) RETURNING `+taskColumns,
		task.Description, task.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("tasks: create: %w", err)
	}
	return created, nil
}

// Get fetches a task by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("tasks: get %d: %w", id, err)
	}
	return task, nil
}

// ToggleComplete flips the complete flag in a single statement.
func (r *PGRepository) ToggleComplete(ctx context.Context, id, ownerID int64) (*Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx,
		`UPDATE tasks SET complete = NOT complete WHERE id = $1 AND owner_id = $2 RETURNING `+taskColumns,
		id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("tasks: toggle %d: %w", id, err)
	}
	return task, nil
}

// Delete removes a task.
func (r *PGRepository) Delete(ctx context.Context, id, ownerID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("tasks: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByOwner returns the tasks of one user ordered by id.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("tasks: list for %d: %w", ownerID, err)
	}
	return collectTasks(rows)
}

// ListAll returns every task ordered by id.
func (r *PGRepository) ListAll(ctx context.Context) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("tasks: list all: %w", err)
	}
	return collectTasks(rows)
}

func scanTask(row pgx.Row) (*Task, error) {
	var task Task
	if err := row.Scan(&task.ID, &task.Description, &task.Complete, &task.OwnerID, &task.CreatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]Task, error) {
	defer rows.Close()
	var out []Task
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

var _ Repository = (*PGRepository)(nil)
