package app

import (
	"context"
	"fmt"
	"io"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/platform/db"
	"github.com/odyssey-erp/odyssey-todo/internal/storage/sqlite"
	"github.com/odyssey-erp/odyssey-todo/internal/tasks"
	"github.com/odyssey-erp/odyssey-todo/jobs"
)

// Stores are the repositories backing one configured store driver.
type Stores struct {
	Users    auth.Repository
	Tasks    tasks.Repository
	Sessions jobs.SessionPurger
	closer   io.Closer
}

// Close releases the underlying database handles.
func (s *Stores) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// OpenStores connects the store selected by cfg.StoreDriver and applies
// its migrations.
func OpenStores(ctx context.Context, cfg *Config) (*Stores, error) {
	switch cfg.StoreDriver {
	case DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &Stores{Users: store, Tasks: store, Sessions: store, closer: store}, nil
	case DriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		users := auth.NewRepository(pool)
		return &Stores{
			Users:    users,
			Tasks:    tasks.NewRepository(pool),
			Sessions: users,
			closer:   closerFunc(func() error { pool.Close(); return nil }),
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
