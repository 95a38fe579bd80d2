package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/observability"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/tasks"
	"github.com/odyssey-erp/odyssey-todo/internal/view"
)

// Deps are the stores and clients the application runs on.
type Deps struct {
	Logger  *slog.Logger
	Config  *Config
	Redis   *redis.Client
	Users   auth.Repository
	Tasks   tasks.Repository
	Metrics *observability.Metrics
}

// NewHandler assembles services, handlers and middleware into the HTTP handler.
func NewHandler(d Deps) (http.Handler, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	cfg := d.Config

	hasher, err := auth.NewHasher(auth.HasherConfig{
		Method:     cfg.PasswordMethod,
		Iterations: cfg.PasswordIterations,
		SaltLength: cfg.PasswordSaltLength,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return nil, err
	}
	policy, err := tasks.ParsePolicy(cfg.TaskListPolicy)
	if err != nil {
		return nil, err
	}
	templates, err := view.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	sessionManager := shared.NewSessionManager(d.Redis, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authService := auth.NewService(d.Users, hasher, sessionManager)
	guard := auth.NewGuard(d.Logger, authService)
	authHandler := auth.NewHandler(d.Logger, authService, guard, templates, csrfManager, d.Metrics)

	taskService := tasks.NewService(d.Tasks, policy)
	tasksHandler := tasks.NewHandler(d.Logger, taskService, guard, templates, csrfManager, d.Metrics)

	return NewRouter(RouterParams{
		Logger:         d.Logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Guard:          guard,
		AuthHandler:    authHandler,
		TasksHandler:   tasksHandler,
		Metrics:        d.Metrics,
		AccessLog:      !InTestMode(),
	}), nil
}
