package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/observability"
	"github.com/odyssey-erp/odyssey-todo/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/tasks"
	"github.com/odyssey-erp/odyssey-todo/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          *auth.Guard
	AuthHandler    *auth.Handler
	TasksHandler   *tasks.Handler
	Metrics        *observability.Metrics
	AccessLog      bool
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	if params.AccessLog {
		r.Use(chimw.Logger)
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:          params.Logger,
		Config:          params.Config,
		SessionManager:  params.SessionManager,
		CSRFManager:     params.CSRFManager,
		Metrics:         params.Metrics,
		ResolveIdentity: params.Guard.Resolve,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	params.AuthHandler.MountRoutes(r)
	params.TasksHandler.MountRoutes(r)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers cache embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
