package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-todo/internal/observability"
	"github.com/odyssey-erp/odyssey-todo/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/view"
)

// IdentityGuard resolves and enforces the caller identity.
type IdentityGuard interface {
	CurrentIdentity(r *http.Request) shared.Identity
	RequireIdentity(next http.Handler) http.Handler
}

// Handler serves the task list pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     IdentityGuard
	templates *view.Engine
	csrf      *shared.CSRFManager
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard IdentityGuard, templates *view.Engine, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		templates: templates,
		csrf:      csrf,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireIdentity)
		r.Post("/add", h.add)
		r.Get("/update/{taskID}", h.toggle)
		r.Post("/update/{taskID}", h.toggle)
		r.Get("/delete/{taskID}", h.delete)
		r.Post("/delete/{taskID}", h.delete)
	})
}

type addForm struct {
	Name string `validate:"max=250"`
}

type homePageData struct {
	Tasks  []Task
	Policy Policy
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	caller := h.guard.CurrentIdentity(r)
	list, err := h.service.ListForHome(r.Context(), caller)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Tasks",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    caller,
		Data:        homePageData{Tasks: list, Policy: h.service.Policy()},
	}
	if err := h.templates.Render(w, "pages/index.html", data); err != nil {
		h.logger.Error("render home", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := addForm{Name: r.PostFormValue("name")}
	if err := h.validator.Struct(form); err != nil {
		h.redirectWithFlash(w, r, "error", "Task descriptions are limited to 250 characters.")
		return
	}

	task, err := h.service.Create(r.Context(), h.guard.CurrentIdentity(r), form.Name)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	h.metrics.RecordTask("create", "success")
	h.logger.Debug("task created", slog.Int64("task_id", task.ID), slog.Int64("owner_id", task.OwnerID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		h.fail(w, "toggle", shared.ErrNotFound)
		return
	}
	if _, err := h.service.Toggle(r.Context(), h.guard.CurrentIdentity(r), id); err != nil {
		h.fail(w, "toggle", err)
		return
	}
	h.metrics.RecordTask("toggle", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(r)
	if !ok {
		h.fail(w, "delete", shared.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), h.guard.CurrentIdentity(r), id); err != nil {
		h.fail(w, "delete", err)
		return
	}
	h.metrics.RecordTask("delete", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := httpx.StatusFor(err)
	if status == http.StatusInternalServerError {
		h.metrics.RecordTask(op, "error")
		h.logger.Error("task operation failed", slog.String("op", op), slog.Any("error", err))
	} else {
		h.metrics.RecordTask(op, outcomeFor(err))
	}
	httpx.RespondError(w, err)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrForbidden):
		return "forbidden"
	case errors.Is(err, shared.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
