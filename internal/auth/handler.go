package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-todo/internal/observability"
	"github.com/odyssey-erp/odyssey-todo/internal/shared"
	"github.com/odyssey-erp/odyssey-todo/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	guard       *Guard
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	metrics     *observability.Metrics
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *Guard, templates *view.Engine, csrf *shared.CSRFManager, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		guard:       guard,
		templates:   templates,
		csrfManager: csrf,
		metrics:     metrics,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireIdentity)
		r.Get("/logout", h.handleLogout)
		r.Post("/logout", h.handleLogout)
	})
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Email    string `validate:"required,max=254"`
	Password string `validate:"required"`
	Name     string `validate:"required,max=250"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

type registerPageData struct {
	Form   registerForm
	Errors map[string]string
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/register.html", "Register", registerPageData{Errors: map[string]string{}}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Name:     r.PostFormValue("name"),
	}
	if errs := h.validate(form); len(errs) > 0 {
		form.Password = ""
		h.render(w, r, "pages/register.html", "Register", registerPageData{Form: form, Errors: errs}, http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{Email: form.Email, Password: form.Password, Name: form.Name})
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyRegistered) {
			h.metrics.RecordAuth("register", "already_registered")
			h.redirectWithFlash(w, r, "/login", "error", "You've already signed up with this email, log in instead.")
			return
		}
		if errors.Is(err, ErrPasswordTooLong) {
			h.metrics.RecordAuth("register", "invalid")
			form.Password = ""
			errs := map[string]string{"Password": "Passwords are limited to 72 bytes."}
			h.render(w, r, "pages/register.html", "Register", registerPageData{Form: form, Errors: errs}, http.StatusBadRequest)
			return
		}
		h.metrics.RecordAuth("register", "error")
		h.logger.Error("register user", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.metrics.RecordAuth("register", "success")
	h.logger.Info("user registered", slog.Int64("user_id", user.ID))
	h.establish(w, r, user)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/login.html", "Log in", loginPageData{Errors: map[string]string{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if errs := h.validate(form); len(errs) > 0 {
		form.Password = ""
		h.render(w, r, "pages/login.html", "Log in", loginPageData{Form: form, Errors: errs}, http.StatusBadRequest)
		return
	}

	user, err := h.service.Login(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, shared.ErrUnknownEmail):
		h.metrics.RecordAuth("login", "unknown_email")
		h.redirectWithFlash(w, r, "/login", "error", "Wrong email. Please, try again!")
		return
	case errors.Is(err, shared.ErrBadPassword):
		h.metrics.RecordAuth("login", "bad_password")
		h.redirectWithFlash(w, r, "/login", "error", "Password incorrect, please try again!")
		return
	case err != nil:
		h.metrics.RecordAuth("login", "error")
		h.logger.Error("login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.metrics.RecordAuth("login", "success")
	h.establish(w, r, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.EndSession(r.Context(), sess); err != nil {
		h.logger.Warn("remove session", slog.Any("error", err))
	}
	h.metrics.RecordAuth("logout", "success")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// establish logs the user in on the current session and sends them home.
func (h *Handler) establish(w http.ResponseWriter, r *http.Request, user *User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if err := h.service.StartSession(r.Context(), sess, user, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("record session", slog.Any("error", err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs["general"] = err.Error()
			return errs
		}
		for _, fieldErr := range fieldErrs {
			errs[fieldErr.Field()] = fieldMessage(fieldErr)
		}
	}
	return errs
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "This field is too long."
	default:
		return "This field is invalid."
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Identity:    h.guard.CurrentIdentity(r),
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, name, viewData); err != nil {
		h.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
