package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginState struct {
	CSRFToken     string          `json:"csrf_token"`
	Authenticated bool            `json:"authenticated"`
	User          *shared.Profile `json:"user,omitempty"`
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, h.state(sess, csrfToken))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := h.validator.Struct(form); err != nil {
		fields := make(httpx.FieldErrors)
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				fields[strings.ToLower(fieldErr.Field())] = fieldMessage(fieldErr)
			}
		}
		httpx.ValidationProblem(w, fields)
		return
	}

	profile, creds, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		h.logger.Info("login rejected", slog.String("email", form.Email))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "email or password is incorrect")
		return
	case err != nil:
		h.logger.Error("login", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "authentication service unavailable")
		return
	}

	sess.SignIn(profile, creds)
	csrfToken, err := h.csrfManager.RotateToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("rotate csrf token", slog.Any("error", err))
	}
	h.logger.Info("signed in", slog.String("user_id", profile.ID), slog.String("role", profile.Role))
	httpx.JSON(w, http.StatusOK, h.state(sess, csrfToken))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.SignOut(r.Context(), sess); err != nil {
			h.logger.Warn("backend logout", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) state(sess *shared.Session, csrfToken string) loginState {
	out := loginState{CSRFToken: csrfToken}
	if sess != nil && sess.Authenticated() {
		profile := sess.Profile()
		out.Authenticated = true
		out.User = &profile
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
