package masterdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/odyssey-erp/backoffice/internal/apiclient"
	"github.com/odyssey-erp/backoffice/internal/export"
	"github.com/odyssey-erp/backoffice/internal/listctl"
	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// LoginPath is where expired sessions are sent.
const LoginPath = "/auth/login"

func (m *resource[E, C, P]) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, m.deps.Logger.With(slog.String("entity", m.cfg.Entity)), err)
}

// respondError maps gateway, controller and backend errors to problems.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr   *httpx.ValidationError
		apiErr *apiclient.APIError
		netErr net.Error
	)
	switch {
	case errors.Is(err, listctl.ErrClosed), errors.Is(err, context.Canceled):
		logger.Debug("client went away", slog.String("path", r.URL.Path))
	case errors.Is(err, apiclient.ErrSessionExpired), errors.Is(err, shared.ErrUnauthenticated):
		if wantsHTML(r) {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		w.Header().Set("Link", "<"+LoginPath+`>; rel="login"`)
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Type:     LoginPath,
			Title:    "Unauthorized",
			Status:   http.StatusUnauthorized,
			Detail:   "session expired, sign in again",
			Instance: r.URL.Path,
		})
	case errors.As(err, &verr):
		httpx.ValidationProblem(w, verr.Fields)
	case errors.Is(err, listctl.ErrUnknownColumn):
		httpx.ValidationProblem(w, httpx.FieldErrors{"column": "unknown column"})
	case errors.Is(err, listctl.ErrInvalidPageSize):
		httpx.ValidationProblem(w, httpx.FieldErrors{"page_size": "unsupported page size"})
	case errors.Is(err, export.ErrNothingToExport):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Nothing To Export", err.Error())
	case errors.Is(err, listctl.ErrNothingSelected):
		httpx.Problem(w, http.StatusConflict, "Conflict", "no record selected")
	case errors.Is(err, listctl.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", trimPrefix(err))
	case errors.As(err, &apiErr):
		respondAPIError(w, r, logger, apiErr)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("backend timeout", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusGatewayTimeout, "Gateway Timeout", "the backend did not answer in time")
	case errors.As(err, &netErr):
		logger.Error("backend unreachable", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "the backend is unreachable")
	default:
		status, _ := httpx.StatusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func respondAPIError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, apiErr *apiclient.APIError) {
	status, title := httpx.StatusFor(apiErr)
	if status == http.StatusInternalServerError {
		logger.Error("backend error", slog.String("path", r.URL.Path), slog.Int("status", apiErr.Status), slog.String("message", apiErr.Message))
		status, title = http.StatusBadGateway, "Bad Gateway"
	}
	detail := apiErr.Message
	if detail == "" {
		detail = http.StatusText(apiErr.Status)
	}
	httpx.WriteProblem(w, httpx.ProblemDetail{
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
		Errors:   apiErr.Fields,
	})
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

// trimPrefix drops the package prefix from a controller error.
func trimPrefix(err error) string {
	return strings.TrimPrefix(err.Error(), "listctl: ")
}

// errMissingModule is reported when a job names an unknown entity.
func errMissingModule(entity string) error {
	return fmt.Errorf("masterdata: unknown entity %q", entity)
}
