// Package ui serves the server-rendered admin dashboard.
package ui

import (
	"errors"
	"log/slog"
	"net/http"

	gomponents "maragu.dev/gomponents"

	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/dashboard"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/middleware"
	"admin-dashboard/internal/rowstore"
)

// Handler renders the dashboard pages.
type Handler struct {
	Backend  *dashboard.Backend
	Sessions *auth.Sessions
	// AuthClient signs users in with email and password. Nil when the
	// backend has no auth API.
	AuthClient *rowstore.AuthClient
	// Validator enables pasting an access token on the sign-in page outside
	// production. May be nil.
	Validator middleware.JWTValidator
	// DemoLogin allows signing in by email alone against the local store.
	DemoLogin  bool
	Production bool
	Logger     *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	backend *dashboard.Backend,
	sessions *auth.Sessions,
	authClient *rowstore.AuthClient,
	validator middleware.JWTValidator,
	demoLogin bool,
	production bool,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Backend:    backend,
		Sessions:   sessions,
		AuthClient: authClient,
		Validator:  validator,
		DemoLogin:  demoLogin,
		Production: production,
		Logger:     logger.With("component", "ui"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &notFound):
		status, title, message = http.StatusNotFound, "Not Found", notFound.Error()
	case errors.As(err, &accessDenied):
		status, title, message = http.StatusForbidden, "Access Denied", accessDenied.Error()
	case errors.As(err, &validation):
		status, title, message = http.StatusBadRequest, "Invalid Request", validation.Error()
	case r.Context().Err() != nil && errors.Is(err, r.Context().Err()):
		return
	default:
		h.Logger.Error("page failed", "path", r.URL.Path, "error", err)
	}
	renderHTML(w, status, errorPage(title, message))
}
