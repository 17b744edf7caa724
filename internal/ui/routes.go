package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"admin-dashboard/internal/middleware"
	"admin-dashboard/internal/ui/assets"
)

// MountRoutes registers the UI under r, which is expected to be mounted at
// /ui behind middleware.Authenticate.
func MountRoutes(r chi.Router, h *Handler) {
	staticFS, err := fs.Sub(assets.StaticFS(), "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/ui/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)

		r.Get("/login", h.LoginPage)
		r.Post("/login", h.LoginSubmit)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(RedirectToLogin))
			r.Use(h.RefreshSession)
			r.Get("/", h.Home)
			r.Get("/users", h.Users)
			r.Get("/cities", h.Cities)
			r.Get("/states", h.States)
			r.Get("/billing", h.Billing)
			r.Get("/quizzes", h.Quizzes)
		})
	})
}
