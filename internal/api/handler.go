// Package api serves the dashboard's JSON API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"admin-dashboard/internal/dashboard"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"
)

// listResponse is a resource state plus the token of the next page, if any.
type listResponse[R any] struct {
	fetch.State[R]
	NextPageToken string `json:"next_page_token,omitempty"`
}

// meResponse is the identity snapshot of the caller.
type meResponse struct {
	User    *domain.Profile `json:"user"`
	Loading bool            `json:"loading"`
}

// Handler implements the /api/v1 endpoints.
type Handler struct {
	backend *dashboard.Backend
	logger  *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(backend *dashboard.Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{backend: backend, logger: logger.With("component", "api")}
}

// MountRoutes registers the API under r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cities", h.ListCities)
	r.Get("/states", h.ListStates)
	r.Get("/profiles", h.ListProfiles)
	r.Get("/profiles/stats", h.ProfileStats)
	r.Get("/invoices", h.ListInvoices)
	r.Get("/quizzes", h.ListQuizzes)
	r.Get("/me", h.Me)
	r.Get("/me/stream", h.MeStream)
}

// ListCities returns the shared cities state.
func (h *Handler) ListCities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Board.Cities())
}

// ListStates returns the shared states state.
func (h *Handler) ListStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Board.States())
}

// ListProfiles returns one page of profiles, optionally narrowed by ?q=.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res := fetch.New[domain.Profile](fetch.Profiles, h.backend.UserStore(r.Context()),
		page.Apply(fetch.ProfilesQuery), fetch.WithLogger(h.logger))
	var filters []domain.Filter
	if search, ok := domain.ProfileSearch(r.URL.Query().Get("q")); ok {
		filters = append(filters, search)
	}
	st, err := loadOnce(r.Context(), res, filters...)
	if err != nil {
		h.requestGone(r, err)
		return
	}
	h.backend.ResolveAvatars(r.Context(), st.Data)
	writeJSON(w, http.StatusOK, listResponse[domain.Profile]{State: st, NextPageToken: nextToken(page, st.Data, st.Error)})
}

// ProfileStats returns the user management counts over all profiles.
func (h *Handler) ProfileStats(w http.ResponseWriter, r *http.Request) {
	res := h.backend.Profiles(r.Context())
	st, err := loadOnce(r.Context(), res)
	if err != nil {
		h.requestGone(r, err)
		return
	}
	if st.Error != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: http.StatusBadGateway, Message: *st.Error})
		return
	}
	writeJSON(w, http.StatusOK, domain.CountProfiles(st.Data, st.Loading))
}

// ListInvoices returns one page of invoices.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res := fetch.New[domain.Invoice](fetch.Invoices, h.backend.UserStore(r.Context()),
		page.Apply(fetch.InvoicesQuery), fetch.WithLogger(h.logger))
	st, err := loadOnce(r.Context(), res)
	if err != nil {
		h.requestGone(r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Invoice]{State: st, NextPageToken: nextToken(page, st.Data, st.Error)})
}

// ListQuizzes returns one page of quizzes.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res := fetch.New[domain.Quiz](fetch.Quizzes, h.backend.UserStore(r.Context()),
		page.Apply(fetch.QuizzesQuery), fetch.WithLogger(h.logger))
	st, err := loadOnce(r.Context(), res)
	if err != nil {
		h.requestGone(r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[domain.Quiz]{State: st, NextPageToken: nextToken(page, st.Data, st.Error)})
}

// Me returns the caller's resolved profile. An anonymous caller gets a
// null user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.backend.Identity(r.Context())
	if err != nil {
		if r.Context().Err() == nil {
			writeError(w, err)
		}
		return
	}
	if user != nil {
		profiles := []domain.Profile{*user}
		h.backend.ResolveAvatars(r.Context(), profiles)
		user = &profiles[0]
	}
	writeJSON(w, http.StatusOK, meResponse{User: user})
}

// requestGone logs a load cut short because the request ended.
func (h *Handler) requestGone(r *http.Request, err error) {
	h.logger.Debug("request ended before load finished", "path", r.URL.Path, "error", err)
}

// loadOnce loads res, restricted by filters when given, and deactivates it.
// A non-nil error means ctx ended.
func loadOnce[R any](ctx context.Context, res *fetch.Resource[R], filters ...domain.Filter) (fetch.State[R], error) {
	defer res.Deactivate()
	if len(filters) == 0 {
		return res.Load(ctx)
	}
	if err := res.Refetch(ctx, filters...).Wait(ctx); err != nil {
		return res.State(), err
	}
	return res.State(), nil
}

func pageFromRequest(r *http.Request) (domain.PageRequest, error) {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := strings.TrimSpace(r.URL.Query().Get("max_results")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, domain.ErrValidation("max_results must be a positive integer")
		}
		p.PageSize = n
	}
	return p, nil
}

func nextToken[R any](page domain.PageRequest, rows []R, loadErr *string) string {
	if loadErr != nil {
		return ""
	}
	return domain.NextPageToken(page.Offset(), page.Limit(), len(rows))
}
