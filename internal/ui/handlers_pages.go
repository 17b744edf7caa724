package ui

import (
	"context"
	"net/http"
	"strings"

	"admin-dashboard/internal/dashboard"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"
)

func (h *Handler) currentUser(ctx context.Context) (pageUser, error) {
	p, err := h.Backend.Identity(ctx)
	if err != nil {
		return pageUser{}, err
	}
	if p != nil {
		profiles := []domain.Profile{*p}
		h.Backend.ResolveAvatars(ctx, profiles)
		p = &profiles[0]
	}
	return userFromProfile(p), nil
}

// identityLoader resolves the signed-in user into dst.
func (h *Handler) identityLoader(dst *pageUser) dashboard.Loader {
	return func(ctx context.Context) error {
		u, err := h.currentUser(ctx)
		*dst = u
		return err
	}
}

// Home renders the overview stat cards.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		user     pageUser
		profiles fetch.State[domain.Profile]
		invoices fetch.State[domain.Invoice]
		quizzes  fetch.State[domain.Quiz]
	)
	err := dashboard.LoadPage(ctx,
		h.identityLoader(&user),
		dashboard.Into(h.Backend.Profiles(ctx), &profiles),
		dashboard.Into(h.Backend.Invoices(ctx), &invoices),
		dashboard.Into(h.Backend.Quizzes(ctx), &quizzes),
	)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	snap := h.Backend.Board.Snapshot()
	renderHTML(w, http.StatusOK, overviewPage(overviewPageData{
		User:     user,
		CSRF:     csrfFieldProvider(r),
		Stats:    domain.CountProfiles(profiles.Data, profiles.Loading),
		Loading:  profiles.Loading,
		Cities:   snap.Cities,
		States:   snap.States,
		Invoices: invoices,
		Quizzes:  quizzes,
	}))
}

// Users renders user management with the stat cards and profile table.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		user     pageUser
		profiles fetch.State[domain.Profile]
	)
	err := dashboard.LoadPage(ctx,
		h.identityLoader(&user),
		dashboard.Into(h.Backend.Profiles(ctx), &profiles),
	)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	shown := domain.FilterProfiles(profiles.Data, search)
	h.Backend.ResolveAvatars(ctx, shown)

	renderHTML(w, http.StatusOK, usersPage(usersPageData{
		User:     user,
		CSRF:     csrfFieldProvider(r),
		Stats:    domain.CountProfiles(profiles.Data, profiles.Loading),
		Loading:  profiles.Loading,
		Error:    profiles.Error,
		Search:   search,
		Profiles: shown,
	}))
}

// Cities renders the cities reference table from the shared board.
func (h *Handler) Cities(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	snap := h.Backend.Board.Snapshot()
	renderHTML(w, http.StatusOK, citiesPage(user, csrfFieldProvider(r), snap.Cities, snap.States))
}

// States renders the states reference table from the shared board.
func (h *Handler) States(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, statesPage(user, csrfFieldProvider(r), h.Backend.Board.States()))
}

// Billing renders the invoices table.
func (h *Handler) Billing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		user     pageUser
		invoices fetch.State[domain.Invoice]
	)
	if err := dashboard.LoadPage(ctx, h.identityLoader(&user), dashboard.Into(h.Backend.Invoices(ctx), &invoices)); err != nil {
		h.renderError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, billingPage(user, csrfFieldProvider(r), invoices))
}

// Quizzes renders the quiz catalog.
func (h *Handler) Quizzes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		user    pageUser
		quizzes fetch.State[domain.Quiz]
	)
	if err := dashboard.LoadPage(ctx, h.identityLoader(&user), dashboard.Into(h.Backend.Quizzes(ctx), &quizzes)); err != nil {
		h.renderError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, quizzesPage(user, csrfFieldProvider(r), quizzes))
}
