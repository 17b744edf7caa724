package dashboard

import (
	"context"
	"log/slog"

	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"
	"admin-dashboard/internal/identity"
	"admin-dashboard/internal/storage"
)

// Backend bundles what request handlers need to read dashboard data on
// behalf of the caller.
type Backend struct {
	// Board holds the shared reference data.
	Board *Board
	// UserStore returns a store scoped to the caller in ctx.
	UserStore func(ctx context.Context) domain.RowStore
	// Principals resolves the caller in ctx.
	Principals domain.PrincipalSource
	// Broker publishes auth-state changes.
	Broker *auth.Broker
	// Avatars turns stored avatar values into browser URLs. May be nil.
	Avatars *storage.AvatarURLs
	Logger  *slog.Logger
}

func (b *Backend) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// Identity resolves the caller's profile once. A nil profile with a nil
// error means nobody is signed in.
func (b *Backend) Identity(ctx context.Context) (*domain.Profile, error) {
	r := b.NewResolver(ctx)
	r.Activate(ctx)
	defer r.Deactivate()
	return r.Wait(ctx)
}

// NewResolver returns an inactive resolver for the caller in ctx. Extra
// options are applied after the defaults.
func (b *Backend) NewResolver(ctx context.Context, opts ...identity.Option) *identity.Resolver {
	base := []identity.Option{identity.WithLogger(b.logger())}
	return identity.New(b.Principals, b.UserStore(ctx), append(base, opts...)...)
}

// Profiles returns a caller-scoped profiles resource.
func (b *Backend) Profiles(ctx context.Context) *fetch.Resource[domain.Profile] {
	return fetch.NewProfiles(b.UserStore(ctx), b.logger())
}

// Invoices returns a caller-scoped invoices resource.
func (b *Backend) Invoices(ctx context.Context) *fetch.Resource[domain.Invoice] {
	return fetch.NewInvoices(b.UserStore(ctx), b.logger())
}

// Quizzes returns a caller-scoped quizzes resource.
func (b *Backend) Quizzes(ctx context.Context) *fetch.Resource[domain.Quiz] {
	return fetch.NewQuizzes(b.UserStore(ctx), b.logger())
}

// ResolveAvatars rewrites avatar values of profiles into browser URLs.
func (b *Backend) ResolveAvatars(ctx context.Context, profiles []domain.Profile) {
	if b.Avatars == nil {
		return
	}
	b.Avatars.Apply(ctx, profiles)
}
