package domain

import "context"

// RowStore executes queries against the backend's row collections.
// Implemented by rowstore.RESTStore and rowstore.SQLiteStore.
//
// dest must be a pointer to a slice (Select) or a pointer to a struct
// (SelectOne). Cancelling ctx aborts the request; implementations report that
// as an abort-kind rowstore.QueryError.
type RowStore interface {
	Select(ctx context.Context, q Query, dest any) error
	SelectOne(ctx context.Context, q Query, dest any) (found bool, err error)
}

// PrincipalSource resolves the currently authenticated principal.
// A nil principal with a nil error means nobody is signed in.
type PrincipalSource interface {
	CurrentPrincipal(ctx context.Context) (*Principal, error)
}

// PrincipalSourceFunc adapts a function to PrincipalSource.
type PrincipalSourceFunc func(ctx context.Context) (*Principal, error)

// CurrentPrincipal implements PrincipalSource.
func (f PrincipalSourceFunc) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	return f(ctx)
}
