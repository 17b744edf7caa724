package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"admin-dashboard/internal/fetch"
)

// Loader loads one section of a page.
type Loader func(ctx context.Context) error

// LoadPage runs loaders concurrently and waits for all of them. The first
// error cancels the others and is returned.
func LoadPage(ctx context.Context, loaders ...Loader) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loaders {
		g.Go(func() error { return load(gctx) })
	}
	return g.Wait()
}

// Into loads res once and stores the resulting state in dst. The resource
// is deactivated afterwards. Backend failures land in dst.Error; only the
// end of ctx is reported as an error.
func Into[R any](res *fetch.Resource[R], dst *fetch.State[R]) Loader {
	return func(ctx context.Context) error {
		defer res.Deactivate()
		st, err := res.Load(ctx)
		*dst = st
		return err
	}
}

