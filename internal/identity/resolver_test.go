package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/rowstore"
)

func strPtr(s string) *string { return &s }

// profileStore serves profiles by id.
type profileStore struct {
	mu      sync.Mutex
	rows    map[string]domain.Profile
	err     error
	queries []domain.Query
}

func (s *profileStore) Select(context.Context, domain.Query, any) error {
	return errors.New("not implemented")
}

func (s *profileStore) SelectOne(ctx context.Context, q domain.Query, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return false, s.err
	}
	if err := ctx.Err(); err != nil {
		return false, &rowstore.QueryError{Kind: rowstore.KindAbort, Err: err}
	}
	for _, f := range q.Filters {
		if f.Column == "id" {
			row, ok := s.rows[f.Value]
			if !ok {
				return false, nil
			}
			*(dest.(*domain.Profile)) = row
			return true, nil
		}
	}
	return false, errors.New("missing id filter")
}

// switchablePrincipal returns whatever principal is currently set.
type switchablePrincipal struct {
	mu  sync.Mutex
	p   *domain.Principal
	err error
}

func (s *switchablePrincipal) set(p *domain.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

func (s *switchablePrincipal) CurrentPrincipal(context.Context) (*domain.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p, s.err
}

func waitResolved(t *testing.T, r *Resolver) *domain.Profile {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	user, err := r.Wait(ctx)
	require.NoError(t, err)
	return user
}

func TestResolver_InitialState(t *testing.T) {
	t.Parallel()

	r := New(&switchablePrincipal{}, &profileStore{})
	user, loading := r.Snapshot()
	assert.Nil(t, user)
	assert.True(t, loading)
	assert.Equal(t, StateResolving, r.State())
}

func TestResolver_Outcomes(t *testing.T) {
	t.Parallel()

	email := strPtr("ada@example.com")
	rows := map[string]domain.Profile{
		"u1": {ID: "u1", Username: strPtr("ada"), Role: strPtr("admin")},
	}

	tests := []struct {
		name      string
		principal *domain.Principal
		srcErr    error
		storeErr  error
		want      *domain.Profile
	}{
		{
			name:      "profile row merged with principal",
			principal: &domain.Principal{ID: "u1", Email: email},
			want:      &domain.Profile{ID: "u1", Email: email, Username: strPtr("ada"), Role: strPtr("admin")},
		},
		{
			name:      "missing row synthesized from principal",
			principal: &domain.Principal{ID: "u2", Email: email},
			want:      &domain.Profile{ID: "u2", Email: email},
		},
		{
			name: "no principal",
		},
		{
			name:   "principal failure",
			srcErr: errors.New("auth backend down"),
		},
		{
			name:      "profile lookup failure",
			principal: &domain.Principal{ID: "u1", Email: email},
			storeErr:  &rowstore.QueryError{Kind: rowstore.KindQuery, Message: "permission denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := &switchablePrincipal{p: tt.principal, err: tt.srcErr}
			r := New(src, &profileStore{rows: rows, err: tt.storeErr})
			r.Activate(context.Background())
			defer r.Deactivate()

			got := waitResolved(t, r)
			assert.Equal(t, tt.want, got)

			user, loading := r.Snapshot()
			assert.False(t, loading)
			assert.Equal(t, tt.want, user)
			assert.Equal(t, StateResolved, r.State())
		})
	}
}

func TestResolver_ProfileQuery(t *testing.T) {
	t.Parallel()

	store := &profileStore{rows: map[string]domain.Profile{}}
	r := New(&switchablePrincipal{p: &domain.Principal{ID: "u9"}}, store)
	r.Activate(context.Background())
	defer r.Deactivate()
	waitResolved(t, r)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.queries, 1)
	q := store.queries[0]
	assert.Equal(t, "profiles", q.Collection)
	assert.Equal(t, []domain.Filter{domain.Eq("id", "u9")}, q.Filters)
}

func TestResolver_ReresolvesOnAuthEvent(t *testing.T) {
	t.Parallel()

	broker := auth.NewBroker(nil)
	src := &switchablePrincipal{}
	settled := make(chan *domain.Profile, 4)
	r := New(src, &profileStore{rows: map[string]domain.Profile{}},
		WithBroker(broker, "s1"),
		OnSettle(func(u *domain.Profile) { settled <- u }),
	)
	r.Activate(context.Background())
	defer r.Deactivate()

	select {
	case u := <-settled:
		assert.Nil(t, u)
	case <-time.After(2 * time.Second):
		t.Fatal("first resolution did not settle")
	}

	src.set(&domain.Principal{ID: "u1", Email: strPtr("ada@example.com")})
	broker.Publish(auth.Event{Type: auth.EventSignedIn, SessionID: "s1"})

	select {
	case u := <-settled:
		require.NotNil(t, u)
		assert.Equal(t, "u1", u.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("auth event did not trigger a resolution")
	}

	// events for other sessions are ignored
	broker.Publish(auth.Event{Type: auth.EventSignedOut, SessionID: "s2"})
	select {
	case u := <-settled:
		t.Fatalf("unexpected resolution: %+v", u)
	case <-time.After(30 * time.Millisecond):
	}
}

// blockingPrincipal blocks every lookup until its context ends or the test
// releases it.
type blockingPrincipal struct {
	started  chan context.Context
	release  chan *domain.Principal
	ignoreCt bool
}

func (b *blockingPrincipal) CurrentPrincipal(ctx context.Context) (*domain.Principal, error) {
	b.started <- ctx
	if b.ignoreCt {
		return <-b.release, nil
	}
	select {
	case p := <-b.release:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestResolver_DeactivateCancelsAndUnsubscribes(t *testing.T) {
	t.Parallel()

	broker := auth.NewBroker(nil)
	src := &blockingPrincipal{started: make(chan context.Context, 4), release: make(chan *domain.Principal, 1)}
	r := New(src, &profileStore{}, WithBroker(broker, "s1"))
	r.Activate(context.Background())
	require.Equal(t, 1, broker.Len())

	var lookupCtx context.Context
	select {
	case lookupCtx = <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("lookup did not start")
	}

	r.Deactivate()
	r.Deactivate()

	assert.Equal(t, 0, broker.Len())
	select {
	case <-lookupCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight lookup was not cancelled")
	}

	user, loading := r.Snapshot()
	assert.Nil(t, user)
	assert.True(t, loading)
}

func TestResolver_LateResultAfterDeactivateDiscarded(t *testing.T) {
	t.Parallel()

	src := &blockingPrincipal{started: make(chan context.Context, 4), release: make(chan *domain.Principal, 1), ignoreCt: true}
	r := New(src, &profileStore{rows: map[string]domain.Profile{}})
	r.Activate(context.Background())
	<-src.started

	r.Deactivate()
	src.release <- &domain.Principal{ID: "late"}
	time.Sleep(30 * time.Millisecond)

	user, loading := r.Snapshot()
	assert.Nil(t, user)
	assert.True(t, loading)
}

func TestResolver_AuthEventCancelsInFlightLookup(t *testing.T) {
	t.Parallel()

	broker := auth.NewBroker(nil)
	src := &blockingPrincipal{started: make(chan context.Context, 4), release: make(chan *domain.Principal, 1)}
	r := New(src, &profileStore{rows: map[string]domain.Profile{}}, WithBroker(broker, "s1"))
	r.Activate(context.Background())
	defer r.Deactivate()

	first := <-src.started
	broker.Publish(auth.Event{Type: auth.EventTokenRefreshed, SessionID: "s1"})

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first lookup was not cancelled")
	}

	var second context.Context
	select {
	case second = <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("second lookup did not start")
	}
	require.NoError(t, second.Err())

	src.release <- &domain.Principal{ID: "u2"}
	user := waitResolved(t, r)
	require.NotNil(t, user)
	assert.Equal(t, "u2", user.ID)
}
