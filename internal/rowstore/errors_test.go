package rowstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		err      error
		wantKind Kind
	}{
		{name: "context cancelled error", ctx: context.Background(), err: fmt.Errorf("do: %w", context.Canceled), wantKind: KindAbort},
		{name: "cancelled caller context", ctx: cancelled, err: errors.New("read tcp: use of closed connection"), wantKind: KindAbort},
		{name: "deadline is not an abort", ctx: context.Background(), err: context.DeadlineExceeded, wantKind: KindUnknown},
		{name: "message mentioning abort is not an abort", ctx: context.Background(), err: errors.New("transaction aborted by peer"), wantKind: KindUnknown},
		{name: "query error kept", ctx: cancelled, err: &QueryError{Kind: KindQuery, Message: "permission denied"}, wantKind: KindQuery},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := classify(tc.ctx, "cities", tc.err)
			assert.Equal(t, tc.wantKind, KindOf(err))
			assert.Equal(t, tc.wantKind == KindAbort, IsAbort(err))
		})
	}

	assert.NoError(t, classify(context.Background(), "cities", nil))
}

func TestQueryError_Error(t *testing.T) {
	t.Parallel()

	err := &QueryError{Kind: KindQuery, Collection: "states", Message: "relation does not exist"}
	assert.Equal(t, "rowstore: query states: relation does not exist", err.Error())

	wrapped := fmt.Errorf("load: %w", err)
	assert.Equal(t, KindQuery, KindOf(wrapped))
	assert.False(t, IsAbort(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
