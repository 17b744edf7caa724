// Package rowstore is the dashboard's remote query client. It runs filtered,
// sorted, and paginated reads against the backend's row collections, either
// over the hosted REST API or against the embedded SQLite store, and reports
// failures as tagged QueryErrors.
package rowstore

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a row-store failure.
type Kind int

const (
	// KindUnknown covers transport and decoding failures.
	KindUnknown Kind = iota
	// KindQuery is a failure reported by the backend: permission, malformed
	// query, or server error.
	KindQuery
	// KindAbort marks a request that was cancelled by its caller. Consumers
	// discard these instead of surfacing them.
	KindAbort
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// QueryError is the only error type returned by row-store reads.
type QueryError struct {
	Kind       Kind
	Collection string
	Status     int    // HTTP status for REST failures, 0 otherwise
	Code       string // backend error code, when one was reported
	Message    string // human-readable message, safe to show in the UI
	Err        error
}

func (e *QueryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Collection == "" {
		return fmt.Sprintf("rowstore: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("rowstore: %s %s: %s", e.Kind, e.Collection, e.Message)
}

func (e *QueryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsAbort reports whether err is an abort-kind QueryError.
func IsAbort(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == KindAbort
}

// KindOf returns the kind of err, or KindUnknown when err is not a QueryError.
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnknown
}

// classify wraps a low-level failure. Cancellation of the caller's context is
// the single abort marker; a deadline is a real failure.
func classify(ctx context.Context, collection string, err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &QueryError{Kind: KindAbort, Collection: collection, Message: "request cancelled", Err: err}
	}
	return &QueryError{Kind: KindUnknown, Collection: collection, Message: err.Error(), Err: err}
}
