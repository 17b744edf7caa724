package domain

import (
	"encoding/base64"
	"strconv"
)

// DefaultPageSize is the page size used by list pages when none is requested.
const DefaultPageSize = 25

// MaxPageSize is the largest page a list page may request from the row store.
const MaxPageSize = 200

// PageRequest holds pagination parameters for list pages.
type PageRequest struct {
	PageSize  int
	PageToken string // opaque token (base64-encoded offset)
}

// Offset decodes the page token into a row offset.
// Returns 0 if the token is empty or invalid.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	decoded, err := base64.RawURLEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Limit returns the effective page size, clamped to [1, MaxPageSize].
func (p PageRequest) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// Apply copies the page window onto a query.
func (p PageRequest) Apply(q Query) Query {
	q.Limit = p.Limit()
	q.Offset = p.Offset()
	return q
}

// EncodePageToken creates an opaque page token from an offset.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// NextPageToken returns the token for the page after the current one, or ""
// when the current page came back short.
func NextPageToken(offset, limit, returned int) string {
	if returned < limit {
		return ""
	}
	return EncodePageToken(offset + limit)
}
