package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Op is a row-store filter operator.
type Op string

const (
	OpEq    Op = "eq"
	OpILike Op = "ilike"
	OpAny   Op = "or"
)

// LikeEscape escapes wildcards inside ILike patterns.
const LikeEscape = `\`

// Filter restricts a query to rows whose column matches a value. An OpAny
// filter has no column and matches when any of its Any members does.
type Filter struct {
	Column string
	Op     Op
	Value  string
	Any    []Filter
}

// Eq returns an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// ILike returns a case-insensitive pattern filter. Use % as wildcard.
func ILike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpILike, Value: pattern}
}

// AnyOf returns a filter matching rows that satisfy at least one of filters.
// Members must be plain column filters.
func AnyOf(filters ...Filter) Filter {
	return Filter{Op: OpAny, Any: append([]Filter(nil), filters...)}
}

// ContainsPattern returns an ILike pattern matching text anywhere in a
// column. Wildcards in text match literally.
func ContainsPattern(text string) string {
	r := strings.NewReplacer(LikeEscape, LikeEscape+LikeEscape, "%", LikeEscape+"%", "_", LikeEscape+"_")
	return "%" + r.Replace(text) + "%"
}

// Query describes a read against a named row collection.
type Query struct {
	Collection string
	Fields     []string // empty selects every column
	OrderBy    string
	Ascending  bool
	Filters    []Filter
	Limit      int // 0 means no limit
	Offset     int
}

// With returns a copy of q with extra filters appended.
func (q Query) With(filters ...Filter) Query {
	out := q
	out.Fields = append([]string(nil), q.Fields...)
	out.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return out
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks that every identifier in the query is a plain lower-case
// column or collection name. Both row-store engines interpolate identifiers,
// so this is the only guard against injection through them.
func (q Query) Validate() error {
	if !identRe.MatchString(q.Collection) {
		return ErrValidation("invalid collection name %q", q.Collection)
	}
	for _, f := range q.Fields {
		if !identRe.MatchString(f) {
			return ErrValidation("invalid field name %q", f)
		}
	}
	if q.OrderBy != "" && !identRe.MatchString(q.OrderBy) {
		return ErrValidation("invalid sort key %q", q.OrderBy)
	}
	for _, f := range q.Filters {
		if f.Op != OpAny {
			if err := validateColumnFilter(f); err != nil {
				return err
			}
			continue
		}
		if len(f.Any) == 0 {
			return ErrValidation("empty filter group")
		}
		for _, m := range f.Any {
			if err := validateColumnFilter(m); err != nil {
				return err
			}
		}
	}
	if q.Limit < 0 || q.Offset < 0 {
		return ErrValidation("limit and offset must not be negative")
	}
	return nil
}

func validateColumnFilter(f Filter) error {
	if !identRe.MatchString(f.Column) {
		return ErrValidation("invalid filter column %q", f.Column)
	}
	if f.Op != OpEq && f.Op != OpILike {
		return ErrValidation("unsupported filter operator %q", f.Op)
	}
	return nil
}

// String renders the query for logs.
func (q Query) String() string {
	dir := "desc"
	if q.Ascending {
		dir = "asc"
	}
	return fmt.Sprintf("%s order=%s.%s filters=%d limit=%d offset=%d",
		q.Collection, q.OrderBy, dir, len(q.Filters), q.Limit, q.Offset)
}
