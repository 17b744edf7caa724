package rowstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"admin-dashboard/internal/domain"
)

// Compile-time check.
var _ domain.RowStore = (*SQLiteStore)(nil)

// SQLiteStore serves row-collection reads from the embedded SQLite database
// used in development mode and tests. Identifiers are validated by
// domain.Query.Validate before they are interpolated; values are always bound.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore wraps a read pool opened by db.Open.
func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, logger: logger}
}

// Select decodes every matching row into dest, which must point to a slice.
func (s *SQLiteStore) Select(ctx context.Context, q domain.Query, dest any) error {
	rows, err := s.query(ctx, q)
	if err != nil {
		return err
	}
	return decodeRows(ctx, q.Collection, rows, dest)
}

// SelectOne decodes the first matching row into dest.
func (s *SQLiteStore) SelectOne(ctx context.Context, q domain.Query, dest any) (bool, error) {
	q.Limit = 1
	rows, err := s.query(ctx, q)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	return true, decodeRows(ctx, q.Collection, rows[0], dest)
}

func (s *SQLiteStore) query(ctx context.Context, q domain.Query) ([]map[string]any, error) {
	if err := q.Validate(); err != nil {
		return nil, &QueryError{Kind: KindQuery, Collection: q.Collection, Message: err.Error(), Err: err}
	}
	stmt, args := buildSelect(q)
	s.logger.Debug("sqlite select", "query", q.String())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.wrap(ctx, q.Collection, err)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, s.wrap(ctx, q.Collection, err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, s.wrap(ctx, q.Collection, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col.Name()] = normalizeValue(col.DatabaseTypeName(), vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(ctx, q.Collection, err)
	}
	return out, nil
}

// wrap reports cancellation as an abort and everything else as a query
// failure: the statement reached the engine.
func (s *SQLiteStore) wrap(ctx context.Context, collection string, err error) error {
	err = classify(ctx, collection, err)
	var qe *QueryError
	if errors.As(err, &qe) && qe.Kind == KindUnknown {
		qe.Kind = KindQuery
	}
	return err
}

func buildSelect(q domain.Query) (string, []any) {
	var b strings.Builder
	var args []any

	cols := "*"
	if len(q.Fields) > 0 {
		cols = strings.Join(q.Fields, ", ")
	}
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, q.Collection)

	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		if f.Op != domain.OpAny {
			b.WriteString(columnClause(f))
			args = append(args, f.Value)
			continue
		}
		parts := make([]string, 0, len(f.Any))
		for _, m := range f.Any {
			parts = append(parts, columnClause(m))
			args = append(args, m.Value)
		}
		b.WriteString("(" + strings.Join(parts, " OR ") + ")")
	}

	if q.OrderBy != "" {
		dir := "DESC"
		if q.Ascending {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", q.OrderBy, dir)
	}
	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit == 0 {
			limit = -1
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, q.Offset)
	}
	return b.String(), args
}

func columnClause(f domain.Filter) string {
	if f.Op == domain.OpILike {
		// SQLite LIKE is case-insensitive for ASCII.
		return fmt.Sprintf("%s LIKE ? ESCAPE '%s'", f.Column, domain.LikeEscape)
	}
	return f.Column + " = ?"
}

func normalizeValue(dbType string, v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int64:
		if strings.EqualFold(dbType, "BOOLEAN") {
			return x != 0
		}
	}
	return v
}

// decodeRows moves scanned rows into dest through their JSON form so both
// engines share the records' json tags.
func decodeRows(ctx context.Context, collection string, rows any, dest any) error {
	if m, ok := rows.([]map[string]any); ok && m == nil {
		rows = []map[string]any{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return classify(ctx, collection, fmt.Errorf("encode rows: %w", err))
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return classify(ctx, collection, fmt.Errorf("decode rows: %w", err))
	}
	return nil
}
