package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Where accumulates named filter conditions for list queries.
type Where struct {
	conds []string
	Args  map[string]any
}

func NewWhere() *Where {
	return &Where{Args: map[string]any{}}
}

// And adds cond, binding value to name when name is not empty.
func (w *Where) And(cond, name string, value any) *Where {
	w.conds = append(w.conds, cond)
	if name != "" {
		w.Args[name] = value
	}
	return w
}

func (w *Where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Page renders a LIMIT/OFFSET clause; pageSize <= 0 means unbounded.
func Page(page, pageSize int) string {
	if pageSize <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
}

// NamedGet runs a named query expected to return one row. It returns
// sql.ErrNoRows like sqlx.GetContext.
func NamedGet(ctx context.Context, db sqlx.ExtContext, dest any, query string, arg any) error {
	q, args, err := db.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, db, dest, q, args...)
}

func NamedSelect(ctx context.Context, db sqlx.ExtContext, dest any, query string, arg any) error {
	q, args, err := db.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, db, dest, q, args...)
}

// NamedCount runs SELECT count(*) FROM table with the given filters.
func NamedCount(ctx context.Context, db sqlx.ExtContext, table string, w *Where) (int, error) {
	var n int
	err := NamedGet(ctx, db, &n, "SELECT count(*) FROM "+table+w.String(), w.Args)
	return n, err
}

// GetOne wraps sqlx.GetContext and maps a missing row to a nil result.
func GetOne[T any](ctx context.Context, db sqlx.QueryerContext, query string, args ...any) (*T, error) {
	var row T
	if err := sqlx.GetContext(ctx, db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// In expands slice arguments with sqlx.In and rebinds for db.
func In(db sqlx.ExtContext, query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), a, nil
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
