package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
)

// Querier runs statements against either *sqlx.DB or *sqlx.Tx. Statements are
// written with '?' placeholders and passed through conv for the dialect.
type Querier struct {
	ext        sqlx.ExtContext
	conv       func(string) string
	isConflict func(error) bool
}

func (q *Querier) rebind(query string) string {
	if q.conv == nil {
		return query
	}
	return q.conv(query)
}

// get returns false when no row matched.
func (q *Querier) get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q.ext, dest, q.rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (q *Querier) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.rebind(query), args...)
}

func (q *Querier) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.ext.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (q *Querier) namedExec(ctx context.Context, query string, arg any) error {
	_, err := sqlx.NamedExecContext(ctx, q.ext, query, arg)
	return err
}

// wrap surfaces unique-constraint violations as conflict errors and wraps
// everything else with context.
func (q *Querier) wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if q.isConflict != nil && q.isConflict(err) {
		return apperr.Newf(apperr.KindConflict, "%s: %v", msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
