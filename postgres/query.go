package postgressmoke

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Query is an initial query executed once the probe has succeeded: either a
// plain SQL string or a builder exposing ToSql.
type Query any

// sqlizer matches squirrel's builder types without depending on them.
type sqlizer interface {
	ToSql() (sql string, args []any, err error)
}

// ErrInvalidQueryType reports an initial query that is neither a string nor
// a sqlizer.
var ErrInvalidQueryType = errors.New("invalid query type, expected string or sqlizer types")

func execQuery(ctx context.Context, db *sql.DB, query Query) error {
	switch query := query.(type) {
	case sqlizer:
		return execSqlizer(ctx, db, query)
	case string:
		return execString(ctx, db, query)
	default:
		return fmt.Errorf("%w, actual %T", ErrInvalidQueryType, query)
	}
}

func execSqlizer(ctx context.Context, db *sql.DB, query sqlizer) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("convert initial query ToSql, %w", err)
	}

	_, err = db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("exec initial query %s, %w", sql, err)
	}

	return nil
}

func execString(ctx context.Context, db *sql.DB, query string) error {
	_, err := db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("exec initial query %s, %w", query, err)
	}

	return nil
}
