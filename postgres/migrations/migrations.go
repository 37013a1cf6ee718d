// Package migrations defines the schema hook a smoke sequence runs between
// the probe and the initial queries.
package migrations

import (
	"context"
	"database/sql"
)

// Migrations brings a freshly probed database to the schema a test expects.
type Migrations interface {
	Up(ctx context.Context, db *sql.DB) error
}

// Nil applies nothing, for smoke checks that need no schema.
var Nil nilMigrations

type nilMigrations struct{}

func (nilMigrations) Up(context.Context, *sql.DB) error {
	return nil
}
