package postgressmoke

import (
	"context"
	"database/sql"
	"testing"

	"github.com/amidman/dbsmoke"
	"github.com/amidman/dbsmoke/postgres/migrations"
)

// RunForTesting acquires a container via ccf and fails the test when any
// part of the smoke sequence fails. The database handle and the container
// are released through t.Cleanup on every exit path.
func RunForTesting(
	t *testing.T,
	ccf CreateContainerFunc,
	migrations migrations.Migrations,
	initialQueries ...Query,
) *sql.DB {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, term, err := Run(ctx, ccf, migrations, initialQueries...)
	t.Cleanup(term)

	if err != nil {
		t.Fatalf("start postgres container, err: %s", err)
	}

	return db
}

func Run(
	ctx context.Context,
	ccf CreateContainerFunc,
	migrations migrations.Migrations,
	initialQueries ...Query,
) (db *sql.DB, term func(), err error) {
	pgCnt, err := ccf(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	return Init(ctx, pgCnt, migrations, initialQueries...)
}
