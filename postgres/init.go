package postgressmoke

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/amidman/dbsmoke/postgres/migrations"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
)

const (
	pingInterval = 250 * time.Millisecond
	pingDeadline = 10 * time.Second
)

// Init connects to an already acquired container, verifies it answers the
// probe, applies migrations and executes initial queries.
//
// term is non-nil on every return path, closes the database handle before
// terminating the container and must be called exactly once.
func Init(
	ctx context.Context,
	pgCnt Container,
	migrations migrations.Migrations,
	initialQueries ...Query,
) (db *sql.DB, term func(), err error) {
	term = func() {
		terminateErr := pgCnt.Terminate(ctx)
		if terminateErr != nil {
			log.Printf("failed to terminate container: %s", terminateErr)
		}
	}

	db, err = pgCnt.Connect(ctx, "sslmode=disable")
	if err != nil {
		return nil, term, errors.Join(ErrConnect, err)
	}

	term = func() {
		releaseErr := multierr.Append(db.Close(), pgCnt.Terminate(ctx))
		if releaseErr != nil {
			log.Printf("failed to release container: %s", releaseErr)
		}
	}

	err = setup(ctx, db, migrations, initialQueries...)
	if err != nil {
		return db, term, err
	}

	return db, term, nil
}

func setup(
	ctx context.Context,
	db *sql.DB,
	migrations migrations.Migrations,
	initialQueries ...Query,
) error {
	err := awaitReachable(ctx, db)
	if err != nil {
		return err
	}

	err = Probe(ctx, db)
	if err != nil {
		return err
	}

	if migrations != nil {
		err = migrations.Up(ctx, db)
		if err != nil {
			return fmt.Errorf("up migrations, %w", err)
		}
	}

	for _, initialQuery := range initialQueries {
		err = execQuery(ctx, db, initialQuery)
		if err != nil {
			return err
		}
	}

	return nil
}

// awaitReachable pings the database until it answers or the retry window
// lapses. A container that never exposes its port fails here instead of
// hanging on the first query.
func awaitReachable(ctx context.Context, db *sql.DB) error {
	backoff := retry.WithMaxDuration(pingDeadline, retry.NewConstant(pingInterval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingErr := db.PingContext(ctx)
		if pingErr != nil {
			return retry.RetryableError(pingErr)
		}

		return nil
	})
	if err != nil {
		return errors.Join(ErrConnect, err)
	}

	return nil
}
