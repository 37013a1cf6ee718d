package postgressmoke

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amidman/dbsmoke"
	"github.com/amidman/dbsmoke/postgres/migrations"
)

func ReuseForTesting(
	t *testing.T,
	reusable *Reusable,
	migrations migrations.Migrations,
	initialQueries ...Query,
) *sql.DB {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, term, err := Reuse(ctx, reusable, migrations, initialQueries...)
	t.Cleanup(term)

	if err != nil {
		t.Fatalf("reuse postgres container, err: %s", err)
	}

	return db
}

func Reuse(
	ctx context.Context,
	reusable *Reusable,
	migrations migrations.Migrations,
	initialQueries ...Query,
) (db *sql.DB, term func(), err error) {
	return reusable.run(ctx, migrations, initialQueries...)
}

const defaultWaitDuration = time.Second

type ReusableOption func(*Reusable)

func WithWaitDuration(waitDuration time.Duration) ReusableOption {
	return func(r *Reusable) {
		r.daemonWaitDuration = waitDuration
	}
}

// Reusable shares one postgres container between parallel tests. Every user
// gets a fresh schema and a connection scoped to it, so users never observe
// each other's writes. The daemon keeps the container alive for
// daemonWaitDuration after the last user exits.
type Reusable struct {
	ccf CreateContainerFunc

	runDaemonOnce      sync.Once
	daemon             *dbsmoke.ReusableDaemon
	stopDaemon         context.CancelFunc
	daemonWaitDuration time.Duration
	schemaCounter      atomic.Int64
}

func NewReusable(ccf CreateContainerFunc, opts ...ReusableOption) *Reusable {
	reusable := &Reusable{
		ccf:                ccf,
		daemonWaitDuration: defaultWaitDuration,
	}

	for _, op := range opts {
		op(reusable)
	}

	return reusable
}

func (r *Reusable) Terminate(ctx context.Context) error {
	if r.daemon == nil {
		return nil
	}

	r.stopDaemon()

	select {
	case <-r.daemon.Done():
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (r *Reusable) run(
	ctx context.Context,
	migrations migrations.Migrations,
	initialQueries ...Query,
) (db *sql.DB, term func(), err error) {
	r.runDaemonOnce.Do(r.runDaemon)

	pgCnt, err := r.enter(ctx)
	if err != nil {
		return nil, func() {}, fmt.Errorf("enter to reusable container, %w", err)
	}

	term = r.daemon.Exit

	schemaName, err := r.createSchema(ctx, pgCnt)
	if err != nil {
		return nil, term, err
	}

	db, err = pgCnt.Connect(ctx, "sslmode=disable", "search_path="+schemaName)
	if err != nil {
		return nil, term, errors.Join(ErrConnect, err)
	}

	term = func() {
		_ = db.Close()
		r.daemon.Exit()
	}

	err = setup(ctx, db, migrations, initialQueries...)
	if err != nil {
		return db, term, fmt.Errorf("reuse container, %w", err)
	}

	return db, term, nil
}

// createSchema gives the entering user its own schema in the shared
// container, migrations and initial queries land there instead of public.
func (r *Reusable) createSchema(ctx context.Context, pgCnt Container) (schemaName string, err error) {
	baseDB, err := pgCnt.Connect(ctx, "sslmode=disable")
	if err != nil {
		return "", errors.Join(ErrConnect, err)
	}

	defer func() { _ = baseDB.Close() }()

	err = awaitReachable(ctx, baseDB)
	if err != nil {
		return "", err
	}

	schemaName = "smoke" + strconv.FormatInt(r.schemaCounter.Add(1), 10)

	_, err = baseDB.ExecContext(ctx, "CREATE SCHEMA "+schemaName)
	if err != nil {
		return "", fmt.Errorf("create schema %s, %w", schemaName, err)
	}

	return schemaName, nil
}

func (r *Reusable) runDaemon() {
	ccf := func(ctx context.Context) (any, error) {
		return r.ccf(ctx)
	}

	ctx, cancel := context.WithCancel(context.Background())

	r.daemon = dbsmoke.RunReusableDaemon(ctx,
		r.daemonWaitDuration,
		ccf,
	)
	r.stopDaemon = cancel
}

func (r *Reusable) enter(ctx context.Context) (Container, error) {
	cnt, err := r.daemon.Enter(ctx)
	if err != nil {
		return nil, err
	}

	pgCnt, ok := cnt.(Container)
	if !ok {
		return nil, fmt.Errorf("unexpected container type %T from daemon", cnt)
	}

	return pgCnt, nil
}
