package postgressmoke_test

import (
	"context"
	"fmt"
	"testing"

	postgressmoke "github.com/amidman/dbsmoke/postgres"
	goosemigrations "github.com/amidman/dbsmoke/postgres/migrations/goose"
	pgrunner "github.com/amidman/dbsmoke/postgres/runner"
	"github.com/stretchr/testify/require"
)

func Test_ReuseForTesting(t *testing.T) {
	t.Parallel()

	t.Run("RunnerReusable", testReuse(pgrunner.Reusable()))
	t.Run("NewReusable_RunContainer", testReuse(postgressmoke.NewReusable(pgrunner.RunContainer(nil))))
}

func testReuse(reusable *postgressmoke.Reusable) func(t *testing.T) {
	return func(t *testing.T) {
		t.Parallel()

		for i := range 8 {
			t.Run(fmt.Sprintf("%d", i), runReuseCase(reusable))
		}
	}
}

func runReuseCase(reusable *postgressmoke.Reusable) func(t *testing.T) {
	return func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()

		db := postgressmoke.ReuseForTesting(t, reusable, nil)

		var result int

		err := db.QueryRowContext(ctx, "SELECT 1;").Scan(&result)
		require.NoError(t, err)
		require.Equal(t, 1, result)
	}
}

func Test_Reuse_SchemaIsolation(t *testing.T) {
	t.Parallel()

	reusable := postgressmoke.NewReusable(pgrunner.RunContainer(nil))

	// both users create the same table in the shared container; without a
	// schema per user the second CREATE TABLE would fail, and each user
	// must see only its own row
	for _, name := range []string{"Dima", "amidman"} {
		t.Run(name, runIsolationCase(reusable, name))
	}
}

func runIsolationCase(reusable *postgressmoke.Reusable, name string) func(t *testing.T) {
	return func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()

		db := postgressmoke.ReuseForTesting(t,
			reusable,
			nil,
			`CREATE TABLE isolation_canary (name TEXT NOT NULL)`,
			fmt.Sprintf(`INSERT INTO isolation_canary (name) VALUES ('%s')`, name),
		)

		var (
			rowCount   int
			storedName string
		)

		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM isolation_canary").Scan(&rowCount)
		require.NoError(t, err)
		require.Equal(t, 1, rowCount)

		err = db.QueryRowContext(ctx, "SELECT name FROM isolation_canary").Scan(&storedName)
		require.NoError(t, err)
		require.Equal(t, name, storedName)
	}
}

func Test_Reusable_TerminateBeforeRun(t *testing.T) {
	t.Parallel()

	reusable := postgressmoke.NewReusable(pgrunner.RunContainer(nil))

	require.NotPanics(t, func() {
		err := reusable.Terminate(context.Background())
		require.NoError(t, err)
	})
}

func Test_Reuse_Migrations_WithInitialQuery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	reusable := postgressmoke.NewReusable(pgrunner.RunContainer(nil))

	db := postgressmoke.ReuseForTesting(t,
		reusable,
		goosemigrations.New("./testdata/migrations"),
		`INSERT INTO users (name) VALUES ('Dima')`,
	)

	expectedName := "Dima"

	name := ""

	err := db.QueryRowContext(ctx, "SELECT name FROM users").Scan(&name)
	require.NoError(t, err)
	require.Equal(t, expectedName, name)
}
