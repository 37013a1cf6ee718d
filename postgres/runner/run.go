package pgrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/amidman/dbsmoke"
	postgressmoke "github.com/amidman/dbsmoke/postgres"
	"github.com/amidman/dbsmoke/postgres/migrations"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	//nolint:revive //need for launch container
	_ "github.com/jackc/pgx/v5/stdlib"
)

func RunForTestingConfig(
	t *testing.T,
	cfg *Config,
	migrations migrations.Migrations,
	initialQueries ...postgressmoke.Query,
) *sql.DB {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, term, err := RunConfig(ctx, cfg, migrations, initialQueries...)
	t.Cleanup(term)

	if err != nil {
		t.Fatal(err)
	}

	return db
}

func RunForTesting(
	t *testing.T,
	migrations migrations.Migrations,
	initialQueries ...postgressmoke.Query,
) *sql.DB {
	return RunForTestingConfig(
		t,
		nil,
		migrations,
		initialQueries...,
	)
}

func Run(
	ctx context.Context,
	migrations migrations.Migrations,
	initialQueries ...postgressmoke.Query,
) (db *sql.DB, term func(), err error) {
	return RunConfig(ctx, nil, migrations, initialQueries...)
}

func RunConfig(
	ctx context.Context,
	cfg *Config,
	migrations migrations.Migrations,
	initialQueries ...postgressmoke.Query,
) (db *sql.DB, term func(), err error) {
	return postgressmoke.Run(ctx, RunContainer(cfg), migrations, initialQueries...)
}

type Config struct {
	DBName        string
	DBUser        string
	DBPassword    string
	PostgresImage string
	DriverName    string
}

const (
	defaultDBName        = "test"
	defaultDBUser        = "admin"
	defaultDBPassword    = "admin"
	defaultPostgresImage = "postgres:15"
	defaultDriverName    = "pgx"
)

func containerDBName(cfg *Config) string {
	if cfg != nil && cfg.DBName != "" {
		return cfg.DBName
	}

	return defaultDBName
}

func containerDBUser(cfg *Config) string {
	if cfg != nil && cfg.DBUser != "" {
		return cfg.DBUser
	}

	return defaultDBUser
}

func containerDBPassword(cfg *Config) string {
	if cfg != nil && cfg.DBPassword != "" {
		return cfg.DBPassword
	}

	return defaultDBPassword
}

func containerPostgresImage(cfg *Config) string {
	if cfg != nil && cfg.PostgresImage != "" {
		return cfg.PostgresImage
	}

	envContainerImage := os.Getenv("DBSMOKE_POSTGRES_IMAGE")
	if envContainerImage != "" {
		return envContainerImage
	}

	return defaultPostgresImage
}

func containerDriverName(cfg *Config) string {
	if cfg != nil && cfg.DriverName != "" {
		return cfg.DriverName
	}

	return defaultDriverName
}

func RunContainer(cfg *Config) postgressmoke.CreateContainerFunc {
	return func(ctx context.Context) (postgressmoke.Container, error) {
		dbName := containerDBName(cfg)
		dbUser := containerDBUser(cfg)
		dbPassword := containerDBPassword(cfg)
		postgresImage := containerPostgresImage(cfg)
		driverName := containerDriverName(cfg)

		postgresContainer, err := postgres.Run(ctx,
			postgresImage,
			postgres.WithDatabase(dbName),
			postgres.WithUsername(dbUser),
			postgres.WithPassword(dbPassword),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		if err != nil {
			return nil, errors.Join(postgressmoke.ErrStartContainer, err)
		}

		cnt := container{
			driverName: driverName,
			cnt:        postgresContainer,
		}

		return cnt, nil
	}
}

type container struct {
	driverName string
	cnt        *postgres.PostgresContainer
}

func (c container) Connect(ctx context.Context, args ...string) (*sql.DB, error) {
	dataSourceName, err := c.cnt.ConnectionString(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("get connection string, %w", err)
	}

	db, err := sql.Open(c.driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open connection, %w", err)
	}

	return db, nil
}

func (c container) Terminate(ctx context.Context) error {
	return c.cnt.Terminate(ctx)
}
