package postgressmoke

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/amidman/dbsmoke"
	"github.com/amidman/dbsmoke/postgres/migrations"
	"github.com/joho/godotenv"
)

var externalReusable = NewReusable(ExternalContainer(nil))

func ExternalReusable() *Reusable {
	return externalReusable
}

func UseExternalForTestingConfig(
	t *testing.T,
	cfg *ExternalContainerConfig,
	migrations migrations.Migrations,
	initialQueries ...Query,
) *sql.DB {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, term, err := UseExternalConfig(ctx, cfg, migrations, initialQueries...)
	t.Cleanup(term)

	if err != nil {
		t.Fatal(err)

		return nil
	}

	return db
}

func UseExternalForTesting(
	t *testing.T,
	migrations migrations.Migrations,
	initialQueries ...Query,
) *sql.DB {
	return UseExternalForTestingConfig(
		t,
		nil,
		migrations,
		initialQueries...,
	)
}

func UseExternalConfig(
	ctx context.Context,
	cfg *ExternalContainerConfig,
	migrations migrations.Migrations,
	initialQueries ...Query,
) (db *sql.DB, term func(), err error) {
	return Run(ctx, ExternalContainer(cfg), migrations, initialQueries...)
}

func UseExternal(
	ctx context.Context,
	migrations migrations.Migrations,
	initialQueries ...Query,
) (db *sql.DB, term func(), err error) {
	return UseExternalConfig(ctx, nil, migrations, initialQueries...)
}

// ExternalContainerConfig points the smoke sequence at an already running
// server instead of a fresh container. When EnvFile is set it is loaded
// before the connection string is resolved.
type ExternalContainerConfig struct {
	DriverName       string
	ConnectionString string
	EnvFile          string
}

func externalContainerDriverName(cfg *ExternalContainerConfig) string {
	const defaultDriverName = "pgx"

	if cfg != nil && cfg.DriverName != "" {
		return cfg.DriverName
	}

	return defaultDriverName
}

func externalContainerConnectionString(cfg *ExternalContainerConfig) string {
	const connectionStringEnvName = "DBSMOKE_POSTGRES_CONNECTION_STRING"

	if cfg != nil && cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	if cfg != nil && cfg.EnvFile != "" {
		err := godotenv.Load(cfg.EnvFile)
		if err != nil {
			log.Printf("failed to load env file %s: %s", cfg.EnvFile, err)
		}
	}

	defaultConnectionString := os.Getenv(connectionStringEnvName)

	if defaultConnectionString == "" {
		panic("connection string is empty and environment variable " + connectionStringEnvName + " is empty")
	}

	return defaultConnectionString
}

func ExternalContainer(cfg *ExternalContainerConfig) CreateContainerFunc {
	return func(context.Context) (Container, error) {
		connectionString := externalContainerConnectionString(cfg)
		driverName := externalContainerDriverName(cfg)

		return externalContainer{
				connectionString: connectionString,
				driverName:       driverName,
			},
			nil
	}
}

type externalContainer struct {
	connectionString string
	driverName       string
}

// Terminate is a no-op, the server's lifetime is not ours to manage.
func (externalContainer) Terminate(_ context.Context) error {
	return nil
}

func (e externalContainer) Connect(_ context.Context, args ...string) (*sql.DB, error) {
	dataSourceName := appendArgs(e.connectionString, args...)

	db, err := sql.Open(e.driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open connection to database, %w", err)
	}

	return db, nil
}

// appendArgs joins extra query args onto a connection string that may or may
// not already carry its own query parameters.
func appendArgs(connectionString string, args ...string) string {
	extraArgs := strings.Join(args, "&")

	if extraArgs == "" {
		return connectionString
	}

	separator := "?"
	if strings.Contains(connectionString, "?") {
		separator = "&"
	}

	return connectionString + separator + extraArgs
}
