package postgressmoke

import (
	"context"
	"database/sql"
)

// Container is a reachable postgres instance. Connect opens a database
// handle to it, Terminate stops the instance. A handle obtained from
// Connect must be closed before Terminate is called.
type Container interface {
	Connect(ctx context.Context, args ...string) (*sql.DB, error)
	Terminate(ctx context.Context) error
}

type CreateContainerFunc func(ctx context.Context) (Container, error)
