package postgressmoke

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ProbeQuery is the literal sent to a fresh database to verify it answers.
const ProbeQuery = "SELECT 1;"

const expectedProbeResult = 1

var (
	// ErrStartContainer reports an image pull, start or readiness failure.
	ErrStartContainer = errors.New("start container")

	// ErrConnect reports a driver-level failure to establish a session.
	ErrConnect = errors.New("connect to database")

	// ErrUnexpectedProbe reports a probe that answered with a wrong value.
	ErrUnexpectedProbe = errors.New("unexpected probe result")
)

// Probe sends ProbeQuery and requires the first column of the first row to
// equal 1.
func Probe(ctx context.Context, db *sql.DB) error {
	var result int

	err := db.QueryRowContext(ctx, ProbeQuery).Scan(&result)
	if err != nil {
		return fmt.Errorf("exec probe %s, %w", ProbeQuery, err)
	}

	if result != expectedProbeResult {
		return fmt.Errorf("%w, expected %d, actual %d",
			ErrUnexpectedProbe, expectedProbeResult, result,
		)
	}

	return nil
}
