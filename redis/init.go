package redissmoke

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

var (
	// ErrStartContainer reports an image pull, start or readiness failure.
	ErrStartContainer = errors.New("start container")

	// ErrConnect reports a failure to establish a client session.
	ErrConnect = errors.New("connect to redis")

	// ErrUnexpectedProbe reports a probe that answered with a wrong value.
	ErrUnexpectedProbe = errors.New("unexpected probe result")
)

const expectedProbeAnswer = "PONG"

// Probe sends PING and requires the PONG answer.
func Probe(ctx context.Context, client *redis.Client) error {
	answer, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("exec probe PING, %w", err)
	}

	if answer != expectedProbeAnswer {
		return fmt.Errorf("%w, expected %s, actual %s",
			ErrUnexpectedProbe, expectedProbeAnswer, answer,
		)
	}

	return nil
}

// Init connects to an already acquired container, verifies it answers the
// probe and seeds initial values.
//
// term is non-nil on every return path and must be called exactly once.
func Init(
	ctx context.Context,
	cnt Container,
	initialValues map[string]any,
) (client *redis.Client, term func(), err error) {
	term = func() {
		terminateErr := cnt.Terminate(ctx)
		if terminateErr != nil {
			log.Printf("failed to terminate redis container: %s", terminateErr)
		}
	}

	client, err = cnt.Connect(ctx)
	if err != nil {
		return nil, term, errors.Join(ErrConnect, err)
	}

	term = func() {
		releaseErr := multierr.Append(client.Close(), cnt.Terminate(ctx))
		if releaseErr != nil {
			log.Printf("failed to release redis container: %s", releaseErr)
		}
	}

	err = Probe(ctx, client)
	if err != nil {
		return client, term, err
	}

	for key, value := range initialValues {
		setErr := client.Set(ctx, key, value, 0).Err()
		if setErr != nil {
			return client, term, fmt.Errorf("set initial value %s, %w", key, setErr)
		}
	}

	return client, term, nil
}
