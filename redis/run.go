package redissmoke

import (
	"context"
	"testing"

	"github.com/amidman/dbsmoke"
	"github.com/redis/go-redis/v9"
)

func RunForTesting(
	t *testing.T,
	ccf CreateContainerFunc,
	initialValues map[string]any,
) *redis.Client {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	client, term, err := Run(ctx, ccf, initialValues)
	t.Cleanup(term)

	if err != nil {
		t.Fatalf("start redis container, err: %s", err)
	}

	return client
}

func Run(
	ctx context.Context,
	ccf CreateContainerFunc,
	initialValues map[string]any,
) (client *redis.Client, term func(), err error) {
	cnt, err := ccf(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	return Init(ctx, cnt, initialValues)
}
