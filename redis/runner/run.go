package redisrunner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/amidman/dbsmoke"
	redissmoke "github.com/amidman/dbsmoke/redis"
	"github.com/redis/go-redis/v9"
	rediscnt "github.com/testcontainers/testcontainers-go/modules/redis"
)

func RunForTesting(
	t *testing.T,
	initialValues map[string]any,
) *redis.Client {
	return RunForTestingConfig(t, nil, initialValues)
}

func RunForTestingConfig(
	t *testing.T,
	cfg *Config,
	initialValues map[string]any,
) *redis.Client {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	client, term, err := RunConfig(ctx, cfg, initialValues)
	t.Cleanup(term)

	if err != nil {
		t.Fatal(err)
	}

	return client
}

func Run(
	ctx context.Context,
	initialValues map[string]any,
) (client *redis.Client, term func(), err error) {
	return RunConfig(ctx, nil, initialValues)
}

func RunConfig(
	ctx context.Context,
	cfg *Config,
	initialValues map[string]any,
) (client *redis.Client, term func(), err error) {
	return redissmoke.Run(ctx, RunContainer(cfg), initialValues)
}

type Config struct {
	RedisImage string
}

func containerRedisImage(cfg *Config) string {
	const defaultRedisImage = "redis:7-alpine"

	if cfg != nil && cfg.RedisImage != "" {
		return cfg.RedisImage
	}

	envContainerImage := os.Getenv("DBSMOKE_REDIS_IMAGE")
	if envContainerImage != "" {
		return envContainerImage
	}

	return defaultRedisImage
}

func RunContainer(cfg *Config) redissmoke.CreateContainerFunc {
	return func(ctx context.Context) (redissmoke.Container, error) {
		redisImage := containerRedisImage(cfg)

		redisContainer, err := rediscnt.Run(ctx, redisImage)
		if err != nil {
			return nil, errors.Join(redissmoke.ErrStartContainer, err)
		}

		return container{
			cnt: redisContainer,
		}, nil
	}
}

type container struct {
	cnt *rediscnt.RedisContainer
}

func (c container) Connect(ctx context.Context) (*redis.Client, error) {
	connString, err := c.cnt.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection string, %w", err)
	}

	opts, err := redis.ParseURL(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string %s, %w", connString, err)
	}

	return redis.NewClient(opts), nil
}

func (c container) Terminate(ctx context.Context) error {
	return c.cnt.Terminate(ctx)
}
