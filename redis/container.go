package redissmoke

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Container interface {
	Connect(ctx context.Context) (*redis.Client, error)
	Terminate(ctx context.Context) error
}

type CreateContainerFunc func(ctx context.Context) (Container, error)
