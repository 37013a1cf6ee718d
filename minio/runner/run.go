package miniorunner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/amidman/dbsmoke"
	miniosmoke "github.com/amidman/dbsmoke/minio"
	minioclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	miniocnt "github.com/testcontainers/testcontainers-go/modules/minio"
)

func RunForTesting(
	t *testing.T,
	buckets ...miniosmoke.Bucket,
) *minioclient.Client {
	return RunForTestingConfig(t, nil, buckets...)
}

func RunForTestingConfig(
	t *testing.T,
	cfg *Config,
	buckets ...miniosmoke.Bucket,
) *minioclient.Client {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	minioClient, term, err := RunConfig(ctx, cfg, buckets...)
	t.Cleanup(term)

	if err != nil {
		t.Fatal(err)
	}

	return minioClient
}

func Run(
	ctx context.Context,
	buckets ...miniosmoke.Bucket,
) (minioClient *minioclient.Client, term func(), err error) {
	return RunConfig(ctx, nil, buckets...)
}

func RunConfig(
	ctx context.Context,
	cfg *Config,
	buckets ...miniosmoke.Bucket,
) (minioClient *minioclient.Client, term func(), err error) {
	return miniosmoke.Run(ctx, RunContainer(cfg), buckets...)
}

type Config struct {
	MinioImage string
	Username   string
	Password   string
}

func containerMinioImage(cfg *Config) string {
	const defaultMinioImage = "minio/minio:RELEASE.2024-01-16T16-07-38Z"

	if cfg != nil && cfg.MinioImage != "" {
		return cfg.MinioImage
	}

	envContainerImage := os.Getenv("DBSMOKE_MINIO_IMAGE")
	if envContainerImage != "" {
		return envContainerImage
	}

	return defaultMinioImage
}

func containerUsername(cfg *Config) string {
	const defaultUsername = "minioadmin"

	if cfg != nil && cfg.Username != "" {
		return cfg.Username
	}

	return defaultUsername
}

func containerPassword(cfg *Config) string {
	const defaultPassword = "minioadmin"

	if cfg != nil && cfg.Password != "" {
		return cfg.Password
	}

	return defaultPassword
}

func RunContainer(cfg *Config) miniosmoke.CreateContainerFunc {
	return func(ctx context.Context) (miniosmoke.Container, error) {
		minioImage := containerMinioImage(cfg)
		username := containerUsername(cfg)
		password := containerPassword(cfg)

		cnt, err := miniocnt.Run(ctx,
			minioImage,
			miniocnt.WithUsername(username),
			miniocnt.WithPassword(password),
		)
		if err != nil {
			return nil, errors.Join(miniosmoke.ErrStartContainer, err)
		}

		return container{
			cnt:      cnt,
			username: username,
			password: password,
		}, nil
	}
}

type container struct {
	cnt      *miniocnt.MinioContainer
	username string
	password string
}

func (c container) Connect(ctx context.Context) (*minioclient.Client, error) {
	endpoint, err := c.cnt.ConnectionString(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection string, %w", err)
	}

	minioClient, err := minioclient.New(endpoint,
		&minioclient.Options{
			Creds:           credentials.NewStaticV4(c.username, c.password, ""),
			TrailingHeaders: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create minio client, %w", err)
	}

	return minioClient, nil
}

func (c container) Terminate(ctx context.Context) error {
	return c.cnt.Terminate(ctx)
}
