package miniosmoke

import (
	"context"
	"testing"

	"github.com/amidman/dbsmoke"
	"github.com/minio/minio-go/v7"
)

func RunForTesting(
	t *testing.T,
	ccf CreateContainerFunc,
	buckets ...Bucket,
) *minio.Client {
	dbsmoke.SkipDisabled(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	minioClient, term, err := Run(ctx, ccf, buckets...)
	t.Cleanup(term)

	if err != nil {
		t.Fatalf("start minio container, err: %s", err)
	}

	return minioClient
}

func Run(
	ctx context.Context,
	ccf CreateContainerFunc,
	buckets ...Bucket,
) (minioClient *minio.Client, term func(), err error) {
	cnt, err := ccf(ctx)
	if err != nil {
		return nil, func() {}, err
	}

	return Init(ctx, cnt, buckets...)
}
