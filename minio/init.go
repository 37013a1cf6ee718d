package miniosmoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
)

var (
	// ErrStartContainer reports an image pull, start or readiness failure.
	ErrStartContainer = errors.New("start container")

	// ErrConnect reports a failure to establish a client session.
	ErrConnect = errors.New("connect to minio")
)

type Bucket struct {
	Name  string
	Files []File
}

type File struct {
	Name    string
	Content []byte
}

// Probe lists buckets to verify the endpoint is reachable and the
// credentials are accepted.
func Probe(ctx context.Context, minioClient *minio.Client) error {
	_, err := minioClient.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("exec probe ListBuckets, %w", err)
	}

	return nil
}

// Init connects to an already acquired container, verifies it answers the
// probe and seeds buckets with their files.
//
// term is non-nil on every return path and must be called exactly once.
func Init(
	ctx context.Context,
	cnt Container,
	buckets ...Bucket,
) (minioClient *minio.Client, term func(), err error) {
	term = func() {
		terminateErr := cnt.Terminate(ctx)
		if terminateErr != nil {
			log.Printf("failed to terminate minio container: %s", terminateErr)
		}
	}

	minioClient, err = cnt.Connect(ctx)
	if err != nil {
		return nil, term, errors.Join(ErrConnect, err)
	}

	err = Probe(ctx, minioClient)
	if err != nil {
		return nil, term, err
	}

	err = insertBuckets(ctx, minioClient, buckets...)
	if err != nil {
		return nil, term, err
	}

	return minioClient, term, nil
}

func insertBuckets(ctx context.Context, minioClient *minio.Client, buckets ...Bucket) error {
	for _, bucket := range buckets {
		err := insertSingleBucket(ctx, minioClient, bucket)
		if err != nil {
			return err
		}
	}

	return nil
}

func insertSingleBucket(ctx context.Context, minioClient *minio.Client, bucket Bucket) error {
	bucketExists, err := minioClient.BucketExists(ctx, bucket.Name)
	if err != nil {
		return fmt.Errorf("get bucket exists %s, %w", bucket.Name, err)
	}

	if !bucketExists {
		makeBucketOpts := minio.MakeBucketOptions{}

		err := minioClient.MakeBucket(ctx, bucket.Name, makeBucketOpts)
		if err != nil {
			return fmt.Errorf("create bucket %s, %w", bucket.Name, err)
		}
	}

	putObjectOpts := minio.PutObjectOptions{}

	for _, file := range bucket.Files {
		_, err = minioClient.PutObject(ctx,
			bucket.Name,
			file.Name,
			bytes.NewReader(file.Content),
			-1,
			putObjectOpts,
		)
		if err != nil {
			return fmt.Errorf("put file %s into bucket %s, %w", file.Name, bucket.Name, err)
		}
	}

	return nil
}
