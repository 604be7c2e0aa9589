// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package attachment

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
)

// # Blob Store (S3)

// S3Config holds the connection settings for the object storage backend.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3BlobStore implements the [BlobStore] interface against any
// S3-compatible backend (MinIO, AWS, Ceph RGW).
type S3BlobStore struct {
	client *minio.Client
	bucket string
}

// NewBlobStore creates a new S3-backed BlobStore and verifies the
// connection by checking that the configured bucket exists.
func NewBlobStore(ctx context.Context, cfg S3Config) (*S3BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, classify(err)
	}
	if !exists {
		return nil, apperr.StoragePermanent("Storage bucket does not exist", nil)
	}

	return &S3BlobStore{client: client, bucket: cfg.Bucket}, nil
}

/*
PresignPut returns a short-lived URL granting a single PUT of the key.

The URL is bound to this key only; the client cannot redirect the write
elsewhere in the bucket.
*/
func (store *S3BlobStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := store.client.PresignedPutObject(ctx, store.bucket, key, expiry)
	if err != nil {
		return "", classify(err)
	}
	return signed.String(), nil
}

// PresignGet returns a short-lived URL granting reads of the key.
func (store *S3BlobStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	signed, err := store.client.PresignedGetObject(ctx, store.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", classify(err)
	}
	return signed.String(), nil
}

/*
Stat reports the size and ETag the bucket holds for the key.

Returns:
  - int64: Actual stored byte size
  - string: ETag reported by the backend
  - error: apperr.NotFound when the key is absent, classified errors otherwise
*/
func (store *S3BlobStore) Stat(ctx context.Context, key string) (int64, string, error) {
	info, err := store.client.StatObject(ctx, store.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, "", classify(err)
	}
	return info.Size, info.ETag, nil
}

// Remove deletes the blob. Removing an absent key succeeds, which keeps
// deletion retryable after a partial failure.
func (store *S3BlobStore) Remove(ctx context.Context, key string) error {
	err := store.client.RemoveObject(ctx, store.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		classified := classify(err)
		if appErr := apperr.As(classified); appErr != nil && appErr.Code == "NOT_FOUND" {
			return nil
		}
		return classified
	}
	return nil
}

/*
classify maps backend failures onto the transient/permanent split.

Description: Transient failures (timeouts, throttling, 5xx) are safe to
retry and surface as 503; permanent failures (missing key, bad
credentials, 4xx) are not. A response that never arrived at all is
treated as transient.
*/
func classify(err error) error {
	response := minio.ToErrorResponse(err)

	// No structured response means the request never completed: network
	// failure, timeout, connection refused.
	if response.Code == "" {
		return apperr.StorageTransient(err)
	}

	switch response.Code {
	case "NoSuchKey", "NoSuchBucket":
		return apperr.NotFound("Stored object")
	case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
		return apperr.StorageTransient(err)
	}

	if response.StatusCode >= http.StatusInternalServerError {
		return apperr.StorageTransient(err)
	}

	return apperr.StoragePermanent("Storage backend rejected the request", err)
}
