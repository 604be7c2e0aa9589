// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package attachment

import (
	"context"
	"time"

	"github.com/corvidlabs/corvid/pkg/pagination"
)

// MetadataStore defines the persistence contract for completed objects.
type MetadataStore interface {
	// Create persists the metadata row for a verified blob. This is the
	// final step of completion; it must never run before verification.
	Create(ctx context.Context, object *StoredObject) error

	// FindByID retrieves a stored object's metadata.
	FindByID(ctx context.Context, id string) (*StoredObject, error)

	// ListByOwner retrieves a page of an owner's objects plus the total.
	ListByOwner(ctx context.Context, ownerID string, params pagination.Params) ([]StoredObject, int, error)

	// TotalSizeByOwner reports the summed size of an owner's objects,
	// used for quota accounting.
	TotalSizeByOwner(ctx context.Context, ownerID string) (int64, error)

	// Delete removes the metadata row. The blob must already be gone.
	Delete(ctx context.Context, id string) error
}

// HandleStore defines the persistence contract for pending upload handles.
//
// Handles are single-use: Take must atomically fetch and remove, so two
// racing completions cannot both observe the same handle.
type HandleStore interface {
	// Put parks a pending handle under the given TTL.
	Put(ctx context.Context, handle *UploadHandle, ttl time.Duration) error

	// Take consumes the handle atomically. An expired, unknown, or
	// already consumed handle yields apperr.NotFound.
	Take(ctx context.Context, id string) (*UploadHandle, error)
}

// BlobStore defines the S3 gateway contract. No blob bytes ever pass
// through this process; the API deals only in presigned URLs and metadata.
type BlobStore interface {
	// PresignPut returns a short-lived URL granting one PUT of the key.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)

	// PresignGet returns a short-lived URL granting reads of the key.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Stat reports the size and ETag the bucket holds for the key.
	Stat(ctx context.Context, key string) (size int64, etag string, err error)

	// Remove deletes the blob. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
