// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

/*
Package attachment implements two-phase uploads to S3-compatible storage.

Clients never stream bytes through the API. An upload is granted as a
presigned PUT URL, the client uploads directly to the bucket, and only a
successful completion call turns the blob into durable, listable metadata.

# Upload Lifecycle

 1. Begin    : Policy checks (type allow-list, size cap, owner quota), a
    pending handle is parked in Redis with a TTL, and a presigned PUT URL
    is returned.
 2. Client   : Uploads bytes straight to the bucket.
 3. Complete : The handle is consumed atomically, the blob is verified
    against the declared size and the client's attested checksum, and
    the metadata row is written last.

A blob with no metadata row is invisible garbage awaiting lifecycle
cleanup; a metadata row always describes a verified blob. The converse
ordering holds for deletion, which removes the blob before the row.

# Components

  - [StoredObject]  : Durable metadata for a completed upload.
  - [UploadHandle]  : Pending upload state, lives only in Redis.
  - [MetadataStore] : Postgres persistence for completed objects.
  - [HandleStore]   : Redis persistence for pending handles.
  - [BlobStore]     : The S3 gateway (presign, stat, remove).
  - [Service]       : Orchestration and policy.
  - [Handler]       : HTTP delivery layer.
*/
package attachment

import "time"

// # Domain Types

// StoredObject is the durable metadata record of a completed upload.
//
// Size and ETag reflect what the bucket reported at completion time.
// Checksum is the client-attested content digest, verified against the
// bucket's digest where the backend exposes one.
type StoredObject struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Key         string    `json:"-"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum,omitempty"`
	ETag        string    `json:"etag,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadHandle is the pending state of a begun upload. It exists only in
// Redis, under a TTL, and is consumed exactly once at completion.
type UploadHandle struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Key          string    `json:"key"`
	ContentType  string    `json:"content_type"`
	DeclaredSize int64     `json:"declared_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// UploadGrant is returned from Begin: everything the client needs to PUT
// the bytes and later complete the upload.
type UploadGrant struct {
	UploadID  string    `json:"upload_id"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// # Field Identifiers

const (
	FieldContentType = "content_type"
	FieldSize        = "size"
	FieldChecksum    = "checksum"
	FieldUploadID    = "upload_id"
)
