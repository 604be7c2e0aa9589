// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/authz"
	"github.com/corvidlabs/corvid/internal/platform/sec"
	"github.com/corvidlabs/corvid/pkg/pagination"
	"github.com/corvidlabs/corvid/pkg/uuid"
)

// # Policy & Construction

// Policy holds the upload limits enforced at the API boundary.
//
// The presigned URL itself cannot enforce size or type, so Begin checks
// the declaration and Complete verifies what actually landed.
type Policy struct {
	AllowedContentTypes []string
	MaxObjectBytes      int64
	OwnerQuotaBytes     int64
	HandleTTL           time.Duration
	DownloadURLExpiry   time.Duration
}

// Service orchestrates the two-phase upload lifecycle.
type Service struct {
	metadata MetadataStore
	handles  HandleStore
	blobs    BlobStore
	policy   Policy
	log      *slog.Logger
}

// NewService constructs a new attachment [Service] with its dependencies.
func NewService(metadata MetadataStore, handles HandleStore, blobs BlobStore, policy Policy, log *slog.Logger) *Service {
	return &Service{
		metadata: metadata,
		handles:  handles,
		blobs:    blobs,
		policy:   policy,
		log:      log,
	}
}

// # Upload Lifecycle

/*
Begin grants a presigned upload after enforcing the admission policy.

Description: Three gates run in order, cheapest first: content-type
allow-list, per-object size cap, then the owner quota (current verified
usage plus the declared size). Only then is a handle parked in Redis and
a PUT URL signed. Nothing durable is written; an abandoned grant costs
one expiring Redis key.

Parameters:
  - ctx: context.Context
  - claims: *sec.AuthClaims (the uploading owner)
  - contentType: string
  - size: int64 (declared byte size, verified again at completion)

Returns:
  - *UploadGrant: Upload ID, presigned URL, and grant expiry
  - error: apperr.ValidationError, apperr.QuotaExceeded, apperr.Forbidden, or storage errors
*/
func (service *Service) Begin(ctx context.Context, claims *sec.AuthClaims, contentType string, size int64) (*UploadGrant, error) {
	if err := authz.Authorize(claims.Role, authz.ActionWrite, true); err != nil {
		return nil, err
	}

	if !service.typeAllowed(contentType) {
		return nil, apperr.ValidationError("Content type is not allowed")
	}
	if size <= 0 {
		return nil, apperr.ValidationError("Size must be positive")
	}
	if size > service.policy.MaxObjectBytes {
		return nil, apperr.ValidationError("Size exceeds the per-object limit")
	}

	used, err := service.metadata.TotalSizeByOwner(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if used+size > service.policy.OwnerQuotaBytes {
		return nil, apperr.QuotaExceeded("Storage quota exceeded")
	}

	uploadID := uuid.New()
	handle := &UploadHandle{
		ID:           uploadID,
		OwnerID:      claims.UserID,
		Key:          objectKey(claims.UserID, uploadID),
		ContentType:  contentType,
		DeclaredSize: size,
		CreatedAt:    time.Now(),
	}

	signedURL, err := service.blobs.PresignPut(ctx, handle.Key, service.policy.HandleTTL)
	if err != nil {
		return nil, err
	}

	if err := service.handles.Put(ctx, handle, service.policy.HandleTTL); err != nil {
		return nil, err
	}

	service.log.InfoContext(ctx, "upload_granted",
		slog.String("upload_id", uploadID),
		slog.String("owner_id", claims.UserID),
		slog.Int64("declared_size", size),
	)

	return &UploadGrant{
		UploadID:  uploadID,
		URL:       signedURL,
		Method:    http.MethodPut,
		ExpiresAt: handle.CreatedAt.Add(service.policy.HandleTTL),
	}, nil
}

/*
Complete turns an uploaded blob into durable metadata.

Description: The handle is consumed atomically first, which makes
completion single-shot even under races. The caller re-attests what it
actually sent: the attested size must agree with both the Begin-time
declaration and the blob the bucket reports, and the attested checksum
must agree with the bucket's content digest where the backend exposes
one. Any disagreement rejects the upload and removes the blob
best-effort. The metadata row is written strictly last, so a crash
anywhere in this sequence leaves garbage in the bucket but never a
record pointing at unverified bytes.

Parameters:
  - ctx: context.Context
  - claims: *sec.AuthClaims (must be the identity that opened the upload)
  - uploadID: string
  - checksum: string (hex digest of the uploaded bytes, as computed by the client)
  - size: int64 (byte size the client actually uploaded)

Returns:
  - *StoredObject: Durable metadata for the verified blob
  - error: apperr.NotFound for unknown/expired/consumed handles,
    apperr.Unprocessable for absent or mismatched blobs, or storage errors
*/
func (service *Service) Complete(ctx context.Context, claims *sec.AuthClaims, uploadID, checksum string, size int64) (*StoredObject, error) {
	handle, err := service.handles.Take(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	// A handle belongs to the identity that opened it. Leak nothing
	// beyond not-found to anyone else.
	if handle.OwnerID != claims.UserID {
		service.log.WarnContext(ctx, "upload_owner_mismatch",
			slog.String("upload_id", uploadID),
			slog.String("caller_id", claims.UserID),
		)
		return nil, apperr.NotFound("Upload is unknown, expired, or already completed")
	}

	if size != handle.DeclaredSize {
		return nil, service.rejectUpload(ctx, handle,
			fmt.Sprintf("Attested size %d does not match declared size %d", size, handle.DeclaredSize))
	}

	storedSize, etag, err := service.blobs.Stat(ctx, handle.Key)
	if err != nil {
		if appErr := apperr.As(err); appErr != nil && appErr.Code == "NOT_FOUND" {
			return nil, apperr.Unprocessable("No uploaded data found for this upload")
		}
		return nil, err
	}

	if storedSize != handle.DeclaredSize {
		return nil, service.rejectUpload(ctx, handle,
			fmt.Sprintf("Uploaded size %d does not match declared size %d", storedSize, handle.DeclaredSize))
	}

	if !checksumMatches(checksum, etag) {
		return nil, service.rejectUpload(ctx, handle, "Attested checksum does not match the uploaded data")
	}

	object := &StoredObject{
		ID:          handle.ID,
		OwnerID:     handle.OwnerID,
		Key:         handle.Key,
		ContentType: handle.ContentType,
		Size:        storedSize,
		Checksum:    strings.ToLower(checksum),
		ETag:        etag,
	}

	if err := service.metadata.Create(ctx, object); err != nil {
		return nil, err
	}

	service.log.InfoContext(ctx, "upload_completed",
		slog.String("object_id", object.ID),
		slog.String("owner_id", object.OwnerID),
		slog.Int64("size", object.Size),
	)
	return object, nil
}

// # Access & Removal

/*
DownloadURL returns a short-lived presigned GET URL for a stored object,
subject to the read grant against the object's ownership.

Returns:
  - string: Presigned URL
  - time.Time: URL expiry
  - error: apperr.NotFound, apperr.Forbidden, or storage errors
*/
func (service *Service) DownloadURL(ctx context.Context, claims *sec.AuthClaims, objectID string) (string, time.Time, error) {
	object, err := service.metadata.FindByID(ctx, objectID)
	if err != nil {
		return "", time.Time{}, err
	}

	owned := object.OwnerID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionRead, owned); err != nil {
		return "", time.Time{}, err
	}

	signedURL, err := service.blobs.PresignGet(ctx, object.Key, service.policy.DownloadURLExpiry)
	if err != nil {
		return "", time.Time{}, err
	}

	return signedURL, time.Now().Add(service.policy.DownloadURLExpiry), nil
}

// ResolveURL adapts [DownloadURL] for consumers that need only the URL,
// such as photo rendering on customer records.
func (service *Service) ResolveURL(ctx context.Context, claims *sec.AuthClaims, objectID string) (string, error) {
	signedURL, _, err := service.DownloadURL(ctx, claims, objectID)
	return signedURL, err
}

/*
Delete removes a stored object, blob first.

Description: The blob removal runs before the metadata delete, preserving
the invariant that a metadata row always describes a present blob. A
transient storage failure aborts with the row intact, so the object stays
visible and the delete can be retried. A second delete of the same object
reports not-found.
*/
func (service *Service) Delete(ctx context.Context, claims *sec.AuthClaims, objectID string) error {
	object, err := service.metadata.FindByID(ctx, objectID)
	if err != nil {
		return err
	}

	owned := object.OwnerID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionWrite, owned); err != nil {
		return err
	}

	if err := service.blobs.Remove(ctx, object.Key); err != nil {
		return err
	}

	if err := service.metadata.Delete(ctx, objectID); err != nil {
		return err
	}

	service.log.InfoContext(ctx, "object_deleted",
		slog.String("object_id", objectID),
		slog.String("actor_id", claims.UserID),
	)
	return nil
}

/*
List returns a page of an owner's stored objects.

Callers list their own objects by default; listing another owner requires
the "read any" grant.
*/
func (service *Service) List(ctx context.Context, claims *sec.AuthClaims, ownerID string, params pagination.Params) ([]StoredObject, int, error) {
	if ownerID == "" {
		ownerID = claims.UserID
	}

	owned := ownerID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionRead, owned); err != nil {
		return nil, 0, err
	}

	return service.metadata.ListByOwner(ctx, ownerID, params)
}

// # Helpers

// rejectUpload discards the blob of a failed completion and reports the
// reason. The declaration was the basis of admission; a disagreeing blob
// is rejected and cleaned up. Removal failure leaves garbage for
// lifecycle cleanup, never a metadata row.
func (service *Service) rejectUpload(ctx context.Context, handle *UploadHandle, reason string) error {
	if removeErr := service.blobs.Remove(ctx, handle.Key); removeErr != nil {
		service.log.WarnContext(ctx, "mismatched_blob_cleanup_failed",
			slog.String("upload_id", handle.ID),
			slog.Any("cause", removeErr),
		)
	}
	return apperr.Unprocessable(reason)
}

// checksumMatches compares the client's attested digest against the
// bucket's ETag. A single presigned PUT yields an ETag that is the hex
// MD5 of the object, usually quoted; multipart or encrypted backends
// return opaque tags, in which case the server cannot cross-check and
// accepts the attestation as recorded.
func checksumMatches(checksum, etag string) bool {
	digest := strings.ToLower(strings.Trim(etag, `"`))
	if !md5Shaped(digest) {
		return true
	}
	return strings.ToLower(checksum) == digest
}

func md5Shaped(digest string) bool {
	if len(digest) != 32 {
		return false
	}
	for _, char := range digest {
		switch {
		case char >= '0' && char <= '9':
		case char >= 'a' && char <= 'f':
		default:
			return false
		}
	}
	return true
}

func (service *Service) typeAllowed(contentType string) bool {
	for _, allowed := range service.policy.AllowedContentTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// objectKey lays blobs out as attachments/<owner>/<id>, so owner-level
// lifecycle rules and audits can work on prefixes.
func objectKey(ownerID, objectID string) string {
	return fmt.Sprintf("attachments/%s/%s", ownerID, objectID)
}
