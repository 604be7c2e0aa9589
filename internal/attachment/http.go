// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package attachment

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/corvid/internal/platform/middleware"
	requestutil "github.com/corvidlabs/corvid/internal/platform/request"
	"github.com/corvidlabs/corvid/internal/platform/respond"
	"github.com/corvidlabs/corvid/internal/platform/validate"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements attachment HTTP endpoints.
type Handler struct {
	attachmentService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{attachmentService: service}
}

// Routes returns a [chi.Router] configured with attachment routes.
//
// # Endpoints
//   - POST   /uploads               : Grants a presigned upload.
//   - POST   /uploads/{id}/complete : Verifies and records the upload.
//   - GET    /                      : Lists the caller's objects.
//   - GET    /{id}/url              : Returns a presigned download URL.
//   - DELETE /{id}                  : Removes the blob and its metadata.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/uploads", handler.begin)
	router.Post("/uploads/{id}/complete", handler.complete)
	router.Get("/", handler.list)
	router.Get("/{id}/url", handler.downloadURL)
	router.Delete("/{id}", handler.remove)

	return router
}

// # Request Payloads

type beginRequest struct {
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type completeRequest struct {
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

type downloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

/*
Begin grants a presigned upload after policy checks.

POST /api/v1/attachments/uploads

Response:
  - 201: UploadGrant: Upload ID, presigned PUT URL, and expiry
  - 400: ErrInvalidJSON: Disallowed type or invalid size
  - 403: ErrQuotaExceeded: Owner storage quota would be exceeded
*/
func (handler *Handler) begin(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input beginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldContentType, input.ContentType).
		PositiveInt64(FieldSize, input.Size)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.attachmentService.Begin(request.Context(), claims, input.ContentType, input.Size)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, grant)
}

/*
Complete verifies the uploaded blob and records its metadata. The caller
attests the size and checksum of the bytes it uploaded; the attestation is
cross-checked against the blob the bucket reports.

POST /api/v1/attachments/uploads/{id}/complete

Response:
  - 201: StoredObject: Durable metadata for the verified blob
  - 400: ErrInvalidJSON: Missing checksum or invalid size
  - 404: ErrNotFound: Unknown, expired, or already completed upload
  - 422: ErrUnprocessable: Blob absent, or size/checksum disagreement
*/
func (handler *Handler) complete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")

	var input completeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.UUID(FieldUploadID, id).
		PositiveInt64(FieldSize, input.SizeBytes).
		Required(FieldChecksum, input.Checksum)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	object, err := handler.attachmentService.Complete(request.Context(), claims, id, input.Checksum, input.SizeBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, object)
}

/*
List returns a page of stored objects.

GET /api/v1/attachments?page=N&limit=M&owner_id=...

The owner_id filter defaults to the caller; listing another owner requires
the "read any" grant.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	ownerID := request.URL.Query().Get("owner_id")

	objects, total, err := handler.attachmentService.List(request.Context(), claims, ownerID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, objects, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
DownloadURL returns a short-lived presigned GET URL for a stored object.

GET /api/v1/attachments/{id}/url

Response:
  - 200: downloadURLResponse: Presigned URL and its expiry
  - 403: ErrForbidden: Object owned by someone else and no "any" grant
  - 404: ErrNotFound: Unknown object
*/
func (handler *Handler) downloadURL(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")
	validator := &validate.Validator{}
	if validator.UUID("id", id); validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	signedURL, expiresAt, err := handler.attachmentService.DownloadURL(request.Context(), claims, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, downloadURLResponse{URL: signedURL, ExpiresAt: expiresAt})
}

/*
Remove deletes a stored object: blob first, metadata second.

DELETE /api/v1/attachments/{id}

Response:
  - 204: Object removed
  - 404: ErrNotFound: Unknown object, including a repeated delete
  - 503: ErrStorageTransient: Backend unavailable; metadata kept, retry later
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")
	validator := &validate.Validator{}
	if validator.UUID("id", id); validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}

	if err := handler.attachmentService.Delete(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
