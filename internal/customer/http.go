// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package customer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/corvid/internal/platform/middleware"
	requestutil "github.com/corvidlabs/corvid/internal/platform/request"
	"github.com/corvidlabs/corvid/internal/platform/respond"
	"github.com/corvidlabs/corvid/internal/platform/validate"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements customer HTTP endpoints.
//
// Every endpoint requires authentication; per-record authorization against
// ownership is resolved inside [Service], not here.
type Handler struct {
	customerService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{customerService: service}
}

// Routes returns a [chi.Router] configured with customer routes.
//
// # Endpoints
//   - POST   /            : Creates a customer owned by the caller.
//   - GET    /            : Lists customers visible to the caller.
//   - GET    /{id}        : Fetches one customer (photo URL resolved).
//   - PUT    /{id}        : Updates a customer's fields.
//   - PUT    /{id}/photo  : Attaches or clears the customer photo.
//   - DELETE /{id}        : Removes a customer.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/", handler.create)
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Put("/{id}/photo", handler.setPhoto)
	router.Delete("/{id}", handler.remove)

	return router
}

// # Request Payloads

type customerRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type setPhotoRequest struct {
	PhotoObjectID *string `json:"photo_object_id"`
}

func (handler *Handler) validatePayload(input customerRequest) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 120).
		Required(FieldSurname, input.Surname).
		MaxLen(FieldSurname, input.Surname, 120).
		MaxLen(FieldPhone, input.Phone, 32)

	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}
	return validator.Err()
}

/*
Create persists a new customer record owned by the caller.

POST /api/v1/customers

Response:
  - 201: Customer: Created record
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 403: ErrForbidden: Caller holds no write grant
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input customerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}
	if err := handler.validatePayload(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	customer, err := handler.customerService.Create(request.Context(), claims, CreateInput{
		Name:    input.Name,
		Surname: input.Surname,
		Email:   input.Email,
		Phone:   input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, customer)
}

/*
List returns a page of customers visible to the caller.

GET /api/v1/customers?page=N&limit=M
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	customers, total, err := handler.customerService.List(request.Context(), claims, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, customers, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get returns a single customer with its photo URL resolved.

GET /api/v1/customers/{id}

Response:
  - 200: Customer: Record with short-lived photo_url when a photo is set
  - 403: ErrForbidden: Record owned by someone else and no "any" grant
  - 404: ErrNotFound: Unknown customer
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
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

	customer, err := handler.customerService.Get(request.Context(), claims, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, customer)
}

/*
Update replaces a customer's mutable fields.

PUT /api/v1/customers/{id}
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")

	var input customerRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if validator.UUID("id", id); validator.HasErrors() {
		respond.Error(writer, request, validator.Err())
		return
	}
	if err := handler.validatePayload(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	customer, err := handler.customerService.Update(request.Context(), claims, id, UpdateInput{
		Name:    input.Name,
		Surname: input.Surname,
		Email:   input.Email,
		Phone:   input.Phone,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, customer)
}

/*
SetPhoto attaches an uploaded object as the customer's photo. A null
photo_object_id clears the current photo reference.

PUT /api/v1/customers/{id}/photo
*/
func (handler *Handler) setPhoto(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")

	var input setPhotoRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.UUID("id", id)
	if input.PhotoObjectID != nil {
		validator.UUID(FieldPhotoID, *input.PhotoObjectID)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.customerService.SetPhoto(request.Context(), claims, id, input.PhotoObjectID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
Remove deletes a customer record.

DELETE /api/v1/customers/{id}
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

	if err := handler.customerService.Delete(request.Context(), claims, id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
