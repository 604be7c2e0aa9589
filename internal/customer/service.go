// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package customer

import (
	"context"
	"log/slog"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/authz"
	"github.com/corvidlabs/corvid/internal/platform/sec"
	"github.com/corvidlabs/corvid/pkg/pagination"
	"github.com/corvidlabs/corvid/pkg/uuid"
)

// # Contracts & Types

// PhotoResolver resolves an attachment object into a short-lived download
// URL, and confirms the object exists before it is referenced.
type PhotoResolver interface {
	// ResolveURL returns a presigned download URL for the object, or an
	// error if the object does not exist or belongs to another owner.
	ResolveURL(ctx context.Context, requester *sec.AuthClaims, objectID string) (string, error)
}

// Service implements customer use cases with per-record authorization.
//
// Ownership is resolved against the record's CreatorID: an actor operating
// on a record they created needs only the "own" grant, anything else needs
// the "any" grant. The acting identity is taken from the verified claims.
type Service struct {
	customers Store
	photos    PhotoResolver
	log       *slog.Logger
}

// NewService constructs a new customer [Service] with its dependencies.
func NewService(customers Store, photos PhotoResolver, log *slog.Logger) *Service {
	return &Service{
		customers: customers,
		photos:    photos,
		log:       log,
	}
}

// CreateInput holds the data required to create a customer record.
type CreateInput struct {
	Name    string
	Surname string
	Email   string
	Phone   string
}

// UpdateInput holds the mutable customer fields for a full update.
type UpdateInput struct {
	Name    string
	Surname string
	Email   string
	Phone   string
}

// # Use Cases

/*
Create persists a new customer record owned by the caller.

Description: Creation is a write against a record the caller will own, so
the "write own" grant suffices. Viewers hold no write grant and are
rejected before any storage work.

Returns:
  - *Customer: Created record with ownership attribution
  - error: apperr.Forbidden or storage errors
*/
func (service *Service) Create(ctx context.Context, claims *sec.AuthClaims, input CreateInput) (*Customer, error) {
	if err := authz.Authorize(claims.Role, authz.ActionWrite, true); err != nil {
		return nil, err
	}

	customer := &Customer{
		ID:         uuid.New(),
		Name:       input.Name,
		Surname:    input.Surname,
		Email:      input.Email,
		Phone:      input.Phone,
		CreatorID:  claims.UserID,
		ModifierID: claims.UserID,
	}

	if err := service.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	service.log.InfoContext(ctx, "customer_created",
		slog.String("customer_id", customer.ID),
		slog.String("creator_id", claims.UserID),
	)
	return customer, nil
}

/*
Get retrieves a single customer, enforcing the read grant against the
record's ownership. A stored photo reference is resolved into a presigned
URL; resolution failure degrades to a record without a URL rather than
failing the read.
*/
func (service *Service) Get(ctx context.Context, claims *sec.AuthClaims, id string) (*Customer, error) {
	customer, err := service.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owned := customer.CreatorID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionRead, owned); err != nil {
		return nil, err
	}

	service.attachPhotoURL(ctx, claims, customer)
	return customer, nil
}

/*
List returns a page of customers visible to the caller.

The entry gate is whether the role may read at all; callers holding the
"read any" grant then see every record, callers limited to "read own" see
only records they created. Photo URLs are not resolved on list pages to
keep them cheap.
*/
func (service *Service) List(ctx context.Context, claims *sec.AuthClaims, params pagination.Params) ([]Customer, int, error) {
	if !authz.CanAny(claims.Role, authz.ActionRead) {
		return nil, 0, apperr.Forbidden("Insufficient permissions")
	}

	creatorFilter := claims.UserID
	if authz.Authorize(claims.Role, authz.ActionRead, false) == nil {
		creatorFilter = ""
	}

	return service.customers.List(ctx, params, creatorFilter)
}

/*
Update replaces the mutable fields of a customer record.

The write grant is resolved against the record's current owner, so a
staff caller can update only records they created while an admin can
update anything. The modifier stamp always records the actual caller.
*/
func (service *Service) Update(ctx context.Context, claims *sec.AuthClaims, id string, input UpdateInput) (*Customer, error) {
	customer, err := service.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owned := customer.CreatorID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionWrite, owned); err != nil {
		return nil, err
	}

	customer.Name = input.Name
	customer.Surname = input.Surname
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.ModifierID = claims.UserID

	if err := service.customers.Update(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

/*
SetPhoto attaches an uploaded object as the customer's photo, or clears
the reference when objectID is nil.

The object must already exist as completed attachment metadata; dangling
references are rejected here rather than discovered at render time.
*/
func (service *Service) SetPhoto(ctx context.Context, claims *sec.AuthClaims, id string, objectID *string) error {
	customer, err := service.customers.FindByID(ctx, id)
	if err != nil {
		return err
	}

	owned := customer.CreatorID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionWrite, owned); err != nil {
		return err
	}

	if objectID != nil {
		if _, err := service.photos.ResolveURL(ctx, claims, *objectID); err != nil {
			return apperr.ValidationError("Photo object does not exist")
		}
	}

	return service.customers.SetPhoto(ctx, id, objectID, claims.UserID)
}

/*
Delete removes a customer record, subject to the write grant against the
record's ownership.
*/
func (service *Service) Delete(ctx context.Context, claims *sec.AuthClaims, id string) error {
	customer, err := service.customers.FindByID(ctx, id)
	if err != nil {
		return err
	}

	owned := customer.CreatorID == claims.UserID
	if err := authz.Authorize(claims.Role, authz.ActionWrite, owned); err != nil {
		return err
	}

	if err := service.customers.Delete(ctx, id); err != nil {
		return err
	}

	service.log.InfoContext(ctx, "customer_deleted",
		slog.String("customer_id", id),
		slog.String("actor_id", claims.UserID),
	)
	return nil
}

// attachPhotoURL fills Customer.PhotoURL from the stored object reference.
// Best effort: a failed resolution is logged and the record is returned
// without a URL.
func (service *Service) attachPhotoURL(ctx context.Context, claims *sec.AuthClaims, customer *Customer) {
	if customer.PhotoObjectID == nil {
		return
	}

	url, err := service.photos.ResolveURL(ctx, claims, *customer.PhotoObjectID)
	if err != nil {
		service.log.WarnContext(ctx, "photo_url_resolution_failed",
			slog.String("customer_id", customer.ID),
			slog.Any("cause", err),
		)
		return
	}
	customer.PhotoURL = url
}
