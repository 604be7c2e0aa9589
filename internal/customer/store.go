// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package customer

import (
	"context"

	"github.com/corvidlabs/corvid/pkg/pagination"
)

// Store defines the persistence contract for customer records.
//
// A non-empty creatorID on List restricts the page to records created by
// that identity; an empty creatorID lists everything.
type Store interface {
	// Create persists a new customer record.
	Create(ctx context.Context, customer *Customer) error

	// FindByID retrieves a customer by its unique identifier.
	FindByID(ctx context.Context, id string) (*Customer, error)

	// List retrieves a page of customers plus the total count, optionally
	// restricted to one creator.
	List(ctx context.Context, params pagination.Params, creatorID string) ([]Customer, int, error)

	// Update replaces the mutable fields and records the modifier.
	Update(ctx context.Context, customer *Customer) error

	// SetPhoto attaches or clears (nil) the photo object reference.
	SetPhoto(ctx context.Context, id string, objectID *string, modifierID string) error

	// Delete removes a customer record permanently.
	Delete(ctx context.Context, id string) error
}
