// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package customer_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/corvid/internal/customer"
	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/sec"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Fakes

type fakeStore struct {
	byID map[string]*customer.Customer
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*customer.Customer{}}
}

func (s *fakeStore) Create(_ context.Context, c *customer.Customer) error {
	copied := *c
	s.byID[c.ID] = &copied
	return nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, apperr.NotFound("Customer")
	}
	copied := *c
	return &copied, nil
}

func (s *fakeStore) List(_ context.Context, _ pagination.Params, creatorID string) ([]customer.Customer, int, error) {
	var result []customer.Customer
	for _, c := range s.byID {
		if creatorID == "" || c.CreatorID == creatorID {
			result = append(result, *c)
		}
	}
	return result, len(result), nil
}

func (s *fakeStore) Update(_ context.Context, c *customer.Customer) error {
	stored, ok := s.byID[c.ID]
	if !ok {
		return apperr.NotFound("Customer")
	}
	c.CreatorID = stored.CreatorID
	copied := *c
	s.byID[c.ID] = &copied
	return nil
}

func (s *fakeStore) SetPhoto(_ context.Context, id string, objectID *string, modifierID string) error {
	stored, ok := s.byID[id]
	if !ok {
		return apperr.NotFound("Customer")
	}
	stored.PhotoObjectID = objectID
	stored.ModifierID = modifierID
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return apperr.NotFound("Customer")
	}
	delete(s.byID, id)
	return nil
}

type fakePhotoResolver struct {
	known map[string]string
}

func (r *fakePhotoResolver) ResolveURL(_ context.Context, _ *sec.AuthClaims, objectID string) (string, error) {
	url, ok := r.known[objectID]
	if !ok {
		return "", apperr.NotFound("Object")
	}
	return url, nil
}

// # Harness

func newService() (*customer.Service, *fakeStore, *fakePhotoResolver) {
	store := newFakeStore()
	photos := &fakePhotoResolver{known: map[string]string{}}
	return customer.NewService(store, photos, slog.Default()), store, photos
}

func claims(userID string, role sec.Role) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: userID, Role: role}
}

// # Create & Ownership

/*
TestCreate_OwnershipAttribution verifies that a created record carries the
caller as both creator and modifier.
*/
func TestCreate_OwnershipAttribution(t *testing.T) {
	service, _, _ := newService()
	staff := claims("staff-1", sec.RoleStaff)

	record, err := service.Create(context.Background(), staff, customer.CreateInput{
		Name:    "Ada",
		Surname: "Nyx",
	})
	require.NoError(t, err)

	assert.Equal(t, "staff-1", record.CreatorID)
	assert.Equal(t, "staff-1", record.ModifierID)
	assert.NotEmpty(t, record.ID)
}

/*
TestCreate_DeniedForViewers verifies that a role with no write grant
cannot create records.
*/
func TestCreate_DeniedForViewers(t *testing.T) {
	service, _, _ := newService()

	_, err := service.Create(context.Background(), claims("viewer-1", sec.RoleViewer), customer.CreateInput{
		Name:    "Ada",
		Surname: "Nyx",
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

// # Read Scoping

/*
TestGet_ReadScopes verifies per-record read authorization: staff read
anything, viewers only their own records.
*/
func TestGet_ReadScopes(t *testing.T) {
	service, _, _ := newService()
	staff := claims("staff-1", sec.RoleStaff)

	record, err := service.Create(context.Background(), staff, customer.CreateInput{Name: "Ada", Surname: "Nyx"})
	require.NoError(t, err)

	// Another staff member holds read:any.
	_, err = service.Get(context.Background(), claims("staff-2", sec.RoleStaff), record.ID)
	assert.NoError(t, err)

	// A viewer does not own this record.
	_, err = service.Get(context.Background(), claims("viewer-1", sec.RoleViewer), record.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

/*
TestList_ScopeFiltering verifies that read-any roles list everything,
viewers see only their own records, and a role with no read grant at any
ownership level is rejected outright.
*/
func TestList_ScopeFiltering(t *testing.T) {
	service, store, _ := newService()
	staff := claims("staff-1", sec.RoleStaff)

	_, err := service.Create(context.Background(), staff, customer.CreateInput{Name: "Ada", Surname: "Nyx"})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), staff, customer.CreateInput{Name: "Ben", Surname: "Ash"})
	require.NoError(t, err)

	// One record created by the viewer, seeded directly.
	store.byID["viewer-owned"] = &customer.Customer{ID: "viewer-owned", Name: "Cy", Surname: "Fen", CreatorID: "viewer-1"}

	params := pagination.Params{Page: 1, Limit: 10}

	_, total, err := service.List(context.Background(), staff, params)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	records, total, err := service.List(context.Background(), claims("viewer-1", sec.RoleViewer), params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, "viewer-owned", records[0].ID)

	// A role outside the grant matrix never reaches the store.
	_, _, err = service.List(context.Background(), claims("ghost-1", sec.Role("ghost")), params)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

// # Write Scoping

/*
TestUpdate_WriteScopes verifies that staff update only records they
created while admins update anything, and that the modifier stamp records
the actual caller.
*/
func TestUpdate_WriteScopes(t *testing.T) {
	service, _, _ := newService()
	staff := claims("staff-1", sec.RoleStaff)

	record, err := service.Create(context.Background(), staff, customer.CreateInput{Name: "Ada", Surname: "Nyx"})
	require.NoError(t, err)

	input := customer.UpdateInput{Name: "Ada", Surname: "Vale"}

	// Creator updates own record.
	updated, err := service.Update(context.Background(), staff, record.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Vale", updated.Surname)

	// Another staff member lacks write:any.
	_, err = service.Update(context.Background(), claims("staff-2", sec.RoleStaff), record.ID, input)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	// An admin updates anything; the modifier stamp follows the caller.
	updated, err = service.Update(context.Background(), claims("admin-1", sec.RoleAdmin), record.ID, customer.UpdateInput{Name: "Ada", Surname: "Crow"})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", updated.ModifierID)
	assert.Equal(t, "staff-1", updated.CreatorID)
}

/*
TestDelete_WriteScopes verifies deletion follows the same ownership rules
as updates.
*/
func TestDelete_WriteScopes(t *testing.T) {
	service, _, _ := newService()
	staff := claims("staff-1", sec.RoleStaff)

	record, err := service.Create(context.Background(), staff, customer.CreateInput{Name: "Ada", Surname: "Nyx"})
	require.NoError(t, err)

	err = service.Delete(context.Background(), claims("staff-2", sec.RoleStaff), record.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)

	assert.NoError(t, service.Delete(context.Background(), staff, record.ID))

	err = service.Delete(context.Background(), staff, record.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

// # Photos

/*
TestSetPhoto verifies photo references: dangling objects are rejected,
valid ones are stored and resolved into URLs on read, and nil clears.
*/
func TestSetPhoto(t *testing.T) {
	service, _, photos := newService()
	staff := claims("staff-1", sec.RoleStaff)

	record, err := service.Create(context.Background(), staff, customer.CreateInput{Name: "Ada", Surname: "Nyx"})
	require.NoError(t, err)

	// Unknown object is rejected before anything is stored.
	dangling := "0190a6e2-5f1e-7cc3-9a44-2b664bfc7a10"
	err = service.SetPhoto(context.Background(), staff, record.ID, &dangling)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	// A known object is accepted and resolves to a URL on read.
	objectID := "0190a6e2-0000-7cc3-9a44-2b664bfc7a10"
	photos.known[objectID] = "https://bucket.test/get/" + objectID

	require.NoError(t, service.SetPhoto(context.Background(), staff, record.ID, &objectID))

	fetched, err := service.Get(context.Background(), staff, record.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.PhotoObjectID)
	assert.Equal(t, objectID, *fetched.PhotoObjectID)
	assert.Equal(t, "https://bucket.test/get/"+objectID, fetched.PhotoURL)

	// Clearing the reference.
	require.NoError(t, service.SetPhoto(context.Background(), staff, record.ID, nil))
	fetched, err = service.Get(context.Background(), staff, record.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.PhotoObjectID)
	assert.Empty(t, fetched.PhotoURL)
}
