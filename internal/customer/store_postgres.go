// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package customer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvidlabs/corvid/internal/platform/dberr"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Customer Store (PostgreSQL)

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewStore creates a new PostgreSQL implementation of the customer Store.
func NewStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const customerColumns = "id, name, surname, email, phone, photoobjectid, creatorid, modifierid, createdat, updatedat"

/*
Create persists a new customer record into the crm.customer table.

Parameters:
  - ctx: context.Context
  - customer: *Customer (Entity to persist; timestamps are filled here)

Returns:
  - error: Storage errors wrapped by dberr
*/
func (store *PostgresStore) Create(ctx context.Context, customer *Customer) error {
	const query = `
		INSERT INTO crm.customer (
			id, name, surname, email, phone, photoobjectid, creatorid, modifierid, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	_, err := store.pool.Exec(ctx, query,
		customer.ID,
		customer.Name,
		customer.Surname,
		customer.Email,
		customer.Phone,
		customer.PhotoObjectID,
		customer.CreatorID,
		customer.ModifierID,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Customer")
	}

	return nil
}

// FindByID retrieves a customer record by its unique ID.
func (store *PostgresStore) FindByID(ctx context.Context, id string) (*Customer, error) {
	const query = `
		SELECT ` + customerColumns + `
		FROM crm.customer
		WHERE id = $1`

	row := store.pool.QueryRow(ctx, query, id)

	var customer Customer
	err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.Surname,
		&customer.Email,
		&customer.Phone,
		&customer.PhotoObjectID,
		&customer.CreatorID,
		&customer.ModifierID,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Customer")
	}

	return &customer, nil
}

/*
List returns a page of customers ordered by creation time, newest first,
plus the total count for pagination metadata.

A non-empty creatorID restricts both the page and the count to records
created by that identity.
*/
func (store *PostgresStore) List(ctx context.Context, params pagination.Params, creatorID string) ([]Customer, int, error) {
	const listAll = `
		SELECT ` + customerColumns + `
		FROM crm.customer
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	const listOwn = `
		SELECT ` + customerColumns + `
		FROM crm.customer
		WHERE creatorid = $3
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	const countAll = `SELECT COUNT(*) FROM crm.customer`
	const countOwn = `SELECT COUNT(*) FROM crm.customer WHERE creatorid = $1`

	var total int
	if creatorID == "" {
		if err := store.pool.QueryRow(ctx, countAll).Scan(&total); err != nil {
			return nil, 0, dberr.Wrap(err, "Customer")
		}
	} else {
		if err := store.pool.QueryRow(ctx, countOwn, creatorID).Scan(&total); err != nil {
			return nil, 0, dberr.Wrap(err, "Customer")
		}
	}

	var rowsErr error
	var customers []Customer

	scan := func(query string, args ...any) {
		rows, err := store.pool.Query(ctx, query, args...)
		if err != nil {
			rowsErr = dberr.Wrap(err, "Customer")
			return
		}
		defer rows.Close()

		for rows.Next() {
			var customer Customer
			err := rows.Scan(
				&customer.ID,
				&customer.Name,
				&customer.Surname,
				&customer.Email,
				&customer.Phone,
				&customer.PhotoObjectID,
				&customer.CreatorID,
				&customer.ModifierID,
				&customer.CreatedAt,
				&customer.UpdatedAt,
			)
			if err != nil {
				rowsErr = dberr.Wrap(err, "Customer")
				return
			}
			customers = append(customers, customer)
		}
		rowsErr = rows.Err()
	}

	if creatorID == "" {
		scan(listAll, params.Limit, params.Offset())
	} else {
		scan(listOwn, params.Limit, params.Offset(), creatorID)
	}
	if rowsErr != nil {
		return nil, 0, rowsErr
	}

	return customers, total, nil
}

/*
Update replaces the mutable customer fields and stamps the modifier.

Returns:
  - error: apperr.NotFound when no row matched, or storage errors
*/
func (store *PostgresStore) Update(ctx context.Context, customer *Customer) error {
	const query = `
		UPDATE crm.customer
		SET name = $2, surname = $3, email = $4, phone = $5,
		    modifierid = $6, updatedat = $7
		WHERE id = $1`

	customer.UpdatedAt = time.Now()

	tag, err := store.pool.Exec(ctx, query,
		customer.ID,
		customer.Name,
		customer.Surname,
		customer.Email,
		customer.Phone,
		customer.ModifierID,
		customer.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Customer")
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("Customer")
	}

	return nil
}

/*
SetPhoto attaches or clears the customer's photo object reference and
stamps the modifier. A nil objectID clears the reference.
*/
func (store *PostgresStore) SetPhoto(ctx context.Context, id string, objectID *string, modifierID string) error {
	const query = `
		UPDATE crm.customer
		SET photoobjectid = $2, modifierid = $3, updatedat = $4
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id, objectID, modifierID, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Customer")
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("Customer")
	}

	return nil
}

// Delete removes a customer record permanently.
func (store *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM crm.customer WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "Customer")
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("Customer")
	}

	return nil
}
