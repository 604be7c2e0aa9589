// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package attachment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvidlabs/corvid/internal/platform/dberr"
	"github.com/corvidlabs/corvid/pkg/pagination"
)

// # Metadata Store (PostgreSQL)

// PostgresMetadataStore implements the [MetadataStore] interface using pgx.
type PostgresMetadataStore struct {
	pool *pgxpool.Pool
}

// NewMetadataStore creates a new PostgreSQL implementation of the MetadataStore.
func NewMetadataStore(pool *pgxpool.Pool) *PostgresMetadataStore {
	return &PostgresMetadataStore{pool: pool}
}

const objectColumns = "id, ownerid, objectkey, contenttype, size, checksum, etag, createdat"

/*
Create persists the metadata row for a verified blob into storage.object.

Returns:
  - error: apperr.Conflict on duplicate ID, or storage errors
*/
func (store *PostgresMetadataStore) Create(ctx context.Context, object *StoredObject) error {
	const query = `
		INSERT INTO storage.object (
			id, ownerid, objectkey, contenttype, size, checksum, etag, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	object.CreatedAt = time.Now()

	_, err := store.pool.Exec(ctx, query,
		object.ID,
		object.OwnerID,
		object.Key,
		object.ContentType,
		object.Size,
		object.Checksum,
		object.ETag,
		object.CreatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Object")
	}

	return nil
}

// FindByID retrieves a stored object's metadata by its unique ID.
func (store *PostgresMetadataStore) FindByID(ctx context.Context, id string) (*StoredObject, error) {
	const query = `
		SELECT ` + objectColumns + `
		FROM storage.object
		WHERE id = $1`

	row := store.pool.QueryRow(ctx, query, id)

	var object StoredObject
	err := row.Scan(
		&object.ID,
		&object.OwnerID,
		&object.Key,
		&object.ContentType,
		&object.Size,
		&object.Checksum,
		&object.ETag,
		&object.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Object")
	}

	return &object, nil
}

/*
ListByOwner returns a page of an owner's objects ordered by creation time,
newest first, plus the owner's total object count.
*/
func (store *PostgresMetadataStore) ListByOwner(ctx context.Context, ownerID string, params pagination.Params) ([]StoredObject, int, error) {
	const countQuery = `SELECT COUNT(*) FROM storage.object WHERE ownerid = $1`
	const query = `
		SELECT ` + objectColumns + `
		FROM storage.object
		WHERE ownerid = $1
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3`

	var total int
	if err := store.pool.QueryRow(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Object")
	}

	rows, err := store.pool.Query(ctx, query, ownerID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Object")
	}
	defer rows.Close()

	var objects []StoredObject
	for rows.Next() {
		var object StoredObject
		err := rows.Scan(
			&object.ID,
			&object.OwnerID,
			&object.Key,
			&object.ContentType,
			&object.Size,
			&object.Checksum,
			&object.ETag,
			&object.CreatedAt,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Object")
		}
		objects = append(objects, object)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Object")
	}

	return objects, total, nil
}

/*
TotalSizeByOwner reports the summed verified size of an owner's completed
objects. Pending uploads are invisible here; only completed metadata
counts toward quota.
*/
func (store *PostgresMetadataStore) TotalSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(size), 0) FROM storage.object WHERE ownerid = $1`

	var total int64
	if err := store.pool.QueryRow(ctx, query, ownerID).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "Object")
	}

	return total, nil
}

// Delete removes the metadata row for an object.
func (store *PostgresMetadataStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM storage.object WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "Object")
	}
	if tag.RowsAffected() == 0 {
		return dberr.NoRows("Object")
	}

	return nil
}
