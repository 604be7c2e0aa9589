// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

package attachment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corvidlabs/corvid/internal/platform/apperr"
	"github.com/corvidlabs/corvid/internal/platform/constants"
)

// RedisHandleStore implements HandleStore using Redis.
//
// The TTL doubles as abandonment cleanup: a handle whose client never
// completes simply expires, and the orphaned blob (if any) is left for
// bucket lifecycle rules.
type RedisHandleStore struct {
	client *redis.Client
}

// NewHandleStore creates a new Redis-backed HandleStore.
func NewHandleStore(client *redis.Client) *RedisHandleStore {
	return &RedisHandleStore{client: client}
}

/*
Put parks a pending upload handle under the configured TTL.

Parameters:
  - ctx: context.Context
  - handle: *UploadHandle
  - ttl: time.Duration

Returns:
  - error: Serialization or execution errors
*/
func (store *RedisHandleStore) Put(ctx context.Context, handle *UploadHandle, ttl time.Duration) error {
	key := constants.RedisPrefixUpload + handle.ID

	payload, err := json.Marshal(handle)
	if err != nil {
		return fmt.Errorf("redis_upload_handle_marshal_failed: %w", err)
	}

	if err := store.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_upload_handle_set_failed: %w", err)
	}

	return nil
}

/*
Take consumes the handle atomically via GETDEL.

Description: The fetch and the removal are one Redis command, so two
racing completions cannot both succeed; exactly one caller observes the
handle, every other caller gets apperr.NotFound. Expired and unknown
handles are indistinguishable from consumed ones, intentionally.

Returns:
  - *UploadHandle: The pending upload state
  - error: apperr.NotFound or connectivity errors
*/
func (store *RedisHandleStore) Take(ctx context.Context, id string) (*UploadHandle, error) {
	key := constants.RedisPrefixUpload + id

	payload, err := store.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Upload is unknown, expired, or already completed")
		}
		return nil, fmt.Errorf("redis_upload_handle_take_failed: %w", err)
	}

	var handle UploadHandle
	if err := json.Unmarshal([]byte(payload), &handle); err != nil {
		return nil, fmt.Errorf("redis_upload_handle_unmarshal_failed: %w", err)
	}

	return &handle, nil
}
