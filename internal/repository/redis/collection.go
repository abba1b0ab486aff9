package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// CollectionStore implements the local persistence sink on Redis. Collections
// for anonymous visitors live here as JSON documents keyed by kind and
// visitor ID, with a TTL so abandoned carts eventually expire.
type CollectionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCollectionStore creates a new Redis-backed collection store.
func NewCollectionStore(client *redis.Client, ttl time.Duration) *CollectionStore {
	return &CollectionStore{
		client: client,
		ttl:    ttl,
	}
}

func collectionKey(kind domain.Kind, ownerKey string) string {
	return fmt.Sprintf("%s:%s", kind, ownerKey)
}

// Get retrieves a collection. A missing key returns ErrNotFound. A stored
// value that no longer parses as JSON is treated exactly like a missing key:
// the local sink must degrade to an empty collection, never fail a load.
func (s *CollectionStore) Get(ctx context.Context, kind domain.Kind, ownerKey string) (*domain.Collection, error) {
	key := collectionKey(kind, ownerKey)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound(string(kind), ownerKey)
		}
		return nil, fmt.Errorf("redis get %s: %w", kind, err)
	}

	var c domain.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		// Corrupt payloads are indistinguishable from absent ones to callers.
		return nil, apperrors.NotFound(string(kind), ownerKey)
	}

	return &c, nil
}

// Save persists a collection with the configured TTL.
func (s *CollectionStore) Save(ctx context.Context, c *domain.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c.Kind, err)
	}

	if err := s.client.Set(ctx, collectionKey(c.Kind, c.OwnerKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.Kind, err)
	}

	return nil
}

// SaveIfVersion persists the collection only if the stored version still
// equals expectedVersion. A missing key counts as version 0. On success the
// stored document carries expectedVersion+1. Returns false without error on
// a version conflict.
func (s *CollectionStore) SaveIfVersion(ctx context.Context, c *domain.Collection, expectedVersion int) (bool, error) {
	key := collectionKey(c.Kind, c.OwnerKey)
	conflict := false

	txf := func(tx *redis.Tx) error {
		stored := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// absent, stored version stays 0
		case err != nil:
			return fmt.Errorf("redis get %s: %w", c.Kind, err)
		default:
			var cur domain.Collection
			if jsonErr := json.Unmarshal(data, &cur); jsonErr == nil {
				stored = cur.Version
			}
		}

		if stored != expectedVersion {
			conflict = true
			return nil
		}

		c.Version = expectedVersion + 1
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", c.Kind, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The key changed between WATCH and EXEC.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// Delete removes a collection.
func (s *CollectionStore) Delete(ctx context.Context, kind domain.Kind, ownerKey string) error {
	if err := s.client.Del(ctx, collectionKey(kind, ownerKey)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", kind, err)
	}
	return nil
}
