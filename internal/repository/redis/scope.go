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

const scopeKeyPrefix = "catalog:scope:"

// ScopeStore persists each visitor's resolved catalog scope in Redis so the
// landing page stays scoped to the same warehouse across requests.
type ScopeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScopeStore creates a new Redis-backed catalog scope store.
func NewScopeStore(client *redis.Client, ttl time.Duration) *ScopeStore {
	return &ScopeStore{
		client: client,
		ttl:    ttl,
	}
}

// GetScope retrieves the visitor's catalog scope. Missing or corrupt entries
// return ErrNotFound.
func (s *ScopeStore) GetScope(ctx context.Context, visitorID string) (*domain.CatalogScope, error) {
	data, err := s.client.Get(ctx, scopeKeyPrefix+visitorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("catalog scope", visitorID)
		}
		return nil, fmt.Errorf("redis get scope: %w", err)
	}

	var scope domain.CatalogScope
	if err := json.Unmarshal(data, &scope); err != nil {
		return nil, apperrors.NotFound("catalog scope", visitorID)
	}

	return &scope, nil
}

// SaveScope persists the visitor's catalog scope with the configured TTL.
func (s *ScopeStore) SaveScope(ctx context.Context, visitorID string, scope *domain.CatalogScope) error {
	data, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("marshal scope: %w", err)
	}

	if err := s.client.Set(ctx, scopeKeyPrefix+visitorID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set scope: %w", err)
	}

	return nil
}
