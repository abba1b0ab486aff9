package repository

import (
	"context"

	"github.com/utafrali/StorefrontGo/internal/domain"
)

// Store is a persistence sink for collections. Implementations return
// errors.ErrNotFound when no collection exists for the key.
type Store interface {
	// Get retrieves the collection of the given kind for the owner key.
	Get(ctx context.Context, kind domain.Kind, ownerKey string) (*domain.Collection, error)

	// Save persists the full collection, overwriting any existing one.
	// The canonical representation is whole-collection replace, not an
	// incremental patch.
	Save(ctx context.Context, c *domain.Collection) error

	// Delete removes the collection for the owner key.
	Delete(ctx context.Context, kind domain.Kind, ownerKey string) error
}

// VersionedStore is a Store with compare-and-swap saves, used for the local
// sink where concurrent requests from the same device can race.
type VersionedStore interface {
	Store

	// SaveIfVersion persists the collection only if the stored version still
	// equals expectedVersion, bumping the version on success. Returns false
	// (and no error) on a version conflict.
	SaveIfVersion(ctx context.Context, c *domain.Collection, expectedVersion int) (bool, error)
}

// RemoteStore is a Store backed by the remote persistence API, which
// additionally supports server-side merge of a locally accumulated
// collection into the user's stored one.
type RemoteStore interface {
	Store

	// Merge submits the items to the remote merge endpoint for the user.
	// The server performs the union; duplicate merges are idempotent.
	Merge(ctx context.Context, kind domain.Kind, userID string, items []domain.Item) error
}

// ScopeStore persists the visitor's resolved catalog scope.
type ScopeStore interface {
	GetScope(ctx context.Context, visitorID string) (*domain.CatalogScope, error)
	SaveScope(ctx context.Context, visitorID string, scope *domain.CatalogScope) error
}
