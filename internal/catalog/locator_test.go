package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

func TestLocator_NilScope_StartsIdle(t *testing.T) {
	loc := NewLocator(nil)
	assert.Equal(t, StateIdle, loc.Scope().State)
}

func TestLocator_CoordsPath(t *testing.T) {
	loc := NewLocator(nil)
	loc.Begin()
	assert.Equal(t, StateRequestingLocation, loc.Scope().State)

	require.NoError(t, loc.CoordsProvided())
	assert.Equal(t, StateFetchingByCoords, loc.Scope().State)

	wh := &domain.Warehouse{ID: "wh-1", Name: "Central"}
	products := []domain.ProductRef{{ID: "p1", Price: 500}}
	require.NoError(t, loc.FetchSucceeded(ViaCoords, wh, products))

	scope := loc.Scope()
	assert.Equal(t, StateReady, scope.State)
	assert.Equal(t, ViaCoords, scope.Via)
	assert.Equal(t, wh, scope.Warehouse)
	assert.Len(t, scope.Products, 1)
	assert.False(t, scope.ResolvedAt.IsZero())
}

func TestLocator_DenialPath(t *testing.T) {
	loc := NewLocator(nil)
	loc.Begin()

	require.NoError(t, loc.LocationDenied("permission denied"))
	assert.Equal(t, StateAwaitingPostalCode, loc.Scope().State)
	assert.Equal(t, "permission denied", loc.Scope().Error)

	require.NoError(t, loc.PostalSubmitted())
	assert.Equal(t, StateFetchingByPostal, loc.Scope().State)

	require.NoError(t, loc.FetchSucceeded(ViaPincode, &domain.Warehouse{ID: "wh-2"}, nil))
	assert.Equal(t, StateReady, loc.Scope().State)
	assert.Equal(t, ViaPincode, loc.Scope().Via)
}

func TestLocator_CoordsFetchFailure_FallsBackToPostal(t *testing.T) {
	loc := NewLocator(nil)
	loc.Begin()
	require.NoError(t, loc.CoordsProvided())

	require.NoError(t, loc.FetchFailed("no warehouse delivers to this location"))
	assert.Equal(t, StateAwaitingPostalCode, loc.Scope().State)
	assert.Equal(t, "no warehouse delivers to this location", loc.Scope().Error)
}

func TestLocator_PostalFetchFailure_ReturnsToPrompt(t *testing.T) {
	loc := NewLocator(nil)
	loc.Begin()
	require.NoError(t, loc.LocationDenied("denied"))
	require.NoError(t, loc.PostalSubmitted())

	require.NoError(t, loc.FetchFailed("pincode 999999 is not serviceable"))
	assert.Equal(t, StateAwaitingPostalCode, loc.Scope().State)

	// The visitor can submit another code right away.
	require.NoError(t, loc.PostalSubmitted())
	assert.Equal(t, StateFetchingByPostal, loc.Scope().State)
}

func TestLocator_Begin_ResetsAnyState(t *testing.T) {
	loc := NewLocator(&domain.CatalogScope{State: StateReady, Via: ViaCoords})

	loc.Begin()

	assert.Equal(t, StateRequestingLocation, loc.Scope().State)
	assert.Empty(t, loc.Scope().Via)
}

func TestLocator_IllegalTransitions(t *testing.T) {
	loc := NewLocator(nil)

	assert.ErrorIs(t, loc.CoordsProvided(), apperrors.ErrConflict)
	assert.ErrorIs(t, loc.LocationDenied("x"), apperrors.ErrConflict)
	assert.ErrorIs(t, loc.PostalSubmitted(), apperrors.ErrConflict)
	assert.ErrorIs(t, loc.FetchSucceeded(ViaCoords, nil, nil), apperrors.ErrConflict)
	assert.ErrorIs(t, loc.FetchFailed("x"), apperrors.ErrConflict)
}

func TestLocator_SuccessClearsPriorError(t *testing.T) {
	loc := NewLocator(nil)
	loc.Begin()
	require.NoError(t, loc.LocationDenied("denied"))
	require.NoError(t, loc.PostalSubmitted())

	require.NoError(t, loc.FetchSucceeded(ViaPincode, &domain.Warehouse{ID: "wh-1"}, nil))
	assert.Empty(t, loc.Scope().Error)
}
