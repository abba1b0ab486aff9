package catalog

import (
	"fmt"
	"time"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// Locator states. A visitor's catalog scope moves through these as the
// storefront tries to pin the catalog to a serviceable warehouse: first via
// device coordinates, then via a manually entered postal code if location
// access was denied or coordinate lookup failed.
const (
	StateIdle               = "idle"
	StateRequestingLocation = "requesting_location"
	StateFetchingByCoords   = "fetching_by_coords"
	StateAwaitingPostalCode = "awaiting_postal_code"
	StateFetchingByPostal   = "fetching_by_postal"
	StateReady              = "ready"
)

// Resolution channels recorded on a ready scope.
const (
	ViaCoords  = "coords"
	ViaPincode = "pincode"
)

// Locator is the catalog scope state machine for one visitor. It wraps the
// persisted scope and enforces legal transitions; fetch side effects live in
// the Service, the Locator only validates and records state.
type Locator struct {
	scope *domain.CatalogScope
}

// NewLocator wraps an existing scope, or starts an idle one when nil.
func NewLocator(scope *domain.CatalogScope) *Locator {
	if scope == nil {
		scope = &domain.CatalogScope{State: StateIdle}
	}
	return &Locator{scope: scope}
}

// Scope returns the underlying scope snapshot.
func (l *Locator) Scope() *domain.CatalogScope {
	return l.scope
}

// Begin starts a location request. Restarting from any state is legal: the
// visitor can always re-trigger location detection, discarding prior results.
func (l *Locator) Begin() {
	l.scope = &domain.CatalogScope{State: StateRequestingLocation}
}

// CoordsProvided records that the device supplied coordinates and a
// warehouse lookup by coordinates is in flight.
func (l *Locator) CoordsProvided() error {
	if l.scope.State != StateRequestingLocation {
		return l.invalid("coordinates")
	}
	l.scope.State = StateFetchingByCoords
	l.scope.Error = ""
	return nil
}

// LocationDenied records that location access was refused or unavailable and
// the visitor must enter a postal code instead. The reason is kept on the
// scope so the storefront can explain why it is asking.
func (l *Locator) LocationDenied(reason string) error {
	if l.scope.State != StateRequestingLocation {
		return l.invalid("location denial")
	}
	l.scope.State = StateAwaitingPostalCode
	l.scope.Error = reason
	return nil
}

// PostalSubmitted records that the visitor entered a postal code and a
// lookup by that code is in flight.
func (l *Locator) PostalSubmitted() error {
	if l.scope.State != StateAwaitingPostalCode {
		return l.invalid("postal code")
	}
	l.scope.State = StateFetchingByPostal
	l.scope.Error = ""
	return nil
}

// FetchSucceeded records a resolved warehouse and its product list, moving
// the scope to ready.
func (l *Locator) FetchSucceeded(via string, warehouse *domain.Warehouse, products []domain.ProductRef) error {
	if l.scope.State != StateFetchingByCoords && l.scope.State != StateFetchingByPostal {
		return l.invalid("fetch result")
	}
	l.scope.State = StateReady
	l.scope.Error = ""
	l.scope.Via = via
	l.scope.Warehouse = warehouse
	l.scope.Products = products
	l.scope.ResolvedAt = time.Now().UTC()
	return nil
}

// FetchFailed records a failed lookup. Either fetch path falls back to the
// postal code prompt; a coordinate failure never dead-ends the visitor.
func (l *Locator) FetchFailed(reason string) error {
	if l.scope.State != StateFetchingByCoords && l.scope.State != StateFetchingByPostal {
		return l.invalid("fetch failure")
	}
	l.scope.State = StateAwaitingPostalCode
	l.scope.Error = reason
	return nil
}

func (l *Locator) invalid(input string) error {
	return apperrors.Conflict(fmt.Sprintf("cannot accept %s in state %q", input, l.scope.State))
}
