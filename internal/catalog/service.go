package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

var pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Service resolves each visitor's catalog scope. It drives the locator state
// machine, calls the catalog upstream for the side-effecting lookups, and
// persists the resulting scope so subsequent page loads stay pinned to the
// same warehouse.
type Service struct {
	scopes repository.ScopeStore
	client *Client
	logger *slog.Logger
}

// NewService creates the catalog scope service.
func NewService(scopes repository.ScopeStore, client *Client, logger *slog.Logger) *Service {
	return &Service{
		scopes: scopes,
		client: client,
		logger: logger,
	}
}

// Scope returns the visitor's current catalog scope, idle if none was ever
// resolved.
func (s *Service) Scope(ctx context.Context, visitorID string) (*domain.CatalogScope, error) {
	if visitorID == "" {
		return nil, apperrors.InvalidInput("visitor id is required")
	}

	scope, err := s.scopes.GetScope(ctx, visitorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.CatalogScope{State: StateIdle}, nil
		}
		return nil, fmt.Errorf("load scope: %w", err)
	}

	return scope, nil
}

// LocateByCoords resolves the catalog scope from device coordinates. On a
// failed lookup the scope falls back to the postal code prompt rather than
// erroring out, so the visitor always has a path forward.
func (s *Service) LocateByCoords(ctx context.Context, visitorID string, lat, lng float64) (*domain.CatalogScope, error) {
	if visitorID == "" {
		return nil, apperrors.InvalidInput("visitor id is required")
	}
	if lat < -90 || lat > 90 {
		return nil, apperrors.InvalidInput("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return nil, apperrors.InvalidInput("longitude must be between -180 and 180")
	}

	loc := NewLocator(nil)
	loc.Begin()
	if err := loc.CoordsProvided(); err != nil {
		return nil, err
	}

	s.fetch(ctx, loc, ViaCoords, lat, lng)

	return s.save(ctx, visitorID, loc)
}

// ReportLocationDenied records that the visitor's device refused or could not
// provide a location, moving the scope to the postal code prompt.
func (s *Service) ReportLocationDenied(ctx context.Context, visitorID, reason string) (*domain.CatalogScope, error) {
	if visitorID == "" {
		return nil, apperrors.InvalidInput("visitor id is required")
	}
	if reason == "" {
		reason = "location access was denied"
	}

	loc := NewLocator(nil)
	loc.Begin()
	if err := loc.LocationDenied(reason); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "location denied, awaiting postal code",
		slog.String("reason", reason),
	)

	return s.save(ctx, visitorID, loc)
}

// LocateByPostalCode resolves the catalog scope from a manually entered
// postal code. An unknown or unserviceable code returns the scope to the
// postal code prompt with the failure reason attached.
func (s *Service) LocateByPostalCode(ctx context.Context, visitorID, code string) (*domain.CatalogScope, error) {
	if visitorID == "" {
		return nil, apperrors.InvalidInput("visitor id is required")
	}
	if !pincodePattern.MatchString(code) {
		return nil, apperrors.InvalidInput("pincode must be 6 digits")
	}

	scope, err := s.Scope(ctx, visitorID)
	if err != nil {
		return nil, err
	}

	loc := NewLocator(scope)
	if scope.State != StateAwaitingPostalCode {
		// A direct postal submission is a legal entry point: treat it as a
		// fresh locate that skips the device location request.
		loc.Begin()
		if err := loc.LocationDenied("postal code entered directly"); err != nil {
			return nil, err
		}
	}
	if err := loc.PostalSubmitted(); err != nil {
		return nil, err
	}

	lat, lng, err := s.client.PostalCoordinates(ctx, code)
	if err != nil {
		if ferr := loc.FetchFailed(reasonFor(err, "pincode "+code+" is not serviceable")); ferr != nil {
			return nil, ferr
		}
		s.logger.WarnContext(ctx, "pincode resolution failed",
			slog.String("pincode", code),
			slog.String("error", err.Error()),
		)
		return s.save(ctx, visitorID, loc)
	}

	s.fetch(ctx, loc, ViaPincode, lat, lng)

	return s.save(ctx, visitorID, loc)
}

// fetch runs the warehouse lookup and records the outcome on the locator.
// Lookup failures become a fallback to the postal prompt, never an error.
func (s *Service) fetch(ctx context.Context, loc *Locator, via string, lat, lng float64) {
	result, err := s.client.NearbyProducts(ctx, lat, lng)
	if err != nil {
		if ferr := loc.FetchFailed(reasonFor(err, "no warehouse delivers to this location")); ferr != nil {
			s.logger.ErrorContext(ctx, "locator rejected fetch failure", slog.String("error", ferr.Error()))
			return
		}
		s.logger.WarnContext(ctx, "warehouse lookup failed",
			slog.String("via", via),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := loc.FetchSucceeded(via, result.Warehouse, result.Products); err != nil {
		s.logger.ErrorContext(ctx, "locator rejected fetch result", slog.String("error", err.Error()))
		return
	}

	s.logger.InfoContext(ctx, "catalog scope resolved",
		slog.String("via", via),
		slog.Int("product_count", len(result.Products)),
	)
}

func (s *Service) save(ctx context.Context, visitorID string, loc *Locator) (*domain.CatalogScope, error) {
	if err := s.scopes.SaveScope(ctx, visitorID, loc.Scope()); err != nil {
		return nil, fmt.Errorf("save scope: %w", err)
	}
	return loc.Scope(), nil
}

// reasonFor picks the visitor-facing reason for a failed lookup: the precise
// message for expected outcomes, a generic fallback for infrastructure
// faults whose details do not belong on the page.
func reasonFor(err error, notFoundMsg string) string {
	if errors.Is(err, apperrors.ErrNotFound) {
		return notFoundMsg
	}
	return "location lookup is temporarily unavailable, please try again"
}
