package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/StorefrontGo/internal/catalog"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
	"github.com/utafrali/StorefrontGo/pkg/middleware"
	"github.com/utafrali/StorefrontGo/pkg/validator"
)

// CatalogHandler handles catalog scope endpoints: the landing page drives
// these to pin the product listing to the visitor's serviceable warehouse.
type CatalogHandler struct {
	service *catalog.Service
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *catalog.Service, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// LocateRequest is the JSON request body carrying device coordinates.
type LocateRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// LocationDeniedRequest reports that the device could not provide a location.
type LocationDeniedRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// PincodeRequest is the JSON request body carrying a manually entered postal code.
type PincodeRequest struct {
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

// GetScope handles GET /api/v1/catalog/scope
func (h *CatalogHandler) GetScope(w http.ResponseWriter, r *http.Request) {
	scope, err := h.service.Scope(r.Context(), middleware.VisitorIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: scope})
}

// Locate handles POST /api/v1/catalog/locate
func (h *CatalogHandler) Locate(w http.ResponseWriter, r *http.Request) {
	var req LocateRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	scope, err := h.service.LocateByCoords(r.Context(), middleware.VisitorIDFromContext(r.Context()), req.Latitude, req.Longitude)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: scope})
}

// LocationDenied handles POST /api/v1/catalog/location-denied
func (h *CatalogHandler) LocationDenied(w http.ResponseWriter, r *http.Request) {
	var req LocationDeniedRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	scope, err := h.service.ReportLocationDenied(r.Context(), middleware.VisitorIDFromContext(r.Context()), req.Reason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: scope})
}

// SubmitPincode handles POST /api/v1/catalog/pincode
func (h *CatalogHandler) SubmitPincode(w http.ResponseWriter, r *http.Request) {
	var req PincodeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	scope, err := h.service.LocateByPostalCode(r.Context(), middleware.VisitorIDFromContext(r.Context()), req.Pincode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: scope})
}
