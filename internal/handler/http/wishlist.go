package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/service"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
	"github.com/utafrali/StorefrontGo/pkg/pagination"
	"github.com/utafrali/StorefrontGo/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service *service.CollectionService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.CollectionService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: svc,
		logger:  logger,
	}
}

// SaveItemRequest is the JSON request body for saving a product to the
// wishlist. Quantity is not part of the wishlist contract.
type SaveItemRequest struct {
	Product domain.ProductRef `json:"product" validate:"required"`
}

// GetWishlist handles GET /api/v1/wishlist with page/per_page parameters.
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	wishlist, err := h.service.Load(r.Context(), sessionFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	params := pagination.FromRequest(r)
	start, end := params.Slice(len(wishlist.Items))

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(wishlist.Items[start:end], len(wishlist.Items), params),
	})
}

// SaveItem handles POST /api/v1/wishlist/items. Saving an already saved
// product is a no-op that still returns the wishlist.
func (h *WishlistHandler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var req SaveItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	wishlist, err := h.service.Add(r.Context(), sessionFromRequest(r), req.Product, 1)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCollectionResponse(wishlist)})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("productId is required"), h.logger)
		return
	}

	wishlist, err := h.service.Remove(r.Context(), sessionFromRequest(r), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: toCollectionResponse(wishlist)})
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

// ContainsItem handles GET /api/v1/wishlist/items/{productId}, used by
// product pages to render the saved state of their heart toggle.
func (h *WishlistHandler) ContainsItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("productId is required"), h.logger)
		return
	}

	saved, err := h.service.Contains(r.Context(), sessionFromRequest(r), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"saved": saved}})
}
