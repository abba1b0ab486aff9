package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/StorefrontGo/internal/service"
	"github.com/utafrali/StorefrontGo/pkg/httputil"
)

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	reconciler *service.MergeReconciler
	logger     *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(reconciler *service.MergeReconciler, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Merge handles POST /api/v1/session/merge, called by the storefront once
// right after a sign-in completes. It folds the visitor's anonymous cart and
// wishlist into the signed-in user's remote ones and reports the per-kind
// outcome; a failed kind keeps its local data for the next attempt.
func (h *SessionHandler) Merge(w http.ResponseWriter, r *http.Request) {
	results, err := h.reconciler.ReconcileOnLogin(r.Context(), sessionFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"results": results}})
}
