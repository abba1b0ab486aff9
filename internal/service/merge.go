package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/event"
	"github.com/utafrali/StorefrontGo/internal/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

var mergeOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_merge_operations_total",
		Help: "Total login-time merge operations by collection kind and outcome",
	},
	[]string{"kind", "outcome"},
)

// MergeOutcome describes what happened to one collection kind during a
// login-time reconcile.
type MergeOutcome string

const (
	// MergeOutcomeMerged means local items were uploaded and the local copy
	// was cleared.
	MergeOutcomeMerged MergeOutcome = "merged"
	// MergeOutcomeEmpty means there was nothing local to merge.
	MergeOutcomeEmpty MergeOutcome = "empty"
	// MergeOutcomeFailed means the upload failed and the local copy was kept.
	MergeOutcomeFailed MergeOutcome = "failed"
)

// MergeResult is the per-kind report of a reconcile run.
type MergeResult struct {
	Kind      domain.Kind  `json:"kind"`
	Outcome   MergeOutcome `json:"outcome"`
	ItemCount int          `json:"item_count"`
	Error     string       `json:"error,omitempty"`
}

// MergeReconciler folds a visitor's locally accumulated collections into the
// signed-in user's remote ones. It runs once per login edge, triggered by the
// session merge endpoint.
type MergeReconciler struct {
	local  repository.VersionedStore
	remote repository.RemoteStore
	events *event.Producer
	logger *slog.Logger
}

// NewMergeReconciler creates a login-time merge reconciler.
func NewMergeReconciler(local repository.VersionedStore, remote repository.RemoteStore, events *event.Producer, logger *slog.Logger) *MergeReconciler {
	return &MergeReconciler{
		local:  local,
		remote: remote,
		events: events,
		logger: logger,
	}
}

// ReconcileOnLogin uploads the visitor's local cart and wishlist to the
// remote merge endpoint and clears each local copy only after its upload
// succeeds. The two kinds are reconciled independently: a cart failure never
// blocks the wishlist merge, and a failed kind keeps its local data so a
// retry on the next login can pick it up. The call itself only errors on bad
// input; per-kind failures are reported in the results.
func (r *MergeReconciler) ReconcileOnLogin(ctx context.Context, sess domain.Session) ([]MergeResult, error) {
	if !sess.SignedIn() {
		return nil, apperrors.Unauthorized("merge requires a signed-in session")
	}
	if sess.VisitorID == "" {
		return nil, apperrors.InvalidInput("visitor id is required")
	}

	results := make([]MergeResult, 0, 2)
	for _, kind := range []domain.Kind{domain.KindCart, domain.KindWishlist} {
		results = append(results, r.reconcileKind(ctx, sess, kind))
	}

	return results, nil
}

func (r *MergeReconciler) reconcileKind(ctx context.Context, sess domain.Session, kind domain.Kind) MergeResult {
	local, err := r.local.Get(ctx, kind, sess.VisitorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			mergeOperations.WithLabelValues(string(kind), string(MergeOutcomeEmpty)).Inc()
			return MergeResult{Kind: kind, Outcome: MergeOutcomeEmpty}
		}
		mergeOperations.WithLabelValues(string(kind), string(MergeOutcomeFailed)).Inc()
		return MergeResult{
			Kind:    kind,
			Outcome: MergeOutcomeFailed,
			Error:   fmt.Sprintf("load local %s: %s", kind, err),
		}
	}

	if local.IsEmpty() {
		mergeOperations.WithLabelValues(string(kind), string(MergeOutcomeEmpty)).Inc()
		return MergeResult{Kind: kind, Outcome: MergeOutcomeEmpty}
	}

	if err := r.remote.Merge(ctx, kind, sess.UserID, local.Items); err != nil {
		// The local copy stays untouched so a retry can pick it up.
		r.logger.WarnContext(ctx, "merge upload failed, keeping local collection",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		mergeOperations.WithLabelValues(string(kind), string(MergeOutcomeFailed)).Inc()
		return MergeResult{
			Kind:      kind,
			Outcome:   MergeOutcomeFailed,
			ItemCount: len(local.Items),
			Error:     fmt.Sprintf("merge %s: %s", kind, err),
		}
	}

	// Clearing after a successful upload at worst leaves items behind to be
	// merged again; the merge endpoint is idempotent, so that is safe.
	if err := r.local.Delete(ctx, kind, sess.VisitorID); err != nil {
		r.logger.WarnContext(ctx, "failed to clear merged local collection",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}

	if err := r.events.PublishCollectionMerged(ctx, kind, sess.UserID, sess.VisitorID, len(local.Items)); err != nil {
		r.logger.ErrorContext(ctx, "failed to publish merge event",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}

	r.logger.InfoContext(ctx, "local collection merged",
		slog.String("kind", string(kind)),
		slog.Int("item_count", len(local.Items)),
	)

	mergeOperations.WithLabelValues(string(kind), string(MergeOutcomeMerged)).Inc()
	return MergeResult{
		Kind:      kind,
		Outcome:   MergeOutcomeMerged,
		ItemCount: len(local.Items),
	}
}
