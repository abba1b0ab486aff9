package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/internal/event"
	"github.com/utafrali/StorefrontGo/internal/repository"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

// Collection operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single entry.
	MaxQuantityPerItem = 100
	// MaxItemsPerCollection is the maximum number of distinct entries allowed.
	MaxItemsPerCollection = 50
)

// maxSaveAttempts bounds the compare-and-swap retry loop on the local sink.
const maxSaveAttempts = 3

// CollectionService implements the business logic for one collection kind.
// Every operation resolves the persistence sink from the session before
// touching storage: signed-in sessions read and write the remote store API,
// anonymous sessions the visitor-keyed local store.
type CollectionService struct {
	kind   domain.Kind
	local  repository.VersionedStore
	remote repository.RemoteStore
	events *event.Producer
	logger *slog.Logger
}

// NewCartService creates the cart collection service.
func NewCartService(local repository.VersionedStore, remote repository.RemoteStore, events *event.Producer, logger *slog.Logger) *CollectionService {
	return newCollectionService(domain.KindCart, local, remote, events, logger)
}

// NewWishlistService creates the wishlist collection service.
func NewWishlistService(local repository.VersionedStore, remote repository.RemoteStore, events *event.Producer, logger *slog.Logger) *CollectionService {
	return newCollectionService(domain.KindWishlist, local, remote, events, logger)
}

func newCollectionService(kind domain.Kind, local repository.VersionedStore, remote repository.RemoteStore, events *event.Producer, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		kind:   kind,
		local:  local,
		remote: remote,
		events: events,
		logger: logger,
	}
}

// Kind returns which collection this service manages.
func (s *CollectionService) Kind() domain.Kind {
	return s.kind
}

// Load fetches the session's collection from the resolved sink. Absent data
// yields an empty collection. Load never fails the caller: a sink read error
// degrades to an empty collection with a warning, matching the storefront's
// show-empty-plus-message posture.
func (s *CollectionService) Load(ctx context.Context, sess domain.Session) (*domain.Collection, error) {
	if err := validSession(sess); err != nil {
		return nil, err
	}

	store, key := s.target(sess)

	c, err := store.Get(ctx, s.kind, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "collection load degraded to empty",
				slog.String("kind", string(s.kind)),
				slog.String("sink", ResolveSink(sess).String()),
				slog.String("error", err.Error()),
			)
		}
		return domain.NewCollection(s.kind, key), nil
	}

	return c, nil
}

// Add inserts or merges a product into the collection. Cart entries for an
// already-present product have their quantity increased by the given amount;
// wishlist re-adds are a no-op. On success a confirmation notification with a
// view-collection shortcut is emitted.
func (s *CollectionService) Add(ctx context.Context, sess domain.Session, product domain.ProductRef, quantity int) (*domain.Collection, error) {
	if err := validSession(sess); err != nil {
		return nil, err
	}
	if product.ID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if product.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	c, changed, err := s.mutate(ctx, sess, func(c *domain.Collection) (bool, error) {
		if i := c.FindIndex(product.ID); i >= 0 {
			if s.kind == domain.KindCart && c.Items[i].Quantity+quantity > MaxQuantityPerItem {
				return false, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
			}
		} else if len(c.Items) >= MaxItemsPerCollection {
			return false, apperrors.InvalidInput(fmt.Sprintf("%s must not contain more than %d items", s.kind, MaxItemsPerCollection))
		}
		return c.Add(product, quantity), nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publishUpdated(ctx, c)
		s.notify(ctx, sess, fmt.Sprintf("Added to your %s", s.kind), &event.NotificationAction{
			Label:  fmt.Sprintf("View %s", s.kind),
			Target: s.kind.PagePath(),
		})

		s.logger.InfoContext(ctx, "item added",
			slog.String("kind", string(s.kind)),
			slog.String("product_id", product.ID),
			slog.Int("quantity", quantity),
			slog.String("sink", ResolveSink(sess).String()),
		)
	}

	return c, nil
}

// Remove filters out the entry matching the product ID. Removing an absent
// product is a no-op, not an error.
func (s *CollectionService) Remove(ctx context.Context, sess domain.Session, productID string) (*domain.Collection, error) {
	if err := validSession(sess); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	c, changed, err := s.mutate(ctx, sess, func(c *domain.Collection) (bool, error) {
		return c.Remove(productID), nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publishUpdated(ctx, c)
		s.logger.InfoContext(ctx, "item removed",
			slog.String("kind", string(s.kind)),
			slog.String("product_id", productID),
		)
	}

	return c, nil
}

// UpdateQuantity sets the quantity of an existing cart entry. A quantity of
// zero or less is equivalent to Remove.
func (s *CollectionService) UpdateQuantity(ctx context.Context, sess domain.Session, productID string, quantity int) (*domain.Collection, error) {
	if err := validSession(sess); err != nil {
		return nil, err
	}
	if s.kind != domain.KindCart {
		return nil, apperrors.InvalidInput("quantity updates only apply to the cart")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}
	if quantity <= 0 {
		// Setting a non-positive quantity is a removal, including its
		// tolerance for an already-absent item.
		return s.Remove(ctx, sess, productID)
	}

	c, changed, err := s.mutate(ctx, sess, func(c *domain.Collection) (bool, error) {
		if !c.SetQuantity(productID, quantity) {
			return false, apperrors.NotFound("cart item", productID)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publishUpdated(ctx, c)
		s.logger.InfoContext(ctx, "item quantity updated",
			slog.String("product_id", productID),
			slog.Int("quantity", quantity),
		)
	}

	return c, nil
}

// Clear empties the session's collection at the resolved sink.
func (s *CollectionService) Clear(ctx context.Context, sess domain.Session) error {
	if err := validSession(sess); err != nil {
		return err
	}

	store, key := s.target(sess)

	if err := store.Delete(ctx, s.kind, key); err != nil {
		if ResolveSink(sess) == SinkLocal {
			return fmt.Errorf("clear %s: %w", s.kind, err)
		}
		// Remote writes are optimistic: the UI's empty view stands.
		s.logger.WarnContext(ctx, "remote clear failed",
			slog.String("kind", string(s.kind)),
			slog.String("error", err.Error()),
		)
		s.notifySyncFailure(ctx, sess)
	}

	s.publishUpdated(ctx, domain.NewCollection(s.kind, key))
	s.logger.InfoContext(ctx, "collection cleared", slog.String("kind", string(s.kind)))
	return nil
}

// Total returns the sale-price-aware total of the session's cart in cents.
func (s *CollectionService) Total(ctx context.Context, sess domain.Session) (int64, error) {
	c, err := s.Load(ctx, sess)
	if err != nil {
		return 0, err
	}
	return c.TotalAmount(), nil
}

// Contains reports whether the session's collection holds the product.
func (s *CollectionService) Contains(ctx context.Context, sess domain.Session, productID string) (bool, error) {
	c, err := s.Load(ctx, sess)
	if err != nil {
		return false, err
	}
	return c.Contains(productID), nil
}

// target resolves the sink and the owner key for a session.
func (s *CollectionService) target(sess domain.Session) (repository.Store, string) {
	if ResolveSink(sess) == SinkRemote {
		return s.remote, sess.UserID
	}
	return s.local, sess.VisitorID
}

// mutate runs a read-modify-write against the resolved sink.
//
// Local sink: a bounded compare-and-swap loop; each attempt re-reads the
// latest snapshot and re-applies the mutation, so rapid successive writes
// from the same device cannot silently drop updates.
//
// Remote sink: the store API only supports whole-document overwrite, so the
// write is optimistic. A failed persist is not rolled back: the mutated
// collection is returned as authoritative and a sync-failure notification is
// emitted instead of an error.
func (s *CollectionService) mutate(ctx context.Context, sess domain.Session, apply func(*domain.Collection) (bool, error)) (*domain.Collection, bool, error) {
	if ResolveSink(sess) == SinkRemote {
		return s.mutateRemote(ctx, sess, apply)
	}
	return s.mutateLocal(ctx, sess, apply)
}

func (s *CollectionService) mutateLocal(ctx context.Context, sess domain.Session, apply func(*domain.Collection) (bool, error)) (*domain.Collection, bool, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		c, err := s.local.Get(ctx, s.kind, sess.VisitorID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return nil, false, fmt.Errorf("load %s: %w", s.kind, err)
			}
			c = domain.NewCollection(s.kind, sess.VisitorID)
		}

		expected := c.Version

		changed, err := apply(c)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return c, false, nil
		}

		ok, err := s.local.SaveIfVersion(ctx, c, expected)
		if err != nil {
			return nil, false, fmt.Errorf("save %s: %w", s.kind, err)
		}
		if ok {
			return c, true, nil
		}
	}

	return nil, false, apperrors.Conflict(fmt.Sprintf("%s was modified concurrently, please retry", s.kind))
}

func (s *CollectionService) mutateRemote(ctx context.Context, sess domain.Session, apply func(*domain.Collection) (bool, error)) (*domain.Collection, bool, error) {
	c, err := s.remote.Get(ctx, s.kind, sess.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			// A failed read must not be degraded to empty here: saving an
			// empty document afterwards would wipe the user's stored
			// collection on a transient fault.
			return nil, false, fmt.Errorf("load %s: %w", s.kind, err)
		}
		c = domain.NewCollection(s.kind, sess.UserID)
	}

	changed, err := apply(c)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return c, false, nil
	}

	if err := s.remote.Save(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "remote persist failed, keeping optimistic state",
			slog.String("kind", string(s.kind)),
			slog.String("error", err.Error()),
		)
		s.notifySyncFailure(ctx, sess)
	}

	return c, true, nil
}

func (s *CollectionService) publishUpdated(ctx context.Context, c *domain.Collection) {
	if err := s.events.PublishCollectionUpdated(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish collection update",
			slog.String("kind", string(s.kind)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CollectionService) notify(ctx context.Context, sess domain.Session, message string, action *event.NotificationAction) {
	if err := s.events.PublishNotification(ctx, sess.OwnerKey(), message, action); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish notification",
			slog.String("error", err.Error()),
		)
	}
}

func (s *CollectionService) notifySyncFailure(ctx context.Context, sess domain.Session) {
	s.notify(ctx, sess, fmt.Sprintf("We couldn't sync your %s. Recent changes may not be saved.", s.kind), nil)
}

func validSession(sess domain.Session) error {
	if sess.VisitorID == "" && sess.UserID == "" {
		return apperrors.InvalidInput("session identity is required")
	}
	return nil
}
