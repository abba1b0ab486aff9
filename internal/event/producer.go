package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/StorefrontGo/internal/domain"
	pkgkafka "github.com/utafrali/StorefrontGo/pkg/kafka"
)

// Kafka topics for storefront session events.
const (
	TopicNotification    = "storefront.notification"
	TopicCartUpdated     = "storefront.cart.updated"
	TopicWishlistUpdated = "storefront.wishlist.updated"
	TopicCartMerged      = "storefront.cart.merged"
	TopicWishlistMerged  = "storefront.wishlist.merged"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront-session-service"

// NotificationAction is an optional shortcut rendered alongside a toast,
// e.g. a "View cart" button navigating to the collection page.
type NotificationAction struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

// NotificationData is the payload for a storefront.notification event. It is
// consumed by the UI layer, which decides how to render it; the store itself
// carries no rendering concern.
type NotificationData struct {
	RecipientID string              `json:"recipient_id"`
	Message     string              `json:"message"`
	Action      *NotificationAction `json:"action,omitempty"`
}

// ItemData is the item payload within collection events.
type ItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CollectionUpdatedData is the payload for cart/wishlist updated events.
type CollectionUpdatedData struct {
	OwnerID     string     `json:"owner_id"`
	Kind        string     `json:"kind"`
	Items       []ItemData `json:"items"`
	ItemCount   int        `json:"item_count"`
	TotalAmount int64      `json:"total_amount"`
}

// CollectionMergedData is the payload for cart/wishlist merged events,
// published after a visitor's local collection is folded into the user's
// remote one on login.
type CollectionMergedData struct {
	UserID    string `json:"user_id"`
	VisitorID string `json:"visitor_id"`
	Kind      string `json:"kind"`
	ItemCount int    `json:"item_count"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishNotification publishes a toast-style notification for a recipient.
func (p *Producer) PublishNotification(ctx context.Context, recipientID, message string, action *NotificationAction) error {
	data := NotificationData{
		RecipientID: recipientID,
		Message:     message,
		Action:      action,
	}

	evt, err := pkgkafka.NewEvent(TopicNotification, recipientID, "notification", SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create notification event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicNotification, evt); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}

	return nil
}

// PublishCollectionUpdated publishes a cart/wishlist updated event.
func (p *Producer) PublishCollectionUpdated(ctx context.Context, c *domain.Collection) error {
	items := make([]ItemData, len(c.Items))
	for i, item := range c.Items {
		items[i] = ItemData{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.UnitPrice(),
			Quantity:  item.Quantity,
		}
	}

	data := CollectionUpdatedData{
		OwnerID:     c.OwnerKey,
		Kind:        string(c.Kind),
		Items:       items,
		ItemCount:   c.ItemCount(),
		TotalAmount: c.TotalAmount(),
	}

	topic := TopicCartUpdated
	if c.Kind == domain.KindWishlist {
		topic = TopicWishlistUpdated
	}

	evt, err := pkgkafka.NewEvent(topic, c.OwnerKey, string(c.Kind), SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published collection update",
		slog.String("kind", string(c.Kind)),
		slog.String("owner", c.OwnerKey),
		slog.Int("item_count", c.ItemCount()),
	)

	return nil
}

// PublishCollectionMerged publishes a cart/wishlist merged event.
func (p *Producer) PublishCollectionMerged(ctx context.Context, kind domain.Kind, userID, visitorID string, itemCount int) error {
	data := CollectionMergedData{
		UserID:    userID,
		VisitorID: visitorID,
		Kind:      string(kind),
		ItemCount: itemCount,
	}

	topic := TopicCartMerged
	if kind == domain.KindWishlist {
		topic = TopicWishlistMerged
	}

	evt, err := pkgkafka.NewEvent(topic, userID, string(kind), SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}
