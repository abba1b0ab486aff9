package domain

import "time"

// Kind identifies which user-scoped collection a value belongs to.
type Kind string

const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// Valid reports whether k is a known collection kind.
func (k Kind) Valid() bool {
	return k == KindCart || k == KindWishlist
}

// PagePath returns the storefront page for the collection, used as the
// navigation target on confirmation notifications.
func (k Kind) PagePath() string {
	return "/" + string(k)
}

// Item is a single entry in a collection. The wishlist ignores quantity
// (always 1).
type Item struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// Collection is a user-scoped list of product references (cart or wishlist).
// Invariant: no two items reference the same canonical product ID.
type Collection struct {
	Kind      Kind      `json:"kind"`
	OwnerKey  string    `json:"owner_key"`
	Items     []Item    `json:"items"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCollection creates an empty collection for the given owner.
func NewCollection(kind Kind, ownerKey string) *Collection {
	now := time.Now().UTC()
	return &Collection{
		Kind:      kind,
		OwnerKey:  ownerKey,
		Items:     []Item{},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindIndex returns the index of the item matching the given product ID,
// or -1 if not found.
func (c *Collection) FindIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Add inserts or merges a product into the collection and reports whether
// the collection changed.
//
// Cart: an existing entry has its quantity increased and its product snapshot
// (name, price, image) refreshed. Wishlist: a second add of the same product
// is a no-op; quantity is pinned to 1.
func (c *Collection) Add(p ProductRef, quantity int) bool {
	if c.Kind == KindWishlist {
		quantity = 1
	}

	if i := c.FindIndex(p.ID); i >= 0 {
		if c.Kind == KindWishlist {
			return false
		}
		c.Items[i].Quantity += quantity
		c.Items[i].Product = p
		c.touch()
		return true
	}

	c.Items = append(c.Items, Item{Product: p, Quantity: quantity})
	c.touch()
	return true
}

// Remove filters out the entry matching the given product ID and reports
// whether an entry was removed. Removing an absent product is a no-op.
func (c *Collection) Remove(productID string) bool {
	i := c.FindIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return true
}

// SetQuantity updates the quantity of the matching entry. A quantity of zero
// or less removes the entry. Returns false when no entry matches.
func (c *Collection) SetQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	i := c.FindIndex(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = quantity
	c.touch()
	return true
}

// Clear removes all items.
func (c *Collection) Clear() {
	c.Items = []Item{}
	c.touch()
}

// Contains reports whether the collection holds the given product ID.
func (c *Collection) Contains(productID string) bool {
	return c.FindIndex(productID) >= 0
}

// IsEmpty reports whether the collection holds no items.
func (c *Collection) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalAmount returns the sale-price-aware total of the collection in cents.
func (c *Collection) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Product.UnitPrice() * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all entries.
func (c *Collection) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Collection) touch() {
	c.UpdatedAt = time.Now().UTC()
}
