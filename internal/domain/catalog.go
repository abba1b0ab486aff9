package domain

import "time"

// Warehouse is the fulfillment center resolved for a visitor's location.
type Warehouse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DeliveryETA  string `json:"delivery_eta,omitempty"`
	DeliveryCost int64  `json:"delivery_cost,omitempty"`
}

// CatalogScope is the visitor's resolved catalog view: the current locator
// state plus, once ready, the serviceable warehouse and its product list.
// Scoping only filters what products are shown; it never touches cart or
// wishlist contents.
type CatalogScope struct {
	State      string       `json:"state"`
	Error      string       `json:"error,omitempty"`
	Via        string       `json:"via,omitempty"` // "coords" or "pincode"
	Warehouse  *Warehouse   `json:"warehouse,omitempty"`
	Products   []ProductRef `json:"products,omitempty"`
	ResolvedAt time.Time    `json:"resolved_at,omitempty"`
}
