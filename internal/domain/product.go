package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductRef is a canonical reference to a catalog product. The upstream
// catalog emits two identifier shapes for the same logical product: a numeric
// client-seeded "id" and a string server-seeded "_id". Both are accepted on
// the wire and normalized into the single string ID here, so business logic
// never branches on identifier shape.
type ProductRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	SalePrice *int64 `json:"sale_price,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

// UnitPrice returns the effective per-unit price in cents: the sale price
// when one is set, otherwise the list price.
func (p ProductRef) UnitPrice() int64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// UnmarshalJSON accepts both identifier shapes. "_id" wins when both are
// present, since it is the server-assigned identifier.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	var raw struct {
		LegacyID  json.RawMessage `json:"id"`
		ServerID  string          `json:"_id"`
		Name      string          `json:"name"`
		Price     int64           `json:"price"`
		SalePrice *int64          `json:"sale_price"`
		ImageURL  string          `json:"image_url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal product: %w", err)
	}

	id := raw.ServerID
	if id == "" && len(raw.LegacyID) > 0 {
		id = normalizeLegacyID(raw.LegacyID)
	}

	p.ID = id
	p.Name = raw.Name
	p.Price = raw.Price
	p.SalePrice = raw.SalePrice
	p.ImageURL = raw.ImageURL
	return nil
}

// normalizeLegacyID renders a raw "id" JSON value (number or string) as its
// canonical string form. Invalid values normalize to "".
func normalizeLegacyID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	// Integer identifiers keep their exact representation.
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	return n.String()
}
