package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
)

const upstreamName = "storefront-store"

// CollectionStore implements the remote persistence sink over the externally
// owned storefront store API. Signed-in users' collections live there, keyed
// by user ID; all writes are whole-collection overwrites.
type CollectionStore struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewCollectionStore creates a remote collection store client.
func NewCollectionStore(client *httpclient.CircuitBreakerClient, baseURL string) *CollectionStore {
	return &CollectionStore{
		client:  client,
		baseURL: baseURL,
	}
}

// wireItem is the store API's item shape: the product record nested under
// "item" with the quantity alongside.
type wireItem struct {
	Item     domain.ProductRef `json:"item"`
	Quantity int               `json:"quantity"`
}

// collectionDoc is the store API's request/response document.
type collectionDoc struct {
	UserID string     `json:"userId"`
	Items  []wireItem `json:"items"`
}

func toWire(items []domain.Item) []wireItem {
	wire := make([]wireItem, len(items))
	for i, item := range items {
		wire[i] = wireItem{Item: item.Product, Quantity: item.Quantity}
	}
	return wire
}

func fromWire(kind domain.Kind, userID string, items []wireItem) *domain.Collection {
	c := domain.NewCollection(kind, userID)
	for _, w := range items {
		q := w.Quantity
		if q < 1 {
			q = 1
		}
		c.Items = append(c.Items, domain.Item{Product: w.Item, Quantity: q})
	}
	return c
}

// Get fetches the user's collection: GET {base}/{kind}?userId={id}.
// A 404 maps to ErrNotFound.
func (s *CollectionStore) Get(ctx context.Context, kind domain.Kind, ownerKey string) (*domain.Collection, error) {
	endpoint := fmt.Sprintf("%s/%s?userId=%s", s.baseURL, kind, url.QueryEscape(ownerKey))

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, apperrors.NotFound(string(kind), ownerKey)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, upstreamName)
	}

	defer func() { _ = resp.Body.Close() }()

	var doc collectionDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", kind, err)
	}

	return fromWire(kind, ownerKey, doc.Items), nil
}

// Save overwrites the user's stored collection: POST {base}/{kind}.
func (s *CollectionStore) Save(ctx context.Context, c *domain.Collection) error {
	return s.post(ctx, string(c.Kind), collectionDoc{
		UserID: c.OwnerKey,
		Items:  toWire(c.Items),
	})
}

// Delete clears the user's stored collection. The store API has no delete
// verb; clearing is an overwrite with an empty item list.
func (s *CollectionStore) Delete(ctx context.Context, kind domain.Kind, ownerKey string) error {
	return s.post(ctx, string(kind), collectionDoc{
		UserID: ownerKey,
		Items:  []wireItem{},
	})
}

// Merge submits locally accumulated items for a server-side union:
// POST {base}/{kind}/merge. The endpoint is idempotent upstream, so
// at-least-once delivery is acceptable.
func (s *CollectionStore) Merge(ctx context.Context, kind domain.Kind, userID string, items []domain.Item) error {
	return s.post(ctx, string(kind)+"/merge", collectionDoc{
		UserID: userID,
		Items:  toWire(items),
	})
}

func (s *CollectionStore) post(ctx context.Context, path string, doc collectionDoc) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	resp, err := s.client.Post(ctx, s.baseURL+"/"+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, upstreamName)
	}

	_ = resp.Body.Close()
	return nil
}
