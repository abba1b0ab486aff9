package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/StorefrontGo/internal/domain"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
	"github.com/utafrali/StorefrontGo/pkg/httpclient"
)

const upstreamName = "catalog"

// Client talks to the catalog upstream: warehouse-scoped product lookup by
// coordinates, and postal code to coordinate resolution.
type Client struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewClient creates a catalog upstream client.
func NewClient(client *httpclient.CircuitBreakerClient, baseURL string) *Client {
	return &Client{
		client:  client,
		baseURL: baseURL,
	}
}

// NearbyResult is the catalog response for a coordinate lookup: the
// serviceable warehouse plus the products it stocks.
type NearbyResult struct {
	Warehouse *domain.Warehouse   `json:"warehouse"`
	Products  []domain.ProductRef `json:"products"`
}

// NearbyProducts resolves the warehouse serving the given coordinates and
// returns its product list: GET {base}/products/nearby?lat=&lng=.
// Coordinates outside any delivery area map to ErrNotFound.
func (c *Client) NearbyProducts(ctx context.Context, lat, lng float64) (*NearbyResult, error) {
	endpoint := fmt.Sprintf("%s/products/nearby?lat=%s&lng=%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64),
	)

	resp, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch nearby products: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, apperrors.NotFound("delivery area", fmt.Sprintf("%f,%f", lat, lng))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, upstreamName)
	}

	defer func() { _ = resp.Body.Close() }()

	var result NearbyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode nearby products response: %w", err)
	}

	return &result, nil
}

// pincodeResponse is the catalog's postal code resolution document.
type pincodeResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PostalCoordinates resolves a postal code to coordinates:
// GET {base}/pincode/{code}. Unknown codes map to ErrNotFound so the
// storefront can re-prompt instead of failing the page.
func (c *Client) PostalCoordinates(ctx context.Context, code string) (lat, lng float64, err error) {
	resp, err := c.client.Get(ctx, c.baseURL+"/pincode/"+url.PathEscape(code))
	if err != nil {
		return 0, 0, fmt.Errorf("resolve pincode: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return 0, 0, apperrors.NotFound("pincode", code)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, 0, httpclient.ParseResponseError(resp, upstreamName)
	}

	defer func() { _ = resp.Body.Close() }()

	var doc pincodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return 0, 0, fmt.Errorf("decode pincode response: %w", err)
	}

	return doc.Latitude, doc.Longitude, nil
}
