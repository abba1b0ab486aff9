package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, env *testEnv, method, path string, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, data
}

func anonHeaders() map[string]string {
	return map[string]string{"X-Visitor-ID": "visitor-1"}
}

func signedInHeaders() map[string]string {
	return map[string]string{"X-Visitor-ID": "visitor-1", "X-User-ID": "user-1"}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

type collectionBody struct {
	Kind  string `json:"kind"`
	Items []struct {
		Product struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Price int64  `json:"price"`
		} `json:"product"`
		Quantity int `json:"quantity"`
	} `json:"items"`
	ItemCount   int   `json:"item_count"`
	TotalAmount int64 `json:"total_amount"`
}

func decodeCollection(t *testing.T, data []byte) collectionBody {
	t.Helper()
	env := decodeEnvelope(t, data)
	var c collectionBody
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

func TestCart_MissingVisitorID_Rejected(t *testing.T) {
	env := setupTestServer(t)

	resp, data := doRequest(t, env, http.MethodGet, "/api/v1/cart", "", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeEnvelope(t, data)
	require.NotNil(t, e.Error)
	assert.Equal(t, "INVALID_INPUT", e.Error.Code)
}

func TestCart_UnsupportedMediaType(t *testing.T) {
	env := setupTestServer(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/cart/items", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Visitor-ID", "visitor-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// Cart flow
// ---------------------------------------------------------------------------

func TestCart_Get_Empty(t *testing.T) {
	env := setupTestServer(t)

	resp, data := doRequest(t, env, http.MethodGet, "/api/v1/cart", "", anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeCollection(t, data)
	assert.Equal(t, "cart", c.Kind)
	assert.Empty(t, c.Items)
}

func TestCart_AddItem_NumericLegacyID(t *testing.T) {
	env := setupTestServer(t)

	body := `{"product": {"id": 42, "name": "Mug", "price": 500}, "quantity": 2}`
	resp, data := doRequest(t, env, http.MethodPost, "/api/v1/cart/items", body, anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeCollection(t, data)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "42", c.Items[0].Product.ID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, int64(1000), c.TotalAmount)
}

func TestCart_AddItem_DefaultQuantityOne(t *testing.T) {
	env := setupTestServer(t)

	body := `{"product": {"_id": "p1", "name": "Mug", "price": 500}}`
	resp, data := doRequest(t, env, http.MethodPost, "/api/v1/cart/items", body, anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeCollection(t, data)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestCart_AddItem_RepeatMergesQuantity(t *testing.T) {
	env := setupTestServer(t)

	body := `{"product": {"_id": "p1", "name": "Mug", "price": 500}, "quantity": 1}`
	doRequest(t, env, http.MethodPost, "/api/v1/cart/items", body, anonHeaders())
	_, data := doRequest(t, env, http.MethodPost, "/api/v1/cart/items", body, anonHeaders())

	c := decodeCollection(t, data)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestCart_AddItem_MissingProduct_Rejected(t *testing.T) {
	env := setupTestServer(t)

	resp, data := doRequest(t, env, http.MethodPost, "/api/v1/cart/items", `{"quantity": 1}`, anonHeaders())

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeEnvelope(t, data)
	require.NotNil(t, e.Error)
}

func TestCart_AddItem_InvalidBody(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := doRequest(t, env, http.MethodPost, "/api/v1/cart/items", `{{`, anonHeaders())

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCart_UpdateQuantity(t *testing.T) {
	env := setupTestServer(t)

	addBody := `{"product": {"_id": "p1", "name": "Mug", "price": 500}, "quantity": 1}`
	doRequest(t, env, http.MethodPost, "/api/v1/cart/items", addBody, anonHeaders())

	resp, data := doRequest(t, env, http.MethodPut, "/api/v1/cart/items/p1", `{"quantity": 5}`, anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeCollection(t, data)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestCart_UpdateQuantity_ZeroRemoves(t *testing.T) {
	env := setupTestServer(t)

	addBody := `{"product": {"_id": "p1", "name": "Mug", "price": 500}, "quantity": 2}`
	doRequest(t, env, http.MethodPost, "/api/v1/cart/items", addBody, anonHeaders())

	resp, data := doRequest(t, env, http.MethodPut, "/api/v1/cart/items/p1", `{"quantity": 0}`, anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeCollection(t, data)
	assert.Empty(t, c.Items)
}

func TestCart_UpdateQuantity_AbsentItem(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := doRequest(t, env, http.MethodPut, "/api/v1/cart/items/missing", `{"quantity": 3}`, anonHeaders())

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCart_RemoveItem(t *testing.T) {
	env := setupTestServer(t)

	addBody := `{"product": {"_id": "p1", "name": "Mug", "price": 500}, "quantity": 1}`
	doRequest(t, env, http.MethodPost, "/api/v1/cart/items", addBody, anonHeaders())

	resp, data := doRequest(t, env, http.MethodDelete, "/api/v1/cart/items/p1", "", anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeCollection(t, data)
	assert.Empty(t, c.Items)
}

func TestCart_RemoveItem_Absent_NoError(t *testing.T) {
	env := setupTestServer(t)

	resp, _ := doRequest(t, env, http.MethodDelete, "/api/v1/cart/items/missing", "", anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCart_Clear(t *testing.T) {
	env := setupTestServer(t)

	addBody := `{"product": {"_id": "p1", "name": "Mug", "price": 500}, "quantity": 1}`
	doRequest(t, env, http.MethodPost, "/api/v1/cart/items", addBody, anonHeaders())

	resp, _ := doRequest(t, env, http.MethodDelete, "/api/v1/cart", "", anonHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, data := doRequest(t, env, http.MethodGet, "/api/v1/cart", "", anonHeaders())
	c := decodeCollection(t, data)
	assert.Empty(t, c.Items)
}

func TestCart_Total_SalePriceAware(t *testing.T) {
	env := setupTestServer(t)

	doRequest(t, env, http.MethodPost, "/api/v1/cart/items",
		`{"product": {"_id": "a", "name": "A", "price": 100, "sale_price": 90}, "quantity": 2}`, anonHeaders())
	doRequest(t, env, http.MethodPost, "/api/v1/cart/items",
		`{"product": {"_id": "b", "name": "B", "price": 100}, "quantity": 1}`, anonHeaders())

	resp, data := doRequest(t, env, http.MethodGet, "/api/v1/cart/total", "", anonHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	e := decodeEnvelope(t, data)
	var total map[string]int64
	require.NoError(t, json.Unmarshal(e.Data, &total))
	assert.Equal(t, int64(280), total["total_amount"])
}

func TestCart_SignedIn_UsesRemoteStore(t *testing.T) {
	env := setupTestServer(t)

	addBody := `{"product": {"_id": "p1", "name": "Mug", "price": 500}, "quantity": 1}`
	resp, _ := doRequest(t, env, http.MethodPost, "/api/v1/cart/items", addBody, signedInHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The item landed in the remote store keyed by user, not in the local sink.
	_, ok := env.remote.docs["cart:user-1"]
	assert.True(t, ok)
	_, ok = env.local.docs["cart:visitor-1"]
	assert.False(t, ok)
}
