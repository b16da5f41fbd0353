package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/money"
	"storefront/internal/types"
)

// staticTokens is a TokenSource with a scripted refresh.
type staticTokens struct {
	access    atomic.Value
	refreshed atomic.Int32
	next      string
	fail      error
}

func newStaticTokens(access, next string) *staticTokens {
	s := &staticTokens{next: next}
	s.access.Store(access)
	return s
}

func (s *staticTokens) Access() string { return s.access.Load().(string) }

func (s *staticTokens) Refresh(context.Context) (string, error) {
	s.refreshed.Add(1)
	if s.fail != nil {
		return "", s.fail
	}
	s.access.Store(s.next)
	return s.next, nil
}

func TestProductsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/inventory/products", r.URL.Path)
		assert.Equal(t, "c1", r.URL.Query().Get("category_id"))
		assert.Equal(t, "mug", r.URL.Query().Get("search"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"products": []types.Product{
					{ID: "p1", Name: "Mug", Price: money.Money{Amount: 500, Currency: "USD"}},
				},
			},
			"message": "Products retrieved successfully",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(srv.Client())

	products, err := c.Products(context.Background(), ProductQuery{CategoryID: "c1", Search: "mug"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
	assert.Equal(t, int64(500), products[0].Price.Amount)
}

// failOnceTransport fails the first round trip and delegates afterwards.
type failOnceTransport struct {
	failed atomic.Bool
	next   http.RoundTripper
}

func (f *failOnceTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if f.failed.CompareAndSwap(false, true) {
		return nil, errors.New("connection reset")
	}
	return f.next.RoundTrip(r)
}

func TestProductsRetriesOnceOnTransportFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"products": []types.Product{{ID: "p1"}}}})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(&http.Client{Transport: &failOnceTransport{next: http.DefaultTransport}})

	products, err := c.Products(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestProductsDoesNotRetryHTTPErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad category"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(srv.Client())

	_, err := c.Products(context.Background(), ProductQuery{})
	require.Error(t, err)
	assert.Equal(t, "bad category", err.Error())
	assert.Equal(t, int32(1), hits.Load())
}

func TestOrdersEmptyStates(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"404 is an empty list", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"204 is an empty list", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}},
		{"empty body is an empty list", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, nil, nil)
			c.SetHTTPClient(srv.Client())

			orders, err := c.Orders(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, orders)
			assert.Empty(t, orders)
		})
	}
}

func TestOrdersDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orders": []types.Order{{ID: "o1", Status: types.OrderStatusPending}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, newStaticTokens("acc-1", ""), nil)
	c.SetHTTPClient(srv.Client())

	orders, err := c.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].Cancellable())
}

func TestRefreshAndReplayOn401(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer acc-2" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"orders": []types.Order{{ID: "o1"}}})
	}))
	defer srv.Close()

	tokens := newStaticTokens("acc-1", "acc-2")
	c := New(srv.URL, tokens, nil)
	c.SetHTTPClient(srv.Client())

	orders, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int32(1), tokens.refreshed.Load())
	assert.Equal(t, int32(2), hits.Load(), "original request replayed exactly once")
}

func TestRefreshFailureFailsTheCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := newStaticTokens("acc-1", "")
	tokens.fail = errors.New("refresh revoked")
	c := New(srv.URL, tokens, nil)
	c.SetHTTPClient(srv.Client())

	_, err := c.Orders(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "authentication expired")
}

func TestCreateOrderDecodesBareBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req types.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req.Items[0].ProductID)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.Order{ID: "o9", Status: types.OrderStatusPending})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(srv.Client())

	order, err := c.CreateOrder(context.Background(), types.CreateOrderRequest{
		Items: []types.CreateOrderItem{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "o9", order.ID)
}

func TestCancelOrderSurfacesBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/v1/orders/o1/cancel", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "order already shipped"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(srv.Client())

	_, err := c.CancelOrder(context.Background(), "o1")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "order already shipped", err.Error())
}

func TestErrorWithoutBodyGetsGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(srv.Client())

	_, err := c.Product(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, "request failed with status 502", err.Error())
}

func TestCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active_only"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"categories": []types.Category{{ID: "c1", Name: "Mugs"}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	c.SetHTTPClient(srv.Client())

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Mugs", cats[0].Name)
}
