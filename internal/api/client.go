// Package api is the REST client for the remote storefront gateway. It
// owns request construction, the response envelope, bearer auth, and the
// single 401 refresh-and-replay; it never interprets domain data beyond
// decoding it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/types"
)

// TokenSource supplies bearer tokens. Access returns the current token
// (empty when anonymous); Refresh performs one single-flight token refresh
// and returns the replacement. auth.Manager implements it.
type TokenSource interface {
	Access() string
	Refresh(ctx context.Context) (string, error)
}

// APIError is a non-2xx response. Message carries the server's structured
// error verbatim when one was sent.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client talks to the gateway. The zero value is not usable; construct
// with New.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    *zap.Logger
}

// New builds a client. base is the server root without the version prefix,
// e.g. "http://localhost:8080"; the /api/v1 prefix is appended here.
// tokens may be nil for a purely anonymous client.
func New(base string, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimRight(base, "/") + "/api/v1",
		http:   &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
		log:    log,
	}
}

// BaseURL returns the versioned API root the client was built with.
func (c *Client) BaseURL() string { return c.base }

// SetHTTPClient overrides the transport, mainly for tests and timeouts.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// envelope is the gateway's standard response wrapper. Some endpoints
// (order creation, order listing) respond without it, so Data absent is
// not an error.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// do executes a request, decoding a successful body into out (when out is
// non-nil). Enveloped bodies unwrap to their data payload; bare bodies
// decode directly. On 401 with a token source the request is replayed once
// after a refresh. The returned status is valid whenever err is nil or an
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, err
		}
	}

	status, raw, err := c.attempt(ctx, method, path, query, payload)
	if err != nil {
		return status, err
	}

	if status == http.StatusUnauthorized && c.tokens != nil && c.tokens.Access() != "" {
		c.log.Debug("401 response, refreshing token", zap.String("path", path))
		if _, rerr := c.tokens.Refresh(ctx); rerr != nil {
			return status, fmt.Errorf("authentication expired: %w", rerr)
		}
		status, raw, err = c.attempt(ctx, method, path, query, payload)
		if err != nil {
			return status, err
		}
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if status < 200 || status > 299 {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return status, &APIError{Status: status, Message: msg}
	}

	if out != nil && status != http.StatusNoContent {
		data := raw
		if len(env.Data) > 0 && string(env.Data) != "null" {
			data = env.Data
		}
		if err := json.Unmarshal(data, out); err != nil {
			return status, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return status, nil
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if tok := c.tokens.Access(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

// ProductQuery narrows a product listing.
type ProductQuery struct {
	CategoryID string
	Search     string
}

// Products lists catalog products. Transport failures get one automatic
// retry; HTTP errors do not.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]types.Product, error) {
	query := url.Values{}
	if q.CategoryID != "" {
		query.Set("category_id", q.CategoryID)
	}
	if q.Search != "" {
		query.Set("search", q.Search)
	}

	var out struct {
		Products []types.Product `json:"products"`
	}
	_, err := c.do(ctx, http.MethodGet, "/inventory/products", query, nil, &out)
	var apiErr *APIError
	if err != nil && !errors.As(err, &apiErr) {
		c.log.Debug("product listing failed, retrying once", zap.Error(err))
		_, err = c.do(ctx, http.MethodGet, "/inventory/products", query, nil, &out)
	}
	if err != nil {
		return nil, err
	}
	return out.Products, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id string) (types.Product, error) {
	var out types.Product
	_, err := c.do(ctx, http.MethodGet, "/inventory/products/"+id, nil, nil, &out)
	return out, err
}

// Categories lists active categories. Callers treat failure as non-fatal:
// product browsing continues without category filters.
func (c *Client) Categories(ctx context.Context) ([]types.Category, error) {
	query := url.Values{"active_only": {"true"}}
	var out struct {
		Categories []types.Category `json:"categories"`
	}
	_, err := c.do(ctx, http.MethodGet, "/inventory/categories", query, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// CreateOrder submits an order-creation request and returns the created
// order.
func (c *Client) CreateOrder(ctx context.Context, req types.CreateOrderRequest) (types.Order, error) {
	var out types.Order
	_, err := c.do(ctx, http.MethodPost, "/orders", nil, req, &out)
	return out, err
}

// Orders lists the user's orders. 204 and 404 both mean "no orders yet"
// and yield an empty list, not an error.
func (c *Client) Orders(ctx context.Context) ([]types.Order, error) {
	var out struct {
		Orders []types.Order `json:"orders"`
	}
	status, err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return []types.Order{}, nil
		}
		return nil, err
	}
	if status == http.StatusNoContent || out.Orders == nil {
		return []types.Order{}, nil
	}
	return out.Orders, nil
}

// CancelOrder requests cancellation of an order. Only PENDING orders
// cancel; anything else is rejected server-side and surfaced verbatim.
func (c *Client) CancelOrder(ctx context.Context, id string) (types.Order, error) {
	var out types.Order
	_, err := c.do(ctx, http.MethodPut, "/orders/"+id+"/cancel", nil, nil, &out)
	return out, err
}
