// Package checkout turns the local cart plus shipping and payment input
// into an order-creation request and drives the submit flow: on success
// the persisted cart is cleared, on failure it is left untouched so the
// user can retry.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/types"
)

// State is the client-observed cart-to-order state. The true order
// lifecycle (PENDING through DELIVERED/CANCELLED) is owned by the remote
// order service and only ever read.
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateSubmitting
	StateCleared
)

func (s State) String() string {
	switch s {
	case StatePopulated:
		return "populated"
	case StateSubmitting:
		return "submitting"
	case StateCleared:
		return "cleared"
	default:
		return "empty"
	}
}

// ErrEmptyCart reports a submit attempt with nothing in the cart.
var ErrEmptyCart = errors.New("cart is empty")

// FieldErrors maps form field names to their validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "invalid checkout form: " + strings.Join(parts, "; ")
}

// Form is the checkout input collected from the user.
type Form struct {
	ShippingAddress string
	PaymentMethod   string
	Payment         types.PaymentDetails
}

// Validate checks the shipping and payment fields before submission.
func (f Form) Validate() error {
	errs := FieldErrors{}
	if len(strings.TrimSpace(f.ShippingAddress)) < 5 {
		errs["shipping_address"] = "enter a full address"
	}
	if len(strings.TrimSpace(f.Payment.CardHolder)) < 2 {
		errs["card_holder"] = "enter the card holder name"
	}
	if len(strings.TrimSpace(f.Payment.CardNumber)) < 12 {
		errs["card_number"] = "card number too short"
	}
	if len(strings.TrimSpace(f.Payment.ExpiryMonth)) < 2 {
		errs["expiry_month"] = "use MM"
	}
	if len(strings.TrimSpace(f.Payment.ExpiryYear)) < 2 {
		errs["expiry_year"] = "use YY"
	}
	if len(strings.TrimSpace(f.Payment.CVV)) < 3 {
		errs["cvv"] = "cvv too short"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BuildRequest maps cart lines to product references and attaches the
// form fields verbatim. Only product id and quantity travel: the server
// recomputes authoritative pricing, so the client's cart prices are never
// trusted for the charge. userID comes from the authenticated session.
func BuildRequest(items []cart.Item, form Form, userID string) (types.CreateOrderRequest, error) {
	if len(items) == 0 {
		return types.CreateOrderRequest{}, ErrEmptyCart
	}
	if err := form.Validate(); err != nil {
		return types.CreateOrderRequest{}, err
	}
	// A mislabeled mixed-currency total must never back an order.
	if _, err := cart.TotalStrict(items); err != nil {
		return types.CreateOrderRequest{}, err
	}

	lines := make([]types.CreateOrderItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, types.CreateOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return types.CreateOrderRequest{
		UserID:          userID,
		Items:           lines,
		ShippingAddress: form.ShippingAddress,
		PaymentMethod:   form.PaymentMethod,
		PaymentDetails:  form.Payment,
	}, nil
}

// OrderPlacer is the slice of the API client checkout needs.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, req types.CreateOrderRequest) (types.Order, error)
}

// Checkout drives a single submit flow over the cart manager.
type Checkout struct {
	orders OrderPlacer
	cart   *cart.Manager
	log    *zap.Logger
	state  State
}

// New builds a checkout over the given order endpoint and cart.
func New(orders OrderPlacer, cartMgr *cart.Manager, log *zap.Logger) *Checkout {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Checkout{orders: orders, cart: cartMgr, log: log, state: StateEmpty}
	if len(cartMgr.Items()) > 0 {
		c.state = StatePopulated
	}
	return c
}

// State returns the client-observed submit state.
func (c *Checkout) State() State { return c.state }

// Submit validates, builds, and sends the order. On success the persisted
// cart is cleared; on any failure the cart stays as it was and the error
// carries the server's message verbatim.
func (c *Checkout) Submit(ctx context.Context, form Form, userID string) (types.Order, error) {
	items := c.cart.Items()
	if len(items) == 0 {
		c.state = StateEmpty
		return types.Order{}, ErrEmptyCart
	}
	c.state = StatePopulated

	req, err := BuildRequest(items, form, userID)
	if err != nil {
		return types.Order{}, err
	}

	c.state = StateSubmitting
	order, err := c.orders.CreateOrder(ctx, req)
	if err != nil {
		c.state = StatePopulated
		return types.Order{}, err
	}

	if err := c.cart.Clear(); err != nil {
		// The order exists server-side; a stale local cart is the lesser
		// problem, but the caller should know.
		c.state = StateCleared
		return order, fmt.Errorf("order placed but clearing local cart failed: %w", err)
	}
	c.state = StateCleared
	c.log.Debug("order placed", zap.String("order_id", order.ID))
	return order, nil
}
