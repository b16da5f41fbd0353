// Package cart maintains the client-local shopping cart. The cart is a
// list of product lines persisted in the local store under the "cart" key;
// every read normalizes whatever is on disk into the canonical shape and
// every mutation writes the full list back.
package cart

import (
	"encoding/json"
	"strconv"
	"strings"

	"storefront/internal/money"
	"storefront/internal/storage"
	"storefront/internal/types"
)

// Item is one cart line: a product reference with its unit price and
// quantity. Quantity is always at least 1; a line whose quantity would
// reach zero is removed instead.
type Item struct {
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Price       money.Money `json:"price"`
	Quantity    int         `json:"quantity"`
}

// rawItem accepts both persisted shapes: the canonical nested price and
// the legacy flat price_minor/currency pair. Quantity may arrive as a
// JSON number or a numeric string.
type rawItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       *money.Money    `json:"price"`
	PriceMinor  *int64          `json:"price_minor"`
	Currency    string          `json:"currency"`
	Quantity    json.RawMessage `json:"quantity"`
}

// Normalize coerces a loosely-typed persisted list into canonical items.
// Defaults per missing field: currency "USD", quantity 1. Input that does
// not parse at all yields an empty cart, never an error.
func Normalize(data []byte) []Item {
	if len(data) == 0 {
		return []Item{}
	}
	var raw []rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return []Item{}
	}
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.normalize())
	}
	return items
}

func (r rawItem) normalize() Item {
	item := Item{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    coerceQuantity(r.Quantity),
	}
	switch {
	case r.Price != nil:
		item.Price = *r.Price
	case r.PriceMinor != nil:
		item.Price = money.Money{Amount: *r.PriceMinor, Currency: r.Currency}
	}
	if item.Price.Currency == "" {
		if r.Currency != "" {
			item.Price.Currency = r.Currency
		} else {
			item.Price.Currency = "USD"
		}
	}
	return item
}

func coerceQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 1 {
			return 1
		}
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 1 {
			return n
		}
	}
	return 1
}

// Manager binds cart operations to an injected store.
type Manager struct {
	store storage.Store
}

// NewManager returns a cart manager over the given store.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// Items loads the persisted cart, normalizing legacy shapes. Absent or
// unparseable storage is an empty cart. The normalized list is written
// back so legacy entries are upgraded in place on first load.
func (m *Manager) Items() []Item {
	data, err := m.store.Get(storage.KeyCart)
	if err != nil {
		return []Item{}
	}
	items := Normalize(data)
	_ = m.save(items)
	return items
}

// Add upserts a product into the cart: an existing line's quantity grows
// by delta (never dropping below 1), a new line is appended with
// quantity max(delta, 1). Returns the updated cart.
func (m *Manager) Add(p types.Product, delta int) ([]Item, error) {
	items := m.Items()
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity += delta
			if items[i].Quantity < 1 {
				items[i].Quantity = 1
			}
			return items, m.save(items)
		}
	}
	if delta < 1 {
		delta = 1
	}
	items = append(items, Item{
		ProductID:   p.ID,
		ProductName: p.Name,
		Price:       p.Price,
		Quantity:    delta,
	})
	return items, m.save(items)
}

// SetQuantity replaces a line's quantity; zero or negative removes the
// line entirely.
func (m *Manager) SetQuantity(productID string, qty int) ([]Item, error) {
	if qty <= 0 {
		return m.Remove(productID)
	}
	items := m.Items()
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			break
		}
	}
	return items, m.save(items)
}

// Remove deletes the matching line. Removing an absent product is a no-op.
func (m *Manager) Remove(productID string) ([]Item, error) {
	items := m.Items()
	kept := items[:0]
	for _, it := range items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	return kept, m.save(kept)
}

// Clear empties the persisted cart.
func (m *Manager) Clear() error {
	return m.store.Delete(storage.KeyCart)
}

func (m *Manager) save(items []Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return m.store.Set(storage.KeyCart, data)
}

func lines(items []Item) []money.Line {
	out := make([]money.Line, 0, len(items))
	for _, it := range items {
		out = append(out, money.Line{
			AmountMinor: it.Price.Amount * int64(it.Quantity),
			Currency:    it.Price.Currency,
		})
	}
	return out
}

// Total sums per-line amounts (unit price times quantity). Mixed
// currencies follow the first line's label; see money.Sum.
func Total(items []Item) money.Line {
	return money.Sum(lines(items))
}

// TotalStrict is Total but fails on mixed currencies. Checkout uses it so
// a mislabeled total can never reach an order request.
func TotalStrict(items []Item) (money.Line, error) {
	return money.SumStrict(lines(items))
}
