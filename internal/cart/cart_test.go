package cart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/money"
	"storefront/internal/storage"
	"storefront/internal/types"
)

func product(id, name string, amount int64, currency string) types.Product {
	return types.Product{
		ID:    id,
		Name:  name,
		Price: money.Money{Amount: amount, Currency: currency},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Item
	}{
		{
			name: "canonical shape passes through",
			data: `[{"product_id":"p1","product_name":"Mug","price":{"amount":500,"currency":"EUR"},"quantity":2}]`,
			want: []Item{{ProductID: "p1", ProductName: "Mug", Price: money.Money{Amount: 500, Currency: "EUR"}, Quantity: 2}},
		},
		{
			name: "legacy flat shape with string quantity",
			data: `[{"product_id":"p1","product_name":"Mug","price_minor":500,"currency":"EUR","quantity":"2"}]`,
			want: []Item{{ProductID: "p1", ProductName: "Mug", Price: money.Money{Amount: 500, Currency: "EUR"}, Quantity: 2}},
		},
		{
			name: "missing currency defaults to USD",
			data: `[{"product_id":"p1","price_minor":500}]`,
			want: []Item{{ProductID: "p1", Price: money.Money{Amount: 500, Currency: "USD"}, Quantity: 1}},
		},
		{
			name: "missing quantity defaults to 1",
			data: `[{"product_id":"p1","price":{"amount":100,"currency":"USD"}}]`,
			want: []Item{{ProductID: "p1", Price: money.Money{Amount: 100, Currency: "USD"}, Quantity: 1}},
		},
		{
			name: "non-numeric quantity defaults to 1",
			data: `[{"product_id":"p1","price":{"amount":100,"currency":"USD"},"quantity":"lots"}]`,
			want: []Item{{ProductID: "p1", Price: money.Money{Amount: 100, Currency: "USD"}, Quantity: 1}},
		},
		{
			name: "nested price wins over flat fields",
			data: `[{"product_id":"p1","price":{"amount":100,"currency":"GBP"},"price_minor":999,"currency":"EUR"}]`,
			want: []Item{{ProductID: "p1", Price: money.Money{Amount: 100, Currency: "GBP"}, Quantity: 1}},
		},
		{
			name: "missing price is zero with USD",
			data: `[{"product_id":"p1"}]`,
			want: []Item{{ProductID: "p1", Price: money.Money{Currency: "USD"}, Quantity: 1}},
		},
		{
			name: "corrupt payload yields empty cart",
			data: `{not json`,
			want: []Item{},
		},
		{
			name: "empty payload yields empty cart",
			data: ``,
			want: []Item{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.data))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestItemsOnMissingStorage(t *testing.T) {
	m := NewManager(storage.NewMemStore())
	assert.Empty(t, m.Items())
}

func TestItemsUpgradesLegacyEntriesInPlace(t *testing.T) {
	store := storage.NewMemStore()
	require.NoError(t, store.Set(storage.KeyCart,
		[]byte(`[{"product_id":"p1","price_minor":500,"currency":"EUR","quantity":"2"}]`)))

	m := NewManager(store)
	m.Items()

	data, err := store.Get(storage.KeyCart)
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"product_id":"p1","product_name":"","price":{"amount":500,"currency":"EUR"},"quantity":2}]`,
		string(data))
}

func TestAddUpsertsByProductID(t *testing.T) {
	m := NewManager(storage.NewMemStore())

	items, err := m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	items, err = m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)
	require.Len(t, items, 1, "same product must not duplicate the line")
	assert.Equal(t, 2, items[0].Quantity)

	items, err = m.Add(product("b", "Gadget", 500, "USD"), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestAddNeverDropsBelowOne(t *testing.T) {
	m := NewManager(storage.NewMemStore())

	_, err := m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)

	items, err := m.Add(product("a", "Widget", 1999, "USD"), -5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	// New lines clamp too.
	items, err = m.Add(product("b", "Gadget", 500, "USD"), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestSetQuantity(t *testing.T) {
	m := NewManager(storage.NewMemStore())
	_, err := m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)

	items, err := m.SetQuantity("a", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	items, err = m.SetQuantity("a", 0)
	require.NoError(t, err)
	assert.Empty(t, items, "zero quantity removes the line")

	_, err = m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)
	items, err = m.SetQuantity("a", -1)
	require.NoError(t, err)
	assert.Empty(t, items, "negative quantity removes the line")
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	m := NewManager(storage.NewMemStore())
	_, err := m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)

	items, err := m.Remove("missing")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestEndToEndTotal(t *testing.T) {
	store := storage.NewMemStore()
	m := NewManager(store)

	_, err := m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)
	_, err = m.Add(product("a", "Widget", 1999, "USD"), 1)
	require.NoError(t, err)
	items, err := m.Add(product("b", "Gadget", 500, "USD"), 1)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, money.Line{AmountMinor: 4498, Currency: "USD"}, Total(items))

	strict, err := TotalStrict(items)
	require.NoError(t, err)
	assert.Equal(t, money.Line{AmountMinor: 4498, Currency: "USD"}, strict)

	// The full list survives a reload through storage.
	fresh := NewManager(store).Items()
	assert.Equal(t, money.Line{AmountMinor: 4498, Currency: "USD"}, Total(fresh))
}

func TestTotalStrictRejectsMixedCurrencies(t *testing.T) {
	m := NewManager(storage.NewMemStore())
	_, err := m.Add(product("a", "Widget", 100, "USD"), 1)
	require.NoError(t, err)
	items, err := m.Add(product("b", "Gadget", 200, "EUR"), 1)
	require.NoError(t, err)

	_, err = TotalStrict(items)
	assert.ErrorIs(t, err, money.ErrMixedCurrency)

	// The permissive total keeps the documented first-label behavior.
	assert.Equal(t, money.Line{AmountMinor: 300, Currency: "USD"}, Total(items))
}

func TestClear(t *testing.T) {
	store := storage.NewMemStore()
	m := NewManager(store)
	_, err := m.Add(product("a", "Widget", 100, "USD"), 1)
	require.NoError(t, err)

	require.NoError(t, m.Clear())
	assert.Empty(t, m.Items())
}
