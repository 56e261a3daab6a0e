package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartecommerce/storefront/internal/orders"
)

type memProduct struct {
	name  string
	price decimal.Decimal
	stock int
}

type memCartLine struct {
	productID string
	qty       int
}

type memState struct {
	products map[string]*memProduct
	carts    map[string][]memCartLine
	orders   map[string]*orders.Order
	shipping map[string]bool
}

// memUoW mirrors the pgx store's transactional behavior: Within works on a
// copy and commits it by swap, the mutex standing in for the row locks.
type memUoW struct {
	mu sync.Mutex
	st memState
}

func newMemUoW() *memUoW {
	return &memUoW{st: memState{
		products: map[string]*memProduct{},
		carts:    map[string][]memCartLine{},
		orders:   map[string]*orders.Order{},
		shipping: map[string]bool{},
	}}
}

func (m *memUoW) Within(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.st.clone()
	if err := fn(&memTx{st: &tx}); err != nil {
		return err
	}
	m.st = tx
	return nil
}

func (s memState) clone() memState {
	out := memState{
		products: make(map[string]*memProduct, len(s.products)),
		carts:    make(map[string][]memCartLine, len(s.carts)),
		orders:   make(map[string]*orders.Order, len(s.orders)),
		shipping: make(map[string]bool, len(s.shipping)),
	}
	for uid, ok := range s.shipping {
		out.shipping[uid] = ok
	}
	for id, p := range s.products {
		c := *p
		out.products[id] = &c
	}
	for uid, lines := range s.carts {
		out.carts[uid] = append([]memCartLine(nil), lines...)
	}
	for id, o := range s.orders {
		c := *o
		c.Lines = append([]orders.Line(nil), o.Lines...)
		out.orders[id] = &c
	}
	return out
}

type memTx struct{ st *memState }

func (t *memTx) HasShippingInfo(_ context.Context, userID string) (bool, error) {
	return t.st.shipping[userID], nil
}

func (t *memTx) CartForUpdate(_ context.Context, userID string) ([]CartLine, error) {
	var out []CartLine
	for _, l := range t.st.carts[userID] {
		p, ok := t.st.products[l.productID]
		if !ok {
			return nil, fmt.Errorf("product not found: %s", l.productID)
		}
		out = append(out, CartLine{
			ProductID:   l.productID,
			ProductName: p.name,
			Quantity:    l.qty,
			UnitPrice:   p.price,
			Available:   p.stock,
		})
	}
	return out, nil
}

func (t *memTx) InsertOrder(_ context.Context, o *orders.Order) error {
	t.st.orders[o.ID] = o
	return nil
}

func (t *memTx) DecrementStock(_ context.Context, productID string, qty int) error {
	p := t.st.products[productID]
	if p.stock < qty {
		return fmt.Errorf("stock decrement affected no rows for product %s", productID)
	}
	p.stock -= qty
	return nil
}

func (t *memTx) ClearCart(_ context.Context, userID string) error {
	delete(t.st.carts, userID)
	return nil
}

func seed(m *memUoW) {
	m.st.products["prod-a"] = &memProduct{name: "Product A", price: decimal.RequireFromString("10.00"), stock: 5}
	m.st.products["prod-b"] = &memProduct{name: "Product B", price: decimal.RequireFromString("5.00"), stock: 3}
	m.st.shipping["user-1"] = true
	m.st.shipping["user-2"] = true
}

func TestCreateOrderRequiresShippingInfo(t *testing.T) {
	m := newMemUoW()
	seed(m)
	m.st.carts["user-3"] = []memCartLine{{productID: "prod-a", qty: 1}}
	svc := NewService(m)

	_, err := svc.CreateOrder(context.Background(), "user-3")

	assert.ErrorIs(t, err, orders.ErrShippingInfoMissing)
	assert.Equal(t, 5, m.st.products["prod-a"].stock)
	assert.Len(t, m.st.carts["user-3"], 1)
	assert.Empty(t, m.st.orders)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	m := newMemUoW()
	seed(m)
	svc := NewService(m)

	_, err := svc.CreateOrder(context.Background(), "user-1")

	assert.ErrorIs(t, err, orders.ErrEmptyCart)
	assert.Empty(t, m.st.orders)
}

func TestCreateOrderSnapshotsTotalsAndClearsCart(t *testing.T) {
	m := newMemUoW()
	seed(m)
	m.st.carts["user-1"] = []memCartLine{
		{productID: "prod-a", qty: 2},
		{productID: "prod-b", qty: 1},
	}
	svc := NewService(m)

	o, err := svc.CreateOrder(context.Background(), "user-1")
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("25.00")),
		"total = %s", o.TotalAmount)
	assert.Equal(t, orders.StatusPlaced, o.Status)
	assert.Equal(t, orders.PaymentCashOnDelivery, o.PaymentMethod)
	require.NotNil(t, o.UserID)
	assert.Equal(t, "user-1", *o.UserID)
	require.Len(t, o.Lines, 2)

	// line totals add up to the order total
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	assert.True(t, sum.Equal(o.TotalAmount))

	assert.Equal(t, 3, m.st.products["prod-a"].stock)
	assert.Equal(t, 2, m.st.products["prod-b"].stock)
	assert.Empty(t, m.st.carts["user-1"])
	require.Contains(t, m.st.orders, o.ID)
}

func TestCreateOrderInsufficientStockIsAllOrNothing(t *testing.T) {
	m := newMemUoW()
	seed(m)
	m.st.carts["user-1"] = []memCartLine{
		{productID: "prod-a", qty: 2},
		{productID: "prod-b", qty: 4}, // only 3 available
	}
	svc := NewService(m)

	_, err := svc.CreateOrder(context.Background(), "user-1")

	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Product B", stockErr.Product)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	// nothing moved
	assert.Equal(t, 5, m.st.products["prod-a"].stock)
	assert.Equal(t, 3, m.st.products["prod-b"].stock)
	assert.Len(t, m.st.carts["user-1"], 2)
	assert.Empty(t, m.st.orders)
}

func TestUnitPriceIsSnapshottedAtCheckout(t *testing.T) {
	m := newMemUoW()
	seed(m)
	m.st.carts["user-1"] = []memCartLine{{productID: "prod-a", qty: 1}}
	svc := NewService(m)

	o, err := svc.CreateOrder(context.Background(), "user-1")
	require.NoError(t, err)

	// price change after checkout must not touch the recorded order
	m.st.products["prod-a"].price = decimal.RequireFromString("99.99")

	stored := m.st.orders[o.ID]
	assert.True(t, stored.Lines[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("10.00")))

	// a later checkout pays the new price
	m.st.carts["user-2"] = []memCartLine{{productID: "prod-a", qty: 1}}
	o2, err := svc.CreateOrder(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, o2.TotalAmount.Equal(decimal.RequireFromString("99.99")))
}

func TestConcurrentCheckoutOfLastUnit(t *testing.T) {
	m := newMemUoW()
	m.st.products["prod-x"] = &memProduct{name: "Last Unit", price: decimal.RequireFromString("42.00"), stock: 1}
	m.st.carts["user-1"] = []memCartLine{{productID: "prod-x", qty: 1}}
	m.st.carts["user-2"] = []memCartLine{{productID: "prod-x", qty: 1}}
	m.st.shipping["user-1"] = true
	m.st.shipping["user-2"] = true
	svc := NewService(m)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{"user-1", "user-2"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(context.Background(), uid)
		}(i, uid)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		var stockErr *orders.InsufficientStockError
		assert.ErrorAs(t, err, &stockErr)
		rejected++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, m.st.products["prod-x"].stock)
	assert.Len(t, m.st.orders, 1)
}
