package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bookstore-api/internal/domain/book"
	"github.com/xenking/bookstore-api/internal/domain/customer"
)

// --- Mock implementations ---

type mockBookStore struct {
	byID map[string]*book.Book
}

func (m *mockBookStore) GetForUpdate(_ context.Context, id string) (*book.Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	return b, nil
}

func (m *mockBookStore) AdjustStock(_ context.Context, id string, delta int) (*book.Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	if b.StockQuantity+delta < 0 {
		return nil, &book.InsufficientStockError{
			Title:     b.Title,
			Requested: -delta,
			Available: b.StockQuantity,
		}
	}
	b.StockQuantity += delta
	cp := *b
	return &cp, nil
}

func (m *mockBookStore) snapshotStock() map[string]int {
	snap := make(map[string]int, len(m.byID))
	for id, b := range m.byID {
		snap[id] = b.StockQuantity
	}
	return snap
}

func (m *mockBookStore) restoreStock(snap map[string]int) {
	for id, qty := range snap {
		m.byID[id].StockQuantity = qty
	}
}

type mockCustomerStore struct {
	byID map[string]*customer.Customer
}

func (m *mockCustomerStore) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

type mockOrderRepo struct {
	byID      map[string]*Order
	created   []*Order
	updateErr error
}

func newMockOrderRepo(orders ...*Order) *mockOrderRepo {
	byID := make(map[string]*Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrderRepo{byID: byID}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.byID[o.ID] = o
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error)             { return nil, nil }
func (m *mockOrderRepo) ListByCustomer(context.Context, string) ([]Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) ListByStatus(context.Context, Status) ([]Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, o *Order) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.byID[o.ID] = o
	return nil
}

// mockTx emulates transaction semantics on the in-memory stores: when fn
// fails, every stock mutation made inside the scope is rolled back.
type mockTx struct {
	books *mockBookStore
}

func (m *mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.books.snapshotStock()
	if err := fn(ctx); err != nil {
		m.books.restoreStock(snap)
		return err
	}
	return nil
}

// --- Helpers ---

func newTestBook(id, title string, price string, stock int) *book.Book {
	return &book.Book{
		ID:            id,
		Title:         title,
		Author:        "Test Author",
		ISBN:          "isbn-" + id,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

type fixture struct {
	books     *mockBookStore
	customers *mockCustomerStore
	orders    *mockOrderRepo
	svc       *Service
}

func newFixture(books ...*book.Book) *fixture {
	byID := make(map[string]*book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	bs := &mockBookStore{byID: byID}
	cs := &mockCustomerStore{byID: map[string]*customer.Customer{
		"c1": {ID: "c1", FirstName: "John", LastName: "Doe", Email: "john@example.com", Address: "123 Main St"},
	}}
	repo := newMockOrderRepo()

	f := &fixture{books: bs, customers: cs, orders: repo}
	f.svc = NewService(bs, cs, repo, &mockTx{books: bs})
	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

// --- Create ---

func TestCreate_EmptyItems(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateRequest{CustomerID: "c1"})
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items:      []CreateItem{{BookID: "b1", Quantity: 0}},
	})

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "b1", iqErr.BookID)
}

func TestCreate_CustomerNotFound(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "missing",
		Items:      []CreateItem{{BookID: "b1", Quantity: 1}},
	})

	require.ErrorIs(t, err, customer.ErrNotFound)
	assert.Empty(t, f.orders.created)
}

func TestCreate_BookNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items:      []CreateItem{{BookID: "missing", Quantity: 1}},
	})

	require.ErrorIs(t, err, book.ErrNotFound)
}

func TestCreate_DebitsStockAndTotals(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))

	o, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items:      []CreateItem{{BookID: "b1", Quantity: 3}},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15.00").Equal(o.TotalAmount))
	assert.Equal(t, 7, f.books.byID["b1"].StockQuantity)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "c1", o.CustomerID)
	assert.Equal(t, "123 Main St", o.ShippingAddress)
	assert.False(t, o.OrderDate.IsZero())

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, "b1", item.BookID)
	assert.Equal(t, "Dune", item.BookTitle)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, decimal.RequireFromString("5.00").Equal(item.Price))
	assert.True(t, decimal.RequireFromString("15.00").Equal(item.Subtotal))
}

func TestCreate_MultipleItems(t *testing.T) {
	f := newFixture(
		newTestBook("b1", "Dune", "10.00", 5),
		newTestBook("b2", "Neuromancer", "20.00", 5),
	)

	o, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items: []CreateItem{
			{BookID: "b1", Quantity: 2},
			{BookID: "b2", Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("40.00").Equal(o.TotalAmount))
	assert.Equal(t, 3, f.books.byID["b1"].StockQuantity)
	assert.Equal(t, 4, f.books.byID["b2"].StockQuantity)
}

func TestCreate_ExplicitShippingAddress(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))

	o, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:      "c1",
		ShippingAddress: "1 Elsewhere Rd",
		Items:           []CreateItem{{BookID: "b1", Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, "1 Elsewhere Rd", o.ShippingAddress)
}

func TestCreate_InsufficientStock(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 7))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items:      []CreateItem{{BookID: "b1", Quantity: 8}},
	})

	var stockErr *book.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Dune", stockErr.Title)
	assert.Equal(t, 8, stockErr.Requested)
	assert.Equal(t, 7, stockErr.Available)

	assert.Equal(t, 7, f.books.byID["b1"].StockQuantity)
	assert.Empty(t, f.orders.created)
}

func TestCreate_PartialFailureRollsBackDebits(t *testing.T) {
	f := newFixture(
		newTestBook("b1", "Dune", "10.00", 5),
		newTestBook("b2", "Neuromancer", "20.00", 1),
	)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items: []CreateItem{
			{BookID: "b1", Quantity: 2},
			{BookID: "b2", Quantity: 3},
		},
	})

	var stockErr *book.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	// The first item's debit must not survive the failed second item.
	assert.Equal(t, 5, f.books.byID["b1"].StockQuantity)
	assert.Equal(t, 1, f.books.byID["b2"].StockQuantity)
	assert.Empty(t, f.orders.created)
}

// --- UpdateStatus ---

func placedOrder(t *testing.T, f *fixture, items ...CreateItem) *Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: "c1",
		Items:      items,
	})
	require.NoError(t, err)
	return o
}

func TestUpdateStatus_ForwardStep(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.Nil(t, updated.ShippedDate)
}

func TestUpdateStatus_ForwardJumpStampsShippedDate(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	require.NotNil(t, updated.ShippedDate)
	assert.Nil(t, updated.DeliveredDate)
}

func TestUpdateStatus_RepeatKeepsFirstStamp(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	first, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	require.NoError(t, err)
	require.NotNil(t, first.ShippedDate)

	f.svc.now = func() time.Time {
		return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	}
	second, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, second.Status)
	assert.True(t, first.ShippedDate.Equal(*second.ShippedDate))
}

func TestUpdateStatus_DeliveredStampsDate(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredDate)
}

func TestUpdateStatus_BackwardRejected(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, StatusPending)
	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StatusShipped, trErr.From)
	assert.Equal(t, StatusPending, trErr.To)
}

func TestUpdateStatus_TerminalRejected(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusDelivered)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
}

func TestUpdateStatus_CancelledTargetRejected(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 1})

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrCancelViaUpdate)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.UpdateStatus(context.Background(), "missing", StatusConfirmed)
	require.ErrorIs(t, err, ErrNotFound)
}

// --- Cancel ---

func TestCancel_RestoresStock(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 3})
	require.Equal(t, 7, f.books.byID["b1"].StockQuantity)

	cancelled, err := f.svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.books.byID["b1"].StockQuantity)
}

func TestCancel_ShippedOrder(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 2})

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusShipped)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.books.byID["b1"].StockQuantity)
}

func TestCancel_DeliveredRejected(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 3})

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusDelivered)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrCancelDelivered)
	assert.Equal(t, 7, f.books.byID["b1"].StockQuantity)
}

func TestCancel_TwiceRejected(t *testing.T) {
	f := newFixture(newTestBook("b1", "Dune", "5.00", 10))
	o := placedOrder(t, f, CreateItem{BookID: "b1", Quantity: 3})

	_, err := f.svc.Cancel(context.Background(), o.ID)
	require.NoError(t, err)
	require.Equal(t, 10, f.books.byID["b1"].StockQuantity)

	_, err = f.svc.Cancel(context.Background(), o.ID)
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	// Stock must not be credited a second time.
	assert.Equal(t, 10, f.books.byID["b1"].StockQuantity)
}

func TestCancel_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Cancel(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
