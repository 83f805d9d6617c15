package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bookstore-api/internal/domain/order"
)

const orderColumns = `id, customer_id, total_amount, status, order_date, shipped_date, delivered_date, shipping_address`

const (
	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, book_id, quantity, price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY order_date DESC`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE customer_id = $1 ORDER BY order_date DESC`

	listOrdersByStatusSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 ORDER BY order_date DESC`

	// Items are joined with books so the read model carries title and author.
	listItemsByOrderIDsSQL = `SELECT i.id, i.order_id, i.book_id, b.title, b.author, i.quantity, i.price, i.subtotal
		FROM order_items i
		JOIN books b ON b.id = i.book_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, shipped_date = $3, delivered_date = $4
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order and all its line items as one unit. The item
// inserts are sent as a single batch. Callers are expected to run this
// inside a transaction scope together with the stock debits.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	db := dbFrom(ctx, r.pool)

	_, err := db.Exec(ctx, insertOrderSQL,
		o.ID, o.CustomerID, o.TotalAmount, string(o.Status),
		o.OrderDate, o.ShippedDate, o.DeliveredDate, o.ShippingAddress,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(insertOrderItemSQL, it.ID, o.ID, it.BookID, it.Quantity, it.Price, it.Subtotal)
	}

	results := db.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()
	for range o.Items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("creating items for order %q: %w", o.ID, err)
		}
	}

	return nil
}

// GetByID returns one order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns all orders, newest first, items included.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.queryOrders(ctx, "listing orders", listOrdersSQL)
}

// ListByCustomer returns a customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	return r.queryOrders(ctx, "listing orders by customer", listOrdersByCustomerSQL, customerID)
}

// ListByStatus returns all orders in the given status, newest first.
func (r *OrderRepository) ListByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	return r.queryOrders(ctx, "listing orders by status", listOrdersByStatusSQL, string(status))
}

// UpdateStatus persists the status and timestamp fields of an existing
// order. Items are immutable and never updated here.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	tag, err := dbFrom(ctx, r.pool).Exec(ctx, updateOrderStatusSQL,
		o.ID, string(o.Status), o.ShippedDate, o.DeliveredDate,
	)
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, op, sql string, args ...any) ([]order.Order, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads line items for all given orders in a single query and
// distributes them onto the owning orders.
func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = &orders[i]
	}

	rows, err := dbFrom(ctx, r.pool).Query(ctx, listItemsByOrderIDsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it      order.OrderItem
			orderID string
		)
		err := rows.Scan(&it.ID, &orderID, &it.BookID, &it.BookTitle, &it.BookAuthor,
			&it.Quantity, &it.Price, &it.Subtotal)
		if err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		if o, ok := index[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.TotalAmount, &status,
		&o.OrderDate, &o.ShippedDate, &o.DeliveredDate, &o.ShippingAddress,
	)
	o.Status = order.Status(status)
	return o, err
}
