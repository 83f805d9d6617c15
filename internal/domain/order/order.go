package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a customer order with its line items. TotalAmount is the
// sum of the items' subtotals fixed at creation time. ShippedDate and
// DeliveredDate are set once, on the first transition into the
// corresponding status, and never cleared.
type Order struct {
	ID              string
	CustomerID      string
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	Status          Status
	OrderDate       time.Time
	ShippedDate     *time.Time
	DeliveredDate   *time.Time
	ShippingAddress string
}

// OrderItem is a single line of an order. Price is a snapshot of the book's
// unit price at order time; later catalog price changes do not affect it.
// BookTitle and BookAuthor are read-model fields joined from the catalog
// for responses.
type OrderItem struct {
	ID         string
	BookID     string
	BookTitle  string
	BookAuthor string
	Quantity   int
	Price      decimal.Decimal
	Subtotal   decimal.Decimal
}

// Repository defines persistence operations for orders. Create persists the
// order together with all its items as one unit. UpdateStatus persists the
// status and timestamp fields of an existing order.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, o *Order) error
}
