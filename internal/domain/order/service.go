package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/bookstore-api/internal/domain/book"
	"github.com/xenking/bookstore-api/internal/domain/customer"
)

// Sentinel errors for order processing.
var (
	ErrNotFound         = errors.New("order not found")
	ErrEmptyItems       = errors.New("order items required")
	ErrCancelDelivered  = errors.New("cannot cancel a delivered order")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrCancelViaUpdate  = errors.New("orders are cancelled through the cancel operation, not a status update")
)

// InvalidQuantityError indicates a line item has a quantity below one.
type InvalidQuantityError struct {
	BookID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for book %s", e.BookID)
}

// InvalidTransitionError indicates a status update the lifecycle does not
// allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// Transactor runs fn inside a single transaction scope. Every repository
// call made with the ctx passed to fn joins that transaction; any error
// returned by fn rolls the whole scope back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BookStore is the slice of the catalog the order processor needs: locked
// reads for stock checks and atomic stock debits and credits.
type BookStore interface {
	GetForUpdate(ctx context.Context, id string) (*book.Book, error)
	AdjustStock(ctx context.Context, id string, delta int) (*book.Book, error)
}

// CustomerStore resolves the customer an order belongs to.
type CustomerStore interface {
	GetByID(ctx context.Context, id string) (*customer.Customer, error)
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	CustomerID      string
	ShippingAddress string
	Items           []CreateItem
}

// CreateItem is one requested (book, quantity) pair.
type CreateItem struct {
	BookID   string
	Quantity int
}

// Service is the order processor: it creates orders against live stock,
// drives them through the status lifecycle, and restores stock on
// cancellation.
type Service struct {
	books     BookStore
	customers CustomerStore
	orders    Repository
	tx        Transactor

	now func() time.Time
}

// NewService creates an order Service with the required collaborators.
func NewService(books BookStore, customers CustomerStore, orders Repository, tx Transactor) *Service {
	return &Service{
		books:     books,
		customers: customers,
		orders:    orders,
		tx:        tx,
		now:       time.Now,
	}
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// GetByID returns one order with its items.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListByCustomer returns a customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

// ListByStatus returns all orders currently in the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	return s.orders.ListByStatus(ctx, status)
}

// Create places a new order in PENDING status. Inside one transaction it
// resolves the customer, then walks the requested items in caller order:
// each book row is locked, checked against available stock, its price
// snapshotted into a line item, and its stock debited. The order and all
// items are persisted as one unit. A failure at any step rolls back every
// debit made so far, so no partial state survives.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return nil, &InvalidQuantityError{BookID: it.BookID}
		}
	}

	var created *Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cust, err := s.customers.GetByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		shippingAddress := req.ShippingAddress
		if shippingAddress == "" {
			shippingAddress = cust.Address
		}

		total := decimal.Zero
		items := make([]OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			b, err := s.books.GetForUpdate(ctx, it.BookID)
			if err != nil {
				return err
			}

			if b.StockQuantity < it.Quantity {
				return &book.InsufficientStockError{
					Title:     b.Title,
					Requested: it.Quantity,
					Available: b.StockQuantity,
				}
			}

			subtotal := b.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			items = append(items, OrderItem{
				ID:         uuid.New().String(),
				BookID:     b.ID,
				BookTitle:  b.Title,
				BookAuthor: b.Author,
				Quantity:   it.Quantity,
				Price:      b.Price,
				Subtotal:   subtotal,
			})

			if _, err := s.books.AdjustStock(ctx, b.ID, -it.Quantity); err != nil {
				return errors.Wrapf(err, "debit stock for book %s", b.ID)
			}
			total = total.Add(subtotal)
		}

		o := &Order{
			ID:              uuid.New().String(),
			CustomerID:      cust.ID,
			Items:           items,
			TotalAmount:     total,
			Status:          StatusPending,
			OrderDate:       s.now().UTC(),
			ShippingAddress: shippingAddress,
		}
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus moves an order to the target status. The first transition
// into SHIPPED or DELIVERED stamps the corresponding date; repeating the
// same status is accepted and leaves the stamp untouched. Cancellation is
// rejected here and must go through Cancel.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status) (*Order, error) {
	if target == StatusCancelled {
		return nil, ErrCancelViaUpdate
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(target) {
		return nil, &InvalidTransitionError{From: o.Status, To: target}
	}

	o.Status = target
	now := s.now().UTC()
	if target == StatusShipped && o.ShippedDate == nil {
		o.ShippedDate = &now
	}
	if target == StatusDelivered && o.DeliveredDate == nil {
		o.DeliveredDate = &now
	}

	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	return o, nil
}

// Cancel cancels a non-delivered order, crediting every item's quantity
// back to its book. The credits and the status change commit together; a
// second cancellation is rejected so stock is never double-restored.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	var cancelled *Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}

		switch o.Status {
		case StatusDelivered:
			return ErrCancelDelivered
		case StatusCancelled:
			return ErrAlreadyCancelled
		}

		for _, it := range o.Items {
			if _, err := s.books.AdjustStock(ctx, it.BookID, it.Quantity); err != nil {
				return errors.Wrapf(err, "restore stock for book %s", it.BookID)
			}
		}

		o.Status = StatusCancelled
		if err := s.orders.UpdateStatus(ctx, o); err != nil {
			return errors.Wrap(err, "cancel order")
		}

		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}
