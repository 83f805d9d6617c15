package book

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested book does not exist.
var ErrNotFound = errors.New("book not found")

// DuplicateISBNError indicates a create or update would reuse an ISBN that
// already belongs to another book.
type DuplicateISBNError struct {
	ISBN string
}

func (e *DuplicateISBNError) Error() string {
	return fmt.Sprintf("book with ISBN %s already exists", e.ISBN)
}

// InsufficientStockError indicates a requested quantity exceeds the book's
// available stock.
type InsufficientStockError struct {
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book: %s. Available: %d, Requested: %d",
		e.Title, e.Available, e.Requested)
}

// Book represents a catalog item available for purchase.
type Book struct {
	ID              string
	Title           string
	Author          string
	ISBN            string
	Price           decimal.Decimal
	StockQuantity   int
	Description     string
	Category        string
	Publisher       string
	PublicationYear int
}

// Repository defines persistence operations for the book catalog.
//
// GetForUpdate locks the selected row until the surrounding transaction
// completes; outside a transaction it behaves like GetByID. AdjustStock
// applies a signed delta atomically, refuses to drive stock negative, and
// returns the book as the update left it.
type Repository interface {
	List(ctx context.Context) ([]Book, error)
	GetByID(ctx context.Context, id string) (*Book, error)
	GetByISBN(ctx context.Context, isbn string) (*Book, error)
	GetForUpdate(ctx context.Context, id string) (*Book, error)
	SearchByTitle(ctx context.Context, title string) ([]Book, error)
	SearchByAuthor(ctx context.Context, author string) ([]Book, error)
	ListByCategory(ctx context.Context, category string) ([]Book, error)
	ListAvailable(ctx context.Context) ([]Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) error
	AdjustStock(ctx context.Context, id string, delta int) (*Book, error)
	Count(ctx context.Context) (int64, error)
}
