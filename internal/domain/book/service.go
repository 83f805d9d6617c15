package book

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service encapsulates catalog management on top of a Repository. It owns
// the uniqueness checks for ISBNs; stock invariants are enforced by the
// repository itself.
type Service struct {
	books Repository
}

// NewService creates a catalog Service backed by the given repository.
func NewService(books Repository) *Service {
	return &Service{books: books}
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.books.List(ctx)
}

// GetByID returns a single book by its identifier.
func (s *Service) GetByID(ctx context.Context, id string) (*Book, error) {
	return s.books.GetByID(ctx, id)
}

// GetByISBN returns a single book by its ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	return s.books.GetByISBN(ctx, isbn)
}

// SearchByTitle returns books whose title contains the given substring,
// case-insensitively.
func (s *Service) SearchByTitle(ctx context.Context, title string) ([]Book, error) {
	return s.books.SearchByTitle(ctx, title)
}

// SearchByAuthor returns books whose author contains the given substring,
// case-insensitively.
func (s *Service) SearchByAuthor(ctx context.Context, author string) ([]Book, error) {
	return s.books.SearchByAuthor(ctx, author)
}

// ListByCategory returns all books in the given category.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]Book, error) {
	return s.books.ListByCategory(ctx, category)
}

// ListAvailable returns books with stock remaining.
func (s *Service) ListAvailable(ctx context.Context) ([]Book, error) {
	return s.books.ListAvailable(ctx)
}

// Create adds a new book to the catalog. It rejects a duplicate ISBN with
// DuplicateISBNError before touching the repository; the unique index backs
// this up under concurrency.
func (s *Service) Create(ctx context.Context, b *Book) (*Book, error) {
	if err := s.checkISBNFree(ctx, b.ISBN); err != nil {
		return nil, err
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, errors.Wrap(err, "create book")
	}
	return b, nil
}

// Update replaces all mutable fields of an existing book. Renaming the ISBN
// to one held by another book is rejected with DuplicateISBNError.
func (s *Service) Update(ctx context.Context, id string, b *Book) (*Book, error) {
	existing, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.ISBN != b.ISBN {
		if err := s.checkISBNFree(ctx, b.ISBN); err != nil {
			return nil, err
		}
	}

	b.ID = existing.ID
	if err := s.books.Update(ctx, b); err != nil {
		return nil, errors.Wrap(err, "update book")
	}
	return b, nil
}

// Delete removes a book from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.books.Delete(ctx, id)
}

// AdjustStock applies a signed delta to a book's stock quantity and returns
// the updated book, taken from the same statement that applied the delta. A
// delta that would leave stock negative fails with InsufficientStockError.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*Book, error) {
	return s.books.AdjustStock(ctx, id, delta)
}

func (s *Service) checkISBNFree(ctx context.Context, isbn string) error {
	_, err := s.books.GetByISBN(ctx, isbn)
	switch {
	case err == nil:
		return &DuplicateISBNError{ISBN: isbn}
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return errors.Wrap(err, "check isbn")
	}
}
