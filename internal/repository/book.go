package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bookstore-api/internal/domain/book"
)

const bookColumns = `id, title, author, isbn, price, stock_quantity, description, category, publisher, publication_year`

const (
	listBooksSQL = `SELECT ` + bookColumns + ` FROM books ORDER BY title`

	getBookByIDSQL = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	getBookByISBNSQL = `SELECT ` + bookColumns + ` FROM books WHERE isbn = $1`

	getBookForUpdateSQL = `SELECT ` + bookColumns + ` FROM books WHERE id = $1 FOR UPDATE`

	searchBooksByTitleSQL = `SELECT ` + bookColumns + ` FROM books
		WHERE title ILIKE '%' || $1 || '%' ORDER BY title`

	searchBooksByAuthorSQL = `SELECT ` + bookColumns + ` FROM books
		WHERE author ILIKE '%' || $1 || '%' ORDER BY title`

	listBooksByCategorySQL = `SELECT ` + bookColumns + ` FROM books
		WHERE category = $1 ORDER BY title`

	listAvailableBooksSQL = `SELECT ` + bookColumns + ` FROM books
		WHERE stock_quantity > 0 ORDER BY title`

	insertBookSQL = `INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateBookSQL = `UPDATE books SET title = $2, author = $3, isbn = $4, price = $5,
		stock_quantity = $6, description = $7, category = $8, publisher = $9, publication_year = $10
		WHERE id = $1`

	upsertBookByISBNSQL = `INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (isbn) DO UPDATE SET title = EXCLUDED.title, author = EXCLUDED.author,
			price = EXCLUDED.price, stock_quantity = EXCLUDED.stock_quantity,
			description = EXCLUDED.description, category = EXCLUDED.category,
			publisher = EXCLUDED.publisher, publication_year = EXCLUDED.publication_year`

	deleteBookSQL = `DELETE FROM books WHERE id = $1`

	// The stock guard in the WHERE clause is the store-level backstop for the
	// non-negative invariant; the CHECK constraint backs it at the DB level.
	adjustStockSQL = `UPDATE books SET stock_quantity = stock_quantity + $2
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING ` + bookColumns

	countBooksSQL = `SELECT COUNT(*) FROM books`
)

var _ book.Repository = (*BookRepository)(nil)

// BookRepository implements book.Repository backed by PostgreSQL.
type BookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository returns a BookRepository that uses the given pool.
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

// List returns the whole catalog ordered by title.
func (r *BookRepository) List(ctx context.Context) ([]book.Book, error) {
	return r.queryBooks(ctx, "listing books", listBooksSQL)
}

// GetByID returns a single book by its identifier.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*book.Book, error) {
	return r.queryBook(ctx, fmt.Sprintf("getting book %q", id), getBookByIDSQL, id)
}

// GetByISBN returns a single book by its ISBN.
func (r *BookRepository) GetByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	return r.queryBook(ctx, fmt.Sprintf("getting book by isbn %q", isbn), getBookByISBNSQL, isbn)
}

// GetForUpdate returns a book with its row locked until the surrounding
// transaction completes.
func (r *BookRepository) GetForUpdate(ctx context.Context, id string) (*book.Book, error) {
	return r.queryBook(ctx, fmt.Sprintf("locking book %q", id), getBookForUpdateSQL, id)
}

// SearchByTitle returns books whose title contains the given substring,
// case-insensitively.
func (r *BookRepository) SearchByTitle(ctx context.Context, title string) ([]book.Book, error) {
	return r.queryBooks(ctx, "searching books by title", searchBooksByTitleSQL, title)
}

// SearchByAuthor returns books whose author contains the given substring,
// case-insensitively.
func (r *BookRepository) SearchByAuthor(ctx context.Context, author string) ([]book.Book, error) {
	return r.queryBooks(ctx, "searching books by author", searchBooksByAuthorSQL, author)
}

// ListByCategory returns all books in the given category.
func (r *BookRepository) ListByCategory(ctx context.Context, category string) ([]book.Book, error) {
	return r.queryBooks(ctx, "listing books by category", listBooksByCategorySQL, category)
}

// ListAvailable returns books with stock remaining.
func (r *BookRepository) ListAvailable(ctx context.Context) ([]book.Book, error) {
	return r.queryBooks(ctx, "listing available books", listAvailableBooksSQL)
}

// Create inserts a new book. A duplicate ISBN is reported as
// book.DuplicateISBNError.
func (r *BookRepository) Create(ctx context.Context, b *book.Book) error {
	_, err := dbFrom(ctx, r.pool).Exec(ctx, insertBookSQL, bookArgs(b)...)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_key") {
			return &book.DuplicateISBNError{ISBN: b.ISBN}
		}
		return fmt.Errorf("creating book %q: %w", b.ID, err)
	}
	return nil
}

// Update replaces all mutable fields of an existing book.
func (r *BookRepository) Update(ctx context.Context, b *book.Book) error {
	tag, err := dbFrom(ctx, r.pool).Exec(ctx, updateBookSQL, bookArgs(b)...)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_key") {
			return &book.DuplicateISBNError{ISBN: b.ISBN}
		}
		return fmt.Errorf("updating book %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

// UpsertByISBN inserts a book or, when the ISBN already exists, refreshes
// the stored record. Used by bulk catalog imports.
func (r *BookRepository) UpsertByISBN(ctx context.Context, b *book.Book) error {
	_, err := dbFrom(ctx, r.pool).Exec(ctx, upsertBookByISBNSQL, bookArgs(b)...)
	if err != nil {
		return fmt.Errorf("upserting book isbn %q: %w", b.ISBN, err)
	}
	return nil
}

// Delete removes a book.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	tag, err := dbFrom(ctx, r.pool).Exec(ctx, deleteBookSQL, id)
	if err != nil {
		return fmt.Errorf("deleting book %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed delta to a book's stock and returns the book
// as the update left it. A delta that would leave stock negative fails with
// book.InsufficientStockError; a missing book fails with book.ErrNotFound.
func (r *BookRepository) AdjustStock(ctx context.Context, id string, delta int) (*book.Book, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, adjustStockSQL, id, delta)
	if err != nil {
		return nil, fmt.Errorf("adjusting stock for book %q: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjusting stock for book %q: %w", id, err)
	}

	// No row updated: either the book is missing or the guard refused a
	// negative result. Re-read to tell the two apart.
	cur, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &book.InsufficientStockError{
		Title:     cur.Title,
		Requested: -delta,
		Available: cur.StockQuantity,
	}
}

// Count returns the number of books in the catalog.
func (r *BookRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, countBooksSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

func (r *BookRepository) queryBooks(ctx context.Context, op, sql string, args ...any) ([]book.Book, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pgx.CollectRows(rows, scanBook)
}

func (r *BookRepository) queryBook(ctx context.Context, op, sql string, args ...any) (*book.Book, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &b, nil
}

func scanBook(row pgx.CollectableRow) (book.Book, error) {
	var b book.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Price, &b.StockQuantity,
		&b.Description, &b.Category, &b.Publisher, &b.PublicationYear,
	)
	return b, err
}

func bookArgs(b *book.Book) []any {
	return []any{
		b.ID, b.Title, b.Author, b.ISBN, b.Price, b.StockQuantity,
		b.Description, b.Category, b.Publisher, b.PublicationYear,
	}
}
