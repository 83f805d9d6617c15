package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bookstore-api/internal/domain/customer"
)

const customerColumns = `id, first_name, last_name, email, phone, address, city, country, postal_code, created_at`

const (
	listCustomersSQL = `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at`

	getCustomerByIDSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	getCustomerByEmailSQL = `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`

	customerExistsByEmailSQL = `SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)`

	// created_at is assigned here and deliberately absent from the UPDATE.
	insertCustomerSQL = `INSERT INTO customers (id, first_name, last_name, email, phone, address, city, country, postal_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING created_at`

	updateCustomerSQL = `UPDATE customers SET first_name = $2, last_name = $3, email = $4,
		phone = $5, address = $6, city = $7, country = $8, postal_code = $9
		WHERE id = $1`

	deleteCustomerSQL = `DELETE FROM customers WHERE id = $1`

	countCustomersSQL = `SELECT COUNT(*) FROM customers`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// List returns all customers, oldest first.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// GetByID returns a single customer by identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	return r.queryCustomer(ctx, fmt.Sprintf("getting customer %q", id), getCustomerByIDSQL, id)
}

// GetByEmail returns a single customer by email address.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.queryCustomer(ctx, fmt.Sprintf("getting customer by email %q", email), getCustomerByEmailSQL, email)
}

// ExistsByEmail reports whether any customer holds the given email.
func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, customerExistsByEmailSQL, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking customer email %q: %w", email, err)
	}
	return exists, nil
}

// Create inserts a new customer and stamps CreatedAt. A duplicate email is
// reported as customer.DuplicateEmailError.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := dbFrom(ctx, r.pool).QueryRow(ctx, insertCustomerSQL,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Address, c.City, c.Country, c.PostalCode,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return &customer.DuplicateEmailError{Email: c.Email}
		}
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

// Update replaces the mutable fields of an existing customer. CreatedAt is
// never touched.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tag, err := dbFrom(ctx, r.pool).Exec(ctx, updateCustomerSQL,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Address, c.City, c.Country, c.PostalCode,
	)
	if err != nil {
		if isUniqueViolation(err, "customers_email_key") {
			return &customer.DuplicateEmailError{Email: c.Email}
		}
		return fmt.Errorf("updating customer %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Delete removes a customer.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	tag, err := dbFrom(ctx, r.pool).Exec(ctx, deleteCustomerSQL, id)
	if err != nil {
		return fmt.Errorf("deleting customer %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Count returns the number of registered customers.
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := dbFrom(ctx, r.pool).QueryRow(ctx, countCustomersSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting customers: %w", err)
	}
	return n, nil
}

func (r *CustomerRepository) queryCustomer(ctx context.Context, op, sql string, args ...any) (*customer.Customer, error) {
	rows, err := dbFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Address, &c.City, &c.Country, &c.PostalCode, &c.CreatedAt,
	)
	return c, err
}
