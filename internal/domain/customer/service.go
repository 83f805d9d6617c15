package customer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service encapsulates customer record management on top of a Repository.
type Service struct {
	customers Repository
}

// NewService creates a customer Service backed by the given repository.
func NewService(customers Repository) *Service {
	return &Service{customers: customers}
}

// List returns all customers.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.customers.List(ctx)
}

// GetByID returns a single customer by identifier.
func (s *Service) GetByID(ctx context.Context, id string) (*Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// GetByEmail returns a single customer by email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return s.customers.GetByEmail(ctx, email)
}

// Create registers a new customer, rejecting a duplicate email with
// DuplicateEmailError. CreatedAt is assigned by the repository on insert.
func (s *Service) Create(ctx context.Context, c *Customer) (*Customer, error) {
	exists, err := s.customers.ExistsByEmail(ctx, c.Email)
	if err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if exists {
		return nil, &DuplicateEmailError{Email: c.Email}
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create customer")
	}
	return c, nil
}

// Update replaces the mutable fields of an existing customer. Changing the
// email to one held by another customer is rejected with DuplicateEmailError.
// CreatedAt is immutable and is preserved from the existing record.
func (s *Service) Update(ctx context.Context, id string, c *Customer) (*Customer, error) {
	existing, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.Email != c.Email {
		exists, err := s.customers.ExistsByEmail(ctx, c.Email)
		if err != nil {
			return nil, errors.Wrap(err, "check email")
		}
		if exists {
			return nil, &DuplicateEmailError{Email: c.Email}
		}
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update customer")
	}
	return c, nil
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.customers.Delete(ctx, id)
}
