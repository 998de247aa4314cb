// Package customers manages policyholder records.
package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/pkg/logger"
)

// Service manages customer records.
type Service struct {
	store storage.CustomerStore
	log   *logger.Logger
}

// New constructs a customer service.
func New(store storage.CustomerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("customers")
	}
	return &Service{store: store, log: log}
}

// Create registers a new customer.
func (s *Service) Create(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	if err := validate(c); err != nil {
		return customer.Customer{}, err
	}

	created, err := s.store.CreateCustomer(ctx, c)
	if err != nil {
		return customer.Customer{}, err
	}
	s.log.WithField("customer_id", created.ID).Info("customer created")
	return created, nil
}

// Update replaces a customer's mutable fields.
func (s *Service) Update(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	if c.ID == "" {
		return customer.Customer{}, fmt.Errorf("id is required")
	}
	if err := validate(c); err != nil {
		return customer.Customer{}, err
	}
	return s.store.UpdateCustomer(ctx, c)
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id string) (customer.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// List returns customers with pagination.
func (s *Service) List(ctx context.Context, page storage.Page) ([]customer.Customer, error) {
	return s.store.ListCustomers(ctx, page)
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.log.WithField("customer_id", id).Info("customer deleted")
	return nil
}

func validate(c customer.Customer) error {
	if strings.TrimSpace(c.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return fmt.Errorf("last_name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}
