// Package employees manages claim-handler records.
package employees

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborline/claimstack/internal/app/domain/employee"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/pkg/logger"
)

// Service manages employee records.
type Service struct {
	store storage.EmployeeStore
	log   *logger.Logger
}

// New constructs an employee service.
func New(store storage.EmployeeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("employees")
	}
	return &Service{store: store, log: log}
}

// Create registers a new employee.
func (s *Service) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if err := validate(e); err != nil {
		return employee.Employee{}, err
	}

	created, err := s.store.CreateEmployee(ctx, e)
	if err != nil {
		return employee.Employee{}, err
	}
	s.log.WithField("employee_id", created.ID).Info("employee created")
	return created, nil
}

// Update replaces an employee's mutable fields.
func (s *Service) Update(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.ID == "" {
		return employee.Employee{}, fmt.Errorf("id is required")
	}
	if err := validate(e); err != nil {
		return employee.Employee{}, err
	}
	return s.store.UpdateEmployee(ctx, e)
}

// Get returns an employee by id.
func (s *Service) Get(ctx context.Context, id string) (employee.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// List returns employees with pagination.
func (s *Service) List(ctx context.Context, page storage.Page) ([]employee.Employee, error) {
	return s.store.ListEmployees(ctx, page)
}

// Delete removes an employee.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.log.WithField("employee_id", id).Info("employee deleted")
	return nil
}

func validate(e employee.Employee) error {
	if strings.TrimSpace(e.FirstName) == "" {
		return fmt.Errorf("first_name is required")
	}
	if strings.TrimSpace(e.LastName) == "" {
		return fmt.Errorf("last_name is required")
	}
	if strings.TrimSpace(e.Email) == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}
