// Package claims manages insurance claim records and their lifecycle.
package claims

import (
	"context"
	"fmt"

	"github.com/harborline/claimstack/internal/app/domain/claim"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/pkg/logger"
)

// Service manages claims. Customer, employee and policy type references are
// validated against their stores before a claim is written.
type Service struct {
	customers   storage.CustomerStore
	employees   storage.EmployeeStore
	policyTypes storage.PolicyTypeStore
	store       storage.ClaimStore
	log         *logger.Logger
}

// New constructs a claim service.
func New(customers storage.CustomerStore, employees storage.EmployeeStore, policyTypes storage.PolicyTypeStore, store storage.ClaimStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("claims")
	}
	return &Service{
		customers:   customers,
		employees:   employees,
		policyTypes: policyTypes,
		store:       store,
		log:         log,
	}
}

// File registers a new claim. A zero status defaults to filed.
func (s *Service) File(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	if c.CustomerID == "" {
		return claim.Claim{}, fmt.Errorf("customer_id is required")
	}
	if c.PolicyTypeID == "" {
		return claim.Claim{}, fmt.Errorf("policy_type_id is required")
	}
	if c.Amount < 0 {
		return claim.Claim{}, fmt.Errorf("amount must not be negative")
	}
	if c.Status == "" {
		c.Status = claim.StatusFiled
	}
	if !c.Status.Valid() {
		return claim.Claim{}, fmt.Errorf("unknown status %q", c.Status)
	}

	if _, err := s.customers.GetCustomer(ctx, c.CustomerID); err != nil {
		return claim.Claim{}, fmt.Errorf("customer validation failed: %w", err)
	}
	if _, err := s.policyTypes.GetPolicyType(ctx, c.PolicyTypeID); err != nil {
		return claim.Claim{}, fmt.Errorf("policy type validation failed: %w", err)
	}
	if c.EmployeeID != "" {
		if _, err := s.employees.GetEmployee(ctx, c.EmployeeID); err != nil {
			return claim.Claim{}, fmt.Errorf("employee validation failed: %w", err)
		}
	}

	created, err := s.store.CreateClaim(ctx, c)
	if err != nil {
		return claim.Claim{}, err
	}
	s.log.WithFields(map[string]interface{}{
		"claim_id":       created.ID,
		"policy_type_id": created.PolicyTypeID,
	}).Info("claim filed")
	return created, nil
}

// Update changes a claim's assignee, status, amount or description.
func (s *Service) Update(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	if c.ID == "" {
		return claim.Claim{}, fmt.Errorf("id is required")
	}
	if c.Status != "" && !c.Status.Valid() {
		return claim.Claim{}, fmt.Errorf("unknown status %q", c.Status)
	}
	if c.Amount < 0 {
		return claim.Claim{}, fmt.Errorf("amount must not be negative")
	}
	if c.EmployeeID != "" {
		if _, err := s.employees.GetEmployee(ctx, c.EmployeeID); err != nil {
			return claim.Claim{}, fmt.Errorf("employee validation failed: %w", err)
		}
	}
	return s.store.UpdateClaim(ctx, c)
}

// Get returns a claim by id.
func (s *Service) Get(ctx context.Context, id string) (claim.Claim, error) {
	return s.store.GetClaim(ctx, id)
}

// List returns claims matching the filter, paginated.
func (s *Service) List(ctx context.Context, filter claim.Filter, page storage.Page) ([]claim.Claim, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", filter.Status)
	}
	return s.store.ListClaims(ctx, filter, page)
}

// Delete removes a claim.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteClaim(ctx, id); err != nil {
		return err
	}
	s.log.WithField("claim_id", id).Info("claim deleted")
	return nil
}
