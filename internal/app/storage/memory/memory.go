// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/harborline/claimstack/internal/app/domain/claim"
	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/domain/employee"
	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/domain/user"
	"github.com/harborline/claimstack/internal/app/storage"
)

// Store is the in-memory implementation of every storage interface.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	customers     map[string]customer.Customer
	customerOrder []string
	employees     map[string]employee.Employee
	employeeOrder []string
	policyTypes   map[string]policytype.PolicyType
	policyOrder   []string
	claims        map[string]claim.Claim
	claimOrder    []string
	users         map[string]user.User
	usersByEmail  map[string]string
}

var _ storage.CustomerStore = (*Store)(nil)
var _ storage.EmployeeStore = (*Store)(nil)
var _ storage.PolicyTypeStore = (*Store)(nil)
var _ storage.ClaimStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:       1,
		customers:    make(map[string]customer.Customer),
		employees:    make(map[string]employee.Employee),
		policyTypes:  make(map[string]policytype.PolicyType),
		claims:       make(map[string]claim.Claim),
		users:        make(map[string]user.User),
		usersByEmail: make(map[string]string),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

func paginate(order []string, page storage.Page) []string {
	if page.Offset >= len(order) {
		return nil
	}
	out := order[page.Offset:]
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out
}

func removeID(order []string, id string) []string {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// CustomerStore implementation ------------------------------------------------

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.customers[c.ID]; exists {
		return customer.Customer{}, fmt.Errorf("customer %s already exists", c.ID)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.customers[c.ID] = c
	s.customerOrder = append(s.customerOrder, c.ID)
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.customers[c.ID]
	if !ok {
		return customer.Customer{}, notFound("customer", c.ID)
	}
	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, notFound("customer", id)
	}
	return c, nil
}

func (s *Store) ListCustomers(_ context.Context, page storage.Page) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []customer.Customer
	for _, id := range paginate(s.customerOrder, page) {
		result = append(result, s.customers[id])
	}
	return result, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return notFound("customer", id)
	}
	delete(s.customers, id)
	s.customerOrder = removeID(s.customerOrder, id)
	return nil
}

// EmployeeStore implementation ------------------------------------------------

func (s *Store) CreateEmployee(_ context.Context, e employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = s.nextIDLocked()
	} else if _, exists := s.employees[e.ID]; exists {
		return employee.Employee{}, fmt.Errorf("employee %s already exists", e.ID)
	}

	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.employees[e.ID] = e
	s.employeeOrder = append(s.employeeOrder, e.ID)
	return e, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.employees[e.ID]
	if !ok {
		return employee.Employee{}, notFound("employee", e.ID)
	}
	e.CreatedAt = original.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.employees[e.ID] = e
	return e, nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, notFound("employee", id)
	}
	return e, nil
}

func (s *Store) ListEmployees(_ context.Context, page storage.Page) ([]employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []employee.Employee
	for _, id := range paginate(s.employeeOrder, page) {
		result = append(result, s.employees[id])
	}
	return result, nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[id]; !ok {
		return notFound("employee", id)
	}
	delete(s.employees, id)
	s.employeeOrder = removeID(s.employeeOrder, id)
	return nil
}

// PolicyTypeStore implementation ----------------------------------------------

func (s *Store) CreatePolicyType(_ context.Context, pt policytype.PolicyType) (policytype.PolicyType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pt.ID == "" {
		pt.ID = s.nextIDLocked()
	} else if _, exists := s.policyTypes[pt.ID]; exists {
		return policytype.PolicyType{}, fmt.Errorf("policy type %s already exists", pt.ID)
	}

	now := time.Now().UTC()
	pt.CreatedAt = now
	pt.UpdatedAt = now
	pt.Structure = policytype.Clone(pt.Structure)
	s.policyTypes[pt.ID] = pt
	s.policyOrder = append(s.policyOrder, pt.ID)
	return clonePolicyType(pt), nil
}

func (s *Store) UpdatePolicyType(_ context.Context, pt policytype.PolicyType) (policytype.PolicyType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.policyTypes[pt.ID]
	if !ok {
		return policytype.PolicyType{}, notFound("policy type", pt.ID)
	}
	pt.CreatedAt = original.CreatedAt
	pt.UpdatedAt = time.Now().UTC()
	pt.Structure = policytype.Clone(pt.Structure)
	s.policyTypes[pt.ID] = pt
	return clonePolicyType(pt), nil
}

func (s *Store) GetPolicyType(_ context.Context, id string) (policytype.PolicyType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, ok := s.policyTypes[id]
	if !ok {
		return policytype.PolicyType{}, notFound("policy type", id)
	}
	return clonePolicyType(pt), nil
}

func (s *Store) ListPolicyTypes(_ context.Context) ([]policytype.PolicyType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []policytype.PolicyType
	for _, id := range s.policyOrder {
		result = append(result, clonePolicyType(s.policyTypes[id]))
	}
	return result, nil
}

func (s *Store) DeletePolicyType(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policyTypes[id]; !ok {
		return notFound("policy type", id)
	}
	delete(s.policyTypes, id)
	s.policyOrder = removeID(s.policyOrder, id)
	return nil
}

func clonePolicyType(pt policytype.PolicyType) policytype.PolicyType {
	pt.Structure = policytype.Clone(pt.Structure)
	return pt
}

// ClaimStore implementation ---------------------------------------------------

func (s *Store) CreateClaim(_ context.Context, c claim.Claim) (claim.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.nextIDLocked()
	} else if _, exists := s.claims[c.ID]; exists {
		return claim.Claim{}, fmt.Errorf("claim %s already exists", c.ID)
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.FiledAt.IsZero() {
		c.FiledAt = now
	}
	s.claims[c.ID] = c
	s.claimOrder = append(s.claimOrder, c.ID)
	return c, nil
}

func (s *Store) UpdateClaim(_ context.Context, c claim.Claim) (claim.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.claims[c.ID]
	if !ok {
		return claim.Claim{}, notFound("claim", c.ID)
	}
	// The claim's provenance is immutable; only workflow fields change.
	c.CustomerID = original.CustomerID
	c.PolicyTypeID = original.PolicyTypeID
	c.CreatedAt = original.CreatedAt
	c.FiledAt = original.FiledAt
	c.UpdatedAt = time.Now().UTC()
	s.claims[c.ID] = c
	return c, nil
}

func (s *Store) GetClaim(_ context.Context, id string) (claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.claims[id]
	if !ok {
		return claim.Claim{}, notFound("claim", id)
	}
	return c, nil
}

func (s *Store) ListClaims(_ context.Context, filter claim.Filter, page storage.Page) ([]claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []string
	for _, id := range s.claimOrder {
		c := s.claims[id]
		if filter.CustomerID != "" && c.CustomerID != filter.CustomerID {
			continue
		}
		if filter.PolicyTypeID != "" && c.PolicyTypeID != filter.PolicyTypeID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		matched = append(matched, id)
	}

	var result []claim.Claim
	for _, id := range paginate(matched, page) {
		result = append(result, s.claims[id])
	}
	return result, nil
}

func (s *Store) DeleteClaim(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[id]; !ok {
		return notFound("claim", id)
	}
	delete(s.claims, id)
	s.claimOrder = removeID(s.claimOrder, id)
	return nil
}

func (s *Store) CountClaimsByPolicyType(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, c := range s.claims {
		counts[c.PolicyTypeID]++
	}
	return counts, nil
}

// UserStore implementation ------------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.usersByEmail[email]; exists {
		return user.User{}, fmt.Errorf("user %s already exists", u.Email)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	s.usersByEmail[email] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, notFound("user", id)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return user.User{}, notFound("user", email)
	}
	return s.users[id], nil
}
