// Package storage declares the persistence interfaces consumed by the
// application services.
package storage

import (
	"context"

	"github.com/harborline/claimstack/internal/app/domain/claim"
	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/domain/employee"
	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/domain/user"
)

// Page bounds a listing. A zero Limit means no bound.
type Page struct {
	Limit  int
	Offset int
}

// CustomerStore persists policyholder records.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error)
	GetCustomer(ctx context.Context, id string) (customer.Customer, error)
	ListCustomers(ctx context.Context, page Page) ([]customer.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// EmployeeStore persists claim-handler records.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error)
	UpdateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error)
	GetEmployee(ctx context.Context, id string) (employee.Employee, error)
	ListEmployees(ctx context.Context, page Page) ([]employee.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// PolicyTypeStore persists policy types with their taxonomy structure. The
// structure is stored whole; every mutation rewrites the full forest.
type PolicyTypeStore interface {
	CreatePolicyType(ctx context.Context, pt policytype.PolicyType) (policytype.PolicyType, error)
	UpdatePolicyType(ctx context.Context, pt policytype.PolicyType) (policytype.PolicyType, error)
	GetPolicyType(ctx context.Context, id string) (policytype.PolicyType, error)
	ListPolicyTypes(ctx context.Context) ([]policytype.PolicyType, error)
	DeletePolicyType(ctx context.Context, id string) error
}

// ClaimStore persists claims.
type ClaimStore interface {
	CreateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error)
	UpdateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error)
	GetClaim(ctx context.Context, id string) (claim.Claim, error)
	ListClaims(ctx context.Context, filter claim.Filter, page Page) ([]claim.Claim, error)
	DeleteClaim(ctx context.Context, id string) error
	CountClaimsByPolicyType(ctx context.Context) (map[string]int, error)
}

// UserStore persists authentication accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}
