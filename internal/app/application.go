// Package app wires the claimstack services together.
package app

import (
	"context"
	"fmt"
	"time"

	authsvc "github.com/harborline/claimstack/internal/app/services/auth"
	claimsvc "github.com/harborline/claimstack/internal/app/services/claims"
	customersvc "github.com/harborline/claimstack/internal/app/services/customers"
	employeesvc "github.com/harborline/claimstack/internal/app/services/employees"
	policytypesvc "github.com/harborline/claimstack/internal/app/services/policytypes"
	reportsvc "github.com/harborline/claimstack/internal/app/services/reports"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/internal/app/storage/memory"
	"github.com/harborline/claimstack/internal/app/system"
	"github.com/harborline/claimstack/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Customers   storage.CustomerStore
	Employees   storage.EmployeeStore
	PolicyTypes storage.PolicyTypeStore
	Claims      storage.ClaimStore
	Users       storage.UserStore
}

// Options carries the application-level settings services need.
type Options struct {
	JWTSecret      []byte
	TokenTTL       time.Duration
	Issuer         string
	ReportInterval time.Duration
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Customers   *customersvc.Service
	Employees   *employeesvc.Service
	PolicyTypes *policytypesvc.Service
	Claims      *claimsvc.Service
	Auth        *authsvc.Service
	Reports     *reportsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Customers == nil {
		stores.Customers = mem
	}
	if stores.Employees == nil {
		stores.Employees = mem
	}
	if stores.PolicyTypes == nil {
		stores.PolicyTypes = mem
	}
	if stores.Claims == nil {
		stores.Claims = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}

	manager := system.NewManager()

	customerService := customersvc.New(stores.Customers, log)
	employeeService := employeesvc.New(stores.Employees, log)
	policyTypeService := policytypesvc.New(stores.PolicyTypes, stores.Claims, log)
	claimService := claimsvc.New(stores.Customers, stores.Employees, stores.PolicyTypes, stores.Claims, log)
	authService := authsvc.New(stores.Users, opts.JWTSecret, opts.TokenTTL, opts.Issuer, log)
	reportService := reportsvc.New(stores.PolicyTypes, stores.Claims, log)

	for _, name := range []string{"customers", "employees", "policytypes", "claims", "auth"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	refresher := reportsvc.NewRefresher(reportService, opts.ReportInterval, log)
	if err := manager.Register(refresher); err != nil {
		return nil, fmt.Errorf("register %s: %w", refresher.Name(), err)
	}

	return &Application{
		manager:     manager,
		log:         log,
		Customers:   customerService,
		Employees:   employeeService,
		PolicyTypes: policyTypeService,
		Claims:      claimService,
		Auth:        authService,
		Reports:     reportService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
