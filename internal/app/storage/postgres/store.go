// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/harborline/claimstack/internal/app/domain/claim"
	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/domain/employee"
	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/domain/user"
	"github.com/harborline/claimstack/internal/app/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.CustomerStore = (*Store)(nil)
var _ storage.EmployeeStore = (*Store)(nil)
var _ storage.PolicyTypeStore = (*Store)(nil)
var _ storage.ClaimStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)

// PoolConfig tunes the database connection pool.
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// Open connects to the database at url, configures the pool and runs any
// pending migrations.
func Open(url string, pool PoolConfig) (*Store, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing database handle without running migrations.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// --- CustomerStore -----------------------------------------------------------

type customerRow struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r customerRow) toDomain() customer.Customer {
	return customer.Customer(r)
}

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, first_name, last_name, email, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return customer.Customer{}, err
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	existing, err := s.GetCustomer(ctx, c.ID)
	if err != nil {
		return customer.Customer{}, err
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, updated_at = $7
		WHERE id = $1
	`, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.UpdatedAt)
	if err != nil {
		return customer.Customer{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return customer.Customer{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (customer.Customer, error) {
	var row customerRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, email, phone, address, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id)
	if err != nil {
		return customer.Customer{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListCustomers(ctx context.Context, page storage.Page) ([]customer.Customer, error) {
	var rows []customerRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, first_name, last_name, email, phone, address, created_at, updated_at
		FROM customers
		ORDER BY created_at
		LIMIT NULLIF($1, 0) OFFSET $2
	`, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	result := make([]customer.Customer, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- EmployeeStore -----------------------------------------------------------

type employeeRow struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Position  string    `db:"position"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r employeeRow) toDomain() employee.Employee {
	return employee.Employee(r)
}

func (s *Store) CreateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, first_name, last_name, email, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.FirstName, e.LastName, e.Email, e.Position, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	existing, err := s.GetEmployee(ctx, e.ID)
	if err != nil {
		return employee.Employee{}, err
	}

	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET first_name = $2, last_name = $3, email = $4, position = $5, updated_at = $6
		WHERE id = $1
	`, e.ID, e.FirstName, e.LastName, e.Email, e.Position, e.UpdatedAt)
	if err != nil {
		return employee.Employee{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return employee.Employee{}, sql.ErrNoRows
	}
	return e, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	var row employeeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, email, position, created_at, updated_at
		FROM employees
		WHERE id = $1
	`, id)
	if err != nil {
		return employee.Employee{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListEmployees(ctx context.Context, page storage.Page) ([]employee.Employee, error) {
	var rows []employeeRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, first_name, last_name, email, position, created_at, updated_at
		FROM employees
		ORDER BY created_at
		LIMIT NULLIF($1, 0) OFFSET $2
	`, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	result := make([]employee.Employee, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- PolicyTypeStore ----------------------------------------------------------

type policyTypeRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Structure   []byte    `db:"structure"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r policyTypeRow) toDomain() (policytype.PolicyType, error) {
	pt := policytype.PolicyType{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Structure) > 0 {
		if err := json.Unmarshal(r.Structure, &pt.Structure); err != nil {
			return policytype.PolicyType{}, fmt.Errorf("decode structure for %s: %w", r.ID, err)
		}
	}
	return pt, nil
}

func (s *Store) CreatePolicyType(ctx context.Context, pt policytype.PolicyType) (policytype.PolicyType, error) {
	if pt.ID == "" {
		pt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	pt.CreatedAt = now
	pt.UpdatedAt = now

	structureJSON, err := json.Marshal(pt.Structure)
	if err != nil {
		return policytype.PolicyType{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policy_types (id, name, description, structure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pt.ID, pt.Name, pt.Description, structureJSON, pt.CreatedAt, pt.UpdatedAt)
	if err != nil {
		return policytype.PolicyType{}, err
	}
	return pt, nil
}

func (s *Store) UpdatePolicyType(ctx context.Context, pt policytype.PolicyType) (policytype.PolicyType, error) {
	existing, err := s.GetPolicyType(ctx, pt.ID)
	if err != nil {
		return policytype.PolicyType{}, err
	}

	pt.CreatedAt = existing.CreatedAt
	pt.UpdatedAt = time.Now().UTC()

	// The whole forest is re-serialized on every write; there is no
	// incremental patching of the structure column.
	structureJSON, err := json.Marshal(pt.Structure)
	if err != nil {
		return policytype.PolicyType{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE policy_types
		SET name = $2, description = $3, structure = $4, updated_at = $5
		WHERE id = $1
	`, pt.ID, pt.Name, pt.Description, structureJSON, pt.UpdatedAt)
	if err != nil {
		return policytype.PolicyType{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return policytype.PolicyType{}, sql.ErrNoRows
	}
	return pt, nil
}

func (s *Store) GetPolicyType(ctx context.Context, id string) (policytype.PolicyType, error) {
	var row policyTypeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, description, structure, created_at, updated_at
		FROM policy_types
		WHERE id = $1
	`, id)
	if err != nil {
		return policytype.PolicyType{}, err
	}
	return row.toDomain()
}

func (s *Store) ListPolicyTypes(ctx context.Context) ([]policytype.PolicyType, error) {
	var rows []policyTypeRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, description, structure, created_at, updated_at
		FROM policy_types
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}

	result := make([]policytype.PolicyType, 0, len(rows))
	for _, r := range rows {
		pt, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, nil
}

func (s *Store) DeletePolicyType(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM policy_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- ClaimStore ----------------------------------------------------------------

type claimRow struct {
	ID           string         `db:"id"`
	CustomerID   string         `db:"customer_id"`
	EmployeeID   sql.NullString `db:"employee_id"`
	PolicyTypeID string         `db:"policy_type_id"`
	Status       string         `db:"status"`
	Amount       float64        `db:"amount"`
	Description  string         `db:"description"`
	FiledAt      time.Time      `db:"filed_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r claimRow) toDomain() claim.Claim {
	c := claim.Claim{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		PolicyTypeID: r.PolicyTypeID,
		Status:       claim.Status(r.Status),
		Amount:       r.Amount,
		Description:  r.Description,
		FiledAt:      r.FiledAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.EmployeeID.Valid {
		c.EmployeeID = r.EmployeeID.String
	}
	return c
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func (s *Store) CreateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.FiledAt.IsZero() {
		c.FiledAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (id, customer_id, employee_id, policy_type_id, status, amount, description, filed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.CustomerID, toNullString(c.EmployeeID), c.PolicyTypeID, string(c.Status), c.Amount, c.Description, c.FiledAt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return claim.Claim{}, err
	}
	return c, nil
}

func (s *Store) UpdateClaim(ctx context.Context, c claim.Claim) (claim.Claim, error) {
	existing, err := s.GetClaim(ctx, c.ID)
	if err != nil {
		return claim.Claim{}, err
	}

	c.CustomerID = existing.CustomerID
	c.PolicyTypeID = existing.PolicyTypeID
	c.FiledAt = existing.FiledAt
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE claims
		SET employee_id = $2, status = $3, amount = $4, description = $5, updated_at = $6
		WHERE id = $1
	`, c.ID, toNullString(c.EmployeeID), string(c.Status), c.Amount, c.Description, c.UpdatedAt)
	if err != nil {
		return claim.Claim{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return claim.Claim{}, sql.ErrNoRows
	}
	return c, nil
}

func (s *Store) GetClaim(ctx context.Context, id string) (claim.Claim, error) {
	var row claimRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, customer_id, employee_id, policy_type_id, status, amount, description, filed_at, created_at, updated_at
		FROM claims
		WHERE id = $1
	`, id)
	if err != nil {
		return claim.Claim{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListClaims(ctx context.Context, filter claim.Filter, page storage.Page) ([]claim.Claim, error) {
	var rows []claimRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, customer_id, employee_id, policy_type_id, status, amount, description, filed_at, created_at, updated_at
		FROM claims
		WHERE ($1 = '' OR customer_id::text = $1)
		  AND ($2 = '' OR policy_type_id::text = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY filed_at DESC
		LIMIT NULLIF($4, 0) OFFSET $5
	`, filter.CustomerID, filter.PolicyTypeID, string(filter.Status), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	result := make([]claim.Claim, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) DeleteClaim(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM claims WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) CountClaimsByPolicyType(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		PolicyTypeID string `db:"policy_type_id"`
		Total        int    `db:"total"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT policy_type_id, COUNT(*) AS total
		FROM claims
		GROUP BY policy_type_id
	`)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.PolicyTypeID] = r.Total
	}
	return counts, nil
}

// --- UserStore -------------------------------------------------------------------

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         user.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	if err != nil {
		return user.User{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	if err != nil {
		return user.User{}, err
	}
	return row.toDomain(), nil
}
