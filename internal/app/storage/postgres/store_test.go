package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/harborline/claimstack/internal/app/domain/claim"
	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/domain/policytype"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGetPolicyTypeDecodesStructure(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	structure := []byte(`[{"label":"Marine","hasChildren":true,"children":[{"label":"Hull","hasChildren":false}]}]`)
	mock.ExpectQuery("SELECT id, name, description, structure, created_at, updated_at").
		WithArgs("pt-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "structure", "created_at", "updated_at"}).
			AddRow("pt-1", "Marine Cover", "", structure, now, now))

	pt, err := store.GetPolicyType(context.Background(), "pt-1")
	if err != nil {
		t.Fatalf("get policy type: %v", err)
	}
	if len(pt.Structure) != 1 || pt.Structure[0].Label != "Marine" {
		t.Fatalf("structure not decoded: %+v", pt.Structure)
	}
	if pt.Structure[0].Children[0].Label != "Hull" {
		t.Fatalf("nested structure not decoded: %+v", pt.Structure)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateCustomerMissingRowIsNoRows(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, first_name, last_name, email, phone, address").
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "address", "created_at", "updated_at"}).
			AddRow("c-1", "Ada", "Byron", "ada@example.com", "", "", now, now))
	mock.ExpectExec("UPDATE customers").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateCustomer(context.Background(), customer.Customer{ID: "c-1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCountClaimsByPolicyType(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT policy_type_id, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"policy_type_id", "total"}).
			AddRow("pt-1", 3).
			AddRow("pt-2", 1))

	counts, err := store.CountClaimsByPolicyType(context.Background())
	if err != nil {
		t.Fatalf("count claims: %v", err)
	}
	if counts["pt-1"] != 3 || counts["pt-2"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	store, err := Open(dsn, PoolConfig{MaxOpenConns: 5, MaxIdleConns: 2, ConnLifetime: time.Minute})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	cust, err := store.CreateCustomer(ctx, customer.Customer{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	pt, err := store.CreatePolicyType(ctx, policytype.PolicyType{Name: "Integration Marine", Structure: policytype.DefaultForest()})
	if err != nil {
		t.Fatalf("create policy type: %v", err)
	}

	cl, err := store.CreateClaim(ctx, claim.Claim{CustomerID: cust.ID, PolicyTypeID: pt.ID, Status: claim.StatusFiled, Amount: 1200})
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}

	fetched, err := store.GetPolicyType(ctx, pt.ID)
	if err != nil {
		t.Fatalf("get policy type: %v", err)
	}
	if len(fetched.Structure) == 0 {
		t.Fatalf("expected structure to round-trip")
	}

	if err := store.DeleteClaim(ctx, cl.ID); err != nil {
		t.Fatalf("delete claim: %v", err)
	}
	if err := store.DeletePolicyType(ctx, pt.ID); err != nil {
		t.Fatalf("delete policy type: %v", err)
	}
	if err := store.DeleteCustomer(ctx, cust.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
}
