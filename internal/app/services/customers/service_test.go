package customers

import (
	"context"
	"errors"
	"testing"

	"github.com/harborline/claimstack/internal/app/domain/customer"
	"github.com/harborline/claimstack/internal/app/storage"
	"github.com/harborline/claimstack/internal/app/storage/memory"
)

func TestCreateValidation(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	cases := []customer.Customer{
		{LastName: "Byrne", Email: "a@example.com"},
		{FirstName: "Ada", Email: "a@example.com"},
		{FirstName: "Ada", LastName: "Byrne"},
	}
	for _, c := range cases {
		if _, err := svc.Create(ctx, c); err == nil {
			t.Fatalf("expected validation error for %+v", c)
		}
	}

	created, err := svc.Create(ctx, customer.Customer{
		FirstName: "Ada", LastName: "Byrne", Email: "a@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", created)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, customer.Customer{
		FirstName: "Ada", LastName: "Byrne", Email: "a@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Phone = "555-0100"
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != "555-0100" {
		t.Fatalf("expected phone update, got %+v", updated)
	}

	if _, err := svc.Update(ctx, customer.Customer{FirstName: "Ada", LastName: "Byrne", Email: "a@example.com"}); err == nil {
		t.Fatal("expected error for missing id")
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range emails {
		if _, err := svc.Create(ctx, customer.Customer{
			FirstName: "Test", LastName: "User", Email: email,
		}); err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
	}

	page, err := svc.List(ctx, storage.Page{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(page))
	}
	if page[0].Email != "b@example.com" {
		t.Fatalf("expected insertion order to hold, got %q", page[0].Email)
	}
}
