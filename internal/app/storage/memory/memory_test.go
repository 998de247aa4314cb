package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/harborline/claimstack/internal/app/domain/policytype"
	"github.com/harborline/claimstack/internal/app/domain/user"
	"github.com/harborline/claimstack/internal/app/storage"
)

func TestPolicyTypeStructureIsolated(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreatePolicyType(ctx, policytype.PolicyType{
		Name: "Shipping",
		Structure: policytype.Forest{
			{Label: "Marine", HasChildren: true, Children: []policytype.Node{
				{Label: "Hull"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating a returned copy must not leak into the store.
	created.Structure[0].Children[0].Label = "tampered"

	got, err := store.GetPolicyType(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Structure[0].Children[0].Label != "Hull" {
		t.Fatalf("stored structure was mutated: %+v", got.Structure)
	}
}

func TestPolicyTypeUpdatePreservesCreatedAt(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreatePolicyType(ctx, policytype.PolicyType{
		Name:      "Shipping",
		Structure: policytype.Forest{{Label: "Marine"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Name = "Shipping & Transit"
	updated, err := store.UpdatePolicyType(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("expected created_at preserved, got %v and %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.Name != "Shipping & Transit" {
		t.Fatalf("expected name update, got %q", updated.Name)
	}
}

func TestUserEmailIndex(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateUser(ctx, user.User{
		Email:        "agent@example.com",
		PasswordHash: "hash",
		Role:         user.RoleAgent,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "  AGENT@Example.com ")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected user %s, got %s", created.ID, got.ID)
	}

	if _, err := store.CreateUser(ctx, user.User{Email: "Agent@example.COM"}); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesFromListing(t *testing.T) {
	store := New()
	ctx := context.Background()

	first, err := store.CreatePolicyType(ctx, policytype.PolicyType{
		Name:      "First",
		Structure: policytype.Forest{{Label: "A"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CreatePolicyType(ctx, policytype.PolicyType{
		Name:      "Second",
		Structure: policytype.Forest{{Label: "B"}},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.DeletePolicyType(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, err := store.ListPolicyTypes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Second" {
		t.Fatalf("expected only Second, got %v", list)
	}
}
