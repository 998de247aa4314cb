package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harborline/claimstack/internal/app/domain/user"
	"github.com/harborline/claimstack/internal/app/storage/memory"
)

func newService() *Service {
	return New(memory.New(), []byte("auth-test-secret"), time.Hour, "claimstack-test", nil)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "sup3rsecret", ""); err == nil {
		t.Fatal("expected error for malformed email")
	}
	if _, err := svc.Register(ctx, "a@example.com", "short", ""); err == nil {
		t.Fatal("expected error for short password")
	}
	if _, err := svc.Register(ctx, "a@example.com", "sup3rsecret", "superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}

	created, err := svc.Register(ctx, "  Agent@Example.COM ", "sup3rsecret", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Email != "agent@example.com" {
		t.Fatalf("expected normalised email, got %q", created.Email)
	}
	if created.Role != user.RoleAgent {
		t.Fatalf("expected default role agent, got %q", created.Role)
	}
	if created.PasswordHash == "sup3rsecret" || created.PasswordHash == "" {
		t.Fatal("expected password to be hashed")
	}
}

func TestLoginAndVerify(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "admin@example.com", "sup3rsecret", user.RoleAdmin)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(ctx, "admin@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected a signed token")
	}
	if !token.ExpiresAt.After(time.Now()) {
		t.Fatal("expected future expiry")
	}

	claims, err := svc.Verify(token.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != registered.ID || claims.Role != string(user.RoleAdmin) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "claimstack-test" {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "agent@example.com", "sup3rsecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "agent@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "sup3rsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown account, got %v", err)
	}
}

func TestVerifyRejectsForeignToken(t *testing.T) {
	issuer := newService()
	other := New(memory.New(), []byte("a-different-secret"), time.Hour, "", nil)
	ctx := context.Background()

	if _, err := issuer.Register(ctx, "agent@example.com", "sup3rsecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := issuer.Login(ctx, "agent@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := other.Verify(token.Token); err == nil {
		t.Fatal("expected verification failure with different secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := New(memory.New(), []byte("auth-test-secret"), -time.Minute, "", nil)
	ctx := context.Background()

	// Negative TTLs fall back to the default, so force expiry directly.
	if svc.tokenTTL != 24*time.Hour {
		t.Fatalf("expected TTL fallback, got %v", svc.tokenTTL)
	}

	svc.tokenTTL = -time.Minute
	if _, err := svc.Register(ctx, "agent@example.com", "sup3rsecret", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := svc.Login(ctx, "agent@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Verify(token.Token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
