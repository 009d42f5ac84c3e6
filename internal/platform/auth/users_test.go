package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) (*MemoryUserStore, *PasswordManager) {
	t.Helper()
	pm := NewPasswordManager(bcrypt.MinCost)
	store, err := NewMemoryUserStore(pm, DemoCredentials())
	if err != nil {
		t.Fatalf("NewMemoryUserStore() error: %v", err)
	}
	return store, pm
}

func TestMemoryUserStore_FindByEmail(t *testing.T) {
	store, _ := newTestStore(t)

	u, err := store.FindByEmail(context.Background(), "Doctor@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != "doctor" || u.Name != "Dr. Smith" {
		t.Errorf("unexpected user %+v", u)
	}
	if u.PasswordHash == "doctor123" {
		t.Error("expected password to be stored hashed")
	}

	if _, err := store.FindByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	store, pm := newTestStore(t)
	ctx := context.Background()

	for _, cr := range DemoCredentials() {
		u, err := Authenticate(ctx, store, pm, cr.Email, cr.Password)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", cr.Email, err)
			continue
		}
		if u.Role != cr.Role {
			t.Errorf("%s: expected role %s, got %s", cr.Email, cr.Role, u.Role)
		}
	}

	if _, err := Authenticate(ctx, store, pm, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := Authenticate(ctx, store, pm, "ghost@example.com", "admin123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestPasswordManager_InvalidCostFallsBack(t *testing.T) {
	pm := NewPasswordManager(100)
	if pm.cost != bcrypt.DefaultCost {
		t.Errorf("expected default cost, got %d", pm.cost)
	}
}
