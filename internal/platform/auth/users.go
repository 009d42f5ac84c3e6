package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrUserNotFound is returned by a UserStore for unknown emails.
var ErrUserNotFound = errors.New("user not found")

// User is an entry in the caller identity store.
type User struct {
	Email        string
	Name         string
	Role         string
	PasswordHash string
}

// UserStore resolves callers by email.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PasswordManager hashes and verifies passwords with bcrypt.
type PasswordManager struct {
	cost int
}

func NewPasswordManager(cost int) *PasswordManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordManager{cost: cost}
}

func (pm *PasswordManager) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), pm.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash. A mismatch is not an error.
func (pm *PasswordManager) VerifyPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}

// Credential seeds a MemoryUserStore with a plaintext password.
type Credential struct {
	Email    string
	Name     string
	Role     string
	Password string
}

// DemoCredentials are the built-in dashboard accounts.
func DemoCredentials() []Credential {
	return []Credential{
		{Email: "admin@example.com", Name: "Admin User", Role: "admin", Password: "admin123"},
		{Email: "doctor@example.com", Name: "Dr. Smith", Role: "doctor", Password: "doctor123"},
		{Email: "nurse@example.com", Name: "Nurse Johnson", Role: "nurse", Password: "nurse123"},
		{Email: "system_admin@example.com", Name: "System Administrator", Role: "system_admin", Password: "admin123"},
		{Email: "clinical_staff@example.com", Name: "Clinical Staff Member", Role: "clinical_staff", Password: "clinical123"},
	}
}

// MemoryUserStore is a read-only identity store populated at startup.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUserStore hashes every credential and indexes it by email.
// Email lookup is case-insensitive.
func NewMemoryUserStore(pm *PasswordManager, creds []Credential) (*MemoryUserStore, error) {
	s := &MemoryUserStore{users: make(map[string]*User, len(creds))}
	for _, cr := range creds {
		hash, err := pm.HashPassword(cr.Password)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", cr.Email, err)
		}
		s.users[strings.ToLower(cr.Email)] = &User{
			Email:        cr.Email,
			Name:         cr.Name,
			Role:         cr.Role,
			PasswordHash: hash,
		}
	}
	return s, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// Authenticate returns the user owning email when password matches.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func Authenticate(ctx context.Context, store UserStore, pm *PasswordManager, email, password string) (*User, error) {
	u, err := store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := pm.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ErrInvalidCredentials is returned by Authenticate on a failed login.
var ErrInvalidCredentials = errors.New("incorrect email or password")
