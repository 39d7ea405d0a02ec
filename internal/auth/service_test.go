// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*UserInfo
	byEmail map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*UserInfo{}, byEmail: map[string]string{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	u := *m.byID[id]
	return &u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memUsers) Create(
	_ context.Context,
	_ core.DBTX,
	email, passwordHash, name, timezone string,
) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	if timezone == "" {
		timezone = "UTC"
	}
	u := &UserInfo{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         "user",
		Plan:         "free",
		Timezone:     timezone,
	}
	m.byID[u.ID] = u
	m.byEmail[email] = u.ID
	c := *u
	return &c, nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) setPlan(userID, plan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[userID].Plan = plan
}

type memProfiles struct {
	created []string
	err     error
}

func (p *memProfiles) EnsureProfile(_ context.Context, _ core.DBTX, userID string) error {
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, userID)
	return nil
}

type memBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (b *memBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = ttl
	return nil
}

func (b *memBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[jti]
	return ok, nil
}

type passTx struct{}

func (passTx) InTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type serviceFixture struct {
	svc       *Service
	users     *memUsers
	profiles  *memProfiles
	blacklist *memBlacklist
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()
	m, clock := newTestJWTManager(t)
	f := serviceFixture{
		users:     newMemUsers(),
		profiles:  &memProfiles{},
		blacklist: &memBlacklist{revoked: map[string]time.Duration{}},
	}
	f.svc = NewService(ServiceConfig{
		JWT:        m,
		Users:      f.users,
		Profiles:   f.profiles,
		Blacklist:  f.blacklist,
		Transactor: passTx{},
		Clock:      clock,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func register(t *testing.T, f serviceFixture, email string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "password123",
		Name:     "Ada",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

func TestRegisterCreatesProfile(t *testing.T) {
	f := newServiceFixture(t)

	resp := register(t, f, "ada@example.com")

	if resp.User.Plan != "free" || resp.User.Timezone != "UTC" {
		t.Fatalf("user = %+v, want free plan in UTC", resp.User)
	}
	if resp.Tokens.ExpiresIn != int(time.Hour/time.Second) {
		t.Fatalf("ExpiresIn = %d, want 3600", resp.Tokens.ExpiresIn)
	}
	if len(f.profiles.created) != 1 || f.profiles.created[0] != resp.User.ID {
		t.Fatalf("profiles = %v, want [%s]", f.profiles.created, resp.User.ID)
	}

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "ada@example.com",
		Password: "password456",
		Name:     "Ada Again",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("second Register() error = %v, want ErrEmailExists", err)
	}
}

func TestRegisterProfileFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.profiles.err = errors.New("db down")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Email:    "ada@example.com",
		Password: "password123",
		Name:     "Ada",
	})
	if err == nil {
		t.Fatal("Register() error = nil, want profile failure")
	}
}

func TestLogin(t *testing.T) {
	f := newServiceFixture(t)
	register(t, f, "ada@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "ada@example.com", "password123", nil},
		{"wrong password", "ada@example.com", "password124", ErrInvalidCredentials},
		{"unknown email", "bob@example.com", "password123", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.svc.Login(context.Background(), LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && resp.Tokens.AccessToken == "" {
				t.Fatal("Login() returned no token")
			}
		})
	}
}

func TestVerifyReflectsCurrentPlan(t *testing.T) {
	f := newServiceFixture(t)
	resp := register(t, f, "ada@example.com")

	f.users.setPlan(resp.User.ID, "pro")

	claims, err := f.svc.VerifyAccessToken(context.Background(), resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.Plan != "pro" {
		t.Fatalf("Plan = %s, want pro", claims.Plan)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newServiceFixture(t)
	resp := register(t, f, "ada@example.com")
	ctx := context.Background()

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if err := f.svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if ttl := f.blacklist.revoked[claims.JWTID]; ttl != time.Hour {
		t.Fatalf("blacklist ttl = %v, want 1h", ttl)
	}

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	if !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("VerifyAccessToken() after logout error = %v, want ErrTokenRevoked", err)
	}
}

func TestChangePasswordRevokesExistingTokens(t *testing.T) {
	f := newServiceFixture(t)
	resp := register(t, f, "ada@example.com")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, resp.User.ID, "wrong-password", "newpassword1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("ChangePassword(wrong) error = %v, want ErrInvalidCredentials", err)
	}

	if err := f.svc.ChangePassword(ctx, resp.User.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	if !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("old token error = %v, want ErrTokenRevoked", err)
	}

	if _, err := f.svc.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "newpassword1"}); err != nil {
		t.Fatalf("Login(new password) error = %v", err)
	}
}
