// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/carterperez-dev/habit-ledger/internal/config"
	"github.com/carterperez-dev/habit-ledger/internal/core"
)

var testJWTConfig = config.JWTConfig{
	AccessTokenExpire: time.Hour,
	Issuer:            "habit-ledger",
	Audience:          "habit-ledger-api",
}

func newTestJWTManager(t *testing.T) (*JWTManager, *clockwork.FakeClock) {
	t.Helper()

	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := jwk.Import(raw)
	if err != nil {
		t.Fatalf("import key: %v", err)
	}

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	m, err := NewJWTManagerFromKey(key, testJWTConfig, clock)
	if err != nil {
		t.Fatalf("NewJWTManagerFromKey() error = %v", err)
	}
	return m, clock
}

func TestCreateAndVerifyAccessToken(t *testing.T) {
	m, clock := newTestJWTManager(t)

	issued, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "user-1",
		Role:         "user",
		Plan:         "pro",
		TokenVersion: 3,
	})
	if err != nil {
		t.Fatalf("CreateAccessToken() error = %v", err)
	}
	if want := clock.Now().Add(time.Hour); !issued.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", issued.ExpiresAt, want)
	}

	claims, err := m.VerifyAccessToken(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Plan != "pro" || claims.Role != "user" {
		t.Fatalf("claims = %+v, want user-1/user/pro", claims)
	}
	if claims.TokenVersion != 3 {
		t.Fatalf("TokenVersion = %d, want 3", claims.TokenVersion)
	}
	if claims.JWTID != issued.JWTID {
		t.Fatalf("JWTID = %s, want %s", claims.JWTID, issued.JWTID)
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	m, clock := newTestJWTManager(t)

	issued, err := m.CreateAccessToken(AccessTokenClaims{UserID: "user-1", Role: "user", Plan: "free"})
	if err != nil {
		t.Fatalf("CreateAccessToken() error = %v", err)
	}

	clock.Advance(2 * time.Hour)

	_, err = m.VerifyAccessToken(context.Background(), issued.Token)
	if !errors.Is(err, core.ErrTokenExpired) {
		t.Fatalf("VerifyAccessToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyAccessTokenRejects(t *testing.T) {
	m, _ := newTestJWTManager(t)
	other, _ := newTestJWTManager(t)

	foreign, err := other.CreateAccessToken(AccessTokenClaims{UserID: "user-1", Role: "user", Plan: "free"})
	if err != nil {
		t.Fatalf("CreateAccessToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"signed by another key", foreign.Token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyAccessToken(context.Background(), tt.token)
			if !errors.Is(err, core.ErrTokenInvalid) {
				t.Fatalf("VerifyAccessToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestJWKSHandler(t *testing.T) {
	m, _ := newTestJWTManager(t)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode jwks: %v", err)
	}
	if len(body.Keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1", len(body.Keys))
	}
	if body.Keys[0]["kid"] != m.GetKeyID() {
		t.Fatalf("kid = %v, want %s", body.Keys[0]["kid"], m.GetKeyID())
	}
	if _, leaked := body.Keys[0]["d"]; leaked {
		t.Fatal("private component published in JWKS")
	}
}

func TestGenerateKeyPairRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := testJWTConfig
	cfg.PrivateKeyPath = filepath.Join(dir, "private.pem")
	cfg.PublicKeyPath = filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	first, err := NewJWTManager(cfg, clockwork.NewRealClock())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	second, err := NewJWTManager(cfg, clockwork.NewRealClock())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	if first.GetKeyID() != second.GetKeyID() {
		t.Fatalf("key ids differ: %s vs %s", first.GetKeyID(), second.GetKeyID())
	}
}
