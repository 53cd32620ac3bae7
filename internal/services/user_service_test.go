package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/magix-backend/internal/data/repos"
	"github.com/yungbote/magix-backend/internal/data/repos/testutil"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
)

type stubVerifier struct {
	ident *GoogleIdentity
	err   error
}

func (s stubVerifier) VerifyGoogleIDToken(context.Context, string) (*GoogleIdentity, error) {
	return s.ident, s.err
}

func TestGetOrCreateByEmailUsernameCollision(t *testing.T) {
	gdb := testutil.DB(t)
	ctx := context.Background()
	testutil.SeedUser(t, ctx, gdb, "alice", "alice@other.com")
	svc := NewUserService(repos.NewUserRepo(gdb, testutil.Logger(t)), nil, "tenant-1", testutil.Logger(t))

	u, err := svc.GetOrCreateByEmail(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail: %v", err)
	}
	if !strings.HasPrefix(u.Username, "alice_") || len(u.Username) != len("alice_")+usernameSuffixLen {
		t.Fatalf("username: got=%q", u.Username)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email: want=%q got=%q", "alice@example.com", u.Email)
	}
	if u.TenantID == nil || *u.TenantID != "tenant-1" {
		t.Fatalf("tenant: got=%v", u.TenantID)
	}

	again, err := svc.GetOrCreateByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateByEmail again: %v", err)
	}
	if again.Username != u.Username {
		t.Fatalf("second lookup: want=%q got=%q", u.Username, again.Username)
	}
}

func TestGetByUsernameMissing(t *testing.T) {
	gdb := testutil.DB(t)
	svc := NewUserService(repos.NewUserRepo(gdb, testutil.Logger(t)), nil, "", testutil.Logger(t))
	_, err := svc.GetByUsername(context.Background(), "nobody")
	ae := apierr.As(err)
	if ae == nil || ae.Status != http.StatusNotFound || ae.Message != "User Not Found." {
		t.Fatalf("GetByUsername: got=%v", err)
	}
}

func TestValidateToken(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	ok := NewUserService(repos.NewUserRepo(gdb, log), stubVerifier{ident: &GoogleIdentity{Subject: "1", Email: "bob@example.com"}}, "", log)
	u, err := ok.ValidateToken(ctx, "tok")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if u.Username != "bob" {
		t.Fatalf("username: want=%q got=%q", "bob", u.Username)
	}

	bad := NewUserService(repos.NewUserRepo(gdb, log), stubVerifier{err: errors.New("expired")}, "", log)
	_, err = bad.ValidateToken(ctx, "tok")
	ae := apierr.As(err)
	if ae == nil || ae.Code != apierr.TypeAuth || ae.Status != http.StatusInternalServerError {
		t.Fatalf("ValidateToken bad: got=%v", err)
	}

	_, err = ok.ValidateToken(ctx, "  ")
	if ae := apierr.As(err); ae == nil || ae.Code != apierr.TypeValidation {
		t.Fatalf("ValidateToken empty: got=%v", err)
	}
}

func TestGoogleVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "k1",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	defer srv.Close()

	v, err := NewGoogleVerifier(srv.Client(), "client-123", srv.URL)
	if err != nil {
		t.Fatalf("NewGoogleVerifier: %v", err)
	}

	sign := func(claims jwt.MapClaims, kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = kid
		s, err := tok.SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	now := time.Now()
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":            "https://accounts.google.com",
			"aud":            "client-123",
			"sub":            "sub-1",
			"email":          "Carol@Example.com",
			"email_verified": true,
			"iat":            now.Add(-time.Minute).Unix(),
			"exp":            now.Add(time.Hour).Unix(),
		}
	}

	ident, err := v.VerifyGoogleIDToken(context.Background(), sign(base(), "k1"))
	if err != nil {
		t.Fatalf("VerifyGoogleIDToken: %v", err)
	}
	if ident.Email != "carol@example.com" || ident.Subject != "sub-1" || !ident.EmailVerified {
		t.Fatalf("identity: got=%+v", ident)
	}

	cases := []struct {
		name   string
		mutate func(jwt.MapClaims)
		kid    string
	}{
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }, "k1"},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "evil.example.com" }, "k1"},
		{"expired", func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Minute).Unix() }, "k1"},
		{"missing email", func(c jwt.MapClaims) { delete(c, "email") }, "k1"},
		{"unknown kid", func(jwt.MapClaims) {}, "k2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := base()
			tc.mutate(claims)
			if _, err := v.VerifyGoogleIDToken(context.Background(), sign(claims, tc.kid)); err == nil {
				t.Fatalf("expected verification failure")
			}
		})
	}
}
