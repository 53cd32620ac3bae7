package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/yungbote/magix-backend/internal/data/db"
	"github.com/yungbote/magix-backend/internal/data/repos"
	types "github.com/yungbote/magix-backend/internal/domain"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

const (
	usernameSuffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	usernameSuffixLen      = 4
	usernameMaxAttempts    = 8
)

type UserService interface {
	List(ctx context.Context) ([]*types.User, error)
	GetByUsername(ctx context.Context, username string) (*types.User, error)
	GetOrCreateByEmail(ctx context.Context, email string) (*types.User, error)
	// ValidateToken verifies a Google ID token and returns the matching user, creating it on first sight.
	ValidateToken(ctx context.Context, token string) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	repo     repos.UserRepo
	verifier TokenVerifier
	tenantID string
}

// NewUserService builds the user service. verifier may be nil when CLIENT_ID is not configured.
func NewUserService(repo repos.UserRepo, verifier TokenVerifier, tenantID string, baseLog *logger.Logger) UserService {
	return &userService{
		log:      baseLog.With("service", "UserService"),
		repo:     repo,
		verifier: verifier,
		tenantID: strings.TrimSpace(tenantID),
	}
}

func (s *userService) List(ctx context.Context) ([]*types.User, error) {
	rows, err := s.repo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, persistenceError(err)
	}
	return rows, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	u, err := s.repo.GetByUsername(dbctx.Context{Ctx: ctx}, username)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apierr.NotFound("User Not Found.", err)
		}
		return nil, persistenceError(err)
	}
	return u, nil
}

func (s *userService) GetOrCreateByEmail(ctx context.Context, email string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apierr.Validation("Missing argument")
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.repo.GetByEmail(dbc, email)
	if err == nil {
		return existing, nil
	}
	if !db.IsNotFound(err) {
		return nil, persistenceError(err)
	}

	username, err := s.availableUsername(dbc, usernameBase(email))
	if err != nil {
		return nil, err
	}
	u := &types.User{Username: username, Email: email}
	if s.tenantID != "" {
		tenant := s.tenantID
		u.TenantID = &tenant
	}
	created, err := s.repo.Create(dbc, u)
	if err != nil {
		s.log.Error("create user failed", "email", email, "error", err)
		return nil, persistenceError(err)
	}
	s.log.Info("user created", "username", created.Username)
	return created, nil
}

func usernameBase(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	if local == "" {
		local = "user"
	}
	return local
}

func (s *userService) availableUsername(dbc dbctx.Context, base string) (string, error) {
	candidate := base
	for attempt := 0; attempt < usernameMaxAttempts; attempt++ {
		taken, err := s.repo.UsernameExists(dbc, candidate)
		if err != nil {
			return "", persistenceError(err)
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := randomAlphanumeric(usernameSuffixLen)
		if err != nil {
			return "", err
		}
		candidate = base + "_" + suffix
	}
	return "", apierr.Persistence("Database error occurred", fmt.Errorf("no free username for %q after %d attempts", base, usernameMaxAttempts))
}

func randomAlphanumeric(n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(usernameSuffixAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(usernameSuffixAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

func (s *userService) ValidateToken(ctx context.Context, token string) (*types.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apierr.Validation("Missing argument")
	}
	if s.verifier == nil {
		return nil, apierr.Auth(http.StatusInternalServerError, "Token verification is not configured", fmt.Errorf("CLIENT_ID not set"))
	}
	ident, err := s.verifier.VerifyGoogleIDToken(ctx, token)
	if err != nil {
		s.log.Warn("token verification failed", "error", err)
		return nil, apierr.Auth(http.StatusInternalServerError, "Invalid token", err)
	}
	return s.GetOrCreateByEmail(ctx, ident.Email)
}
