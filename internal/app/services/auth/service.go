package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainuser "weekstay/internal/domain/user"
)

var (
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrInvalidToken         = errors.New("auth: invalid token")
	ErrServiceNotConfigured = errors.New("auth: missing dependencies")
)

type PasswordComparer interface {
	Compare(hash, password string) error
}

// TokenClaims is the identity a signed token carries.
type TokenClaims struct {
	UserID   domainuser.ID
	Username string
	Role     domainuser.Role
}

type TokenCodec interface {
	Issue(claims TokenClaims) (string, error)
	Parse(token string) (*TokenClaims, error)
}

// Service signs users in and resolves bearer tokens back to accounts.
// Accounts are provisioned by administrators; there is no self-registration.
type Service struct {
	Users     domainuser.Repository
	Passwords PasswordComparer
	Tokens    TokenCodec
	Logger    *slog.Logger
}

type LoginParams struct {
	// Login accepts a username or an email address.
	Login    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	login := strings.TrimSpace(params.Login)
	if login == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.Users.ByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(u.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.Tokens.Issue(TokenClaims{UserID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", u.ID, "role", u.Role)
	}
	return &AuthResult{User: u, Token: token}, nil
}

// ResolveToken validates the token and loads the current account state, so a
// deleted user or a changed role takes effect immediately.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.Users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) ensureDependencies() error {
	if s.Users == nil || s.Passwords == nil || s.Tokens == nil {
		return ErrServiceNotConfigured
	}
	return nil
}
