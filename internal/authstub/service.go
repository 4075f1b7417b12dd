// Package authstub is a local stand-in for the login service the probe targets.
// It issues the same cookies and JSON bodies so the probe has something
// realistic to talk to on a developer machine.
package authstub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"loginprobe/pkg/errors"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// LoginRequest captures credentials for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Normalize trims both fields and lowercases the email.
func (r *LoginRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// LoginResult is a successful login: the user plus both signed tokens.
type LoginResult struct {
	User             *User
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Claims are the fields carried by both token kinds.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// Service verifies credentials and issues tokens.
type Service struct {
	repo          Repository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewService constructs a Service with the given repository and JWT settings.
func NewService(repo Repository, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		repo:          repo,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Login checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	return s.generateTokens(user)
}

// Authenticate resolves an access token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.parse(token, s.accessSecret, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return s.userFromClaims(ctx, claims)
}

func (s *Service) userFromClaims(ctx context.Context, claims *Claims) (*User, error) {
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	return user, nil
}

// Refresh exchanges a valid refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, token string) (string, time.Time, error) {
	claims, err := s.parse(token, s.refreshSecret, tokenTypeRefresh)
	if err != nil {
		return "", time.Time{}, err
	}
	user, err := s.userFromClaims(ctx, claims)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expires := now.Add(s.accessTTL)
	access, err := s.sign(user, tokenTypeAccess, now, expires, s.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return access, expires, nil
}

func (s *Service) generateTokens(user *User) (*LoginResult, error) {
	now := s.now()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.sign(user, tokenTypeAccess, now, accessExp, s.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, tokenTypeRefresh, now, refreshExp, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:             user,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *Service) sign(user *User, kind string, issued, expires time.Time, secret []byte) (string, error) {
	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (s *Service) parse(token string, secret []byte, kind string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Type != kind {
		return nil, errors.ErrInvalidCredentials
	}
	return claims, nil
}
