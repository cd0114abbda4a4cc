package service

import (
	"errors"
	"fmt"
	"time"

	"tank_supervisor/internal/registry"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrNotAdmin        = errors.New("administrator privileges required")
)

// AuthService issues admin API tokens to registry administrators.
type AuthService struct {
	users      *registry.Registry
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(users *registry.Registry, signingKey string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{users: users, signingKey: []byte(signingKey), tokenTTL: ttl}
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	Login string `json:"login"`
}

// GenerateToken validates admin credentials and returns a JWT.
func (s *AuthService) GenerateToken(login, password string) (string, error) {
	u, err := s.users.VerifyAdmin(login, password)
	switch {
	case errors.Is(err, registry.ErrUnknownUser):
		return "", ErrUserNotFound
	case errors.Is(err, registry.ErrBadPassword):
		return "", ErrInvalidPassword
	case err != nil:
		return "", err
	}
	if !u.IsAdmin() {
		return "", ErrNotAdmin
	}
	return s.issueToken(u.Login())
}

// ParseToken parses a JWT and returns the admin login it was issued to.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Login == "" {
		return "", ErrInvalidToken
	}
	return claims.Login, nil
}

// helper: issue a signed JWT for an admin
func (s *AuthService) issueToken(login string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   login,
		},
		Login: login,
	})
	return token.SignedString(s.signingKey)
}
