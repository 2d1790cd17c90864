// Package auth issues and verifies session tokens for registered users and
// guests, and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid session token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const sessionTTL = 7 * 24 * time.Hour

// Claims is the JWT payload for a session.
type Claims struct {
	UserID  uuid.UUID `json:"uid"`
	Name    string    `json:"name"`
	IsGuest bool      `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a shared HMAC secret.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// IssueToken creates a signed session token for a user.
func (s *Service) IssueToken(userID uuid.UUID, name string, guest bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		Name:    name,
		IsGuest: guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueGuestToken mints a fresh identity for an anonymous player.
func (s *Service) IssueGuestToken(name string) (uuid.UUID, string, error) {
	id := uuid.New()
	token, err := s.IssueToken(id, name, true)
	return id, token, err
}

// VerifyToken parses and validates a session token.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

// CheckPassword compares a stored hash with a candidate password.
func CheckPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
