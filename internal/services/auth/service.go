package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Errors
var (
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrInvalidHash   = errors.New("invalid bcrypt hash")
)

// Config holds the admin credential. PasswordHash is a bcrypt hash and takes
// precedence over Password when both are set.
type Config struct {
	Password     string
	PasswordHash string
}

// Service verifies the admin credential
type Service struct {
	password []byte
	hash     []byte
}

// New creates a new Service
func New(cfg Config) *Service {
	s := &Service{}
	if cfg.PasswordHash != "" {
		s.hash = []byte(cfg.PasswordHash)
	} else if cfg.Password != "" {
		s.password = []byte(cfg.Password)
	}
	return s
}

// Verify reports whether password matches the configured credential.
// With nothing configured every attempt fails.
func (s *Service) Verify(password string) bool {
	switch {
	case s.hash != nil:
		return bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil
	case s.password != nil:
		return subtle.ConstantTimeCompare(s.password, []byte(password)) == 1
	default:
		return false
	}
}

// HashPassword returns a bcrypt hash of password for use as a PasswordHash.
// A cost of zero uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ValidateHash checks that hash is a well-formed bcrypt hash
func ValidateHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return nil
}
