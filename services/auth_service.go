package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AuthService checks the organizer password. There is one organizer
// credential per club, configured as a bcrypt hash.
type AuthService interface {
	Authenticate(ctx context.Context, password string) error
}

type authService struct {
	passwordHash []byte
}

func NewAuthService(passwordHash string) AuthService {
	return &authService{passwordHash: []byte(passwordHash)}
}

func (s *authService) Authenticate(_ context.Context, password string) error {
	if len(s.passwordHash) == 0 {
		return ErrLoginDisabled
	}
	err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrAuthenticationFailed
		}
		return fmt.Errorf("failed to compare password hash: %w", err)
	}
	return nil
}

// HashPassword produces a hash suitable for ORGANIZER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidationFailed)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
