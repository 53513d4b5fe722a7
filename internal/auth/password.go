package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for production hashes (~250ms).
const defaultCost = 12

// Password length limits. bcrypt silently ignores bytes past 72, so longer
// passwords are rejected instead of being truncated.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var (
	// ErrInvalidPassword is returned by Verify when the password does not match.
	ErrInvalidPassword = errors.New("auth: invalid password")
	// ErrPasswordLength is returned by Hash for passwords outside the limits.
	ErrPasswordLength = fmt.Errorf("auth: password must be between %d and %d bytes", MinPasswordLength, MaxPasswordLength)
)

// PasswordService hashes and verifies passwords with bcrypt.
// The cost is a field so tests can use bcrypt.MinCost.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a service with a custom (usually minimal) cost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext ($2a$<cost>$<salt><hash>).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) < MinPasswordLength || len(plaintext) > MaxPasswordLength {
		return "", ErrPasswordLength
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares plaintext against a stored hash. A mismatch returns
// ErrInvalidPassword; a corrupt hash returns a wrapped bcrypt error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
