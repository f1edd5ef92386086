package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/nutricare/server/internal/apperr"
)

const (
	minPasswordLength = 8
	// bcrypt only accepts the first 72 bytes
	maxPasswordBytes = 72
)

// ValidatePassword enforces the password policy: at least 8 characters with
// an uppercase letter, a lowercase letter, a digit and a special character.
// Whitespace is not allowed, and the password may be at most 72 bytes.
func ValidatePassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return apperr.Validation("password", "Password must be at least 8 characters long")
	}
	if len(password) > maxPasswordBytes {
		return apperr.Validation("password", "Password must be at most 72 bytes long")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return apperr.Validation("password", "Password must not contain spaces")
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case !upper:
		return apperr.Validation("password", "Password must contain at least one uppercase letter")
	case !lower:
		return apperr.Validation("password", "Password must contain at least one lowercase letter")
	case !digit:
		return apperr.Validation("password", "Password must contain at least one number")
	case !special:
		return apperr.Validation("password", "Password must contain at least one special character")
	}
	return nil
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is an
// error; a plain mismatch is not.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare password: %w", err)
}
