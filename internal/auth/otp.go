package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/nutricare/server/internal/apperr"
	"github.com/nutricare/server/internal/model"
)

const (
	otpLength      = 6
	otpExpiry      = 10 * time.Minute
	maxOtpAttempts = 3
)

var otpSpace = big.NewInt(1_000_000)

// OtpIssuer generates verification codes and validates submitted ones.
// Only a salted hash of each code is kept on the account.
type OtpIssuer struct {
	salt string
}

// NewOtpIssuer creates a new OTP issuer
func NewOtpIssuer(salt string) *OtpIssuer {
	return &OtpIssuer{salt: salt}
}

// Issue stores fresh OTP material on the account, replacing any previous
// code, and returns the plaintext for delivery.
func (p *OtpIssuer) Issue(account *model.Account, now time.Time) (string, error) {
	code, err := generateOTPCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	account.OTP = &model.OtpMaterial{
		CodeHash:  hashOTPHex(account.Email, code, p.salt),
		ExpiresAt: now.Add(otpExpiry),
		Attempts:  0,
	}
	return code, nil
}

// Check runs the validation steps in order: no code, attempt cap, expiry,
// then increment and compare. It mutates the OTP material (attempt counter,
// last attempt) and the caller must persist the account afterwards.
func (p *OtpIssuer) Check(account *model.Account, code string, now time.Time) (apperr.OtpReason, bool) {
	otp := account.OTP
	if otp == nil {
		return apperr.OtpMissing, false
	}

	if otp.Attempts >= maxOtpAttempts {
		otp.LastAttemptAt = &now
		return apperr.OtpMaxAttempts, false
	}

	if !otp.ExpiresAt.After(now) {
		otp.LastAttemptAt = &now
		return apperr.OtpExpired, false
	}

	otp.Attempts++
	otp.LastAttemptAt = &now

	stored, err := hex.DecodeString(otp.CodeHash)
	if err != nil || !constantTimeCompare(hashOTPBytes(account.Email, code, p.salt), stored) {
		if otp.Attempts >= maxOtpAttempts {
			return apperr.OtpMaxAttempts, false
		}
		return apperr.OtpMismatch, false
	}
	return "", true
}

// attemptsLeft is reported alongside a mismatch
func attemptsLeft(account *model.Account) int {
	if account.OTP == nil {
		return 0
	}
	left := maxOtpAttempts - account.OTP.Attempts
	if left < 0 {
		return 0
	}
	return left
}

// generateOTPCode returns a uniformly random 6-digit decimal string
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}

// hashOTPHex returns SHA-256(email:code:salt) as hex for DB storage
func hashOTPHex(email, code, salt string) string {
	return hex.EncodeToString(hashOTPBytes(email, code, salt))
}

func hashOTPBytes(email, code, salt string) []byte {
	data := fmt.Sprintf("%s:%s:%s", email, code, salt)
	hash := sha256.Sum256([]byte(data))
	return hash[:]
}

func constantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
