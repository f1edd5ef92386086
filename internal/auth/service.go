package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutricare/server/internal/apperr"
	"github.com/nutricare/server/internal/logging"
	"github.com/nutricare/server/internal/mail"
	"github.com/nutricare/server/internal/model"
	"github.com/nutricare/server/internal/repo"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

const minNameLength = 2

// AuthService orchestrates the account lifecycle: registration, password
// login with lockout, email OTP verification and session issuance.
type AuthService struct {
	accounts   repo.AccountRepo
	profiles   repo.ProfileRepo
	otp        *OtpIssuer
	jwtService *JWTService
	mailer     Mailer
	log        *slog.Logger
	now        func() time.Time
	bcryptCost int
}

// Option configures an AuthService
type Option func(*AuthService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithBcryptCost overrides the bcrypt work factor
func WithBcryptCost(cost int) Option {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// NewAuthService creates a new auth service
func NewAuthService(
	accounts repo.AccountRepo,
	profiles repo.ProfileRepo,
	otp *OtpIssuer,
	jwtService *JWTService,
	mailer Mailer,
	log *slog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		accounts:   accounts,
		profiles:   profiles,
		otp:        otp,
		jwtService: jwtService,
		mailer:     mailer,
		log:        log,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput is the registration form
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// LoginResult is either a session (Token set) or a pending verification
// (RequiresOTP set, a fresh code has been emailed).
type LoginResult struct {
	Account     *model.Account
	Token       string
	RequiresOTP bool
	Email       string
}

// Session is an issued bearer token and its account
type Session struct {
	Account *model.Account
	Token   string
}

// Register creates an unverified account with its profile and emails an OTP.
// If the email cannot be sent, the account and profile are removed again.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Mobile = strings.TrimSpace(in.Mobile)

	missing := map[string]bool{
		"name":     in.Name == "",
		"email":    in.Email == "",
		"password": in.Password == "",
		"mobile":   in.Mobile == "",
	}
	for _, m := range missing {
		if m {
			return "", apperr.MissingFields("All fields are required", missing)
		}
	}

	if len([]rune(in.Name)) < minNameLength {
		return "", apperr.Validation("name", "Name must be at least 2 characters long")
	}
	if !emailPattern.MatchString(in.Email) {
		return "", apperr.Validation("email", "Please provide a valid email address")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return "", err
	}
	if !mobilePattern.MatchString(in.Mobile) {
		return "", apperr.Validation("mobile", "Please enter a valid 10-digit mobile number")
	}

	existing, err := s.accounts.FindByEmailOrMobile(ctx, in.Email, in.Mobile)
	switch {
	case err == nil:
		if existing.Email == in.Email {
			return "", duplicateEmail()
		}
		return "", duplicateMobile()
	case !errors.Is(err, repo.ErrNotFound):
		return "", apperr.Dependency("Failed to check existing accounts", err)
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return "", apperr.Dependency("Registration failed", err)
	}

	account := &model.Account{
		Name:         in.Name,
		Email:        in.Email,
		Mobile:       in.Mobile,
		PasswordHash: hash,
	}
	code, err := s.otp.Issue(account, s.now())
	if err != nil {
		return "", apperr.Dependency("Registration failed", err)
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateEmail):
			return "", duplicateEmail()
		case errors.Is(err, repo.ErrDuplicateMobile):
			return "", duplicateMobile()
		}
		return "", apperr.Dependency("Registration failed", err)
	}

	profile := &model.Profile{
		AccountID: account.ID,
		Personal: model.PersonalInfo{
			Name:   account.Name,
			Email:  account.Email,
			Mobile: account.Mobile,
		},
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.rollback(ctx, account.ID, false)
		return "", apperr.Dependency("Registration failed", err)
	}

	if err := s.sendOTP(ctx, account.Email, code); err != nil {
		s.rollback(ctx, account.ID, true)
		return "", apperr.Dependency("Failed to send verification email. Please try again.", err)
	}

	s.log.Info("account registered", "account_id", account.ID, "email", logging.MaskEmail(account.Email), "mobile", logging.MaskMobile(account.Mobile))
	return account.Email, nil
}

// rollback removes a half-registered account so the email and mobile can be
// used again
func (s *AuthService) rollback(ctx context.Context, id uuid.UUID, withProfile bool) {
	ctx = context.WithoutCancel(ctx)
	if withProfile {
		if err := s.profiles.DeleteByAccountID(ctx, id); err != nil {
			s.log.Error("registration rollback: delete profile failed", "account_id", id, "error", err)
		}
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		s.log.Error("registration rollback: delete account failed", "account_id", id, "error", err)
	}
}

// Login checks the password. Verified accounts get a session token;
// unverified ones get a fresh OTP instead.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.MissingFields("Email and password are required", map[string]bool{
			"email":    email == "",
			"password": password == "",
		})
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Dependency("Login failed", err)
	}

	now := s.now()
	dirty := releaseExpiredLock(&account.Lockout, now)
	if account.Lockout.LockedAt(now) {
		return nil, apperr.AccountLocked(*account.Lockout.LockedUntil, now)
	}

	ok, err := CheckPassword(account.PasswordHash, password)
	if err != nil {
		return nil, apperr.Dependency("Login failed", err)
	}
	if !ok {
		recordFailure(&account.Lockout, now)
		if err := s.accounts.Update(ctx, &account); err != nil {
			return nil, apperr.Dependency("Login failed", err)
		}
		if account.Lockout.LockedUntil != nil {
			s.log.Warn("account locked", "account_id", account.ID, "until", *account.Lockout.LockedUntil)
		}
		return nil, apperr.InvalidCredentials()
	}

	if resetLockout(&account.Lockout) {
		dirty = true
	}

	if !account.Verified {
		code, err := s.otp.Issue(&account, now)
		if err != nil {
			return nil, apperr.Dependency("Login failed", err)
		}
		if err := s.accounts.Update(ctx, &account); err != nil {
			return nil, apperr.Dependency("Login failed", err)
		}
		if err := s.sendOTP(ctx, account.Email, code); err != nil {
			return nil, apperr.Dependency("Failed to send verification email. Please try again.", err)
		}
		return &LoginResult{RequiresOTP: true, Email: account.Email}, nil
	}

	if dirty {
		if err := s.accounts.Update(ctx, &account); err != nil {
			return nil, apperr.Dependency("Login failed", err)
		}
	}

	token, err := s.jwtService.SignToken(account.ID, account.Email)
	if err != nil {
		return nil, apperr.Dependency("Login failed", err)
	}
	return &LoginResult{Account: &account, Token: token, Email: account.Email}, nil
}

// VerifyOTP consumes a pending code. Success marks the account verified and
// issues a session.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, apperr.MissingFields("Email and OTP are required", map[string]bool{
			"email": email == "",
			"otp":   code == "",
		})
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Dependency("Verification failed", err)
	}

	reason, ok := s.otp.Check(&account, code, s.now())
	if !ok {
		if account.OTP != nil {
			if err := s.accounts.Update(ctx, &account); err != nil {
				return nil, apperr.Dependency("Verification failed", err)
			}
		}
		return nil, apperr.OtpInvalid(reason, attemptsLeft(&account))
	}

	account.Verified = true
	account.OTP = nil
	if err := s.accounts.Update(ctx, &account); err != nil {
		return nil, apperr.Dependency("Verification failed", err)
	}

	token, err := s.jwtService.SignToken(account.ID, account.Email)
	if err != nil {
		return nil, apperr.Dependency("Verification failed", err)
	}
	s.log.Info("account verified", "account_id", account.ID)
	return &Session{Account: &account, Token: token}, nil
}

// ResendOTP replaces the pending code with a fresh one and emails it
func (s *AuthService) ResendOTP(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email", "Email is required")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", apperr.NotFound("User not found")
		}
		return "", apperr.Dependency("Failed to resend OTP", err)
	}

	code, err := s.otp.Issue(&account, s.now())
	if err != nil {
		return "", apperr.Dependency("Failed to resend OTP", err)
	}
	if err := s.accounts.Update(ctx, &account); err != nil {
		return "", apperr.Dependency("Failed to resend OTP", err)
	}
	if err := s.sendOTP(ctx, account.Email, code); err != nil {
		return "", apperr.Dependency("Failed to send verification email. Please try again.", err)
	}
	return account.Email, nil
}

// Authenticate resolves a bearer token to its account
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	claims, err := s.jwtService.VerifyToken(token)
	if err != nil {
		return nil, apperr.Unauthenticated(err.Error(), "Invalid or expired token")
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.Unauthenticated("account_not_found", "User not found")
		}
		return nil, apperr.Dependency("Failed to load account", err)
	}
	return &account, nil
}

func (s *AuthService) sendOTP(ctx context.Context, to, code string) error {
	subject, body, err := mail.RenderOTP(code, otpExpiry)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

func duplicateEmail() error {
	return apperr.DuplicateAccount("email", "An account with this email already exists")
}

func duplicateMobile() error {
	return apperr.DuplicateAccount("mobile", "An account with this mobile number already exists")
}
