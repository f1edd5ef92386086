package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nutricare/server/internal/model"
)

// AccountRepo defines the interface for account repository operations
type AccountRepo interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (model.Account, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	FindByEmailOrMobile(ctx context.Context, email, mobile string) (model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type accountRepo struct {
	db *sql.DB
}

// NewAccountRepo creates a new AccountRepo instance
func NewAccountRepo(db *sql.DB) AccountRepo {
	return &accountRepo{db: db}
}

const accountColumns = `id, name, email, mobile, password_hash, verified,
		       otp_hash, otp_expires_at, otp_attempts, otp_last_attempt_at,
		       failed_login_count, last_failed_login_at, locked_until,
		       created_at, updated_at`

// Create inserts a new account. Unique violations on email or mobile are
// returned as ErrDuplicateEmail / ErrDuplicateMobile.
func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	otpHash, otpExpires, otpAttempts, otpLast := otpArgs(account.OTP)

	query := `
		INSERT INTO accounts (id, name, email, mobile, password_hash, verified,
		                      otp_hash, otp_expires_at, otp_attempts, otp_last_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.Mobile,
		account.PasswordHash,
		account.Verified,
		otpHash,
		otpExpires,
		otpAttempts,
		otpLast,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if dup := translateUniqueViolation(err); dup != err {
			return dup
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *accountRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves an account by its case-folded email
func (r *accountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// FindByEmailOrMobile returns any account holding either identity; an
// email match wins over a mobile match.
func (r *accountRepo) FindByEmailOrMobile(ctx context.Context, email, mobile string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE email = $1 OR mobile = $2
		ORDER BY (email = $1) DESC
		LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email, mobile))
}

// Update writes every mutable column of the account in one statement
func (r *accountRepo) Update(ctx context.Context, account *model.Account) error {
	otpHash, otpExpires, otpAttempts, otpLast := otpArgs(account.OTP)

	query := `
		UPDATE accounts
		SET name = $2, email = $3, mobile = $4, password_hash = $5, verified = $6,
		    otp_hash = $7, otp_expires_at = $8, otp_attempts = $9, otp_last_attempt_at = $10,
		    failed_login_count = $11, last_failed_login_at = $12, locked_until = $13,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.Mobile,
		account.PasswordHash,
		account.Verified,
		otpHash,
		otpExpires,
		otpAttempts,
		otpLast,
		account.Lockout.FailedCount,
		account.Lockout.LastFailedAt,
		account.Lockout.LockedUntil,
	).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if dup := translateUniqueViolation(err); dup != err {
			return dup
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// Delete removes the account; profiles and diet plans cascade
func (r *accountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accountRepo) scanOne(row *sql.Row) (model.Account, error) {
	var (
		a          model.Account
		idStr      string
		otpHash    sql.NullString
		otpExpires sql.NullTime
		otpAtt     int
		otpLast    *time.Time
	)
	err := row.Scan(
		&idStr,
		&a.Name,
		&a.Email,
		&a.Mobile,
		&a.PasswordHash,
		&a.Verified,
		&otpHash,
		&otpExpires,
		&otpAtt,
		&otpLast,
		&a.Lockout.FailedCount,
		&a.Lockout.LastFailedAt,
		&a.Lockout.LockedUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to query account: %w", err)
	}

	a.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to parse account ID: %w", err)
	}

	if otpHash.Valid {
		a.OTP = &model.OtpMaterial{
			CodeHash:      otpHash.String,
			ExpiresAt:     otpExpires.Time,
			Attempts:      otpAtt,
			LastAttemptAt: otpLast,
		}
	}
	return a, nil
}

// otpArgs flattens optional OTP material into column values
func otpArgs(otp *model.OtpMaterial) (hash, expiresAt any, attempts int, lastAttempt any) {
	if otp == nil {
		return nil, nil, 0, nil
	}
	var last any
	if otp.LastAttemptAt != nil {
		last = *otp.LastAttemptAt
	}
	return otp.CodeHash, otp.ExpiresAt, otp.Attempts, last
}
