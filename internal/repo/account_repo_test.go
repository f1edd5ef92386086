package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricare/server/internal/model"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var accountRowColumns = []string{
	"id", "name", "email", "mobile", "password_hash", "verified",
	"otp_hash", "otp_expires_at", "otp_attempts", "otp_last_attempt_at",
	"failed_login_count", "last_failed_login_at", "locked_until",
	"created_at", "updated_at",
}

func TestAccountRepo_Create_Success(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	account := &model.Account{
		Name:         "Alice",
		Email:        "a@x.com",
		Mobile:       "9876543210",
		PasswordHash: "$2a$10$hash",
		OTP:          &model.OtpMaterial{CodeHash: "abc", ExpiresAt: now.Add(10 * time.Minute)},
	}

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+accounts.*RETURNING\s+created_at,\s*updated_at`).
		WithArgs(sqlmock.AnyArg(), "Alice", "a@x.com", "9876543210", "$2a$10$hash", false,
			"abc", sqlmock.AnyArg(), 0, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, r.Create(context.Background(), account))
	assert.NotEqual(t, uuid.Nil, account.ID, "ID must be assigned")
	assert.Equal(t, now, account.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Create_DuplicateKeys(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{"accounts_email_key", ErrDuplicateEmail},
		{"accounts_mobile_key", ErrDuplicateMobile},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			db, mock := newMockDB(t)
			r := NewAccountRepo(db)

			mock.ExpectQuery(`(?s)INSERT\s+INTO\s+accounts`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tc.constraint})

			err := r.Create(context.Background(), &model.Account{Email: "a@x.com", Mobile: "9876543210"})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAccountRepo_Create_OtherError(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("connection reset"))

	err := r.Create(context.Background(), &model.Account{Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAccountRepo_GetByEmail_WithOtpMaterial(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	id := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lastAttempt := now.Add(-time.Minute)
	rows := sqlmock.NewRows(accountRowColumns).AddRow(
		id.String(), "Alice", "a@x.com", "9876543210", "hash", false,
		"deadbeef", now.Add(10*time.Minute), 2, lastAttempt,
		1, now, nil,
		now, now,
	)
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@x.com").
		WillReturnRows(rows)

	a, err := r.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	require.NotNil(t, a.OTP)
	assert.Equal(t, "deadbeef", a.OTP.CodeHash)
	assert.Equal(t, 2, a.OTP.Attempts)
	require.NotNil(t, a.OTP.LastAttemptAt)
	assert.True(t, lastAttempt.Equal(*a.OTP.LastAttemptAt))
	assert.Equal(t, 1, a.Lockout.FailedCount)
	assert.Nil(t, a.Lockout.LockedUntil)
}

func TestAccountRepo_GetByEmail_NoOtp(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows(accountRowColumns).AddRow(
		uuid.NewString(), "Alice", "a@x.com", "9876543210", "hash", true,
		nil, nil, 0, nil,
		0, nil, nil,
		now, now,
	)
	mock.ExpectQuery(`FROM\s+accounts`).WillReturnRows(rows)

	a, err := r.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.True(t, a.Verified)
	assert.Nil(t, a.OTP)
}

func TestAccountRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	mock.ExpectQuery(`FROM\s+accounts`).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := r.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	mock.ExpectQuery(`(?s)UPDATE\s+accounts.+WHERE\s+id\s*=\s*\$1`).WillReturnError(sql.ErrNoRows)

	err := r.Update(context.Background(), &model.Account{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepo_Update_ClearsOtp(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`(?s)UPDATE\s+accounts`).
		WithArgs(id, "Alice", "a@x.com", "9876543210", "hash", true,
			nil, nil, 0, nil, 0, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

	a := &model.Account{ID: id, Name: "Alice", Email: "a@x.com", Mobile: "9876543210", PasswordHash: "hash", Verified: true}
	require.NoError(t, r.Update(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewAccountRepo(db)

	id := uuid.New()
	mock.ExpectExec(`DELETE\s+FROM\s+accounts`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Delete(context.Background(), id))

	mock.ExpectExec(`DELETE\s+FROM\s+accounts`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.Delete(context.Background(), id), ErrNotFound)
}
