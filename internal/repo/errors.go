package repo

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateMobile = errors.New("mobile already registered")
)

const uniqueViolation = pq.ErrorCode("23505")

// translateUniqueViolation maps a unique-constraint failure on accounts to
// the matching sentinel so racing registrations surface like the pre-check.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case "accounts_email_key":
		return ErrDuplicateEmail
	case "accounts_mobile_key":
		return ErrDuplicateMobile
	}
	return err
}
