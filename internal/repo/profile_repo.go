package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nutricare/server/internal/model"
)

// ProfileRepo defines the interface for profile repository operations
type ProfileRepo interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (model.Profile, error)
	Save(ctx context.Context, profile *model.Profile) error
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error
}

type profileRepo struct {
	db *sql.DB
}

// NewProfileRepo creates a new ProfileRepo instance
func NewProfileRepo(db *sql.DB) ProfileRepo {
	return &profileRepo{db: db}
}

// Create inserts the profile of a freshly registered account
func (r *profileRepo) Create(ctx context.Context, profile *model.Profile) error {
	personal, medical, err := marshalProfile(profile)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (account_id, personal_info, medical_info)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, profile.AccountID, string(personal), string(medical)).
		Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetByAccountID retrieves the profile of an account
func (r *profileRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (model.Profile, error) {
	query := `
		SELECT personal_info, medical_info, created_at, updated_at
		FROM profiles
		WHERE account_id = $1
	`
	var (
		p                 model.Profile
		personal, medical []byte
	)
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&personal, &medical, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	p.AccountID = accountID
	if err := json.Unmarshal(personal, &p.Personal); err != nil {
		return model.Profile{}, fmt.Errorf("failed to decode personal_info: %w", err)
	}
	if err := json.Unmarshal(medical, &p.Medical); err != nil {
		return model.Profile{}, fmt.Errorf("failed to decode medical_info: %w", err)
	}
	return p, nil
}

// Save upserts both profile documents
func (r *profileRepo) Save(ctx context.Context, profile *model.Profile) error {
	personal, medical, err := marshalProfile(profile)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (account_id, personal_info, medical_info)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE
		SET personal_info = EXCLUDED.personal_info,
		    medical_info = EXCLUDED.medical_info,
		    updated_at = now()
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query, profile.AccountID, string(personal), string(medical)).
		Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// DeleteByAccountID removes the profile; a missing profile is not an error
func (r *profileRepo) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func marshalProfile(profile *model.Profile) (personal, medical []byte, err error) {
	personal, err = json.Marshal(profile.Personal)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode personal_info: %w", err)
	}
	medical, err = json.Marshal(profile.Medical)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode medical_info: %w", err)
	}
	return personal, medical, nil
}
