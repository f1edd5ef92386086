// Package profile manages the personal and medical information attached to
// an account.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/nutricare/server/internal/apperr"
	"github.com/nutricare/server/internal/model"
	"github.com/nutricare/server/internal/repo"
)

const maxAge = 120

var validSexes = map[string]bool{"male": true, "female": true, "other": true}

// View is a profile together with the owning account's contact details
type View struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
	model.Profile
}

// Service handles profile reads and partial updates
type Service struct {
	profiles repo.ProfileRepo
	log      *slog.Logger
}

func NewService(profiles repo.ProfileRepo, log *slog.Logger) *Service {
	return &Service{profiles: profiles, log: log}
}

// Get returns the account's profile, creating an empty one if it is missing
func (s *Service) Get(ctx context.Context, account *model.Account) (*View, error) {
	p, err := s.load(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return &View{Name: account.Name, Email: account.Email, Mobile: account.Mobile, Profile: p}, nil
}

// Profile returns the stored profile, or an empty one if none exists yet
func (s *Service) Profile(ctx context.Context, accountID uuid.UUID) (model.Profile, error) {
	p, err := s.profiles.GetByAccountID(ctx, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Profile{AccountID: accountID}, nil
	}
	if err != nil {
		return model.Profile{}, apperr.Dependency("Failed to load profile", err)
	}
	return p, nil
}

// UpdatePersonal applies the present fields of upd and returns the result
func (s *Service) UpdatePersonal(ctx context.Context, accountID uuid.UUID, upd model.PersonalInfoUpdate) (model.PersonalInfo, error) {
	if upd.Sex.Set && !upd.Sex.Null {
		upd.Sex.Value = strings.ToLower(strings.TrimSpace(upd.Sex.Value))
	}
	if err := ValidatePersonal(upd); err != nil {
		return model.PersonalInfo{}, err
	}

	p, err := s.load(ctx, accountID)
	if err != nil {
		return model.PersonalInfo{}, err
	}
	upd.Apply(&p.Personal)
	if err := s.profiles.Save(ctx, &p); err != nil {
		return model.PersonalInfo{}, apperr.Dependency("Failed to update personal information", err)
	}
	s.log.Debug("personal info updated", "account_id", accountID)
	return p.Personal, nil
}

// UpdateMedical applies the present fields of upd and returns the result
func (s *Service) UpdateMedical(ctx context.Context, accountID uuid.UUID, upd model.MedicalInfoUpdate) (model.MedicalInfo, error) {
	if err := ValidateMedical(upd); err != nil {
		return model.MedicalInfo{}, err
	}

	p, err := s.load(ctx, accountID)
	if err != nil {
		return model.MedicalInfo{}, err
	}
	upd.Apply(&p.Medical)
	if err := s.profiles.Save(ctx, &p); err != nil {
		return model.MedicalInfo{}, apperr.Dependency("Failed to update medical information", err)
	}
	s.log.Debug("medical info updated", "account_id", accountID)
	return p.Medical, nil
}

func (s *Service) load(ctx context.Context, accountID uuid.UUID) (model.Profile, error) {
	p, err := s.profiles.GetByAccountID(ctx, accountID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Profile{}, apperr.Dependency("Failed to load profile", err)
	}
	p = model.Profile{AccountID: accountID}
	if err := s.profiles.Save(ctx, &p); err != nil {
		return model.Profile{}, apperr.Dependency("Failed to create profile", err)
	}
	return p, nil
}

// ValidatePersonal checks the present, non-null fields of a personal update
func ValidatePersonal(upd model.PersonalInfoUpdate) error {
	if upd.Age.Set && !upd.Age.Null && (upd.Age.Value < 0 || upd.Age.Value > maxAge) {
		return apperr.Validation("age", "Age must be between 0 and 120")
	}
	if upd.Height.Set && !upd.Height.Null && upd.Height.Value < 0 {
		return apperr.Validation("height", "Height must be positive")
	}
	if upd.Weight.Set && !upd.Weight.Null && upd.Weight.Value < 0 {
		return apperr.Validation("weight", "Weight must be positive")
	}
	if upd.Sex.Set && upd.Sex.Value != "" && !validSexes[upd.Sex.Value] {
		return apperr.Validation("sex", "Sex must be one of male, female or other")
	}
	return nil
}

// ValidateMedical checks the present, non-null fields of a medical update
func ValidateMedical(upd model.MedicalInfoUpdate) error {
	if upd.BloodPressure.Set && !upd.BloodPressure.Null {
		if upd.BloodPressure.Value.Systolic < 0 {
			return apperr.Validation("bloodPressure.systolic", "Systolic pressure must be positive")
		}
		if upd.BloodPressure.Value.Diastolic < 0 {
			return apperr.Validation("bloodPressure.diastolic", "Diastolic pressure must be positive")
		}
	}
	if upd.SugarLevel.Set && !upd.SugarLevel.Null && upd.SugarLevel.Value < 0 {
		return apperr.Validation("sugarLevel", "Sugar level must be positive")
	}
	return nil
}
