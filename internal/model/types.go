package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is the credential record of a registered user
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Mobile       string
	PasswordHash string
	Verified     bool
	OTP          *OtpMaterial
	Lockout      Lockout
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OtpMaterial is the pending email verification code of an account.
// CodeHash is hex SHA-256; the plaintext code is never stored.
type OtpMaterial struct {
	CodeHash      string
	ExpiresAt     time.Time
	Attempts      int
	LastAttemptAt *time.Time
}

// Lockout tracks failed password checks
type Lockout struct {
	FailedCount  int
	LastFailedAt *time.Time
	LockedUntil  *time.Time
}

// LockedAt reports whether login is suspended at the given instant
func (l Lockout) LockedAt(now time.Time) bool {
	return l.LockedUntil != nil && l.LockedUntil.After(now)
}

// Profile holds the personal and medical information of an account
type Profile struct {
	AccountID uuid.UUID    `json:"-"`
	Personal  PersonalInfo `json:"personalInfo"`
	Medical   MedicalInfo  `json:"medicalInfo"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// PersonalInfo is stored as a JSON document
type PersonalInfo struct {
	Name              string   `json:"name,omitempty"`
	Age               *int     `json:"age,omitempty"`
	Sex               string   `json:"sex,omitempty"`
	Height            *float64 `json:"height,omitempty"` // cm
	Weight            *float64 `json:"weight,omitempty"` // kg
	BloodGroup        string   `json:"bloodGroup,omitempty"`
	Deficiencies      []string `json:"deficiencies,omitempty"`
	ConditionDuration string   `json:"conditionDuration,omitempty"`
	Email             string   `json:"email,omitempty"`
	Mobile            string   `json:"mobile,omitempty"`
}

// BloodPressure in mmHg
type BloodPressure struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// MedicalInfo is stored as a JSON document
type MedicalInfo struct {
	BloodPressure *BloodPressure `json:"bloodPressure,omitempty"`
	SugarLevel    *float64       `json:"sugarLevel,omitempty"` // mg/dL
	Diseases      []string       `json:"diseases,omitempty"`
	Symptoms      []string       `json:"symptoms,omitempty"`
	Allergies     []string       `json:"allergies,omitempty"`
	Medications   []string       `json:"medications,omitempty"`
}

// DietPlan is one submitted day of meals
type DietPlan struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"userId"`
	Morning   string    `json:"morning"`
	Afternoon string    `json:"afternoon"`
	Evening   string    `json:"evening"`
	Night     string    `json:"night"`
	Snacks    string    `json:"snacks,omitempty"`
	DietType  string    `json:"dietType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
