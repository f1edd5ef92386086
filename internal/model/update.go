package model

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was present in a request body.
// A present null sets Null and leaves Value at its zero value.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked when the key exists in the document
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Ptr returns nil for an explicit null, otherwise a pointer to Value
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// PersonalInfoUpdate is a partial update of PersonalInfo
type PersonalInfoUpdate struct {
	Name              Optional[string]   `json:"name"`
	Age               Optional[int]      `json:"age"`
	Sex               Optional[string]   `json:"sex"`
	Height            Optional[float64]  `json:"height"`
	Weight            Optional[float64]  `json:"weight"`
	BloodGroup        Optional[string]   `json:"bloodGroup"`
	Deficiencies      Optional[[]string] `json:"deficiencies"`
	ConditionDuration Optional[string]   `json:"conditionDuration"`
}

// Apply copies every present field onto p
func (u PersonalInfoUpdate) Apply(p *PersonalInfo) {
	if u.Name.Set {
		p.Name = u.Name.Value
	}
	if u.Age.Set {
		p.Age = u.Age.Ptr()
	}
	if u.Sex.Set {
		p.Sex = u.Sex.Value
	}
	if u.Height.Set {
		p.Height = u.Height.Ptr()
	}
	if u.Weight.Set {
		p.Weight = u.Weight.Ptr()
	}
	if u.BloodGroup.Set {
		p.BloodGroup = u.BloodGroup.Value
	}
	if u.Deficiencies.Set {
		p.Deficiencies = u.Deficiencies.Value
	}
	if u.ConditionDuration.Set {
		p.ConditionDuration = u.ConditionDuration.Value
	}
}

// MedicalInfoUpdate is a partial update of MedicalInfo
type MedicalInfoUpdate struct {
	BloodPressure Optional[BloodPressure] `json:"bloodPressure"`
	SugarLevel    Optional[float64]       `json:"sugarLevel"`
	Diseases      Optional[[]string]      `json:"diseases"`
	Symptoms      Optional[[]string]      `json:"symptoms"`
	Allergies     Optional[[]string]      `json:"allergies"`
	Medications   Optional[[]string]      `json:"medications"`
}

// Apply copies every present field onto m
func (u MedicalInfoUpdate) Apply(m *MedicalInfo) {
	if u.BloodPressure.Set {
		m.BloodPressure = u.BloodPressure.Ptr()
	}
	if u.SugarLevel.Set {
		m.SugarLevel = u.SugarLevel.Ptr()
	}
	if u.Diseases.Set {
		m.Diseases = u.Diseases.Value
	}
	if u.Symptoms.Set {
		m.Symptoms = u.Symptoms.Value
	}
	if u.Allergies.Set {
		m.Allergies = u.Allergies.Value
	}
	if u.Medications.Set {
		m.Medications = u.Medications.Value
	}
}
