package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nutricare/server/internal/model"
)

const notProvided = "Not provided"

// Meals is the meal plan under review
type Meals struct {
	Morning   string `json:"morning"`
	Afternoon string `json:"afternoon"`
	Evening   string `json:"evening"`
	Night     string `json:"night"`
	Snacks    string `json:"snacks"`
	DietType  string `json:"dietType"`
}

// Overrides are form values that take precedence over the stored profile
type Overrides struct {
	Name          string   `json:"name"`
	Age           *int     `json:"age"`
	Height        *float64 `json:"height"`
	Weight        *float64 `json:"weight"`
	Sex           string   `json:"sex"`
	ActivityLevel string   `json:"activityLevel"`
	SugarLevel    *float64 `json:"sugarLevel"`
	BPLevel       string   `json:"bpLevel"`
}

// Subject is the health profile the analysis is written for
type Subject struct {
	Personal      model.PersonalInfo
	Medical       model.MedicalInfo
	ActivityLevel string
}

// Merge overlays non-empty form values on the stored profile
func Merge(p model.Profile, o Overrides) Subject {
	s := Subject{Personal: p.Personal, Medical: p.Medical, ActivityLevel: o.ActivityLevel}
	if o.Name != "" {
		s.Personal.Name = o.Name
	}
	if o.Age != nil && *o.Age > 0 {
		s.Personal.Age = o.Age
	}
	if o.Height != nil && *o.Height > 0 {
		s.Personal.Height = o.Height
	}
	if o.Weight != nil && *o.Weight > 0 {
		s.Personal.Weight = o.Weight
	}
	if o.Sex != "" {
		s.Personal.Sex = o.Sex
	}
	if o.SugarLevel != nil && *o.SugarLevel > 0 {
		s.Medical.SugarLevel = o.SugarLevel
	}
	if bp, ok := ParseBloodPressure(o.BPLevel); ok {
		s.Medical.BloodPressure = &bp
	}
	return s
}

// ParseBloodPressure reads "systolic/diastolic", e.g. "120/80"
func ParseBloodPressure(s string) (model.BloodPressure, bool) {
	sys, dia, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return model.BloodPressure{}, false
	}
	systolic, err1 := strconv.ParseFloat(strings.TrimSpace(sys), 64)
	diastolic, err2 := strconv.ParseFloat(strings.TrimSpace(dia), 64)
	if err1 != nil || err2 != nil || systolic < 0 || diastolic < 0 {
		return model.BloodPressure{}, false
	}
	return model.BloodPressure{Systolic: systolic, Diastolic: diastolic}, true
}

// BMI returns weight / height² rounded to one decimal, from cm and kg
func (s Subject) BMI() (float64, bool) {
	if s.Personal.Height == nil || s.Personal.Weight == nil || *s.Personal.Height <= 0 || *s.Personal.Weight <= 0 {
		return 0, false
	}
	m := *s.Personal.Height / 100
	return math.Round(*s.Personal.Weight/(m*m)*10) / 10, true
}

// BuildPrompt renders the request sent to the model
func BuildPrompt(s Subject, meals Meals) string {
	var b strings.Builder

	b.WriteString("You are a clinical nutritionist. Review the meal plan below against this person's health profile. ")
	b.WriteString("Reference their exact values; do not give generic advice.\n\n")

	b.WriteString("HEALTH PROFILE:\n")
	line(&b, "Name", orNA(s.Personal.Name))
	line(&b, "Age", withUnit(intOrNA(s.Personal.Age), "years"))
	line(&b, "Sex", orNA(s.Personal.Sex))
	line(&b, "Height", withUnit(floatOrNA(s.Personal.Height), "cm"))
	line(&b, "Weight", withUnit(floatOrNA(s.Personal.Weight), "kg"))
	if bmi, ok := s.BMI(); ok {
		line(&b, "BMI", strconv.FormatFloat(bmi, 'f', 1, 64))
	} else {
		line(&b, "BMI", notProvided)
	}
	line(&b, "Activity Level", orNA(s.ActivityLevel))
	if bp := s.Medical.BloodPressure; bp != nil {
		line(&b, "Blood Pressure", fmt.Sprintf("%s/%s mmHg", num(bp.Systolic), num(bp.Diastolic)))
	} else {
		line(&b, "Blood Pressure", notProvided)
	}
	line(&b, "Sugar Level", withUnit(floatOrNA(s.Medical.SugarLevel), "mg/dL"))
	line(&b, "Blood Group", orNA(s.Personal.BloodGroup))
	line(&b, "Diseases", list(s.Medical.Diseases))
	line(&b, "Deficiencies", list(s.Personal.Deficiencies))
	line(&b, "Duration of Condition", orNA(s.Personal.ConditionDuration))
	line(&b, "Symptoms", list(s.Medical.Symptoms))
	line(&b, "Allergies", list(s.Medical.Allergies))
	line(&b, "Medications", list(s.Medical.Medications))

	b.WriteString("\nMEAL PLAN:\n")
	line(&b, "Diet Type", orNA(meals.DietType))
	line(&b, "Morning", orNA(meals.Morning))
	line(&b, "Afternoon", orNA(meals.Afternoon))
	line(&b, "Evening", orNA(meals.Evening))
	line(&b, "Night", orNA(meals.Night))
	line(&b, "Snacks", orNA(meals.Snacks))

	b.WriteString("\nRespond with these sections:\n")
	b.WriteString("1. Macronutrients per meal and daily totals\n")
	b.WriteString("2. Micronutrients and likely deficiencies\n")
	b.WriteString("3. Safety for their sugar level, blood pressure and conditions\n")
	b.WriteString("4. Meal-by-meal assessment\n")
	b.WriteString("5. Specific additions or removals per meal\n")
	b.WriteString("6. Overall assessment\n")
	return b.String()
}

func line(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

func withUnit(v, unit string) string {
	if v == notProvided {
		return v
	}
	return v + " " + unit
}

func intOrNA(v *int) string {
	if v == nil {
		return notProvided
	}
	return strconv.Itoa(*v)
}

func floatOrNA(v *float64) string {
	if v == nil {
		return notProvided
	}
	return num(*v)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func list(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
