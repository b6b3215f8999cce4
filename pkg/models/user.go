package models

import (
	"encoding/json"
	"fmt"
	"math"
)

type ActivityLevel string

const (
	ActivityLow    ActivityLevel = "Low"
	ActivityMedium ActivityLevel = "Medium"
	ActivityHigh   ActivityLevel = "High"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// DefaultSatiety is assumed when a decoded profile carries no satiety.
const DefaultSatiety = 3.0

// UserProfile is the body/activity description a plan is generated for.
type UserProfile struct {
	Age           float64       `json:"age" validate:"required,gt=0,lte=120"`
	HeightCM      float64       `json:"height" validate:"required,gt=0,lte=260"`
	WeightKG      float64       `json:"weight" validate:"required,gt=0,lte=400"`
	ActivityLevel ActivityLevel `json:"activity_level" validate:"required,oneof=Low Medium High"`
	Satiety       float64       `json:"satiety" validate:"gte=0,lte=5"`
	Gender        Gender        `json:"gender,omitempty" validate:"omitempty,oneof=M F"`
}

// UnmarshalJSON fills in DefaultSatiety when the satiety field is absent.
// An explicit 0 is kept.
func (p *UserProfile) UnmarshalJSON(data []byte) error {
	type plain UserProfile
	decoded := plain{Satiety: DefaultSatiety}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = UserProfile(decoded)
	return nil
}

// BMI returns weight / (height in metres)^2. A non-positive height yields NaN.
func (p UserProfile) BMI() float64 {
	if p.HeightCM <= 0 {
		return math.NaN()
	}
	metres := p.HeightCM / 100
	return p.WeightKG / (metres * metres)
}

// ActivityCode encodes the activity level for the preference model:
// Low=0, Medium=1, High=2. Unknown levels encode as Medium.
func (p UserProfile) ActivityCode() float64 {
	switch p.ActivityLevel {
	case ActivityLow:
		return 0
	case ActivityHigh:
		return 2
	default:
		return 1
	}
}

// GenderCode encodes gender for the preference model: M=1, F=0. An empty
// gender encodes as M.
func (p UserProfile) GenderCode() float64 {
	if p.Gender == GenderFemale {
		return 0
	}
	return 1
}

// CacheKey is a stable textual identity of the profile.
func (p UserProfile) CacheKey() string {
	gender := p.Gender
	if gender == "" {
		gender = GenderMale
	}
	return fmt.Sprintf("%g:%g:%g:%s:%g:%s", p.Age, p.HeightCM, p.WeightKG, p.ActivityLevel, p.Satiety, gender)
}
