package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDietClass(t *testing.T) {
	tests := []struct {
		tag    string
		expect DietClass
		ok     bool
	}{
		{"vegan", DietVegan, true},
		{"  High_Protein ", DietHighProtein, true},
		{"LOW_CARB", DietLowCarb, true},
		{"Balanced", DietBalanced, true},
		{"keto", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			class, ok := ParseDietClass(tt.tag)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expect, class)
		})
	}
}

func TestDietWeights(t *testing.T) {
	t.Run("dominant picks the maximum", func(t *testing.T) {
		w := DietWeights{DietVegan: 0.1, DietBalanced: 0.3, DietHighProtein: 0.7, DietLowCarb: 0.2}
		assert.Equal(t, DietHighProtein, w.Dominant())
	})

	t.Run("ties resolve in class order", func(t *testing.T) {
		assert.Equal(t, DietVegan, EqualDietWeights().Dominant())

		w := DietWeights{DietBalanced: 0.5, DietLowCarb: 0.5}
		assert.Equal(t, DietBalanced, w.Dominant())
	})

	t.Run("weight by raw tag", func(t *testing.T) {
		w := DietWeights{DietLowCarb: 0.9}

		v, ok := w.Weight("Low_Carb")
		assert.True(t, ok)
		assert.Equal(t, 0.9, v)

		v, ok = w.Weight("paleo")
		assert.False(t, ok)
		assert.Zero(t, v)
	})
}

func TestParseMealType(t *testing.T) {
	meal, ok := ParseMealType(" Dinner")
	assert.True(t, ok)
	assert.Equal(t, MealDinner, meal)

	_, ok = ParseMealType("snack")
	assert.False(t, ok)
}

func TestUserProfile(t *testing.T) {
	p := UserProfile{Age: 65, HeightCM: 165, WeightKG: 70, ActivityLevel: ActivityLow, Satiety: 2}

	assert.InDelta(t, 25.71, p.BMI(), 0.01)
	assert.Equal(t, 0.0, p.ActivityCode())
	assert.Equal(t, 1.0, p.GenderCode())
	assert.Equal(t, "65:165:70:Low:2:M", p.CacheKey())

	p.Gender = GenderFemale
	assert.Equal(t, 0.0, p.GenderCode())
	assert.Equal(t, "65:165:70:Low:2:F", p.CacheKey())

	assert.True(t, math.IsNaN(UserProfile{WeightKG: 70}.BMI()))
}

func TestUserProfileValidation(t *testing.T) {
	validate := validator.New()

	valid := UserProfile{Age: 30, HeightCM: 180, WeightKG: 80, ActivityLevel: ActivityHigh, Satiety: 5}
	require.NoError(t, validate.Struct(valid))

	invalid := valid
	invalid.Satiety = 6
	invalid.ActivityLevel = "Extreme"
	var verrs validator.ValidationErrors
	require.ErrorAs(t, validate.Struct(invalid), &verrs)
	assert.Len(t, verrs, 2)
}

func TestUserProfileSatietyDefault(t *testing.T) {
	var omitted UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"age":20,"height":170,"weight":63.6,"activity_level":"Medium"}`), &omitted))
	assert.Equal(t, DefaultSatiety, omitted.Satiety)
	assert.Equal(t, 20.0, omitted.Age)
	assert.Equal(t, ActivityMedium, omitted.ActivityLevel)

	var zero UserProfile
	require.NoError(t, json.Unmarshal([]byte(`{"age":20,"height":170,"weight":63.6,"activity_level":"Medium","satiety":0}`), &zero))
	assert.Equal(t, 0.0, zero.Satiety)

	var req MealPlanRequest
	require.NoError(t, json.Unmarshal([]byte(`{"profile":{"age":20,"height":170,"weight":63.6,"activity_level":"Low"},"per_meal":2}`), &req))
	assert.Equal(t, DefaultSatiety, req.Profile.Satiety)
	assert.Equal(t, 2, req.PerMeal)
}
