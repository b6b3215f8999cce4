package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/smartdiet/pkg/models"
)

func TestDefaultRuleBase(t *testing.T) {
	rb := DefaultRuleBase()
	assert.Len(t, rb.Rules(), 18)
	assert.Equal(t, []string{VarBMI, VarAge, VarActivity, VarSatiety}, rb.InputNames())
	assert.Equal(t, VarDiet, rb.Output().Name())
	assert.Same(t, rb, DefaultRuleBase())
}

func TestNewRuleBaseValidation(t *testing.T) {
	inputs := []*Variable{BMIVariable(), ActivityVariable()}

	t.Run("unknown variable", func(t *testing.T) {
		_, err := NewRuleBase(inputs, DietVariable(), []Rule{
			{If: when("mood", "happy"), Then: models.DietVegan},
		})
		assert.ErrorIs(t, err, ErrUnknownVariable)
	})

	t.Run("unknown antecedent term", func(t *testing.T) {
		_, err := NewRuleBase(inputs, DietVariable(), []Rule{
			{If: when(VarBMI, "skinny"), Then: models.DietVegan},
		})
		assert.ErrorIs(t, err, ErrUnknownTerm)
	})

	t.Run("unknown consequent", func(t *testing.T) {
		_, err := NewRuleBase(inputs, DietVariable(), []Rule{
			{If: when(VarBMI, "normal"), Then: models.DietClass("keto")},
		})
		assert.ErrorIs(t, err, ErrUnknownTerm)
	})

	t.Run("empty antecedent", func(t *testing.T) {
		_, err := NewRuleBase(inputs, DietVariable(), []Rule{{Then: models.DietVegan}})
		assert.Error(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	rb := DefaultRuleBase()

	t.Run("overweight elderly low activity favours low carb", func(t *testing.T) {
		profile := models.UserProfile{Age: 65, HeightCM: 165, WeightKG: 70, ActivityLevel: models.ActivityLow, Satiety: 2}
		assert.InDelta(t, 25.71, profile.BMI(), 0.01)

		res, err := Evaluate(rb, Inputs{BMI: 25.71, Age: 65, Activity: 2, Satiety: 2})
		require.NoError(t, err)

		assert.InDelta(t, 0.285, res.Activations[models.DietLowCarb], 0.001)
		assert.Equal(t, 0.0, res.Activations[models.DietVegan])
		assert.InDelta(t, 0.922, res.Score, 0.001)
		assert.Equal(t, models.DietLowCarb, res.Weights.Dominant())
	})

	t.Run("no rule fired", func(t *testing.T) {
		_, err := Evaluate(rb, Inputs{BMI: 22, Age: 40, Activity: 5, Satiety: 0})
		assert.ErrorIs(t, err, ErrNoRuleFired)
		assert.ErrorIs(t, err, ErrCompute)
	})

	t.Run("out of range input", func(t *testing.T) {
		_, err := Evaluate(rb, Inputs{BMI: 45, Age: 40, Activity: 5, Satiety: 3})
		assert.ErrorIs(t, err, ErrOutOfRangeInput)
		assert.Contains(t, err.Error(), "bmi=45")
	})

	t.Run("clamped input evaluates", func(t *testing.T) {
		in := rb.Clamp(Inputs{BMI: 45, Age: 90, Activity: -1, Satiety: 7})
		assert.Equal(t, Inputs{BMI: 40, Age: 80, Activity: 0, Satiety: 5}, in)

		_, err := Evaluate(rb, in)
		assert.NotErrorIs(t, err, ErrOutOfRangeInput)
	})

	t.Run("strengths follow rule order", func(t *testing.T) {
		res, err := Evaluate(rb, Inputs{BMI: 15, Age: 40, Activity: 2, Satiety: 3})
		require.NoError(t, err)
		require.Len(t, res.Strengths, 18)
		assert.InDelta(t, 3.5/8.5, res.Strengths[0], 1e-9)
		for i := 1; i < len(res.Strengths); i++ {
			assert.Equal(t, 0.0, res.Strengths[i], "rule %d: %s", i, rb.Rules()[i])
		}
	})
}

func TestEvaluateBounds(t *testing.T) {
	rb := DefaultRuleBase()
	fired := 0

	for bmi := 10.0; bmi <= 40; bmi += 2.5 {
		for age := 15.0; age <= 80; age += 13 {
			for activity := 0.0; activity <= 10; activity++ {
				for satiety := 0.0; satiety <= 5; satiety++ {
					res, err := Evaluate(rb, Inputs{BMI: bmi, Age: age, Activity: activity, Satiety: satiety})
					if err != nil {
						require.ErrorIs(t, err, ErrNoRuleFired)
						continue
					}
					fired++
					assert.GreaterOrEqual(t, res.Score, 0.0)
					assert.LessOrEqual(t, res.Score, 1.0)
					require.Len(t, res.Weights, len(models.DietClasses))
					for class, w := range res.Weights {
						assert.GreaterOrEqual(t, w, 0.0, "%s", class)
						assert.LessOrEqual(t, w, 1.0, "%s", class)
					}
				}
			}
		}
	}
	assert.Positive(t, fired)
}

func TestEvaluateBMIShift(t *testing.T) {
	rb := DefaultRuleBase()

	lean, err := Evaluate(rb, Inputs{BMI: 15, Age: 40, Activity: 2, Satiety: 3})
	require.NoError(t, err)
	heavy, err := Evaluate(rb, Inputs{BMI: 38, Age: 40, Activity: 2, Satiety: 3})
	require.NoError(t, err)

	assert.Contains(t, []models.DietClass{models.DietBalanced, models.DietHighProtein}, lean.Activations.Dominant())
	assert.Equal(t, models.DietLowCarb, heavy.Activations.Dominant())
	assert.Less(t, lean.Score, heavy.Score)
}

func TestEvaluateConcurrent(t *testing.T) {
	rb := DefaultRuleBase()
	want, err := Evaluate(rb, Inputs{BMI: 25.71, Age: 65, Activity: 2, Satiety: 2})
	require.NoError(t, err)

	done := make(chan Result, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			res, _ := Evaluate(rb, Inputs{BMI: 25.71, Age: 65, Activity: 2, Satiety: 2})
			done <- res
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, want.Score, (<-done).Score)
	}
}

func TestDecodeWeights(t *testing.T) {
	rb := DefaultRuleBase()

	w := rb.DecodeWeights(0.4)
	assert.Equal(t, 1.0, w[models.DietBalanced])
	assert.Equal(t, 0.0, w[models.DietVegan])
	assert.Equal(t, 0.0, w[models.DietHighProtein])
	assert.Equal(t, 0.0, w[models.DietLowCarb])

	w = rb.DecodeWeights(0)
	assert.Equal(t, models.DietVegan, w.Dominant())
}

func TestCentroid(t *testing.T) {
	t.Run("symmetric triangle", func(t *testing.T) {
		got, err := centroid([]float64{0, 1, 2}, []float64{0, 1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-12)
	})

	t.Run("flat shape", func(t *testing.T) {
		got, err := centroid([]float64{0, 1, 2, 3}, []float64{0.5, 0.5, 0.5, 0.5})
		require.NoError(t, err)
		assert.InDelta(t, 1.5, got, 1e-12)
	})

	t.Run("empty shape", func(t *testing.T) {
		_, err := centroid([]float64{0, 1, 2}, []float64{0, 0, 0})
		assert.ErrorIs(t, err, ErrNoRuleFired)
	})
}
