package ml

import (
	"context"
	"errors"
	"fmt"
)

// FeatureCount is the width of a preference feature vector:
// age, gender, BMI, activity, calories, total fat, sugar, sodium, protein,
// saturated fat, carbohydrates.
const FeatureCount = 11

var (
	ErrDimensionMismatch = errors.New("feature vector has wrong dimension")
	ErrNoActiveModel     = errors.New("no active preference model")
	ErrModelNotFound     = errors.New("model not found")
	ErrInvalidModel      = errors.New("invalid model definition")
)

// PreferenceScorer predicts a satisfaction score in [0, 1] for each feature
// vector. Implementations return one score per input in the same order and
// must be safe for concurrent use.
type PreferenceScorer interface {
	Score(ctx context.Context, vectors [][]float64) ([]float64, error)
}

// ConstantScorer returns the same preference for every vector. It stands in
// when no trained model is configured.
type ConstantScorer struct {
	Value float64
}

func NewConstantScorer(value float64) *ConstantScorer {
	switch {
	case value < 0:
		value = 0
	case value > 1:
		value = 1
	}
	return &ConstantScorer{Value: value}
}

func (c *ConstantScorer) Score(ctx context.Context, vectors [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != FeatureCount {
			return nil, fmt.Errorf("%w: vector %d has %d values", ErrDimensionMismatch, i, len(v))
		}
		out[i] = c.Value
	}
	return out, nil
}
