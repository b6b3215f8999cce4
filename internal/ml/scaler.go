package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StandardScaler applies (x - mean) / scale column-wise. A zero scale
// leaves the centred column as is.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s StandardScaler) validate(width int) error {
	if len(s.Mean) != width || len(s.Scale) != width {
		return fmt.Errorf("%w: scaler expects %d columns, has mean=%d scale=%d",
			ErrInvalidModel, width, len(s.Mean), len(s.Scale))
	}
	return nil
}

// Transform scales x in place.
func (s StandardScaler) Transform(x *mat.Dense) {
	rows, cols := x.Dims()
	for j := 0; j < cols; j++ {
		scale := s.Scale[j]
		if scale == 0 {
			scale = 1
		}
		for i := 0; i < rows; i++ {
			x.Set(i, j, (x.At(i, j)-s.Mean[j])/scale)
		}
	}
}
