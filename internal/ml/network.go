package ml

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Activation names accepted in model files.
const (
	ActivationReLU   = "relu"
	ActivationLinear = "linear"
)

// LayerSpec is one dense layer as stored in a model file. Weights are laid
// out output-major: Weights[o][i] connects input i to output o.
type LayerSpec struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation,omitempty"`
}

// NetworkSpec is the decoded model file.
type NetworkSpec struct {
	Name     string         `json:"name"`
	Version  string         `json:"version"`
	InputDim int            `json:"input_dim"`
	Classes  int            `json:"classes"`
	Scaler   StandardScaler `json:"scaler"`
	Layers   []LayerSpec    `json:"layers"`
}

type denseLayer struct {
	weights *mat.Dense // in x out
	bias    []float64
	relu    bool
}

// NetworkScorer runs a feed-forward classifier over satisfaction classes
// 0..Classes-1 and reports the expected class divided by Classes-1.
// It holds no mutable state after construction.
type NetworkScorer struct {
	inputDim int
	classes  int
	scaler   StandardScaler
	layers   []denseLayer
}

// NewNetworkScorer checks layer shapes chain from InputDim to Classes.
func NewNetworkScorer(spec NetworkSpec) (*NetworkScorer, error) {
	if spec.InputDim != FeatureCount {
		return nil, fmt.Errorf("%w: input_dim %d, want %d", ErrInvalidModel, spec.InputDim, FeatureCount)
	}
	if spec.Classes < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidModel, spec.Classes)
	}
	if len(spec.Layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidModel)
	}
	if err := spec.Scaler.validate(spec.InputDim); err != nil {
		return nil, err
	}

	n := &NetworkScorer{
		inputDim: spec.InputDim,
		classes:  spec.Classes,
		scaler:   spec.Scaler,
		layers:   make([]denseLayer, 0, len(spec.Layers)),
	}

	width := spec.InputDim
	for li, l := range spec.Layers {
		out := len(l.Weights)
		if out == 0 || len(l.Bias) != out {
			return nil, fmt.Errorf("%w: layer %d has %d rows and %d biases", ErrInvalidModel, li, out, len(l.Bias))
		}
		w := mat.NewDense(width, out, nil)
		for o, row := range l.Weights {
			if len(row) != width {
				return nil, fmt.Errorf("%w: layer %d row %d has %d weights, want %d", ErrInvalidModel, li, o, len(row), width)
			}
			for i, v := range row {
				w.Set(i, o, v)
			}
		}

		var relu bool
		switch l.Activation {
		case ActivationReLU:
			relu = true
		case ActivationLinear, "":
		default:
			return nil, fmt.Errorf("%w: layer %d activation %q", ErrInvalidModel, li, l.Activation)
		}

		bias := make([]float64, out)
		copy(bias, l.Bias)
		n.layers = append(n.layers, denseLayer{weights: w, bias: bias, relu: relu})
		width = out
	}

	if width != spec.Classes {
		return nil, fmt.Errorf("%w: final layer width %d, want %d classes", ErrInvalidModel, width, spec.Classes)
	}
	return n, nil
}

// Score runs one forward pass over the whole batch.
func (n *NetworkScorer) Score(ctx context.Context, vectors [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return []float64{}, nil
	}

	x := mat.NewDense(len(vectors), n.inputDim, nil)
	for i, v := range vectors {
		if len(v) != n.inputDim {
			return nil, fmt.Errorf("%w: vector %d has %d values", ErrDimensionMismatch, i, len(v))
		}
		x.SetRow(i, v)
	}
	n.scaler.Transform(x)

	logits := n.forward(x)

	rows, _ := logits.Dims()
	scores := make([]float64, rows)
	classIndex := make([]float64, n.classes)
	for c := range classIndex {
		classIndex[c] = float64(c)
	}
	for i := 0; i < rows; i++ {
		probs := softmax(mat.Row(nil, i, logits))
		scores[i] = floats.Dot(probs, classIndex) / float64(n.classes-1)
	}
	return scores, nil
}

func (n *NetworkScorer) forward(x *mat.Dense) *mat.Dense {
	cur := x
	for _, l := range n.layers {
		var next mat.Dense
		next.Mul(cur, l.weights)
		rows, cols := next.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := next.At(i, j) + l.bias[j]
				if l.relu && v < 0 {
					v = 0
				}
				next.Set(i, j, v)
			}
		}
		cur = &next
	}
	return cur
}

func softmax(logits []float64) []float64 {
	peak := floats.Max(logits)
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}
