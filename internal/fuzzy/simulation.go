package fuzzy

import "fmt"

// State is the lifecycle position of a Simulation.
type State int

const (
	StateIdle State = iota
	StateInputsSet
	StateComputed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInputsSet:
		return "inputs_set"
	case StateComputed:
		return "computed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Simulation is a stateful wrapper around Evaluate for callers that set
// inputs one at a time. It is not safe for concurrent use; give each
// caller its own instance.
type Simulation struct {
	rb     *RuleBase
	inputs map[string]float64
	result *Result
	state  State
}

func NewSimulation(rb *RuleBase) *Simulation {
	return &Simulation{
		rb:     rb,
		inputs: make(map[string]float64, len(rb.order)),
	}
}

// SetInput records a crisp value. Setting an input discards any computed
// output.
func (s *Simulation) SetInput(name string, value float64) error {
	v, ok := s.rb.inputs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	if u := v.Universe(); !u.Contains(value) {
		return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRangeInput, name, value, u.Min(), u.Max())
	}

	s.inputs[name] = value
	s.result = nil
	s.state = StateInputsSet
	return nil
}

// Compute evaluates the rule base. Every input must have been set.
func (s *Simulation) Compute() error {
	for _, name := range s.rb.order {
		if _, ok := s.inputs[name]; !ok {
			return fmt.Errorf("%w: missing %s", ErrInputsIncomplete, name)
		}
	}

	res, err := evaluate(s.rb, s.inputs)
	if err != nil {
		return err
	}
	s.result = &res
	s.state = StateComputed
	return nil
}

// Output returns the last computed result.
func (s *Simulation) Output() (Result, error) {
	if s.result == nil {
		return Result{}, ErrNotComputed
	}
	return *s.result, nil
}

// Reset clears inputs and output.
func (s *Simulation) Reset() {
	s.inputs = make(map[string]float64, len(s.rb.order))
	s.result = nil
	s.state = StateIdle
}

func (s *Simulation) State() State {
	return s.state
}
