package fuzzy

import (
	"fmt"
	"strings"

	"github.com/temcen/smartdiet/pkg/models"
)

// Clause is one antecedent condition: variable IS term.
type Clause struct {
	Variable string
	Term     string
}

// Rule fires with the minimum degree of its clauses and activates one
// output term.
type Rule struct {
	If   []Clause
	Then models.DietClass
}

func (r Rule) String() string {
	parts := make([]string, len(r.If))
	for i, c := range r.If {
		parts[i] = c.Variable + "." + c.Term
	}
	return strings.Join(parts, " & ") + " -> " + string(r.Then)
}

// RuleBase binds a rule table to its input and output variables. It is
// read-only after construction and safe to share between goroutines.
type RuleBase struct {
	inputs map[string]*Variable
	order  []string
	output *Variable
	rules  []Rule
}

// NewRuleBase validates that every clause and consequent refers to a known
// variable and term.
func NewRuleBase(inputs []*Variable, output *Variable, rules []Rule) (*RuleBase, error) {
	rb := &RuleBase{
		inputs: make(map[string]*Variable, len(inputs)),
		order:  make([]string, 0, len(inputs)),
		output: output,
		rules:  make([]Rule, len(rules)),
	}
	for _, v := range inputs {
		rb.inputs[v.Name()] = v
		rb.order = append(rb.order, v.Name())
	}
	for i, rule := range rules {
		if len(rule.If) == 0 {
			return nil, fmt.Errorf("rule %d has no antecedent", i)
		}
		for _, c := range rule.If {
			v, ok := rb.inputs[c.Variable]
			if !ok {
				return nil, fmt.Errorf("%w: rule %d references %q", ErrUnknownVariable, i, c.Variable)
			}
			if _, ok := v.Term(c.Term); !ok {
				return nil, fmt.Errorf("%w: rule %d references %s.%s", ErrUnknownTerm, i, c.Variable, c.Term)
			}
		}
		if _, ok := output.Term(string(rule.Then)); !ok {
			return nil, fmt.Errorf("%w: rule %d consequent %s.%s", ErrUnknownTerm, i, output.Name(), rule.Then)
		}
		clauses := make([]Clause, len(rule.If))
		copy(clauses, rule.If)
		rb.rules[i] = Rule{If: clauses, Then: rule.Then}
	}
	return rb, nil
}

// Input returns the named input variable.
func (rb *RuleBase) Input(name string) (*Variable, bool) {
	v, ok := rb.inputs[name]
	return v, ok
}

// InputNames lists input variables in declaration order.
func (rb *RuleBase) InputNames() []string {
	out := make([]string, len(rb.order))
	copy(out, rb.order)
	return out
}

func (rb *RuleBase) Output() *Variable { return rb.output }

// Rules returns a copy of the rule table.
func (rb *RuleBase) Rules() []Rule {
	out := make([]Rule, len(rb.rules))
	copy(out, rb.rules)
	return out
}

func when(pairs ...string) []Clause {
	clauses := make([]Clause, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		clauses = append(clauses, Clause{Variable: pairs[i], Term: pairs[i+1]})
	}
	return clauses
}

// dietRules is the hand-authored heuristic table.
var dietRules = []Rule{
	// underweight
	{If: when(VarBMI, "underweight", VarActivity, "low"), Then: models.DietBalanced},
	{If: when(VarBMI, "underweight", VarActivity, "medium"), Then: models.DietHighProtein},
	{If: when(VarBMI, "underweight", VarActivity, "high"), Then: models.DietHighProtein},
	{If: when(VarBMI, "underweight", VarSatiety, "low"), Then: models.DietHighProtein},

	// normal
	{If: when(VarBMI, "normal", VarActivity, "low", VarSatiety, "high"), Then: models.DietBalanced},
	{If: when(VarBMI, "normal", VarActivity, "medium", VarSatiety, "medium"), Then: models.DietBalanced},
	{If: when(VarBMI, "normal", VarActivity, "high"), Then: models.DietHighProtein},
	{If: when(VarBMI, "normal", VarAge, "young", VarSatiety, "medium"), Then: models.DietVegan},
	{If: when(VarBMI, "normal", VarAge, "elderly", VarActivity, "low"), Then: models.DietBalanced},

	// overweight
	{If: when(VarBMI, "overweight", VarActivity, "low"), Then: models.DietLowCarb},
	{If: when(VarBMI, "overweight", VarActivity, "medium"), Then: models.DietBalanced},
	{If: when(VarBMI, "overweight", VarActivity, "high"), Then: models.DietBalanced},
	{If: when(VarBMI, "overweight", VarSatiety, "low"), Then: models.DietBalanced},
	{If: when(VarBMI, "overweight", VarAge, "elderly"), Then: models.DietLowCarb},

	// obese
	{If: when(VarBMI, "obese", VarActivity, "low"), Then: models.DietLowCarb},
	{If: when(VarBMI, "obese", VarActivity, "medium"), Then: models.DietLowCarb},
	{If: when(VarBMI, "obese", VarActivity, "high"), Then: models.DietHighProtein},
	{If: when(VarBMI, "obese", VarSatiety, "high"), Then: models.DietLowCarb},
}

var defaultRuleBase = func() *RuleBase {
	rb, err := NewRuleBase(
		[]*Variable{BMIVariable(), AgeVariable(), ActivityVariable(), SatietyVariable()},
		DietVariable(),
		dietRules,
	)
	if err != nil {
		panic(err)
	}
	return rb
}()

// DefaultRuleBase returns the shared diet rule base.
func DefaultRuleBase() *RuleBase {
	return defaultRuleBase
}
