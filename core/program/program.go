package program

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// VarKind distinguishes variable domains.
type VarKind int

const (
	Continuous VarKind = iota
	Integer
	Binary
)

// String returns a human-readable kind name.
func (k VarKind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Var is a decision variable with inclusive bounds. Upper may be +Inf.
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Constraint bounds an expression: Lower <= Body <= Upper. Either bound may be
// infinite; Lower == Upper expresses an equality.
type Constraint struct {
	Name  string
	Body  *Expr
	Lower float64
	Upper float64
}

// Violation reports a constraint broken by an assignment.
type Violation struct {
	Constraint string
	Value      float64
	Lower      float64
	Upper      float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: value %g outside [%g, %g]", v.Constraint, v.Value, v.Lower, v.Upper)
}

var (
	// ErrDuplicateName is returned when a variable, parameter, constraint or
	// expression name is registered twice.
	ErrDuplicateName = errors.New("program: duplicate name")
	// ErrUnknownName is returned on lookup of an unregistered symbol.
	ErrUnknownName = errors.New("program: unknown name")
)

// Model is a symbolic optimization model. The zero value is not usable; use
// New.
type Model struct {
	Name string

	vars     []Var
	varIndex map[string]int

	params     map[string]float64
	paramOrder []string

	cons     []Constraint
	conIndex map[string]int

	exprs     map[string]*Expr
	exprOrder []string

	objective []string // expression names summed and minimized
}

// New returns an empty model with the given name.
func New(name string) *Model {
	return &Model{
		Name:     name,
		varIndex: make(map[string]int),
		params:   make(map[string]float64),
		conIndex: make(map[string]int),
		exprs:    make(map[string]*Expr),
	}
}

// AddVar registers a decision variable. Bounds are inclusive; pass
// math.Inf(1) for an unbounded upper limit.
func (m *Model) AddVar(name string, kind VarKind, lower, upper float64) error {
	if _, ok := m.varIndex[name]; ok {
		return fmt.Errorf("%w: variable %s", ErrDuplicateName, name)
	}
	if lower > upper {
		return fmt.Errorf("program: variable %s has lower bound %g above upper %g", name, lower, upper)
	}
	if kind == Binary {
		lower, upper = 0, 1
	}
	m.varIndex[name] = len(m.vars)
	m.vars = append(m.vars, Var{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return nil
}

// Vars returns the variables in registration order.
func (m *Model) Vars() []Var { return m.vars }

// Var looks up a variable by name.
func (m *Model) Var(name string) (Var, bool) {
	i, ok := m.varIndex[name]
	if !ok {
		return Var{}, false
	}
	return m.vars[i], true
}

// VarNames returns variable names matching the group pattern "BASE[*]", or the
// exact name when no wildcard is present. Names are returned in registration
// order.
func (m *Model) VarNames(pattern string) []string {
	var out []string
	if n := len(pattern); n > 3 && pattern[n-3:] == "[*]" {
		prefix := pattern[:n-3] + "["
		for _, v := range m.vars {
			if len(v.Name) > len(prefix) && v.Name[:len(prefix)] == prefix {
				out = append(out, v.Name)
			}
		}
		return out
	}
	if _, ok := m.varIndex[pattern]; ok {
		out = append(out, pattern)
	}
	return out
}

// AddParam registers a mutable scalar parameter initialized to zero. Scenario
// instantiation overwrites it via SetParam on a clone.
func (m *Model) AddParam(name string) error {
	if _, ok := m.params[name]; ok {
		return fmt.Errorf("%w: parameter %s", ErrDuplicateName, name)
	}
	m.params[name] = 0
	m.paramOrder = append(m.paramOrder, name)
	return nil
}

// SetParam overwrites a parameter value.
func (m *Model) SetParam(name string, value float64) error {
	if _, ok := m.params[name]; !ok {
		return fmt.Errorf("%w: parameter %s", ErrUnknownName, name)
	}
	m.params[name] = value
	return nil
}

// Param returns the current value of a parameter.
func (m *Model) Param(name string) (float64, bool) {
	v, ok := m.params[name]
	return v, ok
}

// Params returns a copy of the parameter table.
func (m *Model) Params() map[string]float64 {
	cp := make(map[string]float64, len(m.params))
	for k, v := range m.params {
		cp[k] = v
	}
	return cp
}

// AddConstraint registers Lower <= body <= Upper under the given name.
func (m *Model) AddConstraint(name string, body *Expr, lower, upper float64) error {
	if _, ok := m.conIndex[name]; ok {
		return fmt.Errorf("%w: constraint %s", ErrDuplicateName, name)
	}
	if body == nil {
		return fmt.Errorf("program: constraint %s has nil body", name)
	}
	m.conIndex[name] = len(m.cons)
	m.cons = append(m.cons, Constraint{Name: name, Body: body, Lower: lower, Upper: upper})
	return nil
}

// Constraints returns constraints in registration order.
func (m *Model) Constraints() []Constraint { return m.cons }

// AddExpression registers a named expression, typically a stage cost such as
// "CostExpressions[1]".
func (m *Model) AddExpression(name string, e *Expr) error {
	if _, ok := m.exprs[name]; ok {
		return fmt.Errorf("%w: expression %s", ErrDuplicateName, name)
	}
	m.exprs[name] = e
	m.exprOrder = append(m.exprOrder, name)
	return nil
}

// Expression looks up a named expression.
func (m *Model) Expression(name string) (*Expr, bool) {
	e, ok := m.exprs[name]
	return e, ok
}

// ExpressionNames returns expression names in registration order.
func (m *Model) ExpressionNames() []string { return m.exprOrder }

// SetObjective declares the minimized objective as the sum of the named
// expressions.
func (m *Model) SetObjective(exprNames ...string) error {
	for _, n := range exprNames {
		if _, ok := m.exprs[n]; !ok {
			return fmt.Errorf("%w: expression %s", ErrUnknownName, n)
		}
	}
	m.objective = append([]string(nil), exprNames...)
	return nil
}

// Objective returns the expression names summed by the objective.
func (m *Model) Objective() []string { return m.objective }

// ObjectiveExpr returns the objective as a single summed expression.
func (m *Model) ObjectiveExpr() *Expr {
	sum := NewExpr()
	for _, n := range m.objective {
		sum.Add(m.exprs[n])
	}
	return sum
}

// IsLinear reports whether no constraint or objective expression carries a
// bilinear term.
func (m *Model) IsLinear() bool {
	for _, c := range m.cons {
		if !c.Body.IsLinear() {
			return false
		}
	}
	for _, n := range m.objective {
		if !m.exprs[n].IsLinear() {
			return false
		}
	}
	return true
}

// HasIntegers reports whether any variable is integer or binary.
func (m *Model) HasIntegers() bool {
	for _, v := range m.vars {
		if v.Kind != Continuous {
			return true
		}
	}
	return false
}

// Clone deep-copies the model. Parameter overrides on the clone do not affect
// the original, which is the basis of the per-scenario instance lifecycle.
func (m *Model) Clone() *Model {
	cp := New(m.Name)
	cp.vars = append([]Var(nil), m.vars...)
	for k, v := range m.varIndex {
		cp.varIndex[k] = v
	}
	for k, v := range m.params {
		cp.params[k] = v
	}
	cp.paramOrder = append([]string(nil), m.paramOrder...)
	for _, c := range m.cons {
		cp.conIndex[c.Name] = len(cp.cons)
		cp.cons = append(cp.cons, Constraint{Name: c.Name, Body: c.Body.clone(), Lower: c.Lower, Upper: c.Upper})
	}
	for _, n := range m.exprOrder {
		cp.exprs[n] = m.exprs[n].clone()
		cp.exprOrder = append(cp.exprOrder, n)
	}
	cp.objective = append([]string(nil), m.objective...)
	return cp
}

// EvalExpr evaluates a named expression under the given assignment and the
// model's current parameter values.
func (m *Model) EvalExpr(name string, assignment map[string]float64) (float64, error) {
	e, ok := m.exprs[name]
	if !ok {
		return 0, fmt.Errorf("%w: expression %s", ErrUnknownName, name)
	}
	return e.Eval(assignment, m.params)
}

// ObjectiveValue evaluates the full objective under the given assignment.
func (m *Model) ObjectiveValue(assignment map[string]float64) (float64, error) {
	return m.ObjectiveExpr().Eval(assignment, m.params)
}

// CheckFeasible evaluates every constraint and variable bound under the given
// assignment and returns the violations, if any, allowing tol slack on each
// side. Variables absent from the assignment default to zero, matching the
// models' zero initialization.
func (m *Model) CheckFeasible(assignment map[string]float64, tol float64) ([]Violation, error) {
	full := make(map[string]float64, len(m.vars))
	for _, v := range m.vars {
		full[v.Name] = assignment[v.Name]
	}
	var out []Violation
	for _, v := range m.vars {
		x := full[v.Name]
		if x < v.Lower-tol || x > v.Upper+tol {
			out = append(out, Violation{Constraint: "bound:" + v.Name, Value: x, Lower: v.Lower, Upper: v.Upper})
		}
	}
	for _, c := range m.cons {
		val, err := c.Body.Eval(full, m.params)
		if err != nil {
			return nil, fmt.Errorf("constraint %s: %w", c.Name, err)
		}
		if val < c.Lower-tol || val > c.Upper+tol {
			out = append(out, Violation{Constraint: c.Name, Value: val, Lower: c.Lower, Upper: c.Upper})
		}
	}
	return out, nil
}

// FixVariables returns a clone in which the named variables are pinned to the
// given values by collapsing their bounds. Fixing the first-stage decisions of
// a bilinear model this way yields a linear recourse problem without altering
// the model algebra.
func (m *Model) FixVariables(values map[string]float64) (*Model, error) {
	cp := m.Clone()
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		i, ok := cp.varIndex[n]
		if !ok {
			return nil, fmt.Errorf("%w: variable %s", ErrUnknownName, n)
		}
		v := cp.vars[i]
		x := values[n]
		if x < v.Lower || x > v.Upper {
			return nil, fmt.Errorf("program: fixed value %g outside bounds of %s [%g, %g]", x, n, v.Lower, v.Upper)
		}
		cp.vars[i].Lower = x
		cp.vars[i].Upper = x
		cp.vars[i].Kind = Continuous
	}
	substituteFixed(cp, values)
	return cp, nil
}

// substituteFixed rewrites bilinear terms touching fixed variables into linear
// terms so the fixed model lowers as a plain LP.
func substituteFixed(m *Model, fixed map[string]float64) {
	rw := func(e *Expr) {
		kept := e.Bilinear[:0]
		for _, b := range e.Bilinear {
			xv, xok := fixed[b.X]
			yv, yok := fixed[b.Y]
			switch {
			case xok && yok:
				e.Const += b.Coef * xv * yv
			case xok:
				e.Terms = append(e.Terms, Term{Var: b.Y, Coef: b.Coef * xv})
			case yok:
				e.Terms = append(e.Terms, Term{Var: b.X, Coef: b.Coef * yv})
			default:
				kept = append(kept, b)
			}
		}
		e.Bilinear = kept
	}
	for i := range m.cons {
		rw(m.cons[i].Body)
	}
	for _, n := range m.exprOrder {
		rw(m.exprs[n])
	}
}

// Inf returns positive infinity, for unbounded variable and constraint limits.
func Inf() float64 { return math.Inf(1) }
