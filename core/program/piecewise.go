package program

import (
	"fmt"
	"strconv"
)

// Piecewise is a piecewise-linear function given by ordered breakpoints and
// sampled values, used to price expansion capacity from a sampled marginal
// cost curve.
type Piecewise struct {
	Breakpoints []float64
	Values      []float64
}

// Sample builds a Piecewise by evaluating f at each breakpoint. Breakpoints
// must be strictly increasing and at least two.
func Sample(breakpoints []float64, f func(float64) float64) (*Piecewise, error) {
	if len(breakpoints) < 2 {
		return nil, fmt.Errorf("piecewise: need at least two breakpoints, got %d", len(breakpoints))
	}
	vals := make([]float64, len(breakpoints))
	for i, x := range breakpoints {
		if i > 0 && x <= breakpoints[i-1] {
			return nil, fmt.Errorf("piecewise: breakpoints not strictly increasing at index %d", i)
		}
		vals[i] = f(x)
	}
	return &Piecewise{Breakpoints: append([]float64(nil), breakpoints...), Values: vals}, nil
}

// Monotone reports whether the sampled values are non-decreasing.
func (p *Piecewise) Monotone() bool {
	for i := 1; i < len(p.Values); i++ {
		if p.Values[i] < p.Values[i-1] {
			return false
		}
	}
	return true
}

// Convex reports whether the segment slopes are non-decreasing. Convex
// curves would not need the fill-order binaries ApplyINC emits; non-convex
// monotone curves do.
func (p *Piecewise) Convex() bool {
	prev := 0.0
	for k := 1; k < len(p.Breakpoints); k++ {
		s := p.slope(k)
		if k > 1 && s < prev-1e-12 {
			return false
		}
		prev = s
	}
	return true
}

// Interpolate evaluates the piecewise-linear interpolant at x, clamping to
// the breakpoint range.
func (p *Piecewise) Interpolate(x float64) float64 {
	n := len(p.Breakpoints)
	if x <= p.Breakpoints[0] {
		return p.Values[0]
	}
	if x >= p.Breakpoints[n-1] {
		return p.Values[n-1]
	}
	for k := 1; k < n; k++ {
		if x <= p.Breakpoints[k] {
			return p.Values[k-1] + p.slope(k)*(x-p.Breakpoints[k-1])
		}
	}
	return p.Values[n-1]
}

// Integral accumulates the trapezoid integral of the sampled curve from the
// first breakpoint to x. When the samples are a marginal cost this is the
// total cost of reaching level x.
func (p *Piecewise) Integral(x float64) float64 {
	total := 0.0
	for k := 1; k < len(p.Breakpoints); k++ {
		lo, hi := p.Breakpoints[k-1], p.Breakpoints[k]
		if x <= lo {
			break
		}
		end := hi
		if x < hi {
			end = x
		}
		fLo := p.Values[k-1]
		fEnd := p.Values[k-1] + p.slope(k)*(end-lo)
		total += 0.5 * (fLo + fEnd) * (end - lo)
	}
	return total
}

func (p *Piecewise) slope(k int) float64 {
	return (p.Values[k] - p.Values[k-1]) / (p.Breakpoints[k] - p.Breakpoints[k-1])
}

// ApplyINC encodes costVar == piecewise(actionVar) into the model using the
// incremental representation: one bounded increment variable per segment, a
// binary per interior breakpoint enforcing fill order, and equality links for
// both the action level and the cost. Both variables must already exist.
func (p *Piecewise) ApplyINC(m *Model, name, actionVar, costVar string) error {
	if _, ok := m.Var(actionVar); !ok {
		return fmt.Errorf("%w: variable %s", ErrUnknownName, actionVar)
	}
	if _, ok := m.Var(costVar); !ok {
		return fmt.Errorf("%w: variable %s", ErrUnknownName, costVar)
	}
	n := len(p.Breakpoints)
	deltas := make([]string, 0, n-1)
	for k := 1; k < n; k++ {
		w := p.Breakpoints[k] - p.Breakpoints[k-1]
		d := name + ".delta[" + strconv.Itoa(k) + "]"
		if err := m.AddVar(d, Continuous, 0, w); err != nil {
			return err
		}
		deltas = append(deltas, d)
	}
	bins := make([]string, 0, n-2)
	for k := 1; k < n-1; k++ {
		b := name + ".bin[" + strconv.Itoa(k) + "]"
		if err := m.AddVar(b, Binary, 0, 1); err != nil {
			return err
		}
		bins = append(bins, b)
	}

	// actionVar == x0 + sum(delta)
	link := NewExpr().AddTerm(actionVar, 1).AddConst(-p.Breakpoints[0])
	for _, d := range deltas {
		link.AddTerm(d, -1)
	}
	if err := m.AddConstraint(name+".x", link, 0, 0); err != nil {
		return err
	}

	// costVar == f0 + sum(slope_k * delta_k)
	cost := NewExpr().AddTerm(costVar, 1).AddConst(-p.Values[0])
	for k := 1; k < n; k++ {
		cost.AddTerm(deltas[k-1], -p.slope(k))
	}
	if err := m.AddConstraint(name+".f", cost, 0, 0); err != nil {
		return err
	}

	// Fill order: segment k must be full before segment k+1 opens.
	for k := 1; k < n-1; k++ {
		wk := p.Breakpoints[k] - p.Breakpoints[k-1]
		wk1 := p.Breakpoints[k+1] - p.Breakpoints[k]
		lo := NewExpr().AddTerm(deltas[k-1], 1).AddTerm(bins[k-1], -wk)
		if err := m.AddConstraint(name+".ord_lo["+strconv.Itoa(k)+"]", lo, 0, Inf()); err != nil {
			return err
		}
		up := NewExpr().AddTerm(deltas[k], 1).AddTerm(bins[k-1], -wk1)
		if err := m.AddConstraint(name+".ord_up["+strconv.Itoa(k)+"]", up, -Inf(), 0); err != nil {
			return err
		}
	}
	return nil
}
