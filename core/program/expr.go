package program

import "fmt"

// Term is a linear term coef*x.
type Term struct {
	Var  string
	Coef float64
}

// BilinearTerm is a product term coef*x*y. Its presence makes the enclosing
// model nonconvex.
type BilinearTerm struct {
	X, Y string
	Coef float64
}

// ParamTerm references a mutable scalar parameter with a coefficient. The
// parameter value is substituted at lowering or evaluation time, so clones of
// a model can carry different scenario data without rebuilding expressions.
type ParamTerm struct {
	Param string
	Coef  float64
}

// ParamVarTerm is scale*p*x where p is a mutable parameter acting as the
// coefficient of variable x. The term stays linear in the variables; the
// effective coefficient is resolved against the instance's parameter values.
type ParamVarTerm struct {
	Var   string
	Param string
	Scale float64
}

// Expr is an affine expression over variables and parameters, optionally
// carrying bilinear variable products.
type Expr struct {
	Terms     []Term
	Bilinear  []BilinearTerm
	Params    []ParamTerm
	ParamVars []ParamVarTerm
	Const     float64
}

// NewExpr returns an empty expression.
func NewExpr() *Expr { return &Expr{} }

// AddTerm appends coef*x and returns the expression for chaining.
func (e *Expr) AddTerm(x string, coef float64) *Expr {
	e.Terms = append(e.Terms, Term{Var: x, Coef: coef})
	return e
}

// AddBilinear appends coef*x*y.
func (e *Expr) AddBilinear(x, y string, coef float64) *Expr {
	e.Bilinear = append(e.Bilinear, BilinearTerm{X: x, Y: y, Coef: coef})
	return e
}

// AddParam appends coef*p where p is a mutable scalar parameter.
func (e *Expr) AddParam(p string, coef float64) *Expr {
	e.Params = append(e.Params, ParamTerm{Param: p, Coef: coef})
	return e
}

// AddParamVar appends scale*p*x, a variable priced by a mutable parameter.
func (e *Expr) AddParamVar(x, p string, scale float64) *Expr {
	e.ParamVars = append(e.ParamVars, ParamVarTerm{Var: x, Param: p, Scale: scale})
	return e
}

// AddConst adds a constant offset.
func (e *Expr) AddConst(c float64) *Expr {
	e.Const += c
	return e
}

// Add sums another expression into e.
func (e *Expr) Add(o *Expr) *Expr {
	e.Terms = append(e.Terms, o.Terms...)
	e.Bilinear = append(e.Bilinear, o.Bilinear...)
	e.Params = append(e.Params, o.Params...)
	e.ParamVars = append(e.ParamVars, o.ParamVars...)
	e.Const += o.Const
	return e
}

// IsLinear reports whether the expression carries no bilinear terms.
func (e *Expr) IsLinear() bool { return len(e.Bilinear) == 0 }

// clone returns a deep copy.
func (e *Expr) clone() *Expr {
	cp := &Expr{Const: e.Const}
	cp.Terms = append([]Term(nil), e.Terms...)
	cp.Bilinear = append([]BilinearTerm(nil), e.Bilinear...)
	cp.Params = append([]ParamTerm(nil), e.Params...)
	cp.ParamVars = append([]ParamVarTerm(nil), e.ParamVars...)
	return cp
}

// Eval computes the expression value for the given variable assignment and
// parameter values. Unknown variables or parameters are an error so that
// partially built assignments are caught early.
func (e *Expr) Eval(assignment map[string]float64, params map[string]float64) (float64, error) {
	v := e.Const
	for _, t := range e.Terms {
		x, ok := assignment[t.Var]
		if !ok {
			return 0, fmt.Errorf("expr: no value for variable %s", t.Var)
		}
		v += t.Coef * x
	}
	for _, t := range e.Bilinear {
		x, ok := assignment[t.X]
		if !ok {
			return 0, fmt.Errorf("expr: no value for variable %s", t.X)
		}
		y, ok := assignment[t.Y]
		if !ok {
			return 0, fmt.Errorf("expr: no value for variable %s", t.Y)
		}
		v += t.Coef * x * y
	}
	for _, t := range e.Params {
		p, ok := params[t.Param]
		if !ok {
			return 0, fmt.Errorf("expr: unknown parameter %s", t.Param)
		}
		v += t.Coef * p
	}
	for _, t := range e.ParamVars {
		x, ok := assignment[t.Var]
		if !ok {
			return 0, fmt.Errorf("expr: no value for variable %s", t.Var)
		}
		p, ok := params[t.Param]
		if !ok {
			return 0, fmt.Errorf("expr: unknown parameter %s", t.Param)
		}
		v += t.Scale * p * x
	}
	return v, nil
}

// Indexed builds the conventional flat name for an indexed symbol, e.g.
// Indexed("LT_ACTION", "LS_RETRO") == "LT_ACTION[LS_RETRO]".
func Indexed(base, key string) string { return base + "[" + key + "]" }
