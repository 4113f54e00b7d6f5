package program

import (
	"math"
	"testing"
)

func TestExprEval(t *testing.T) {
	e := NewExpr().AddTerm("x", 2).AddTerm("y", -1).AddConst(3)
	v, err := e.Eval(map[string]float64{"x": 4, "y": 5}, nil)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if v != 2*4-5+3 {
		t.Fatalf("expected 6 got %v", v)
	}
}

func TestExprEvalBilinear(t *testing.T) {
	e := NewExpr().AddBilinear("x", "y", 2).AddConst(1)
	v, err := e.Eval(map[string]float64{"x": 3, "y": 4}, nil)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if v != 25 {
		t.Fatalf("expected 25 got %v", v)
	}
}

func TestExprEvalParams(t *testing.T) {
	e := NewExpr().AddParam("Q", -1).AddParamVar("x", "C", 1)
	v, err := e.Eval(map[string]float64{"x": 10}, map[string]float64{"Q": 80, "C": 2.5})
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if v != -80+25 {
		t.Fatalf("expected -55 got %v", v)
	}
}

func TestExprEvalMissingSymbol(t *testing.T) {
	e := NewExpr().AddTerm("x", 1)
	if _, err := e.Eval(map[string]float64{}, nil); err == nil {
		t.Fatal("expected error for missing variable")
	}
	e = NewExpr().AddParam("Q", 1)
	if _, err := e.Eval(nil, map[string]float64{}); err == nil {
		t.Fatal("expected error for missing parameter")
	}
}

func TestExprAdd(t *testing.T) {
	a := NewExpr().AddTerm("x", 1).AddConst(2)
	b := NewExpr().AddTerm("y", 3).AddBilinear("x", "y", 1).AddConst(-1)
	a.Add(b)
	v, err := a.Eval(map[string]float64{"x": 1, "y": 2}, nil)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	if v != 1+2+6-1+2 {
		t.Fatalf("expected 10 got %v", v)
	}
	if a.IsLinear() {
		t.Fatal("sum should carry the bilinear term")
	}
}

func TestExprCloneIndependence(t *testing.T) {
	a := NewExpr().AddTerm("x", 1)
	b := a.clone()
	b.AddTerm("y", 1).AddConst(5)
	if len(a.Terms) != 1 || a.Const != 0 {
		t.Fatalf("clone mutated original: %+v", a)
	}
	if math.Abs(b.Const-5) > 0 {
		t.Fatalf("clone const wrong: %v", b.Const)
	}
}

func TestIndexed(t *testing.T) {
	if got := Indexed("LT_ACTION", "LS_RETRO"); got != "LT_ACTION[LS_RETRO]" {
		t.Fatalf("unexpected name %q", got)
	}
}
