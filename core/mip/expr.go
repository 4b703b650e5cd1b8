package mip

import (
	"fmt"
	"strings"
)

// Term is one weighted variable of a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression: a weighted sum of variables plus a constant.
// The zero value is the empty expression.
type Expr struct {
	Terms    []Term
	Constant float64
}

// NewExpr returns an expression holding only the constant c.
func NewExpr(c float64) Expr { return Expr{Constant: c} }

// Add appends coef·v. Zero coefficients are dropped.
func (e *Expr) Add(v Var, coef float64) *Expr {
	if coef != 0 {
		e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	}
	return e
}

// AddConstant adds c to the constant part.
func (e *Expr) AddConstant(c float64) *Expr {
	e.Constant += c
	return e
}

// AddExpr appends all terms and the constant of o.
func (e *Expr) AddExpr(o Expr) *Expr {
	for _, t := range o.Terms {
		e.Add(t.Var, t.Coef)
	}
	e.Constant += o.Constant
	return e
}

// Eval evaluates the expression for values indexed by variable id.
func (e Expr) Eval(values []float64) float64 {
	sum := e.Constant
	for _, t := range e.Terms {
		sum += t.Coef * values[t.Var.id]
	}
	return sum
}

// Coefficients returns the summed coefficient per variable id.
func (e Expr) Coefficients() map[int]float64 {
	out := make(map[int]float64, len(e.Terms))
	for _, t := range e.Terms {
		out[t.Var.id] += t.Coef
	}
	return out
}

func (e Expr) String() string {
	var b strings.Builder
	for i, t := range e.Terms {
		if i > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g·v%d", t.Coef, t.Var.id)
	}
	if e.Constant != 0 || len(e.Terms) == 0 {
		if len(e.Terms) > 0 {
			b.WriteString(" + ")
		}
		fmt.Fprintf(&b, "%g", e.Constant)
	}
	return b.String()
}
