// Package formula implements the structured logical formulas produced by
// the encoder: boolean connectives over fixed-width signed bit-vector
// terms, with first-class free-variable declarations.
//
// Terms never carry their width. The width is chosen once per query and
// applied by the solver backends and by Eval.
package formula

import (
	"fmt"
	"strings"
)

// Sort is the type of a formula node.
type Sort int

const (
	_ Sort = iota
	// SortBool is a proposition.
	SortBool
	// SortBV is a fixed-width signed integer.
	SortBV
)

func (s Sort) String() string {
	switch s {
	case SortBool:
		return "Bool"
	case SortBV:
		return "BitVec"
	default:
		return "?"
	}
}

// Expr is a formula node.
type Expr interface {
	isExpr()
	String() string
}

// Const is an integer constant.
type Const struct {
	Val int64
}

// BoolConst is a boolean constant.
type BoolConst struct {
	Val bool
}

// Var is a bit-vector variable. A templated variable belongs to a
// function body and only gets its final name once Inst is assigned by
// Instantiate.
type Var struct {
	Base      string
	Templated bool
	Inst      int
}

// Ident returns the solver-level name of the variable.
func (v Var) Ident() string {
	if !v.Templated {
		return v.Base
	}
	return fmt.Sprintf("%s_%d", v.Base, v.Inst)
}

// HoleKind identifies what a Hole stands for in a function template.
type HoleKind int

const (
	_ HoleKind = iota
	// HoleParam is a formal parameter, replaced by the actual argument.
	HoleParam
	// HoleSite is the return value of a call made inside the template.
	HoleSite
	// HoleOuter is a read of a variable from an enclosing scope,
	// resolved against the caller's versions.
	HoleOuter
)

// Hole is an unresolved placeholder inside a function template.
type Hole struct {
	Kind HoleKind
	Key  string
}

// Op is a binary term operator.
type Op int

const (
	_ Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpLt
	OpLe
	OpGt
	OpGe
)

var opText = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpRem: "%",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
}

func (op Op) String() string {
	if op > 0 && int(op) < len(opText) {
		return opText[op]
	}
	return "?"
}

// IsComparison reports whether op yields a boolean.
func (op Op) IsComparison() bool {
	return op >= OpLt && op <= OpGe
}

// BinaryOp is an arithmetic operation or a signed comparison.
type BinaryOp struct {
	Op    Op
	Left  Expr
	Right Expr
}

// Neg is arithmetic negation.
type Neg struct {
	X Expr
}

// Equal is equality over two operands of the same sort.
type Equal struct {
	Left  Expr
	Right Expr
}

// Not is logical negation.
type Not struct {
	X Expr
}

// And is an n-ary conjunction.
type And struct {
	Xs []Expr
}

// Or is an n-ary disjunction.
type Or struct {
	Xs []Expr
}

// Implies is logical implication.
type Implies struct {
	If   Expr
	Then Expr
}

// Ite is if-then-else over terms of the same sort.
type Ite struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (Const) isExpr()     {}
func (BoolConst) isExpr() {}
func (Var) isExpr()       {}
func (Hole) isExpr()      {}
func (BinaryOp) isExpr()  {}
func (Neg) isExpr()       {}
func (Equal) isExpr()     {}
func (Not) isExpr()       {}
func (And) isExpr()       {}
func (Or) isExpr()        {}
func (Implies) isExpr()   {}
func (Ite) isExpr()       {}

func (e Const) String() string { return fmt.Sprintf("%d", e.Val) }

func (e BoolConst) String() string {
	if e.Val {
		return "True"
	}
	return "False"
}

func (e Var) String() string {
	if e.Templated && e.Inst < 0 {
		return e.Base + "_{n}"
	}
	return e.Ident()
}

func (e Hole) String() string {
	switch e.Kind {
	case HoleParam:
		return "{" + e.Key + "}"
	case HoleSite:
		return "{call " + e.Key + "}"
	case HoleOuter:
		return "{outer " + e.Key + "}"
	default:
		return "{?}"
	}
}

func (e BinaryOp) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (e Neg) String() string { return "-" + e.X.String() }

func (e Equal) String() string {
	return "(" + e.Left.String() + " == " + e.Right.String() + ")"
}

func (e Not) String() string { return "Not(" + e.X.String() + ")" }

func (e And) String() string { return "And(" + joinExprs(e.Xs) + ")" }

func (e Or) String() string { return "Or(" + joinExprs(e.Xs) + ")" }

func (e Implies) String() string {
	return "Implies(" + e.If.String() + ", " + e.Then.String() + ")"
}

func (e Ite) String() string {
	return "If(" + e.Cond.String() + ", " + e.Then.String() + ", " + e.Else.String() + ")"
}

func joinExprs(xs []Expr) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

// SortOf returns the sort of e. Holes are bit-vector valued: arguments
// are coerced before they are substituted.
func SortOf(e Expr) Sort {
	switch e := e.(type) {
	case Const, Var, Hole, Neg:
		return SortBV
	case BinaryOp:
		if e.Op.IsComparison() {
			return SortBool
		}
		return SortBV
	case Ite:
		return SortOf(e.Then)
	default:
		return SortBool
	}
}

// Formula is a conjunction of independently assertable clauses.
type Formula []Expr

// Expr folds the clauses into a single conjunction.
func (f Formula) Expr() Expr {
	return Conj(f...)
}

// Strings renders each clause on its own.
func (f Formula) Strings() []string {
	out := make([]string, len(f))
	for i, c := range f {
		out[i] = c.String()
	}
	return out
}

// Decl declares a free variable of the query.
type Decl struct {
	Name string
	Sort Sort
}
