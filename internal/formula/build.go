package formula

// True and False are the boolean constants.
var (
	True  Expr = BoolConst{Val: true}
	False Expr = BoolConst{Val: false}
)

// Int creates an integer constant.
func Int(v int64) Expr {
	return Const{Val: v}
}

// V creates a plain variable.
func V(name string) Expr {
	return Var{Base: name}
}

// TemplateVar creates a variable whose name is completed per invocation.
func TemplateVar(base string) Expr {
	return Var{Base: base, Templated: true, Inst: -1}
}

// Param creates a formal-parameter hole.
func Param(name string) Expr {
	return Hole{Kind: HoleParam, Key: name}
}

// Binary creates an arithmetic or comparison node.
func Binary(op Op, left, right Expr) Expr {
	return BinaryOp{Op: op, Left: left, Right: right}
}

// Eq creates an equality. Operands of different sorts are both coerced
// to bit-vectors.
func Eq(left, right Expr) Expr {
	if SortOf(left) != SortOf(right) {
		left, right = ToBV(left), ToBV(right)
	}
	return Equal{Left: left, Right: right}
}

// Negate creates logical negation, removing double negation.
func Negate(x Expr) Expr {
	switch x := x.(type) {
	case BoolConst:
		return BoolConst{Val: !x.Val}
	case Not:
		return x.X
	}
	return Not{X: x}
}

// Conj creates a conjunction, flattening nested conjunctions and
// dropping True operands.
func Conj(xs ...Expr) Expr {
	out := make([]Expr, 0, len(xs))
	for _, x := range xs {
		switch x := x.(type) {
		case BoolConst:
			if x.Val {
				continue
			}
			return False
		case And:
			out = append(out, x.Xs...)
			continue
		}
		out = append(out, x)
	}
	switch len(out) {
	case 0:
		return True
	case 1:
		return out[0]
	}
	return And{Xs: out}
}

// Disj creates a disjunction.
func Disj(xs ...Expr) Expr {
	out := make([]Expr, 0, len(xs))
	for _, x := range xs {
		if b, ok := x.(BoolConst); ok {
			if b.Val {
				return True
			}
			continue
		}
		out = append(out, x)
	}
	switch len(out) {
	case 0:
		return False
	case 1:
		return out[0]
	}
	return Or{Xs: out}
}

// Imply creates an implication. A True premise yields the conclusion
// and a True conclusion yields True.
func Imply(premise, conclusion Expr) Expr {
	if b, ok := premise.(BoolConst); ok && b.Val {
		return conclusion
	}
	if b, ok := conclusion.(BoolConst); ok && b.Val {
		return True
	}
	return Implies{If: premise, Then: conclusion}
}

// ToBool interprets e as a condition: bit-vectors are true when nonzero.
func ToBool(e Expr) Expr {
	if SortOf(e) == SortBool {
		return e
	}
	if c, ok := e.(Const); ok {
		return BoolConst{Val: c.Val != 0}
	}
	return Not{X: Equal{Left: e, Right: Const{Val: 0}}}
}

// ToBV interprets e as an integer: booleans become 1 or 0.
func ToBV(e Expr) Expr {
	if SortOf(e) == SortBV {
		return e
	}
	if b, ok := e.(BoolConst); ok {
		if b.Val {
			return Const{Val: 1}
		}
		return Const{Val: 0}
	}
	return Ite{Cond: e, Then: Const{Val: 1}, Else: Const{Val: 0}}
}
