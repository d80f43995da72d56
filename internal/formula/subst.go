package formula

import "fmt"

// HoleFiller supplies the replacement for a template hole.
type HoleFiller func(h Hole) (Expr, error)

// Instantiate assigns inst to every templated variable of e and replaces
// every hole with the expression returned by fill. Replacements are not
// revisited, so fill may return expressions from the caller's context.
func Instantiate(e Expr, inst int, fill HoleFiller) (Expr, error) {
	switch e := e.(type) {
	case Const, BoolConst:
		return e, nil

	case Var:
		if e.Templated && e.Inst < 0 {
			e.Inst = inst
		}
		return e, nil

	case Hole:
		if fill == nil {
			return nil, fmt.Errorf("unresolved placeholder %s", e)
		}
		return fill(e)

	case BinaryOp:
		l, err := Instantiate(e.Left, inst, fill)
		if err != nil {
			return nil, err
		}
		r, err := Instantiate(e.Right, inst, fill)
		if err != nil {
			return nil, err
		}
		return BinaryOp{Op: e.Op, Left: l, Right: r}, nil

	case Neg:
		x, err := Instantiate(e.X, inst, fill)
		if err != nil {
			return nil, err
		}
		return Neg{X: x}, nil

	case Equal:
		l, err := Instantiate(e.Left, inst, fill)
		if err != nil {
			return nil, err
		}
		r, err := Instantiate(e.Right, inst, fill)
		if err != nil {
			return nil, err
		}
		return Eq(l, r), nil

	case Not:
		x, err := Instantiate(e.X, inst, fill)
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil

	case And:
		xs, err := instantiateAll(e.Xs, inst, fill)
		if err != nil {
			return nil, err
		}
		return And{Xs: xs}, nil

	case Or:
		xs, err := instantiateAll(e.Xs, inst, fill)
		if err != nil {
			return nil, err
		}
		return Or{Xs: xs}, nil

	case Implies:
		p, err := Instantiate(e.If, inst, fill)
		if err != nil {
			return nil, err
		}
		c, err := Instantiate(e.Then, inst, fill)
		if err != nil {
			return nil, err
		}
		return Implies{If: p, Then: c}, nil

	case Ite:
		c, err := Instantiate(e.Cond, inst, fill)
		if err != nil {
			return nil, err
		}
		t, err := Instantiate(e.Then, inst, fill)
		if err != nil {
			return nil, err
		}
		f, err := Instantiate(e.Else, inst, fill)
		if err != nil {
			return nil, err
		}
		return Ite{Cond: c, Then: t, Else: f}, nil

	default:
		return nil, fmt.Errorf("unknown formula node %T", e)
	}
}

func instantiateAll(xs []Expr, inst int, fill HoleFiller) ([]Expr, error) {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		y, err := Instantiate(x, inst, fill)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}

// Walk calls fn for e and every node below it, parents first.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch e := e.(type) {
	case BinaryOp:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case Neg:
		Walk(e.X, fn)
	case Equal:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case Not:
		Walk(e.X, fn)
	case And:
		for _, x := range e.Xs {
			Walk(x, fn)
		}
	case Or:
		for _, x := range e.Xs {
			Walk(x, fn)
		}
	case Implies:
		Walk(e.If, fn)
		Walk(e.Then, fn)
	case Ite:
		Walk(e.Cond, fn)
		Walk(e.Then, fn)
		Walk(e.Else, fn)
	}
}

// FreeVars declares every variable of exprs once, in order of first
// occurrence.
func FreeVars(exprs ...Expr) []Decl {
	seen := make(map[string]bool)
	var decls []Decl
	for _, e := range exprs {
		Walk(e, func(n Expr) {
			v, ok := n.(Var)
			if !ok {
				return
			}
			name := v.Ident()
			if seen[name] {
				return
			}
			seen[name] = true
			decls = append(decls, Decl{Name: name, Sort: SortBV})
		})
	}
	return decls
}

// HasHoles reports whether e still contains template placeholders.
func HasHoles(e Expr) bool {
	found := false
	Walk(e, func(n Expr) {
		switch n := n.(type) {
		case Hole:
			found = true
		case Var:
			if n.Templated && n.Inst < 0 {
				found = true
			}
		}
	})
	return found
}
