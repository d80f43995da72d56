package encode

import (
	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

func (e *encoder) stmt(s syntax.Stmt, level int) (formula.Expr, error) {
	switch s := s.(type) {
	case *syntax.VariableDeclaration:
		return e.declare(s, level)

	case *syntax.ExpressionStatement:
		if a, ok := s.X.(*syntax.Assignment); ok {
			clause, _, err := e.assign(a, level)
			return clause, err
		}
		// Evaluated for effect: only clauses emitted by calls remain.
		if _, err := e.expr(s.X, level); err != nil {
			return nil, err
		}
		return formula.True, nil

	case *syntax.Block:
		f, err := e.block(s.Body, level+1)
		e.closeLevel(level + 1)
		return f, err

	case *syntax.FunctionDef:
		return e.define(s, level)

	case *syntax.Return:
		return e.ret(s, level)

	case *syntax.If:
		return e.branch(s, level)

	case *syntax.While:
		return e.loop(s, level)

	default:
		return nil, unsupported(s, "statement %T", s)
	}
}

func (e *encoder) block(body []syntax.Stmt, level int) (formula.Expr, error) {
	parts := make([]formula.Expr, 0, len(body))
	for _, s := range body {
		f, err := e.stmt(s, level)
		if err != nil {
			return nil, err
		}
		parts = append(parts, f)
	}
	return formula.Conj(parts...), nil
}

// declare binds each declarator at version 0. An initializer is a write,
// so `var x = 1` yields x at version 1; an uninitialized declaration is a
// self-equality at version 0. Redeclaring a bound name without an
// initializer keeps its value.
func (e *encoder) declare(d *syntax.VariableDeclaration, level int) (formula.Expr, error) {
	parts := make([]formula.Expr, 0, len(d.Decls))
	for _, dc := range d.Decls {
		var init formula.Expr
		if dc.Init != nil {
			v, err := e.expr(dc.Init, level)
			if err != nil {
				return nil, err
			}
			init = v
		}
		v, existed := e.scope.Declare(dc.Name.Name, level, e.space())
		if init == nil {
			if !existed {
				ref := e.ref(v)
				parts = append(parts, formula.Eq(ref, ref))
			}
			continue
		}
		target, err := e.write(dc.Name, level)
		if err != nil {
			return nil, err
		}
		parts = append(parts, formula.Eq(target, formula.ToBV(init)))
	}
	return formula.Conj(parts...), nil
}

// branch translates if/else. A missing alternate behaves as an empty
// block.
func (e *encoder) branch(s *syntax.If, level int) (formula.Expr, error) {
	test, err := e.expr(s.Test, level)
	if err != nil {
		return nil, err
	}
	alt := func() (formula.Expr, error) { return formula.True, nil }
	if s.Alternate != nil {
		alt = func() (formula.Expr, error) { return e.stmt(s.Alternate, level) }
	}
	return e.join(formula.ToBool(test),
		func() (formula.Expr, error) { return e.stmt(s.Consequent, level) },
		alt,
	)
}

// join translates two alternatives guarded by cond and its negation.
// Both sides start from the current state. For every binding the two
// sides left at different versions, the side with the older version is
// equated to the newer one under its own condition, and translation
// continues from the newer version.
func (e *encoder) join(cond formula.Expr, cons, alt func() (formula.Expr, error)) (formula.Expr, error) {
	notCond := formula.Negate(cond)
	before := e.scope.Snapshot()

	e.push(cond)
	consF, err := cons()
	e.pop()
	if err != nil {
		return nil, err
	}
	afterCons := e.scope.Snapshot()

	e.scope.Restore(before)
	e.push(notCond)
	altF, err := alt()
	e.pop()
	if err != nil {
		return nil, err
	}
	afterAlt := e.scope.Snapshot()

	parts := []formula.Expr{
		formula.Imply(cond, consF),
		formula.Imply(notCond, altF),
	}
	merged := afterAlt
	for _, c := range Diff(afterCons, afterAlt) {
		older := Versioned{Binding: c.Binding, Version: c.Before}
		newer := Versioned{Binding: c.Binding, Version: c.After}
		guard := cond
		if c.Before > c.After {
			older, newer = newer, older
			guard = notCond
		}
		parts = append(parts, formula.Imply(guard, formula.Eq(e.ref(newer), e.ref(older))))
		merged[c.Binding] = newer.Version
	}
	e.scope.Restore(merged)

	return formula.Conj(parts...), nil
}
