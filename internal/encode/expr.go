package encode

import (
	"strconv"

	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

var arithOps = map[string]formula.Op{
	"+":  formula.OpAdd,
	"-":  formula.OpSub,
	"*":  formula.OpMul,
	"/":  formula.OpDiv,
	"%":  formula.OpRem,
	"<":  formula.OpLt,
	"<=": formula.OpLe,
	">":  formula.OpGt,
	">=": formula.OpGe,
}

func (e *encoder) expr(x syntax.Expr, level int) (formula.Expr, error) {
	switch x := x.(type) {
	case *syntax.Identifier:
		return e.read(x, level)

	case *syntax.Literal:
		return literal(x)

	case *syntax.BinaryOp:
		// Both operands are translated left to right before combining.
		l, err := e.expr(x.Left, level)
		if err != nil {
			return nil, err
		}
		r, err := e.expr(x.Right, level)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "==":
			return formula.Eq(l, r), nil
		case "!=":
			return formula.Negate(formula.Eq(l, r)), nil
		}
		op, ok := arithOps[x.Op]
		if !ok {
			return nil, unsupported(x, "operator %s", x.Op)
		}
		return formula.Binary(op, formula.ToBV(l), formula.ToBV(r)), nil

	case *syntax.LogicalOp:
		l, err := e.expr(x.Left, level)
		if err != nil {
			return nil, err
		}
		r, err := e.expr(x.Right, level)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "&&":
			return formula.And{Xs: []formula.Expr{formula.ToBool(l), formula.ToBool(r)}}, nil
		case "||":
			return formula.Or{Xs: []formula.Expr{formula.ToBool(l), formula.ToBool(r)}}, nil
		}
		return nil, unsupported(x, "logical operator %s", x.Op)

	case *syntax.UnaryOp:
		v, err := e.expr(x.X, level)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "!":
			return formula.Negate(formula.ToBool(v)), nil
		case "-":
			if c, ok := v.(formula.Const); ok {
				return formula.Int(-c.Val), nil
			}
			return formula.Neg{X: formula.ToBV(v)}, nil
		}
		return nil, unsupported(x, "unary operator %s", x.Op)

	case *syntax.Assignment:
		clause, target, err := e.assign(x, level)
		if err != nil {
			return nil, err
		}
		e.emit(clause)
		return target, nil

	case *syntax.Call:
		return e.call(x, level)

	default:
		return nil, unsupported(x, "expression %T", x)
	}
}

func literal(lit *syntax.Literal) (formula.Expr, error) {
	switch lit.Kind {
	case syntax.BooleanLiteral:
		if lit.Raw == "true" {
			return formula.True, nil
		}
		return formula.False, nil
	case syntax.NumberLiteral:
		v, err := strconv.ParseInt(lit.Raw, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(lit.Raw, 0, 64)
			if uerr != nil {
				return nil, unsupported(lit, "numeric literal %s", lit.Raw)
			}
			v = int64(u)
		}
		return formula.Int(v), nil
	}
	return nil, unsupported(lit, "literal %q", lit.Raw)
}

// read resolves an identifier to its live version. Inside a function
// body a name that is not local is an outer read, left as a hole and
// resolved against the caller's versions at each instantiation.
func (e *encoder) read(id *syntax.Identifier, level int) (formula.Expr, error) {
	if e.fn != nil {
		if v, ok := e.scope.Resolve(id.Name, level, e.fn.space, false); ok && v.Space != "" {
			return e.ref(v), nil
		}
		if _, ok := e.scope.Resolve(id.Name, e.fn.level, "", false); ok {
			return formula.Hole{Kind: formula.HoleOuter, Key: id.Name}, nil
		}
		return nil, &ScopeResolutionError{Name: id.Name, Pos: id.At}
	}
	v, ok := e.scope.Resolve(id.Name, level, "", false)
	if !ok {
		return nil, &ScopeResolutionError{Name: id.Name, Pos: id.At}
	}
	return e.ref(v), nil
}

// write allocates the next version of an identifier.
func (e *encoder) write(id *syntax.Identifier, level int) (formula.Expr, error) {
	if e.fn != nil {
		if v, ok := e.scope.Resolve(id.Name, level, e.fn.space, false); !ok || v.Space == "" {
			if _, outer := e.scope.Resolve(id.Name, e.fn.level, "", false); outer {
				return nil, &UnsupportedConstructError{
					Construct: "assignment to outer variable " + id.Name + " inside function " + e.fn.name,
					Pos:       id.At,
				}
			}
			return nil, &ScopeResolutionError{Name: id.Name, Pos: id.At}
		}
	}
	v, ok := e.scope.Resolve(id.Name, level, e.space(), true)
	if !ok {
		return nil, &ScopeResolutionError{Name: id.Name, Pos: id.At}
	}
	return e.ref(v), nil
}

// assign translates `target = value`. The value is read before the
// target's version advances.
func (e *encoder) assign(a *syntax.Assignment, level int) (clause, target formula.Expr, err error) {
	value, err := e.expr(a.Value, level)
	if err != nil {
		return nil, nil, err
	}
	target, err = e.write(a.Target, level)
	if err != nil {
		return nil, nil, err
	}
	return formula.Eq(target, formula.ToBV(value)), target, nil
}
