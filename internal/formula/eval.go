package formula

import (
	"errors"
	"fmt"
)

// MaxWidth is the widest bit-vector Eval and the backends support.
const MaxWidth = 63

// ErrUnbound is returned by Eval for a variable the lookup cannot supply.
var ErrUnbound = errors.New("unbound variable")

// Value is the result of evaluating a node.
type Value struct {
	Sort Sort
	Int  int64
	Bool bool
}

func (v Value) String() string {
	if v.Sort == SortBool {
		return fmt.Sprintf("%t", v.Bool)
	}
	return fmt.Sprintf("%d", v.Int)
}

// Lookup returns the value of a variable by solver-level name.
type Lookup func(name string) (int64, bool)

// Eval evaluates e concretely at the given width. Arithmetic wraps like
// two's complement hardware; division and remainder follow SMT-LIB
// bvsdiv and bvsrem, including division by zero.
func Eval(e Expr, width int, lookup Lookup) (Value, error) {
	if width < 1 || width > MaxWidth {
		return Value{}, fmt.Errorf("unsupported width %d", width)
	}
	ev := evaluator{width: width, lookup: lookup}
	return ev.eval(e)
}

// EvalBool evaluates a proposition.
func EvalBool(e Expr, width int, lookup Lookup) (bool, error) {
	v, err := Eval(ToBool(e), width, lookup)
	if err != nil {
		return false, err
	}
	return v.Bool, nil
}

type evaluator struct {
	width  int
	lookup Lookup
}

func boolValue(b bool) Value { return Value{Sort: SortBool, Bool: b} }

func (ev evaluator) intValue(v int64) Value {
	return Value{Sort: SortBV, Int: Wrap(v, ev.width)}
}

func (ev evaluator) eval(e Expr) (Value, error) {
	switch e := e.(type) {
	case Const:
		return ev.intValue(e.Val), nil

	case BoolConst:
		return boolValue(e.Val), nil

	case Var:
		if e.Templated && e.Inst < 0 {
			return Value{}, fmt.Errorf("uninstantiated variable %s", e)
		}
		if ev.lookup == nil {
			return Value{}, fmt.Errorf("%w: %s", ErrUnbound, e.Ident())
		}
		v, ok := ev.lookup(e.Ident())
		if !ok {
			return Value{}, fmt.Errorf("%w: %s", ErrUnbound, e.Ident())
		}
		return ev.intValue(v), nil

	case Hole:
		return Value{}, fmt.Errorf("unresolved placeholder %s", e)

	case BinaryOp:
		l, err := ev.eval(e.Left)
		if err != nil {
			return Value{}, err
		}
		r, err := ev.eval(e.Right)
		if err != nil {
			return Value{}, err
		}
		return ev.binary(e.Op, l.Int, r.Int), nil

	case Neg:
		x, err := ev.eval(e.X)
		if err != nil {
			return Value{}, err
		}
		return ev.intValue(-x.Int), nil

	case Equal:
		l, err := ev.eval(e.Left)
		if err != nil {
			return Value{}, err
		}
		r, err := ev.eval(e.Right)
		if err != nil {
			return Value{}, err
		}
		if l.Sort == SortBool {
			return boolValue(l.Bool == r.Bool), nil
		}
		return boolValue(l.Int == r.Int), nil

	case Not:
		x, err := ev.eval(e.X)
		if err != nil {
			return Value{}, err
		}
		return boolValue(!x.Bool), nil

	case And:
		// No short-circuit: every operand must be bound.
		result := true
		for _, x := range e.Xs {
			v, err := ev.eval(x)
			if err != nil {
				return Value{}, err
			}
			result = result && v.Bool
		}
		return boolValue(result), nil

	case Or:
		result := false
		for _, x := range e.Xs {
			v, err := ev.eval(x)
			if err != nil {
				return Value{}, err
			}
			result = result || v.Bool
		}
		return boolValue(result), nil

	case Implies:
		p, err := ev.eval(e.If)
		if err != nil {
			return Value{}, err
		}
		c, err := ev.eval(e.Then)
		if err != nil {
			return Value{}, err
		}
		return boolValue(!p.Bool || c.Bool), nil

	case Ite:
		c, err := ev.eval(e.Cond)
		if err != nil {
			return Value{}, err
		}
		t, err := ev.eval(e.Then)
		if err != nil {
			return Value{}, err
		}
		f, err := ev.eval(e.Else)
		if err != nil {
			return Value{}, err
		}
		if c.Bool {
			return t, nil
		}
		return f, nil

	default:
		return Value{}, fmt.Errorf("unknown formula node %T", e)
	}
}

func (ev evaluator) binary(op Op, l, r int64) Value {
	w := ev.width
	switch op {
	case OpAdd:
		return ev.intValue(l + r)
	case OpSub:
		return ev.intValue(l - r)
	case OpMul:
		return ev.intValue(l * r)
	case OpDiv:
		return ev.intValue(SDiv(l, r, w))
	case OpRem:
		return ev.intValue(SRem(l, r, w))
	case OpLt:
		return boolValue(l < r)
	case OpLe:
		return boolValue(l <= r)
	case OpGt:
		return boolValue(l > r)
	case OpGe:
		return boolValue(l >= r)
	default:
		return Value{}
	}
}

func mask(width int) uint64 {
	return (uint64(1) << uint(width)) - 1
}

// Wrap truncates v to width bits and sign-extends the result.
func Wrap(v int64, width int) int64 {
	return FromUnsigned(uint64(v), width)
}

// ToUnsigned returns the width-bit two's complement pattern of v.
func ToUnsigned(v int64, width int) uint64 {
	return uint64(v) & mask(width)
}

// FromUnsigned sign-extends a width-bit pattern.
func FromUnsigned(u uint64, width int) int64 {
	m := mask(width)
	u &= m
	if u>>(uint(width)-1)&1 == 1 {
		return int64(u | ^m)
	}
	return int64(u)
}

func absUnsigned(v int64, width int) uint64 {
	if v < 0 {
		return ToUnsigned(-v, width)
	}
	return ToUnsigned(v, width)
}

func udiv(a, b uint64, width int) uint64 {
	if b == 0 {
		return mask(width)
	}
	return a / b
}

func urem(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

// SDiv is SMT-LIB bvsdiv on width-bit operands.
func SDiv(s, t int64, width int) int64 {
	s, t = Wrap(s, width), Wrap(t, width)
	q := udiv(absUnsigned(s, width), absUnsigned(t, width), width)
	if (s < 0) != (t < 0) {
		return FromUnsigned(-q, width)
	}
	return FromUnsigned(q, width)
}

// SRem is SMT-LIB bvsrem on width-bit operands: the sign follows the
// dividend.
func SRem(s, t int64, width int) int64 {
	s, t = Wrap(s, width), Wrap(t, width)
	r := urem(absUnsigned(s, width), absUnsigned(t, width))
	if s < 0 {
		return FromUnsigned(-r, width)
	}
	return FromUnsigned(r, width)
}
