// Package satbv decides bit-vector queries by bit-blasting them into CNF
// and running the gophersat CDCL solver. It needs no external process.
package satbv

import (
	"context"
	"fmt"

	gsolver "github.com/crillab/gophersat/solver"

	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/solver"
)

// Solver is the in-process backend.
type Solver struct{}

// New creates the backend.
func New() *Solver { return &Solver{} }

var _ solver.Solver = (*Solver)(nil)

// Check blasts the query and solves it. Cancelling ctx abandons the
// search.
func (s *Solver) Check(ctx context.Context, q solver.Query) (solver.Result, error) {
	if err := q.Validate(); err != nil {
		return solver.Result{}, err
	}
	b := newBlaster(q.Width)
	for _, d := range q.Decls {
		b.declare(d.Name)
	}
	for _, a := range q.Assertions {
		lit, err := b.prop(a)
		if err != nil {
			return solver.Result{}, err
		}
		if lit == fls {
			return solver.Result{Status: solver.Unsat}, nil
		}
		if lit != tru {
			b.c.clause(lit)
		}
	}
	if err := ctx.Err(); err != nil {
		return solver.Result{}, err
	}

	type outcome struct {
		status gsolver.Status
		model  []bool
	}
	done := make(chan outcome, 1)
	go func() {
		gs := gsolver.New(gsolver.ParseSlice(b.c.clauses))
		st := gs.Solve()
		var model []bool
		if st == gsolver.Sat {
			model = gs.Model()
		}
		done <- outcome{status: st, model: model}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		return solver.Result{}, ctx.Err()
	case out = <-done:
	}

	switch out.status {
	case gsolver.Unsat:
		return solver.Result{Status: solver.Unsat}, nil
	case gsolver.Sat:
		return solver.Result{Status: solver.Sat, Model: b.decode(q.Decls, out.model)}, nil
	default:
		return solver.Result{Status: solver.Unknown}, nil
	}
}

type blaster struct {
	c     *circuit
	width int
	vars  map[string][]int
}

func newBlaster(width int) *blaster {
	return &blaster{c: newCircuit(), width: width, vars: make(map[string][]int)}
}

func (b *blaster) declare(name string) {
	if _, ok := b.vars[name]; !ok {
		b.vars[name] = b.c.input(b.width)
	}
}

func (b *blaster) decode(decls []formula.Decl, model []bool) solver.MapModel {
	value := func(lit int) bool {
		v := lit
		if v < 0 {
			v = -v
		}
		set := v-1 < len(model) && model[v-1]
		if lit < 0 {
			return !set
		}
		return set
	}
	m := make(solver.MapModel, len(decls))
	for _, d := range decls {
		var u uint64
		for i, lit := range b.vars[d.Name] {
			if value(lit) {
				u |= 1 << uint(i)
			}
		}
		m[d.Name] = formula.FromUnsigned(u, b.width)
	}
	return m
}

func (b *blaster) term(e formula.Expr) ([]int, error) {
	switch e := e.(type) {
	case formula.Const:
		return constant(formula.ToUnsigned(e.Val, b.width), b.width), nil

	case formula.Var:
		bits, ok := b.vars[e.Ident()]
		if !ok {
			return nil, fmt.Errorf("undeclared variable %s", e.Ident())
		}
		return bits, nil

	case formula.BinaryOp:
		if e.Op.IsComparison() {
			break
		}
		l, err := b.term(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := b.term(e.Right)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case formula.OpAdd:
			return b.c.add(l, r), nil
		case formula.OpSub:
			return b.c.sub(l, r), nil
		case formula.OpMul:
			return b.c.mul(l, r), nil
		case formula.OpDiv:
			return b.c.sdiv(l, r), nil
		case formula.OpRem:
			return b.c.srem(l, r), nil
		}
		return nil, fmt.Errorf("unknown operator %s", e.Op)

	case formula.Neg:
		x, err := b.term(e.X)
		if err != nil {
			return nil, err
		}
		return b.c.neg(x), nil

	case formula.Ite:
		if formula.SortOf(e) != formula.SortBV {
			break
		}
		cond, err := b.prop(e.Cond)
		if err != nil {
			return nil, err
		}
		t, err := b.term(e.Then)
		if err != nil {
			return nil, err
		}
		f, err := b.term(e.Else)
		if err != nil {
			return nil, err
		}
		return b.c.muxv(cond, t, f), nil

	case formula.Hole:
		return nil, fmt.Errorf("unresolved placeholder %s", e)
	}

	if formula.SortOf(e) != formula.SortBool {
		return nil, fmt.Errorf("cannot blast term %T", e)
	}
	// A proposition in integer position is 1 or 0.
	p, err := b.prop(e)
	if err != nil {
		return nil, err
	}
	bits := constant(0, b.width)
	bits[0] = p
	return bits, nil
}

func (b *blaster) prop(e formula.Expr) (int, error) {
	switch e := e.(type) {
	case formula.BoolConst:
		if e.Val {
			return tru, nil
		}
		return fls, nil

	case formula.Equal:
		if formula.SortOf(e.Left) == formula.SortBool && formula.SortOf(e.Right) == formula.SortBool {
			l, err := b.prop(e.Left)
			if err != nil {
				return 0, err
			}
			r, err := b.prop(e.Right)
			if err != nil {
				return 0, err
			}
			return -b.c.xor(l, r), nil
		}
		l, err := b.term(e.Left)
		if err != nil {
			return 0, err
		}
		r, err := b.term(e.Right)
		if err != nil {
			return 0, err
		}
		return b.c.eq(l, r), nil

	case formula.Not:
		x, err := b.prop(e.X)
		if err != nil {
			return 0, err
		}
		return -x, nil

	case formula.And:
		out := tru
		for _, x := range e.Xs {
			l, err := b.prop(x)
			if err != nil {
				return 0, err
			}
			out = b.c.and(out, l)
		}
		return out, nil

	case formula.Or:
		out := fls
		for _, x := range e.Xs {
			l, err := b.prop(x)
			if err != nil {
				return 0, err
			}
			out = b.c.or(out, l)
		}
		return out, nil

	case formula.Implies:
		p, err := b.prop(e.If)
		if err != nil {
			return 0, err
		}
		q, err := b.prop(e.Then)
		if err != nil {
			return 0, err
		}
		return b.c.or(-p, q), nil

	case formula.Ite:
		if formula.SortOf(e) != formula.SortBool {
			break
		}
		cond, err := b.prop(e.Cond)
		if err != nil {
			return 0, err
		}
		t, err := b.prop(e.Then)
		if err != nil {
			return 0, err
		}
		f, err := b.prop(e.Else)
		if err != nil {
			return 0, err
		}
		return b.c.mux(cond, t, f), nil

	case formula.BinaryOp:
		if !e.Op.IsComparison() {
			break
		}
		l, err := b.term(e.Left)
		if err != nil {
			return 0, err
		}
		r, err := b.term(e.Right)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case formula.OpLt:
			return b.c.slt(l, r), nil
		case formula.OpLe:
			return b.c.sle(l, r), nil
		case formula.OpGt:
			return b.c.slt(r, l), nil
		case formula.OpGe:
			return b.c.sle(r, l), nil
		}
	}

	if formula.SortOf(e) != formula.SortBV {
		return 0, fmt.Errorf("cannot blast proposition %T", e)
	}
	// An integer in condition position is true when nonzero.
	bits, err := b.term(e)
	if err != nil {
		return 0, err
	}
	return b.c.nonzero(bits), nil
}
