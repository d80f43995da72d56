package encode

import (
	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

// loop unrolls a while statement bound times as nested branches:
//
//	while (t) B  =>  if (t) { B; if (t) { B; ... } }
//
// The test is translated once per level, so writes made by the test
// happen only on paths that reach it. The innermost test becomes the
// residual: it holds when every iteration ran and the loop would still
// continue. The iterations go to the sink; the statement itself is True.
func (e *encoder) loop(w *syntax.While, level int) (formula.Expr, error) {
	f, err := e.unroll(w, level, e.bound)
	if err != nil {
		return nil, err
	}
	e.emit(f)
	return formula.True, nil
}

func (e *encoder) unroll(w *syntax.While, level, left int) (formula.Expr, error) {
	test, err := e.expr(w.Test, level)
	if err != nil {
		return nil, err
	}
	cond := formula.ToBool(test)

	if left == 0 {
		e.out.residuals = append(e.out.residuals, Residual{
			Loop:   w.At,
			Source: syntax.Format(w.Test),
			Check:  formula.Conj(e.guard(), cond),
		})
		return formula.True, nil
	}

	return e.join(cond,
		func() (formula.Expr, error) {
			body, err := e.stmt(w.Body, level)
			if err != nil {
				return nil, err
			}
			rest, err := e.unroll(w, level, left-1)
			if err != nil {
				return nil, err
			}
			return formula.Conj(body, rest), nil
		},
		func() (formula.Expr, error) { return formula.True, nil },
	)
}
