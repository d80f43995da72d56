package encode

import (
	"fmt"
	"strconv"

	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

type funcKey struct {
	level int
	name  string
}

// function is the descriptor of one function definition. Its body is a
// template: clauses over templated variables and holes, completed once
// per call.
type function struct {
	name   string
	level  int
	space  string
	params []string
	body   *sink
	at     syntax.Pos

	invocations int
	translating bool
}

// site is a call made inside a function body. It is instantiated when
// the enclosing function is.
type site struct {
	callee *function
	args   []formula.Expr
	guard  formula.Expr
	at     syntax.Pos
}

func (fn *function) ret() formula.Expr {
	return formula.TemplateVar("ret_" + fn.space)
}

func (e *encoder) define(d *syntax.FunctionDef, level int) (formula.Expr, error) {
	if e.fn != nil {
		return nil, unsupported(d, "function %s nested inside function %s", d.Name.Name, e.fn.name)
	}
	key := funcKey{level: level, name: d.Name.Name}

	space := d.Name.Name
	if level > 0 {
		space = fmt.Sprintf("%s@%d", space, level)
	}
	if _, ok := e.funcs[key]; ok {
		e.redefined[key]++
		space = fmt.Sprintf("%s~%d", space, e.redefined[key])
	}

	fn := &function{
		name:        d.Name.Name,
		level:       level,
		space:       space,
		body:        &sink{},
		at:          d.At,
		translating: true,
	}
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if seen[p.Name] {
			return nil, unsupported(p, "duplicate parameter %s", p.Name)
		}
		seen[p.Name] = true
		fn.params = append(fn.params, p.Name)
	}
	e.funcs[key] = fn
	e.scope.OpenSpace(space, level+1)

	out, guards := e.out, e.guards
	e.out, e.guards, e.fn = fn.body, nil, fn
	defer func() {
		e.out, e.guards, e.fn = out, guards, nil
		fn.translating = false
	}()

	for i, p := range fn.params {
		v, _ := e.scope.Declare(p, level+1, space)
		e.emit(formula.Eq(e.ref(v), formula.Hole{Kind: formula.HoleParam, Key: strconv.Itoa(i)}))
	}

	body, err := normalizeReturns(d.Body.Body)
	if err != nil {
		return nil, err
	}
	f, err := e.block(body, level+1)
	if err != nil {
		return nil, err
	}
	if !isTrue(f) {
		fn.body.clauses = append(fn.body.clauses, f)
	}
	return formula.True, nil
}

func (e *encoder) ret(r *syntax.Return, level int) (formula.Expr, error) {
	if e.fn == nil {
		return nil, unsupported(r, "return outside function")
	}
	if r.Value == nil {
		return formula.True, nil
	}
	v, err := e.expr(r.Value, level)
	if err != nil {
		return nil, err
	}
	return formula.Eq(e.fn.ret(), formula.ToBV(v)), nil
}

func (e *encoder) lookupFunc(name string, level int) (*function, bool) {
	for l := level; l >= 0; l-- {
		if fn, ok := e.funcs[funcKey{level: l, name: name}]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (e *encoder) call(c *syntax.Call, level int) (formula.Expr, error) {
	fn, ok := e.lookupFunc(c.Callee.Name, level)
	if !ok {
		return nil, &ScopeResolutionError{Name: c.Callee.Name, Pos: c.Callee.At, Function: true}
	}
	if fn.translating {
		return nil, &RecursionError{Chain: []string{fn.name, fn.name}, Pos: c.Callee.At}
	}
	if len(c.Args) != len(fn.params) {
		return nil, &ArityMismatchError{Function: fn.name, Want: len(fn.params), Got: len(c.Args), Pos: c.Callee.At}
	}

	args := make([]formula.Expr, len(c.Args))
	for i, a := range c.Args {
		v, err := e.expr(a, level)
		if err != nil {
			return nil, err
		}
		args[i] = formula.ToBV(v)
	}

	if e.fn != nil {
		idx := len(e.out.sites)
		e.out.sites = append(e.out.sites, &site{callee: fn, args: args, guard: e.guard(), at: c.Callee.At})
		return formula.Hole{Kind: formula.HoleSite, Key: strconv.Itoa(idx)}, nil
	}
	return e.instantiate(fn, args, c.Callee.At, nil)
}

// instantiate completes a template with the next invocation index of fn,
// emits its clauses and residuals, and returns the instance's return
// variable. Calls recorded in the template are instantiated first.
func (e *encoder) instantiate(fn *function, args []formula.Expr, at syntax.Pos, chain []*function) (formula.Expr, error) {
	for _, active := range chain {
		if active == fn {
			names := make([]string, 0, len(chain)+1)
			for _, c := range chain {
				names = append(names, c.name)
			}
			return nil, &RecursionError{Chain: append(names, fn.name), Pos: at}
		}
	}
	chain = append(chain, fn)

	n := fn.invocations
	fn.invocations++

	results := make([]formula.Expr, len(fn.body.sites))
	fill := func(h formula.Hole) (formula.Expr, error) {
		switch h.Kind {
		case formula.HoleParam:
			i, err := strconv.Atoi(h.Key)
			if err != nil || i >= len(args) {
				return nil, fmt.Errorf("function %s: bad parameter placeholder %s", fn.name, h)
			}
			return args[i], nil
		case formula.HoleOuter:
			v, ok := e.scope.Resolve(h.Key, fn.level, "", false)
			if !ok {
				return nil, &ScopeResolutionError{Name: h.Key, Pos: at}
			}
			return e.ref(v), nil
		case formula.HoleSite:
			i, err := strconv.Atoi(h.Key)
			if err != nil || i >= len(results) || results[i] == nil {
				return nil, fmt.Errorf("function %s: bad call placeholder %s", fn.name, h)
			}
			return results[i], nil
		}
		return nil, fmt.Errorf("function %s: unknown placeholder %s", fn.name, h)
	}

	for i, s := range fn.body.sites {
		siteArgs := make([]formula.Expr, len(s.args))
		for j, a := range s.args {
			v, err := formula.Instantiate(a, n, fill)
			if err != nil {
				return nil, err
			}
			siteArgs[j] = v
		}
		guard, err := formula.Instantiate(s.guard, n, fill)
		if err != nil {
			return nil, err
		}
		e.push(guard)
		r, err := e.instantiate(s.callee, siteArgs, s.at, chain)
		e.pop()
		if err != nil {
			return nil, err
		}
		results[i] = r
	}

	for _, c := range fn.body.clauses {
		v, err := formula.Instantiate(c, n, fill)
		if err != nil {
			return nil, err
		}
		e.emit(v)
	}
	for _, r := range fn.body.residuals {
		v, err := formula.Instantiate(r.Check, n, fill)
		if err != nil {
			return nil, err
		}
		e.out.residuals = append(e.out.residuals, Residual{
			Loop:   r.Loop,
			Source: r.Source,
			Check:  formula.Conj(e.guard(), v),
		})
	}

	return formula.Instantiate(fn.ret(), n, nil)
}
