// Package encode translates programs into SSA-versioned bit-vector
// formulas.
//
// Every write to a variable allocates a fresh version, so a program
// becomes a conjunction of equalities between versioned names. Branches
// are joined with guarded reconciliation clauses, functions become
// templates instantiated once per call, and while loops are unrolled a
// bounded number of times. Each unrolled loop leaves a residual: a
// condition that holds in a model exactly when the bound was too small
// for the execution the model describes.
package encode

import (
	"fmt"

	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

// DefaultBound is the initial loop unroll bound.
const DefaultBound = 2

// Options controls a translation pass.
type Options struct {
	// Bound is the number of copies of each loop body. Zero means
	// DefaultBound.
	Bound int
}

// Residual is the unroll-sufficiency check of one loop.
type Residual struct {
	// Loop is the position of the while statement.
	Loop syntax.Pos
	// Source is the loop test as written.
	Source string
	// Check holds in a model when the loop would run past the bound. It
	// is the test evaluated after the last unrolled iteration, conjoined
	// with the path that reaches it.
	Check formula.Expr
}

func (r Residual) String() string {
	return fmt.Sprintf("%s: while (%s): %s", r.Loop, r.Source, r.Check)
}

// Encoding is the translation of one program.
type Encoding struct {
	Bound     int
	Clauses   formula.Formula
	Residuals []Residual
	// Globals maps each global name to its final versioned variable.
	Globals map[string]formula.Expr
	// Order lists the global names in sorted order.
	Order []string
	// Inputs maps each global whose initial value is read to the
	// variable holding that value.
	Inputs map[string]formula.Expr
}

// Decls declares every variable used by the clauses, the residuals and
// the final globals.
func (enc *Encoding) Decls() []formula.Decl {
	exprs := make([]formula.Expr, 0, len(enc.Clauses)+len(enc.Residuals)+len(enc.Order))
	exprs = append(exprs, enc.Clauses...)
	for _, r := range enc.Residuals {
		exprs = append(exprs, r.Check)
	}
	for _, name := range enc.Order {
		exprs = append(exprs, enc.Globals[name])
	}
	return formula.FreeVars(exprs...)
}

// Encode translates a program at the given bound. Each call starts from
// a fresh versioning state, so equal inputs give identical encodings.
func Encode(prog *syntax.Program, opts Options) (*Encoding, error) {
	bound := opts.Bound
	if bound <= 0 {
		bound = DefaultBound
	}
	e := newEncoder(bound)

	var top formula.Formula
	for _, s := range prog.Body {
		f, err := e.stmt(s, 0)
		if err != nil {
			return nil, err
		}
		if !isTrue(f) {
			top = append(top, f)
		}
	}

	enc := &Encoding{
		Bound:     bound,
		Clauses:   append(top, e.out.clauses...),
		Residuals: e.out.residuals,
		Globals:   make(map[string]formula.Expr),
		Order:     e.scope.Globals(),
		Inputs:    make(map[string]formula.Expr),
	}
	used := make(map[string]bool)
	for _, d := range formula.FreeVars(enc.Clauses...) {
		used[d.Name] = true
	}
	for _, name := range enc.Order {
		v, _ := e.scope.Resolve(name, 0, "", false)
		enc.Globals[name] = e.ref(v)
		initial := e.ref(Versioned{Binding: v.Binding})
		if used[initial.(formula.Var).Ident()] {
			enc.Inputs[name] = initial
		}
	}
	return enc, nil
}

// sink collects the clauses that do not belong to a single statement:
// instantiated function bodies, loop iterations and assignments nested
// inside expressions.
type sink struct {
	clauses   formula.Formula
	residuals []Residual
	sites     []*site
}

type encoder struct {
	bound int
	scope *Scope
	funcs map[funcKey]*function
	// redefined counts repeated definitions of a name at one level.
	redefined map[funcKey]int
	out       *sink
	// guards are the tests of the enclosing branches and loop iterations.
	guards []formula.Expr
	// fn is the function whose body is being translated.
	fn *function
}

func newEncoder(bound int) *encoder {
	return &encoder{
		bound:     bound,
		scope:     NewScope(),
		funcs:     make(map[funcKey]*function),
		redefined: make(map[funcKey]int),
		out:       &sink{},
	}
}

func (e *encoder) push(guard formula.Expr) { e.guards = append(e.guards, guard) }

func (e *encoder) pop() { e.guards = e.guards[:len(e.guards)-1] }

func (e *encoder) guard() formula.Expr { return formula.Conj(e.guards...) }

// emit appends a clause to the sink under the current path guard.
func (e *encoder) emit(c formula.Expr) {
	if isTrue(c) {
		return
	}
	e.out.clauses = append(e.out.clauses, formula.Imply(e.guard(), c))
}

// closeLevel drops the variables and functions declared at level and
// deeper once the block that opened level ends.
func (e *encoder) closeLevel(level int) {
	e.scope.Close(level)
	for key := range e.funcs {
		if key.level >= level {
			delete(e.funcs, key)
		}
	}
}

func (e *encoder) space() string {
	if e.fn == nil {
		return ""
	}
	return e.fn.space
}

// ref is the formula variable of a versioned binding. Variables of a
// function namespace are templated per invocation.
func (e *encoder) ref(v Versioned) formula.Expr {
	if v.Space != "" {
		return formula.TemplateVar(fmt.Sprintf("%s.%s@%d_%d", v.Space, v.Name, v.Level, v.Version))
	}
	return formula.V(fmt.Sprintf("%s@%d_%d", v.Name, v.Level, v.Version))
}

func isTrue(f formula.Expr) bool {
	b, ok := f.(formula.BoolConst)
	return ok && b.Val
}
