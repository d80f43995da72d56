// Package equiv decides whether a transformed program computes the same
// final global values as the original, within a loop unroll bound that
// grows until every counterexample is confirmed or the ceiling is hit.
package equiv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gnoswap-labs/eqv/internal/encode"
	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/rewriter"
	"github.com/gnoswap-labs/eqv/internal/solver"
	"github.com/gnoswap-labs/eqv/internal/solver/satbv"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

const (
	// DefaultMaxDoublings is the default ceiling on bound doublings.
	DefaultMaxDoublings = 6
	// DefaultWidth is the bit width of program integers.
	DefaultWidth = 32
)

// Options configures a Checker.
type Options struct {
	// InitialBound is the first unroll bound. Zero means
	// encode.DefaultBound.
	InitialBound int
	// MaxDoublings caps how often the bound doubles. Zero means
	// DefaultMaxDoublings; a negative value disables refinement.
	MaxDoublings int
	// Width is the integer width. Zero means DefaultWidth.
	Width int
	// Prefix namespaces the transformed program's variables. Empty means
	// rewriter.DefaultPrefix.
	Prefix string
	// Inject lines are replayed after the rewriter output.
	Inject []string
	// Solver decides the queries. Nil means the in-process SAT backend.
	Solver  solver.Solver
	DebugIR bool
	// OnStep is called after every refinement attempt.
	OnStep func(Step)
}

// Checker runs equivalence checks.
type Checker struct {
	opts Options
}

// New creates a checker, filling in defaults.
func New(opts Options) *Checker {
	if opts.InitialBound <= 0 {
		opts.InitialBound = encode.DefaultBound
	}
	if opts.MaxDoublings == 0 {
		opts.MaxDoublings = DefaultMaxDoublings
	}
	if opts.MaxDoublings < 0 {
		opts.MaxDoublings = 0
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Prefix == "" {
		opts.Prefix = rewriter.DefaultPrefix
	}
	if opts.Solver == nil {
		opts.Solver = satbv.New()
	}
	return &Checker{opts: opts}
}

// CheckEquivalence parses source, obtains its transformation from rw and
// checks the two programs.
func CheckEquivalence(ctx context.Context, source string, rw rewriter.Rewriter, opts Options) (*Report, error) {
	return New(opts).CheckSource(ctx, source, rw)
}

// CheckSource checks source against the output of rw.
func (c *Checker) CheckSource(ctx context.Context, source string, rw rewriter.Rewriter) (*Report, error) {
	if _, err := syntax.Parse(source); err != nil {
		return nil, err
	}
	lines, err := rw.Rewrite(ctx, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("rewriting: %w", err)
	}
	return c.CheckLines(ctx, source, lines)
}

// CheckLines checks source against rewriter output lines. The
// checker's inject lines are replayed after them.
func (c *Checker) CheckLines(ctx context.Context, source string, lines []string) (*Report, error) {
	original, err := syntax.Parse(source)
	if err != nil {
		return nil, err
	}
	all := append(append([]string{}, lines...), c.opts.Inject...)
	transformed, err := rewriter.Replay(all, c.opts.Prefix)
	if err != nil {
		return nil, err
	}
	return c.Check(ctx, original, transformed)
}

// Check compares original with transformed, whose variables carry the
// checker's prefix. Each attempt encodes both programs from scratch at
// the current bound; the bound doubles while the model found relies on
// a loop running past it.
func (c *Checker) Check(ctx context.Context, original, transformed *syntax.Program) (*Report, error) {
	var steps []Step
	bound := c.opts.InitialBound
	for doublings := 0; ; doublings++ {
		report, step, err := c.attempt(ctx, original, transformed, bound)
		if step != nil {
			steps = append(steps, *step)
			if c.opts.OnStep != nil {
				c.opts.OnStep(*step)
			}
		}
		switch {
		case err == nil:
			report.Steps = steps
			return report, nil
		case !errors.Is(err, errRefinementRequired):
			return nil, err
		case doublings >= c.opts.MaxDoublings:
			return &Report{
				Verdict: BoundExhausted,
				Reason:  ReasonUnrollInsufficient,
				Detail:  fmt.Sprintf("loops still open at bound %d: %s", bound, strings.Join(step.Open, ", ")),
				Bound:   bound,
				Steps:   steps,
			}, nil
		}
		bound *= 2
	}
}

// query is one equivalence query with the encodings it came from.
type query struct {
	original    *encode.Encoding
	transformed *encode.Encoding
	pairs       []pair
	q           solver.Query
}

type pair struct {
	name        string
	original    formula.Expr
	transformed formula.Expr
}

func (c *Checker) build(original, transformed *syntax.Program, bound int) (*query, error) {
	encO, err := encode.Encode(original, encode.Options{Bound: bound})
	if err != nil {
		return nil, fmt.Errorf("encoding original program: %w", err)
	}
	encT, err := encode.Encode(transformed, encode.Options{Bound: bound})
	if err != nil {
		return nil, fmt.Errorf("encoding transformed program: %w", err)
	}

	pairs, err := c.pairGlobals(encO, encT)
	if err != nil {
		return nil, err
	}

	assertions := make([]formula.Expr, 0, len(encO.Clauses)+len(encT.Clauses)+len(pairs)+1)
	assertions = append(assertions, encO.Clauses...)
	assertions = append(assertions, encT.Clauses...)

	// Both programs start from the same values of the globals they read
	// before writing.
	for _, p := range pairs {
		in, ok := encO.Inputs[p.name]
		if !ok {
			continue
		}
		if tin, ok := encT.Inputs[rewriter.Prefixed(c.opts.Prefix, p.name)]; ok {
			assertions = append(assertions, formula.Eq(in, tin))
		}
	}

	agree := make([]formula.Expr, len(pairs))
	for i, p := range pairs {
		agree[i] = formula.Eq(p.original, p.transformed)
	}
	assertions = append(assertions, formula.Negate(formula.Conj(agree...)))

	return &query{
		original:    encO,
		transformed: encT,
		pairs:       pairs,
		q: solver.Query{
			Width:      c.opts.Width,
			Decls:      mergeDecls(encO.Decls(), encT.Decls()),
			Assertions: assertions,
		},
	}, nil
}

func (c *Checker) pairGlobals(encO, encT *encode.Encoding) ([]pair, error) {
	mismatch := &GlobalMismatchError{}
	pairs := make([]pair, 0, len(encO.Order))
	seen := make(map[string]bool, len(encO.Order))
	for _, name := range encO.Order {
		seen[rewriter.Prefixed(c.opts.Prefix, name)] = true
		t, ok := encT.Globals[rewriter.Prefixed(c.opts.Prefix, name)]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, name)
			continue
		}
		pairs = append(pairs, pair{name: name, original: encO.Globals[name], transformed: t})
	}
	prefix := c.opts.Prefix + "."
	for _, name := range encT.Order {
		if !seen[name] {
			mismatch.Extra = append(mismatch.Extra, strings.TrimPrefix(name, prefix))
		}
	}
	if len(mismatch.Missing) > 0 || len(mismatch.Extra) > 0 {
		return nil, mismatch
	}
	return pairs, nil
}

func mergeDecls(a, b []formula.Decl) []formula.Decl {
	out := make([]formula.Decl, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, d := range append(append([]formula.Decl{}, a...), b...) {
		if !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	return out
}

func (c *Checker) attempt(ctx context.Context, original, transformed *syntax.Program, bound int) (*Report, *Step, error) {
	qr, err := c.build(original, transformed, bound)
	if err != nil {
		return nil, nil, err
	}
	res, err := c.opts.Solver.Check(ctx, qr.q)
	if err != nil {
		return nil, nil, fmt.Errorf("solving at bound %d: %w", bound, err)
	}
	step := &Step{Bound: bound, Clauses: len(qr.q.Assertions), Status: res.Status.String()}

	switch res.Status {
	case solver.Unsat:
		return c.withDebugIR(&Report{
			Verdict: Equivalent,
			Reason:  ReasonUnsatisfiable,
			Detail:  fmt.Sprintf("equivalent for executions within %d loop iterations", bound),
			Bound:   bound,
		}, qr), step, nil
	case solver.Unknown:
		return nil, step, fmt.Errorf("bound %d: %w", bound, ErrSolverUnknown)
	}

	lookup := solver.Lookup(res.Model)
	residuals := append(append([]encode.Residual{}, qr.original.Residuals...), qr.transformed.Residuals...)
	for _, r := range residuals {
		open, err := formula.EvalBool(r.Check, c.opts.Width, lookup)
		if err != nil {
			return nil, step, fmt.Errorf("evaluating residual of loop at %s: %w", r.Loop, err)
		}
		if open {
			step.Open = append(step.Open, fmt.Sprintf("while (%s) at %s", r.Source, r.Loop))
		}
	}
	if len(step.Open) > 0 {
		return nil, step, errRefinementRequired
	}

	report := &Report{
		Verdict: CounterexampleFound,
		Reason:  ReasonDivergence,
		Bound:   bound,
	}
	for _, p := range qr.pairs {
		o, err := formula.Eval(p.original, c.opts.Width, lookup)
		if err != nil {
			return nil, step, err
		}
		t, err := formula.Eval(p.transformed, c.opts.Width, lookup)
		if err != nil {
			return nil, step, err
		}
		if o.Int != t.Int {
			report.Divergences = append(report.Divergences, Divergence{Name: p.name, Original: o.Int, Transformed: t.Int})
		}
	}
	for name, in := range qr.original.Inputs {
		v, err := formula.Eval(in, c.opts.Width, lookup)
		if err != nil {
			return nil, step, err
		}
		report.Inputs = append(report.Inputs, Input{Name: name, Value: v.Int})
	}
	sort.Slice(report.Inputs, func(i, j int) bool { return report.Inputs[i].Name < report.Inputs[j].Name })

	details := make([]string, len(report.Divergences))
	for i, d := range report.Divergences {
		details[i] = d.String()
	}
	report.Detail = strings.Join(details, "\n")
	return c.withDebugIR(report, qr), step, nil
}
