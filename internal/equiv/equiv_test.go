package equiv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/eqv/internal/encode"
	"github.com/gnoswap-labs/eqv/internal/rewriter"
	"github.com/gnoswap-labs/eqv/internal/solver"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

func check(t *testing.T, source string, lines []string, opts Options) *Report {
	t.Helper()
	report, err := CheckEquivalence(context.Background(), source, rewriter.Static(lines), opts)
	require.NoError(t, err)
	return report
}

func TestEquivalentPrograms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
		lines  []string
	}{
		{"constant", "var x = 1;", []string{"x = 1"}},
		{"folded arithmetic", "var x = 2; var y = x * 3 + 1;", []string{"x = 2", "y = 7"}},
		{
			name:   "branch on constant",
			source: "var c = 1; var r = 0; if (c > 0) { r = 5 } else { r = 6 }",
			lines:  []string{"c = 1", "r = 5"},
		},
		{
			name:   "function call",
			source: "function sq(n) { return n * n; } var r = sq(3) + sq(4);",
			lines:  []string{"r = 25"},
		},
		{"no globals", "function f() { return 1; }", nil},
		{"read before assignment", "var b; var a = b; b = 1;", []string{"a = b", "b = 1"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report := check(t, tt.source, tt.lines, Options{})
			assert.Equal(t, Equivalent, report.Verdict, report.Detail)
			assert.Equal(t, ReasonUnsatisfiable, report.Reason)
			assert.Equal(t, encode.DefaultBound, report.Bound)
			assert.Empty(t, report.Divergences)
			require.Len(t, report.Steps, 1)
			assert.Equal(t, "unsat", report.Steps[0].Status)
		})
	}
}

func TestCounterexample(t *testing.T) {
	t.Parallel()
	report := check(t, "var x = 1;", []string{"x = 2"}, Options{})

	assert.Equal(t, CounterexampleFound, report.Verdict)
	assert.Equal(t, ReasonDivergence, report.Reason)
	assert.Equal(t, []Divergence{{Name: "x", Original: 1, Transformed: 2}}, report.Divergences)
	assert.Equal(t, "x: original 1, transformed 2", report.Detail)
	assert.Nil(t, report.IR)
}

func TestInjectedLines(t *testing.T) {
	t.Parallel()
	report := check(t, "var x = 1; var y = 1;", []string{"x = 1", "y = 1"}, Options{Inject: []string{"y = 100"}})

	assert.Equal(t, CounterexampleFound, report.Verdict)
	assert.Equal(t, []Divergence{{Name: "y", Original: 1, Transformed: 100}}, report.Divergences)
}

func TestSharedInputs(t *testing.T) {
	t.Parallel()
	source := "var a; var b = a * 2;"

	report := check(t, source, []string{"a = a", "b = a + a"}, Options{})
	assert.Equal(t, Equivalent, report.Verdict)

	report = check(t, source, []string{"a = a", "b = a + 1"}, Options{})
	require.Equal(t, CounterexampleFound, report.Verdict)
	require.Len(t, report.Inputs, 1)
	assert.Equal(t, "a", report.Inputs[0].Name)

	a := report.Inputs[0].Value
	require.Len(t, report.Divergences, 1)
	d := report.Divergences[0]
	assert.Equal(t, "b", d.Name)
	assert.Equal(t, int64(int32(a*2)), d.Original)
	assert.Equal(t, int64(int32(a+1)), d.Transformed)
}

func TestRefinementDoublesBound(t *testing.T) {
	t.Parallel()
	var seen []Step
	report := check(t, "var i = 0; while (i < 3) { i = i + 1; }", []string{"i = 3"}, Options{
		OnStep: func(s Step) { seen = append(seen, s) },
	})

	assert.Equal(t, Equivalent, report.Verdict)
	assert.Equal(t, 4, report.Bound)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, report.Steps, seen)

	assert.Equal(t, 2, report.Steps[0].Bound)
	assert.Equal(t, "sat", report.Steps[0].Status)
	assert.Equal(t, []string{"while ((i < 3)) at 1:12"}, report.Steps[0].Open)
	assert.Equal(t, 4, report.Steps[1].Bound)
	assert.Equal(t, "unsat", report.Steps[1].Status)
	assert.Empty(t, report.Steps[1].Open)
}

func TestGenuineDivergenceWithLoop(t *testing.T) {
	t.Parallel()
	report := check(t, "var i = 0; while (i < 3) { i = i + 1; }", []string{"i = 4"}, Options{})

	assert.Equal(t, CounterexampleFound, report.Verdict)
	assert.Equal(t, 4, report.Bound)
	assert.Equal(t, []Divergence{{Name: "i", Original: 3, Transformed: 4}}, report.Divergences)
}

func TestLoopTestWithAssignment(t *testing.T) {
	t.Parallel()
	source := "var i = 3; var s = 0; while ((i = i - 1) > 0) { s = s + 1; }"
	tests := []struct {
		name   string
		lines  []string
		bound  int
		want   Verdict
		should []Divergence
	}{
		{"divergent at bound 4", []string{"i = 0", "s = 999"}, 4, CounterexampleFound, []Divergence{{Name: "s", Original: 2, Transformed: 999}}},
		{"divergent at bound 2", []string{"i = 0", "s = 999"}, 2, CounterexampleFound, []Divergence{{Name: "s", Original: 2, Transformed: 999}}},
		{"equivalent at bound 4", []string{"i = 0", "s = 2"}, 4, Equivalent, nil},
		{"refined from bound 1", []string{"i = 0", "s = 2"}, 1, Equivalent, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			report := check(t, source, tt.lines, Options{InitialBound: tt.bound})
			assert.Equal(t, tt.want, report.Verdict, report.Detail)
			assert.Equal(t, tt.should, report.Divergences)
		})
	}
}

func TestBoundExhausted(t *testing.T) {
	t.Parallel()
	source := "var i = 0; while (i < 100) { i = i + 1; }"

	report := check(t, source, []string{"i = 100"}, Options{MaxDoublings: 2})
	assert.Equal(t, BoundExhausted, report.Verdict)
	assert.Equal(t, ReasonUnrollInsufficient, report.Reason)
	assert.Equal(t, 8, report.Bound)
	assert.Len(t, report.Steps, 3)

	report = check(t, source, []string{"i = 100"}, Options{MaxDoublings: -1, InitialBound: 3})
	assert.Equal(t, BoundExhausted, report.Verdict)
	assert.Equal(t, 3, report.Bound)
	assert.Len(t, report.Steps, 1)
}

func TestDebugIR(t *testing.T) {
	t.Parallel()
	report := check(t, "var x = 1;", []string{"x = 1"}, Options{DebugIR: true})

	require.NotNil(t, report.IR)
	assert.Equal(t, "(x@0_1 == 1)", report.IR.Original)
	assert.Equal(t, "(pp.x@0_0 == pp.x@0_0)\n(pp.x@0_1 == 1)", report.IR.Transformed)
	assert.Contains(t, report.Detail, "IR(original):\n  (x@0_1 == 1)")
	assert.Contains(t, report.Detail, "IR(transformed):\n  (pp.x@0_0 == pp.x@0_0)")
}

func TestGlobalMismatch(t *testing.T) {
	t.Parallel()
	_, err := CheckEquivalence(context.Background(), "var x = 1; var y = 2;", rewriter.Static{"x = 1", "z = 3"}, Options{})

	var mismatch *GlobalMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, []string{"y"}, mismatch.Missing)
	assert.Equal(t, []string{"z"}, mismatch.Extra)
	assert.EqualError(t, err, "global variables differ: missing from transformed program: y; not declared by original program: z")
}

func TestCheckErrors(t *testing.T) {
	t.Parallel()

	_, err := CheckEquivalence(context.Background(), "var = 1;", rewriter.Static{}, Options{})
	var perr *syntax.ParseError
	assert.ErrorAs(t, err, &perr)

	_, err = CheckEquivalence(context.Background(), "var x = y;", rewriter.Static{"x = 1"}, Options{})
	var serr *encode.ScopeResolutionError
	assert.ErrorAs(t, err, &serr)

	_, err = CheckEquivalence(context.Background(), "var x = 1;", rewriter.Static{"if (x) { x = 2 }"}, Options{})
	assert.Error(t, err)
}

type mockSolver struct {
	mock.Mock
}

func (m *mockSolver) Check(ctx context.Context, q solver.Query) (solver.Result, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(solver.Result), args.Error(1)
}

func TestSolverFailures(t *testing.T) {
	t.Parallel()

	unknown := new(mockSolver)
	unknown.On("Check", mock.Anything, mock.Anything).Return(solver.Result{Status: solver.Unknown}, nil)
	_, err := CheckEquivalence(context.Background(), "var x = 1;", rewriter.Static{"x = 1"}, Options{Solver: unknown})
	assert.ErrorIs(t, err, ErrSolverUnknown)
	unknown.AssertNumberOfCalls(t, "Check", 1)

	failing := new(mockSolver)
	boom := errors.New("boom")
	failing.On("Check", mock.Anything, mock.Anything).Return(solver.Result{}, boom)
	_, err = CheckEquivalence(context.Background(), "var x = 1;", rewriter.Static{"x = 1"}, Options{Solver: failing})
	assert.ErrorIs(t, err, boom)
}

func TestQueryShape(t *testing.T) {
	t.Parallel()
	s := new(mockSolver)
	s.On("Check", mock.Anything, mock.MatchedBy(func(q solver.Query) bool {
		return q.Width == 16 && len(q.Decls) == 3 && len(q.Assertions) == 4
	})).Return(solver.Result{Status: solver.Unsat}, nil)

	report := check(t, "var x = 1;", []string{"x = 1"}, Options{Solver: s, Width: 16})
	assert.Equal(t, Equivalent, report.Verdict)
	s.AssertExpectations(t)
}
