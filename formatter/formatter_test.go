package formatter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/eqv/internal"
	"github.com/gnoswap-labs/eqv/internal/equiv"
)

func init() {
	color.NoColor = true
}

func TestGenerateFormattedResult(t *testing.T) {
	tests := []struct {
		name   string
		result *internal.Result
		want   string
	}{
		{
			name: "equivalent",
			result: &internal.Result{Filename: "a.js", Report: &equiv.Report{
				Verdict: equiv.Equivalent,
				Reason:  equiv.ReasonUnsatisfiable,
				Detail:  "equivalent for executions within 4 loop iterations",
				Bound:   4,
				Steps:   []equiv.Step{{Bound: 2}, {Bound: 4}},
			}},
			want: `ok: equivalent
 --> a.js (bound 4, 2 attempts)
  = equivalent for executions within 4 loop iterations

`,
		},
		{
			name: "counterexample",
			result: &internal.Result{Filename: "b.js", Cached: true, Report: &equiv.Report{
				Verdict:     equiv.CounterexampleFound,
				Reason:      equiv.ReasonDivergence,
				Bound:       2,
				Steps:       []equiv.Step{{Bound: 2}},
				Divergences: []equiv.Divergence{{Name: "b", Original: 6, Transformed: 4}},
				Inputs:      []equiv.Input{{Name: "a", Value: 3}},
			}},
			want: `error: counterexample
 --> b.js (bound 2, cached)
  = final global values differ
  | b: original 6, transformed 4
  | input a = 3

`,
		},
		{
			name: "bound exhausted",
			result: &internal.Result{Filename: "c.js", Report: &equiv.Report{
				Verdict: equiv.BoundExhausted,
				Reason:  equiv.ReasonUnrollInsufficient,
				Detail:  "loops still open at bound 8: while ((i < 100)) at 1:12",
				Bound:   8,
			}},
			want: `warning: bound exhausted
 --> c.js (bound 8)
  = loops still open at bound 8: while ((i < 100)) at 1:12

`,
		},
		{
			name:   "failure",
			result: &internal.Result{Filename: "d.js", Err: errors.New("1:5: unexpected ;")},
			want: `error: check failed
 --> d.js
  = 1:5: unexpected ;

`,
		},
		{
			name: "debug ir",
			result: &internal.Result{Filename: "e.js", Report: &equiv.Report{
				Verdict: equiv.Equivalent,
				Detail:  "equivalent for executions within 2 loop iterations\nIR(original):\n  (x@0_1 == 1)",
				Bound:   2,
				IR:      &equiv.IRReport{Original: "(x@0_1 == 1)", Transformed: ""},
			}},
			want: `ok: equivalent
 --> e.js (bound 2)
  = equivalent for executions within 2 loop iterations
IR(original):
  | (x@0_1 == 1)
IR(transformed):
  | (empty)

`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateFormattedResult([]*internal.Result{tt.result}))
		})
	}
}

func TestJSON(t *testing.T) {
	results := []*internal.Result{
		{Filename: "a.js", Report: &equiv.Report{Verdict: equiv.Equivalent, Reason: equiv.ReasonUnsatisfiable, Bound: 2}},
		{Filename: "b.js", Report: &equiv.Report{
			Verdict:     equiv.CounterexampleFound,
			Reason:      equiv.ReasonDivergence,
			Bound:       2,
			Divergences: []equiv.Divergence{{Name: "x", Original: 1, Transformed: 2}},
		}},
		{Filename: "c.js", Err: errors.New("boom")},
	}
	data, err := JSON(results)
	require.NoError(t, err)

	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Equivalent", decoded["a.js"]["verdict"])
	assert.Nil(t, decoded["a.js"]["divergences"])
	assert.Equal(t, "CounterexampleFound", decoded["b.js"]["verdict"])
	assert.Equal(t, []interface{}{map[string]interface{}{"Name": "x", "Original": 1.0, "Transformed": 2.0}}, decoded["b.js"]["divergences"])
	assert.Equal(t, "boom", decoded["c.js"]["error"])
}
