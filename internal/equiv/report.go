package equiv

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of an equivalence check.
type Verdict int

const (
	_ Verdict = iota
	// Equivalent means no execution within the final bound distinguishes
	// the programs.
	Equivalent
	// CounterexampleFound means a model assigns different final values to
	// some global and every loop ran to completion in it.
	CounterexampleFound
	// BoundExhausted means every model found needed more unrolling than
	// the bound ceiling allows.
	BoundExhausted
)

func (v Verdict) String() string {
	switch v {
	case Equivalent:
		return "Equivalent"
	case CounterexampleFound:
		return "CounterexampleFound"
	case BoundExhausted:
		return "BoundExhausted"
	default:
		return "?"
	}
}

// ReasonCode explains a verdict.
type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	ReasonUnsatisfiable
	ReasonDivergence
	ReasonUnrollInsufficient
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnsatisfiable:
		return "no execution within the bound distinguishes the programs"
	case ReasonDivergence:
		return "final global values differ"
	case ReasonUnrollInsufficient:
		return "loops need more unrolling than the bound ceiling allows"
	default:
		return "unknown"
	}
}

// Divergence is one global with different final values.
type Divergence struct {
	Name        string
	Original    int64
	Transformed int64
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s: original %d, transformed %d", d.Name, d.Original, d.Transformed)
}

// Input is the value a counterexample gives an uninitialized global.
type Input struct {
	Name  string
	Value int64
}

// Step records one attempt of the refinement loop.
type Step struct {
	Bound   int
	Clauses int
	Status  string
	// Open lists the loops whose residual held in the model.
	Open []string
}

// Report provides detailed information about a check.
type Report struct {
	Verdict Verdict
	Reason  ReasonCode
	Detail  string
	// Bound is the last unroll bound tried.
	Bound       int
	Divergences []Divergence
	Inputs      []Input
	Steps       []Step
	IR          *IRReport
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (bound %d): %s", r.Verdict, r.Bound, r.Reason)
	for _, d := range r.Divergences {
		sb.WriteString("\n  " + d.String())
	}
	return sb.String()
}
