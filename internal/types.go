package internal

import "github.com/gnoswap-labs/eqv/internal/equiv"

// Version of the checking engine. Cached verdicts from an engine with a
// different major or minor version are discarded.
const Version = "0.3.0"

// Result is the outcome of checking one file.
type Result struct {
	Filename string        `json:"filename"`
	Report   *equiv.Report `json:"report,omitempty"`
	Err      error         `json:"-"`
	Cached   bool          `json:"cached"`
}

// Failed reports whether the check ended in an error or a counterexample.
func (r *Result) Failed() bool {
	return r.Err != nil || (r.Report != nil && r.Report.Verdict == equiv.CounterexampleFound)
}
