package smtlib

import (
	"fmt"
	"strings"

	"github.com/gnoswap-labs/eqv/internal/formula"
	"github.com/gnoswap-labs/eqv/internal/solver"
)

// Script renders a query as an SMT-LIB2 QF_BV script that checks
// satisfiability and asks for the value of every declared variable.
func Script(q solver.Query) string {
	var sb strings.Builder
	sb.WriteString("(set-option :produce-models true)\n")
	sb.WriteString("(set-logic QF_BV)\n")
	for _, d := range q.Decls {
		fmt.Fprintf(&sb, "(declare-const %s %s)\n", formula.Symbol(d.Name), formula.SMTSort(d.Sort, q.Width))
	}
	for _, a := range q.Assertions {
		fmt.Fprintf(&sb, "(assert %s)\n", formula.SMTLib(a, q.Width))
	}
	sb.WriteString("(check-sat)\n")
	if len(q.Decls) > 0 {
		names := make([]string, len(q.Decls))
		for i, d := range q.Decls {
			names[i] = formula.Symbol(d.Name)
		}
		fmt.Fprintf(&sb, "(get-value (%s))\n", strings.Join(names, " "))
	}
	return sb.String()
}
