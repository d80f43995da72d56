package equiv

import (
	"errors"
	"strings"
)

// GlobalMismatchError reports globals present in only one program.
type GlobalMismatchError struct {
	// Missing are original globals the transformed program never assigns.
	Missing []string
	// Extra are transformed globals the original does not declare.
	Extra []string
}

func (e *GlobalMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing from transformed program: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "not declared by original program: "+strings.Join(e.Extra, ", "))
	}
	return "global variables differ: " + strings.Join(parts, "; ")
}

// ErrSolverUnknown is returned when the solver gives up on a query.
var ErrSolverUnknown = errors.New("solver returned unknown")

// errRefinementRequired signals that the bound must grow.
var errRefinementRequired = errors.New("refinement required")
