package encode

import (
	"fmt"

	"github.com/gnoswap-labs/eqv/internal/syntax"
)

// ScopeResolutionError reports an identifier with no visible binding.
type ScopeResolutionError struct {
	Name string
	Pos  syntax.Pos
	// Function is set when the unbound name was used as a callee.
	Function bool
}

func (e *ScopeResolutionError) Error() string {
	if e.Function {
		return fmt.Sprintf("%s: unbound function %q", e.Pos, e.Name)
	}
	return fmt.Sprintf("%s: unbound identifier %q", e.Pos, e.Name)
}

// UnsupportedConstructError reports a node or operator the encoder has
// no translation for.
type UnsupportedConstructError struct {
	Construct string
	Pos       syntax.Pos
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: unsupported construct: %s", e.Pos, e.Construct)
}

// ArityMismatchError reports a call whose argument count differs from
// the callee's parameter count.
type ArityMismatchError struct {
	Function string
	Want     int
	Got      int
	Pos      syntax.Pos
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("%s: function %q takes %d argument(s), called with %d", e.Pos, e.Function, e.Want, e.Got)
}

// RecursionError reports a function that calls itself, directly or
// through other functions.
type RecursionError struct {
	Chain []string
	Pos   syntax.Pos
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("%s: recursive call chain %v cannot be instantiated", e.Pos, e.Chain)
}

func unsupported(n syntax.Node, format string, args ...any) error {
	return &UnsupportedConstructError{
		Construct: fmt.Sprintf(format, args...),
		Pos:       n.Pos(),
	}
}
