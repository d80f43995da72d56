// Package solver defines the constraint solver collaborator: a query of
// declared bit-vector variables and assertions, answered with a status
// and, when satisfiable, a model.
package solver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gnoswap-labs/eqv/internal/formula"
)

// Status is the outcome of a satisfiability check.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Query is one satisfiability problem over width-bit signed integers.
type Query struct {
	Width      int
	Decls      []formula.Decl
	Assertions []formula.Expr
}

// Validate checks the width and that every variable of the assertions
// is declared.
func (q Query) Validate() error {
	if q.Width < 1 || q.Width > formula.MaxWidth {
		return fmt.Errorf("unsupported bit width %d", q.Width)
	}
	declared := make(map[string]bool, len(q.Decls))
	for _, d := range q.Decls {
		declared[d.Name] = true
	}
	for _, d := range formula.FreeVars(q.Assertions...) {
		if !declared[d.Name] {
			return fmt.Errorf("undeclared variable %s", d.Name)
		}
	}
	for _, a := range q.Assertions {
		if formula.HasHoles(a) {
			return fmt.Errorf("assertion still contains placeholders: %s", a)
		}
	}
	return nil
}

// Model assigns concrete values to the declared variables.
type Model interface {
	ValueOf(name string) (int64, bool)
}

// MapModel is a Model backed by a map.
type MapModel map[string]int64

func (m MapModel) ValueOf(name string) (int64, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapModel) String() string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, m[name])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Lookup adapts a model for formula evaluation.
func Lookup(m Model) formula.Lookup {
	return func(name string) (int64, bool) {
		if m == nil {
			return 0, false
		}
		return m.ValueOf(name)
	}
}

// Result is the answer to a Query. Model is nil unless Status is Sat.
type Result struct {
	Status Status
	Model  Model
}

// Solver decides satisfiability.
type Solver interface {
	Check(ctx context.Context, q Query) (Result, error)
}
