package rewriter

import (
	"fmt"

	"github.com/gnoswap-labs/eqv/internal/syntax"
)

// DefaultPrefix namespaces the variables of a replayed program.
const DefaultPrefix = "pp"

// Prefixed returns the replayed name of a program variable.
func Prefixed(prefix, name string) string {
	return prefix + "." + name
}

// Replay turns rewriter output into a program. Each line must be a
// single assignment `name = expression`. Every identifier is renamed
// with prefix, and every assigned name is declared once ahead of all
// the assignments, so a line may read a name assigned by a later line.
// The dot in the prefixed names cannot occur in source identifiers, so
// the replayed variables never collide with the original's.
func Replay(lines []string, prefix string) (*syntax.Program, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	var decls, body []syntax.Stmt
	declared := make(map[string]bool)
	for i, line := range lines {
		parsed, err := syntax.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("rewriter output line %d: %w", i+1, err)
		}
		for _, s := range parsed.Body {
			a, ok := assignment(s)
			if !ok {
				return nil, fmt.Errorf("rewriter output line %d: expected assignment, got %q", i+1, line)
			}
			name := a.Target.Name
			target := &syntax.Identifier{Name: Prefixed(prefix, name), At: a.Target.At}
			if !declared[name] {
				declared[name] = true
				decls = append(decls, &syntax.VariableDeclaration{
					Kind:  "var",
					Decls: []*syntax.Declarator{{Name: &syntax.Identifier{Name: target.Name, At: target.At}}},
					At:    target.At,
				})
			}
			body = append(body, &syntax.ExpressionStatement{
				X: &syntax.Assignment{Target: target, Value: rename(a.Value, prefix)},
			})
		}
	}
	return &syntax.Program{Body: append(decls, body...)}, nil
}

func assignment(s syntax.Stmt) (*syntax.Assignment, bool) {
	switch s := s.(type) {
	case *syntax.ExpressionStatement:
		a, ok := s.X.(*syntax.Assignment)
		return a, ok
	case *syntax.VariableDeclaration:
		if len(s.Decls) == 1 && s.Decls[0].Init != nil {
			return &syntax.Assignment{Target: s.Decls[0].Name, Value: s.Decls[0].Init}, true
		}
	}
	return nil, false
}

func rename(e syntax.Expr, prefix string) syntax.Expr {
	switch e := e.(type) {
	case *syntax.Identifier:
		return &syntax.Identifier{Name: Prefixed(prefix, e.Name), At: e.At}
	case *syntax.BinaryOp:
		return &syntax.BinaryOp{Op: e.Op, Left: rename(e.Left, prefix), Right: rename(e.Right, prefix), At: e.At}
	case *syntax.LogicalOp:
		return &syntax.LogicalOp{Op: e.Op, Left: rename(e.Left, prefix), Right: rename(e.Right, prefix), At: e.At}
	case *syntax.UnaryOp:
		return &syntax.UnaryOp{Op: e.Op, X: rename(e.X, prefix), At: e.At}
	case *syntax.Assignment:
		return &syntax.Assignment{
			Target: &syntax.Identifier{Name: Prefixed(prefix, e.Target.Name), At: e.Target.At},
			Value:  rename(e.Value, prefix),
		}
	case *syntax.Call:
		args := make([]syntax.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = rename(a, prefix)
		}
		return &syntax.Call{Callee: &syntax.Identifier{Name: Prefixed(prefix, e.Callee.Name), At: e.Callee.At}, Args: args}
	}
	return e
}
