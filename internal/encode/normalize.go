package encode

import "github.com/gnoswap-labs/eqv/internal/syntax"

// normalizeReturns rewrites a function body so that every return ends
// a path: statements after a return are dropped, and the statements
// following an if that may return are moved into both of its branches.
//
//	if (c) { return a; } S   =>   if (c) { return a; S } else { S }   =>   if (c) { return a; } else { S }
//
// Blocks holding a return are flattened, which is safe because every
// local of a function lives in its private table. A return inside a
// loop cannot be expressed and is rejected.
func normalizeReturns(body []syntax.Stmt) ([]syntax.Stmt, error) {
	out := make([]syntax.Stmt, 0, len(body))
	for i, s := range body {
		rest := body[i+1:]
		switch s := s.(type) {
		case *syntax.Return:
			return append(out, s), nil

		case *syntax.Block:
			if containsReturn(s) {
				flat := append(append([]syntax.Stmt{}, s.Body...), rest...)
				tail, err := normalizeReturns(flat)
				if err != nil {
					return nil, err
				}
				return append(out, tail...), nil
			}

		case *syntax.If:
			if containsReturn(s) {
				split, err := splitIf(s, rest)
				if err != nil {
					return nil, err
				}
				return append(out, split), nil
			}

		case *syntax.While:
			if containsReturn(s.Body) {
				return nil, unsupported(s, "return inside loop")
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func splitIf(s *syntax.If, rest []syntax.Stmt) (*syntax.If, error) {
	cons, err := normalizeReturns(appendStmts(s.Consequent, rest))
	if err != nil {
		return nil, err
	}
	alt, err := normalizeReturns(appendStmts(s.Alternate, rest))
	if err != nil {
		return nil, err
	}
	split := &syntax.If{
		Test:       s.Test,
		Consequent: &syntax.Block{Body: cons, At: s.Consequent.Pos()},
		At:         s.At,
	}
	if len(alt) > 0 {
		split.Alternate = &syntax.Block{Body: alt, At: s.At}
	}
	return split, nil
}

func appendStmts(s syntax.Stmt, rest []syntax.Stmt) []syntax.Stmt {
	var list []syntax.Stmt
	switch s := s.(type) {
	case nil:
	case *syntax.Block:
		list = append(list, s.Body...)
	default:
		list = append(list, s)
	}
	return append(list, rest...)
}

func containsReturn(s syntax.Stmt) bool {
	switch s := s.(type) {
	case *syntax.Return:
		return true
	case *syntax.Block:
		for _, st := range s.Body {
			if containsReturn(st) {
				return true
			}
		}
	case *syntax.If:
		return containsReturn(s.Consequent) || (s.Alternate != nil && containsReturn(s.Alternate))
	case *syntax.While:
		return containsReturn(s.Body)
	}
	return false
}
