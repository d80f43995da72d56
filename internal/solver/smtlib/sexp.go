package smtlib

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gnoswap-labs/eqv/internal/formula"
)

// sexp is an atom or a list.
type sexp struct {
	atom string
	list []sexp
	// isList distinguishes the empty list from the empty atom.
	isList bool
}

func (s sexp) String() string {
	if !s.isList {
		return s.atom
	}
	parts := make([]string, len(s.list))
	for i, x := range s.list {
		parts[i] = x.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

var errUnbalanced = errors.New("unbalanced parentheses")

// parseSexps reads every top-level expression of a solver response.
// Quoted symbols lose their bars.
func parseSexps(input string) ([]sexp, error) {
	var (
		stack [][]sexp
		top   []sexp
	)
	push := func(x sexp) {
		if len(stack) == 0 {
			top = append(top, x)
			return
		}
		stack[len(stack)-1] = append(stack[len(stack)-1], x)
	}

	for i := 0; i < len(input); {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == ';':
			for i < len(input) && input[i] != '\n' {
				i++
			}
		case c == '(':
			stack = append(stack, nil)
			i++
		case c == ')':
			if len(stack) == 0 {
				return nil, errUnbalanced
			}
			items := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			push(sexp{list: items, isList: true})
			i++
		case c == '|':
			end := strings.IndexByte(input[i+1:], '|')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quoted symbol at offset %d", i)
			}
			push(sexp{atom: input[i+1 : i+1+end]})
			i += end + 2
		case c == '"':
			j := i + 1
			for j < len(input) {
				if input[j] == '"' {
					// "" escapes a quote inside SMT-LIB strings.
					if j+1 < len(input) && input[j+1] == '"' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= len(input) {
				return nil, fmt.Errorf("unterminated string at offset %d", i)
			}
			push(sexp{atom: input[i : j+1]})
			i = j + 1
		default:
			j := i
			for j < len(input) && !strings.ContainsRune(" \t\r\n()|\";", rune(input[j])) {
				j++
			}
			push(sexp{atom: input[i:j]})
			i = j
		}
	}
	if len(stack) != 0 {
		return nil, errUnbalanced
	}
	return top, nil
}

// parseValue decodes a bit-vector value: #x..., #b... or (_ bvN w).
func parseValue(v sexp, width int) (int64, error) {
	if !v.isList {
		switch {
		case strings.HasPrefix(v.atom, "#x"):
			u, err := strconv.ParseUint(v.atom[2:], 16, 64)
			if err != nil {
				return 0, fmt.Errorf("bad hex value %s: %w", v.atom, err)
			}
			return formula.FromUnsigned(u, width), nil
		case strings.HasPrefix(v.atom, "#b"):
			u, err := strconv.ParseUint(v.atom[2:], 2, 64)
			if err != nil {
				return 0, fmt.Errorf("bad binary value %s: %w", v.atom, err)
			}
			return formula.FromUnsigned(u, width), nil
		}
		return 0, fmt.Errorf("unexpected value %s", v.atom)
	}
	if len(v.list) == 3 && v.list[0].atom == "_" && strings.HasPrefix(v.list[1].atom, "bv") {
		u, err := strconv.ParseUint(strings.TrimPrefix(v.list[1].atom, "bv"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad value %s: %w", v, err)
		}
		return formula.FromUnsigned(u, width), nil
	}
	return 0, fmt.Errorf("unexpected value %s", v)
}
