// Package smtlib decides queries with an external SMT solver that reads
// an SMT-LIB2 script on standard input, z3 by default.
package smtlib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gnoswap-labs/eqv/internal/solver"
)

// DefaultCommand runs z3 reading the script from stdin.
var DefaultCommand = []string{"z3", "-in"}

// Runner feeds a script to a solver process and returns its output.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// execRunner runs a command per query.
type execRunner struct {
	command string
	args    []string
}

func (r execRunner) Run(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, r.command, r.args...)
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	// z3 exits non-zero when get-value follows unsat, so the output is
	// authoritative whenever there is some.
	if err != nil && strings.TrimSpace(stdout.String()) == "" {
		return "", fmt.Errorf("running %s: %w: %s", r.command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Solver is the process backend.
type Solver struct {
	runner Runner
}

var _ solver.Solver = (*Solver)(nil)

// New creates a backend running command with args. An empty command
// means DefaultCommand.
func New(command string, args ...string) *Solver {
	if command == "" {
		command, args = DefaultCommand[0], DefaultCommand[1:]
	}
	return &Solver{runner: execRunner{command: command, args: args}}
}

// NewWithRunner creates a backend over a custom runner.
func NewWithRunner(r Runner) *Solver {
	return &Solver{runner: r}
}

// Check renders the query, runs the solver and decodes its answer.
func (s *Solver) Check(ctx context.Context, q solver.Query) (solver.Result, error) {
	if err := q.Validate(); err != nil {
		return solver.Result{}, err
	}
	out, err := s.runner.Run(ctx, Script(q))
	if err != nil {
		return solver.Result{}, err
	}
	return ParseResponse(out, q.Width)
}

// ErrNoStatus is returned for output without sat, unsat or unknown.
var ErrNoStatus = errors.New("solver output has no check-sat answer")

// ParseResponse decodes the output of a check-sat / get-value script.
func ParseResponse(out string, width int) (solver.Result, error) {
	items, err := parseSexps(out)
	if err != nil {
		return solver.Result{}, fmt.Errorf("parsing solver output: %w", err)
	}

	status := solver.Unknown
	found := false
	var values []sexp
	for _, it := range items {
		if !found {
			if it.isList && len(it.list) > 0 && it.list[0].atom == "error" {
				return solver.Result{}, fmt.Errorf("solver error: %s", strings.Trim(it.list[len(it.list)-1].atom, "\""))
			}
			if it.isList {
				continue
			}
			switch it.atom {
			case "sat":
				status, found = solver.Sat, true
			case "unsat":
				status, found = solver.Unsat, true
			case "unknown":
				status, found = solver.Unknown, true
			default:
				continue
			}
			continue
		}
		if status == solver.Sat && it.isList && values == nil {
			values = it.list
		}
	}
	if !found {
		return solver.Result{}, ErrNoStatus
	}
	if status != solver.Sat {
		return solver.Result{Status: status}, nil
	}

	model := make(solver.MapModel, len(values))
	for _, pair := range values {
		if !pair.isList || len(pair.list) != 2 || pair.list[0].isList {
			return solver.Result{}, fmt.Errorf("unexpected get-value entry %s", pair)
		}
		v, err := parseValue(pair.list[1], width)
		if err != nil {
			return solver.Result{}, fmt.Errorf("value of %s: %w", pair.list[0].atom, err)
		}
		model[pair.list[0].atom] = v
	}
	return solver.Result{Status: solver.Sat, Model: model}, nil
}
