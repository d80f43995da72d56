// Package rewriter runs the program transformation whose output is
// checked against the original, and replays that output as a program.
package rewriter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand is the partial evaluator invoked on the program file.
const DefaultCommand = "prepack"

// Rewriter produces the transformed form of a program as a sequence of
// `name = expression` lines.
type Rewriter interface {
	Rewrite(ctx context.Context, source []byte) ([]string, error)
}

// Runner executes a rewriter command on a file and returns its stdout.
type Runner interface {
	Run(ctx context.Context, command string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, command string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("running %s: %w: %s", command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Command runs an external rewriter on a temporary copy of the source.
// The file path is passed as the last argument.
type Command struct {
	Name   string
	Args   []string
	runner Runner
}

var _ Rewriter = (*Command)(nil)

// NewCommand creates a command rewriter. An empty name means
// DefaultCommand.
func NewCommand(name string, args ...string) *Command {
	if name == "" {
		name = DefaultCommand
	}
	return &Command{Name: name, Args: args, runner: execRunner{}}
}

// WithRunner replaces the process runner.
func (c *Command) WithRunner(r Runner) *Command {
	c.runner = r
	return c
}

func (c *Command) Rewrite(ctx context.Context, source []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "eqv-*.js")
	if err != nil {
		return nil, fmt.Errorf("creating rewriter input: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(source); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing rewriter input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing rewriter input: %w", err)
	}

	args := append(append([]string{}, c.Args...), tmp.Name())
	out, err := c.runner.Run(ctx, c.Name, args...)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(out)), nil
}

// File reads rewriter output generated ahead of time.
type File struct {
	Path string
}

var _ Rewriter = File{}

func (f File) Rewrite(_ context.Context, _ []byte) ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading rewriter output: %w", err)
	}
	return SplitLines(string(data)), nil
}

// Static returns fixed lines regardless of the source.
type Static []string

var _ Rewriter = Static(nil)

func (s Static) Rewrite(context.Context, []byte) ([]string, error) {
	return append([]string(nil), s...), nil
}

// SplitLines splits output into trimmed non-empty lines.
func SplitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
