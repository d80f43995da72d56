package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/eqv/internal/encode"
	"github.com/gnoswap-labs/eqv/internal/equiv"
	"github.com/gnoswap-labs/eqv/internal/solver"
	"github.com/gnoswap-labs/eqv/internal/solver/smtlib"
	"github.com/gnoswap-labs/eqv/internal/syntax"
)

var (
	encodeBound  int
	encodeWidth  int
	encodeSMTLib bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Print the formula encoding of a program",
	Long: `Prints the declarations, clauses and loop residuals of one program at a fixed bound.
Example) eqv encode --bound 4 --smtlib program.js`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEncode(os.Stdout, args[0], encodeBound, encodeWidth, encodeSMTLib); err != nil {
			logger.Error("Failed to encode program", zap.String("path", args[0]), zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	encodeCmd.Flags().IntVar(&encodeBound, "bound", encode.DefaultBound, "Loop unroll bound")
	encodeCmd.Flags().IntVar(&encodeWidth, "width", equiv.DefaultWidth, "Integer width of the SMT-LIB script")
	encodeCmd.Flags().BoolVar(&encodeSMTLib, "smtlib", false, "Print an SMT-LIB2 script instead of the readable form")
}

func runEncode(w io.Writer, path string, bound, width int, smt bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := syntax.Parse(string(source))
	if err != nil {
		return err
	}
	enc, err := encode.Encode(prog, encode.Options{Bound: bound})
	if err != nil {
		return err
	}

	if smt {
		fmt.Fprint(w, smtlib.Script(solver.Query{
			Width:      width,
			Decls:      enc.Decls(),
			Assertions: enc.Clauses,
		}))
		for _, r := range enc.Residuals {
			fmt.Fprintf(w, "; residual %s\n", r)
		}
		return nil
	}

	fmt.Fprintf(w, "; bound %d\n; declarations\n", enc.Bound)
	for _, d := range enc.Decls() {
		fmt.Fprintf(w, "%s : %s\n", d.Name, d.Sort)
	}
	fmt.Fprintln(w, "; clauses")
	for _, c := range enc.Clauses {
		fmt.Fprintln(w, c)
	}
	if len(enc.Residuals) > 0 {
		fmt.Fprintln(w, "; residuals")
		for _, r := range enc.Residuals {
			fmt.Fprintln(w, r)
		}
	}
	fmt.Fprintln(w, "; globals")
	for _, name := range enc.Order {
		fmt.Fprintf(w, "%s = %s\n", name, enc.Globals[name])
	}
	return nil
}
