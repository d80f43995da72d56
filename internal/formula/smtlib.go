package formula

import (
	"fmt"
	"strings"
)

// SMTLib renders e as an SMT-LIB2 QF_BV term at the given width.
func SMTLib(e Expr, width int) string {
	var sb strings.Builder
	writeSMT(&sb, e, width)
	return sb.String()
}

// SMTSort renders a sort at the given width.
func SMTSort(s Sort, width int) string {
	if s == SortBool {
		return "Bool"
	}
	return fmt.Sprintf("(_ BitVec %d)", width)
}

// Symbol quotes a variable name as an SMT-LIB symbol.
func Symbol(name string) string {
	return "|" + name + "|"
}

var smtOps = map[Op]string{
	OpAdd: "bvadd",
	OpSub: "bvsub",
	OpMul: "bvmul",
	OpDiv: "bvsdiv",
	OpRem: "bvsrem",
	OpLt:  "bvslt",
	OpLe:  "bvsle",
	OpGt:  "bvsgt",
	OpGe:  "bvsge",
}

func writeSMT(sb *strings.Builder, e Expr, width int) {
	switch e := e.(type) {
	case Const:
		fmt.Fprintf(sb, "(_ bv%d %d)", ToUnsigned(e.Val, width), width)
	case BoolConst:
		if e.Val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Var:
		sb.WriteString(Symbol(e.Ident()))
	case Hole:
		// Never asserted: the encoder instantiates templates first.
		sb.WriteString("|" + e.String() + "|")
	case BinaryOp:
		writeApp(sb, width, smtOps[e.Op], e.Left, e.Right)
	case Neg:
		writeApp(sb, width, "bvneg", e.X)
	case Equal:
		writeApp(sb, width, "=", e.Left, e.Right)
	case Not:
		writeApp(sb, width, "not", e.X)
	case And:
		writeApp(sb, width, "and", e.Xs...)
	case Or:
		writeApp(sb, width, "or", e.Xs...)
	case Implies:
		writeApp(sb, width, "=>", e.If, e.Then)
	case Ite:
		writeApp(sb, width, "ite", e.Cond, e.Then, e.Else)
	}
}

func writeApp(sb *strings.Builder, width int, fn string, args ...Expr) {
	sb.WriteString("(" + fn)
	for _, a := range args {
		sb.WriteByte(' ')
		writeSMT(sb, a, width)
	}
	sb.WriteByte(')')
}
