package syntax

import "strings"

// Format renders a node back to source text. Expressions are fully
// parenthesized so the output reparses to the same tree.
func Format(n Node) string {
	var sb strings.Builder
	formatNode(&sb, n, 0)
	return sb.String()
}

func formatNode(sb *strings.Builder, n Node, indent int) {
	pad := strings.Repeat("  ", indent)
	switch n := n.(type) {
	case *Program:
		for _, stmt := range n.Body {
			formatNode(sb, stmt, indent)
		}

	case *VariableDeclaration:
		sb.WriteString(pad + n.Kind + " ")
		for i, d := range n.Decls {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Name.Name)
			if d.Init != nil {
				sb.WriteString(" = " + formatExpr(d.Init))
			}
		}
		sb.WriteString(";\n")

	case *ExpressionStatement:
		sb.WriteString(pad + formatExpr(n.X) + ";\n")

	case *Block:
		sb.WriteString(pad + "{\n")
		for _, stmt := range n.Body {
			formatNode(sb, stmt, indent+1)
		}
		sb.WriteString(pad + "}\n")

	case *FunctionDef:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}
		sb.WriteString(pad + "function " + n.Name.Name + "(" + strings.Join(names, ", ") + ")\n")
		formatNode(sb, n.Body, indent)

	case *Return:
		if n.Value == nil {
			sb.WriteString(pad + "return;\n")
			return
		}
		sb.WriteString(pad + "return " + formatExpr(n.Value) + ";\n")

	case *If:
		sb.WriteString(pad + "if (" + formatExpr(n.Test) + ")\n")
		formatNode(sb, n.Consequent, indent+1)
		if n.Alternate != nil {
			sb.WriteString(pad + "else\n")
			formatNode(sb, n.Alternate, indent+1)
		}

	case *While:
		sb.WriteString(pad + "while (" + formatExpr(n.Test) + ")\n")
		formatNode(sb, n.Body, indent+1)

	case Expr:
		sb.WriteString(pad + formatExpr(n))
	}
}

func formatExpr(e Expr) string {
	switch e := e.(type) {
	case *Identifier:
		return e.Name
	case *Literal:
		return e.Raw
	case *BinaryOp:
		return "(" + formatExpr(e.Left) + " " + e.Op + " " + formatExpr(e.Right) + ")"
	case *LogicalOp:
		return "(" + formatExpr(e.Left) + " " + e.Op + " " + formatExpr(e.Right) + ")"
	case *UnaryOp:
		return "(" + e.Op + formatExpr(e.X) + ")"
	case *Assignment:
		return e.Target.Name + " = " + formatExpr(e.Value)
	case *Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = formatExpr(a)
		}
		return e.Callee.Name + "(" + strings.Join(args, ", ") + ")"
	default:
		return "?"
	}
}
