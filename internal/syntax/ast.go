package syntax

import "fmt"

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by every AST variant. The set of variants is
// closed: only types in this package satisfy it.
type Node interface {
	Pos() Pos
	node()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Program is the root of a parsed source file.
type Program struct {
	Body []Stmt
}

// VariableDeclaration is `var a = 1, b;`. let and const parse to the
// same node.
type VariableDeclaration struct {
	Kind  string
	Decls []*Declarator
	At    Pos
}

// Declarator is one name of a declaration, with an optional initializer.
type Declarator struct {
	Name *Identifier
	Init Expr // nil when uninitialized
}

// ExpressionStatement wraps an expression evaluated for effect.
type ExpressionStatement struct {
	X Expr
}

// Identifier is a bare name.
type Identifier struct {
	Name string
	At   Pos
}

// LiteralKind distinguishes numeric and boolean literals.
type LiteralKind int

const (
	_ LiteralKind = iota
	NumberLiteral
	BooleanLiteral
)

// Literal keeps the literal text as written.
type Literal struct {
	Kind LiteralKind
	Raw  string
	At   Pos
}

// BinaryOp is an arithmetic, comparison or bitwise operator.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	At    Pos
}

// LogicalOp is `&&` or `||`.
type LogicalOp struct {
	Op    string
	Left  Expr
	Right Expr
	At    Pos
}

// UnaryOp is `!x` or `-x`.
type UnaryOp struct {
	Op string
	X  Expr
	At Pos
}

// Assignment is `name = value`. Compound assignments are desugared by
// the parser.
type Assignment struct {
	Target *Identifier
	Value  Expr
}

// Call is `callee(args...)`.
type Call struct {
	Callee *Identifier
	Args   []Expr
}

// Block is `{ ... }`.
type Block struct {
	Body []Stmt
	At   Pos
}

// FunctionDef is a function declaration.
type FunctionDef struct {
	Name   *Identifier
	Params []*Identifier
	Body   *Block
	At     Pos
}

// Return is `return value;`. Value is nil for a bare return.
type Return struct {
	Value Expr
	At    Pos
}

// If is `if (test) consequent else alternate`.
type If struct {
	Test       Expr
	Consequent Stmt
	Alternate  Stmt // nil without else
	At         Pos
}

// While is `while (test) body`.
type While struct {
	Test Expr
	Body Stmt
	At   Pos
}

func (*Program) Pos() Pos               { return Pos{Line: 1, Column: 1} }
func (n *VariableDeclaration) Pos() Pos { return n.At }
func (n *ExpressionStatement) Pos() Pos { return n.X.Pos() }
func (n *Identifier) Pos() Pos          { return n.At }
func (n *Literal) Pos() Pos             { return n.At }
func (n *BinaryOp) Pos() Pos            { return n.At }
func (n *LogicalOp) Pos() Pos           { return n.At }
func (n *UnaryOp) Pos() Pos             { return n.At }
func (n *Assignment) Pos() Pos          { return n.Target.At }
func (n *Call) Pos() Pos                { return n.Callee.At }
func (n *Block) Pos() Pos               { return n.At }
func (n *FunctionDef) Pos() Pos         { return n.At }
func (n *Return) Pos() Pos              { return n.At }
func (n *If) Pos() Pos                  { return n.At }
func (n *While) Pos() Pos               { return n.At }

func (*Program) node()             {}
func (*VariableDeclaration) node() {}
func (*ExpressionStatement) node() {}
func (*Identifier) node()          {}
func (*Literal) node()             {}
func (*BinaryOp) node()            {}
func (*LogicalOp) node()           {}
func (*UnaryOp) node()             {}
func (*Assignment) node()          {}
func (*Call) node()                {}
func (*Block) node()               {}
func (*FunctionDef) node()         {}
func (*Return) node()              {}
func (*If) node()                  {}
func (*While) node()               {}

func (*VariableDeclaration) stmtNode() {}
func (*ExpressionStatement) stmtNode() {}
func (*Block) stmtNode()               {}
func (*FunctionDef) stmtNode()         {}
func (*Return) stmtNode()              {}
func (*If) stmtNode()                  {}
func (*While) stmtNode()               {}

func (*Identifier) exprNode() {}
func (*Literal) exprNode()    {}
func (*BinaryOp) exprNode()   {}
func (*LogicalOp) exprNode()  {}
func (*UnaryOp) exprNode()    {}
func (*Assignment) exprNode() {}
func (*Call) exprNode()       {}

// Helper constructors, mostly for tests and the rewriter replay.

// Ident creates an identifier at the zero position.
func Ident(name string) *Identifier {
	return &Identifier{Name: name}
}

// Num creates a numeric literal.
func Num(raw string) *Literal {
	return &Literal{Kind: NumberLiteral, Raw: raw}
}

// Bool creates a boolean literal.
func Bool(v bool) *Literal {
	if v {
		return &Literal{Kind: BooleanLiteral, Raw: "true"}
	}
	return &Literal{Kind: BooleanLiteral, Raw: "false"}
}

// Declare creates `var name;` or `var name = init;`.
func Declare(name string, init Expr) *VariableDeclaration {
	return &VariableDeclaration{
		Kind:  "var",
		Decls: []*Declarator{{Name: Ident(name), Init: init}},
	}
}

// Assign creates the statement `name = value;`.
func Assign(name string, value Expr) *ExpressionStatement {
	return &ExpressionStatement{X: &Assignment{Target: Ident(name), Value: value}}
}
