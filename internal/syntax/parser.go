package syntax

import (
	"fmt"
)

// ParseError reports malformed source text.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Msg)
}

// Parse parses a complete program.
func Parse(source string) (*Program, error) {
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseProgram()
}

// Parser builds an AST from a token slice.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser creates a parser over tokens produced by a Lexer.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseProgram consumes all tokens.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for !p.atEOF() {
		if p.isPunct(";") {
			p.next()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Body = append(prog.Body, stmt)
	}
	return prog, nil
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) Token {
	i := p.current + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.current]
	if tok.Type != TokenEOF {
		p.current++
	}
	return tok
}

func (p *Parser) atEOF() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) isPunct(v string) bool {
	tok := p.peek()
	return tok.Type == TokenPunct && tok.Value == v
}

func (p *Parser) isKeyword(v string) bool {
	tok := p.peek()
	return tok.Type == TokenKeyword && tok.Value == v
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) expectPunct(v string) (Token, error) {
	tok := p.peek()
	if tok.Type != TokenPunct || tok.Value != v {
		return tok, p.errorf(tok, "expected %q, found %s", v, describe(tok))
	}
	return p.next(), nil
}

func (p *Parser) expectIdent() (*Identifier, error) {
	tok := p.peek()
	if tok.Type != TokenIdent {
		return nil, p.errorf(tok, "expected identifier, found %s", describe(tok))
	}
	p.next()
	return &Identifier{Name: tok.Value, At: tok.Pos}, nil
}

// endStatement accepts an explicit semicolon, or an implied one before
// `}`, EOF or a line break.
func (p *Parser) endStatement() error {
	if p.isPunct(";") {
		p.next()
		return nil
	}
	tok := p.peek()
	if tok.Type == TokenEOF || (tok.Type == TokenPunct && tok.Value == "}") || tok.NewlineBefore {
		return nil
	}
	return p.errorf(tok, "expected \";\", found %s", describe(tok))
}

func describe(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Value)
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	if tok.Type == TokenKeyword {
		switch tok.Value {
		case "var", "let", "const":
			return p.parseVariableDeclaration()
		case "function":
			return p.parseFunction()
		case "return":
			return p.parseReturn()
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		}
	}
	if p.isPunct("{") {
		return p.parseBlock()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseVariableDeclaration() (Stmt, error) {
	kw := p.next()
	decl := &VariableDeclaration{Kind: kw.Value, At: kw.Pos}
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		d := &Declarator{Name: name}
		if p.isPunct("=") {
			p.next()
			init, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			d.Init = init
		}
		decl.Decls = append(decl.Decls, d)
		if !p.isPunct(",") {
			break
		}
		p.next()
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseFunction() (Stmt, error) {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []*Identifier
	for !p.isPunct(")") {
		param, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if !p.isPunct(",") {
			break
		}
		p.next()
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunctionDef{Name: name, Params: params, Body: body, At: kw.Pos}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	kw := p.next()
	ret := &Return{At: kw.Pos}
	tok := p.peek()
	bare := tok.Type == TokenEOF || tok.NewlineBefore ||
		(tok.Type == TokenPunct && (tok.Value == ";" || tok.Value == "}"))
	if !bare {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		ret.Value = value
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	kw := p.next()
	test, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &If{Test: test, Consequent: cons, At: kw.Pos}
	if p.isKeyword("else") {
		p.next()
		alt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternate = alt
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	kw := p.next()
	test, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &While{Test: test, Body: body, At: kw.Pos}, nil
}

func (p *Parser) parseParenExpr() (Expr, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return x, nil
}

func (p *Parser) parseBlock() (*Block, error) {
	open, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	block := &Block{At: open.Pos}
	for !p.isPunct("}") {
		if p.atEOF() {
			return nil, p.errorf(p.peek(), "unterminated block opened at %s", open.Pos)
		}
		if p.isPunct(";") {
			p.next()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Body = append(block.Body, stmt)
	}
	p.next()
	return block, nil
}

func (p *Parser) parseExpressionStatement() (Stmt, error) {
	// x++ and x-- are only accepted as whole statements, where their
	// value is irrelevant.
	if p.peek().Type == TokenIdent {
		op := p.peekAt(1)
		if op.Type == TokenPunct && (op.Value == "++" || op.Value == "--") {
			tok := p.next()
			p.next()
			target := &Identifier{Name: tok.Value, At: tok.Pos}
			arith := "+"
			if op.Value == "--" {
				arith = "-"
			}
			stmt := &ExpressionStatement{X: &Assignment{
				Target: target,
				Value: &BinaryOp{
					Op:    arith,
					Left:  &Identifier{Name: tok.Value, At: tok.Pos},
					Right: &Literal{Kind: NumberLiteral, Raw: "1", At: op.Pos},
					At:    op.Pos,
				},
			}}
			if err := p.endStatement(); err != nil {
				return nil, err
			}
			return stmt, nil
		}
	}

	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ExpressionStatement{X: x}, nil
}

var compoundOps = map[string]string{
	"+=": "+",
	"-=": "-",
	"*=": "*",
	"/=": "/",
	"%=": "%",
}

func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (Expr, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.Type != TokenPunct {
		return left, nil
	}
	arith, compound := compoundOps[tok.Value]
	if tok.Value != "=" && !compound {
		return left, nil
	}
	target, ok := left.(*Identifier)
	if !ok {
		return nil, p.errorf(tok, "invalid assignment target")
	}
	p.next()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if compound {
		value = &BinaryOp{
			Op:    arith,
			Left:  &Identifier{Name: target.Name, At: target.At},
			Right: value,
			At:    tok.Pos,
		}
	}
	return &Assignment{Target: target, Value: value}, nil
}

// binaryLevels lists binary operators from loosest to tightest binding.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!=", "===", "!=="},
	{"<", "<=", ">", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *Parser) parseBinary(level int) (Expr, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenPunct || !contains(binaryLevels[level], tok.Value) {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		switch tok.Value {
		case "&&", "||":
			left = &LogicalOp{Op: tok.Value, Left: left, Right: right, At: tok.Pos}
		case "===":
			left = &BinaryOp{Op: "==", Left: left, Right: right, At: tok.Pos}
		case "!==":
			left = &BinaryOp{Op: "!=", Left: left, Right: right, At: tok.Pos}
		default:
			left = &BinaryOp{Op: tok.Value, Left: left, Right: right, At: tok.Pos}
		}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	tok := p.peek()
	if tok.Type == TokenPunct {
		switch tok.Value {
		case "!", "-":
			p.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &UnaryOp{Op: tok.Value, X: x, At: tok.Pos}, nil
		case "+":
			p.next()
			return p.parseUnary()
		case "++", "--":
			return nil, p.errorf(tok, "%s is only supported as a statement", tok.Value)
		}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.next()
		return &Literal{Kind: NumberLiteral, Raw: tok.Value, At: tok.Pos}, nil

	case TokenKeyword:
		if tok.Value == "true" || tok.Value == "false" {
			p.next()
			return &Literal{Kind: BooleanLiteral, Raw: tok.Value, At: tok.Pos}, nil
		}

	case TokenIdent:
		p.next()
		ident := &Identifier{Name: tok.Value, At: tok.Pos}
		if !p.isPunct("(") {
			return ident, nil
		}
		p.next()
		call := &Call{Callee: ident}
		for !p.isPunct(")") {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return call, nil

	case TokenPunct:
		if tok.Value == "(" {
			return p.parseParenExpr()
		}
	}
	return nil, p.errorf(tok, "unexpected %s", describe(tok))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
