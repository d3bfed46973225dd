// Package parser turns a token stream into the typed parse tree in
// pkg/ast, following the grammar sketched in the system design. Like the
// lexer, the parser is an external collaborator: it only delivers a tree
// for the symbol collector, semantic analyzer and code generator to
// consume.
package parser

import (
	"strconv"

	"github.com/dcarballo/aslc/pkg/ast"
	"github.com/dcarballo/aslc/pkg/diag"
	"github.com/dcarballo/aslc/pkg/token"
)

// Parser holds the state of a single parse over a flat token stream.
type Parser struct {
	tokens  []token.Token
	pos     int
	current token.Token
	sink    *diag.Sink
}

// NewParser creates a Parser over tokens, reporting recognition errors
// into sink rather than halting.
func NewParser(tokens []token.Token, sink *diag.Sink) *Parser {
	p := &Parser{tokens: tokens, sink: sink}
	if len(tokens) > 0 {
		p.current = tokens[0]
	}
	return p
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.current = p.tokens[p.pos]
}

func (p *Parser) check(t token.Type) bool { return p.current.Type == t }

func (p *Parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

// expect consumes t or records a syntax error and attempts to continue
// parsing from the next token so a single typo does not prevent the
// analyzer from surfacing unrelated errors elsewhere in the file.
func (p *Parser) expect(t token.Type, what string) token.Token {
	tok := p.current
	if !p.match(t) {
		p.sink.Add(p.current, diag.SyntaxError, "expected %s, found %q", what, p.current.String())
	}
	return tok
}

// recoverToStatementBoundary skips tokens until one that can plausibly
// start or end a statement, so a malformed statement does not desynchronize
// the rest of the function body.
func (p *Parser) recoverToStatementBoundary() {
	for !p.check(token.EOF) {
		switch p.current.Type {
		case token.Semi:
			p.advance()
			return
		case token.KwEndif, token.KwEndwhile, token.KwEndfunc, token.KwElse,
			token.KwIf, token.KwWhile, token.KwRead, token.KwWrite, token.KwReturn:
			return
		}
		p.advance()
	}
}

// Parse consumes the whole token stream as a sequence of functions.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		prog.Functions = append(prog.Functions, p.parseFunction())
	}
	return prog
}

func (p *Parser) parseFunction() *ast.Function {
	startTok := p.current
	p.expect(token.KwFunc, "'func'")
	nameTok := p.expect(token.Ident, "function name")

	fn := &ast.Function{Name: nameTok.Value, Pos: posOf(startTok)}

	p.expect(token.LParen, "'('")
	if !p.check(token.RParen) {
		fn.Params = append(fn.Params, p.parseParam())
		for p.match(token.Comma) {
			fn.Params = append(fn.Params, p.parseParam())
		}
	}
	p.expect(token.RParen, "')'")

	if p.match(token.Colon) {
		ts := p.parseBasicType()
		fn.Result = &ts
	}

	for p.check(token.KwVar) {
		fn.Decls = append(fn.Decls, p.parseVarDecl())
	}

	for !p.check(token.KwEndfunc) && !p.check(token.EOF) {
		fn.Body = append(fn.Body, p.parseStatement())
	}
	p.expect(token.KwEndfunc, "'endfunc'")
	return fn
}

func (p *Parser) parseParam() ast.Param {
	nameTok := p.expect(token.Ident, "parameter name")
	p.expect(token.Colon, "':'")
	return ast.Param{Name: nameTok.Value, Type: p.parseType(), Pos: posOf(nameTok)}
}

func (p *Parser) parseVarDecl() ast.VarDecl {
	startTok := p.current
	p.expect(token.KwVar, "'var'")
	names := []string{p.expect(token.Ident, "variable name").Value}
	for p.match(token.Comma) {
		names = append(names, p.expect(token.Ident, "variable name").Value)
	}
	p.expect(token.Colon, "':'")
	ts := p.parseType()
	p.expect(token.Semi, "';'")
	return ast.VarDecl{Names: names, Type: ts, Pos: posOf(startTok)}
}

func (p *Parser) parseType() ast.TypeSyntax {
	if p.check(token.KwArray) {
		return p.parseArrayType()
	}
	return p.parseBasicType()
}

func (p *Parser) parseArrayType() ast.TypeSyntax {
	startTok := p.current
	p.expect(token.KwArray, "'array'")
	p.expect(token.LBracket, "'['")
	lenTok := p.expect(token.IntLit, "array length")
	n, _ := strconv.Atoi(lenTok.Value)
	p.expect(token.RBracket, "']'")
	p.expect(token.KwOf, "'of'")
	elemTs := p.parseBasicType()
	return ast.TypeSyntax{Array: true, Elem: elemTs.Basic, Len: n, Pos: posOf(startTok)}
}

func (p *Parser) parseBasicType() ast.TypeSyntax {
	tok := p.current
	var name string
	switch tok.Type {
	case token.KwInt:
		name = "int"
	case token.KwFloat:
		name = "float"
	case token.KwBool:
		name = "bool"
	case token.KwChar:
		name = "char"
	default:
		p.sink.Add(tok, diag.SyntaxError, "expected a type, found %q", tok.String())
	}
	p.advance()
	return ast.TypeSyntax{Basic: name, Pos: posOf(tok)}
}

func (p *Parser) parseStatement() ast.Stmt {
	switch p.current.Type {
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwRead:
		return p.parseRead()
	case token.KwWrite:
		return p.parseWrite()
	case token.KwReturn:
		return p.parseReturn()
	case token.Ident:
		return p.parseAssignOrCall()
	default:
		tok := p.current
		p.sink.Add(tok, diag.SyntaxError, "unexpected token %q at start of statement", tok.String())
		p.recoverToStatementBoundary()
		return &ast.AssignStmt{Left: &ast.Ident{Name: "<error>", Pos: posOf(tok)}, Right: &ast.Ident{Name: "<error>", Pos: posOf(tok)}, Pos: posOf(tok)}
	}
}

func (p *Parser) parseAssignOrCall() ast.Stmt {
	nameTok := p.current
	p.advance()

	if p.check(token.LParen) {
		p.advance()
		var args []ast.Expr
		if !p.check(token.RParen) {
			args = append(args, p.parseExpr())
			for p.match(token.Comma) {
				args = append(args, p.parseExpr())
			}
		}
		p.expect(token.RParen, "')'")
		p.expect(token.Semi, "';'")
		return &ast.CallStmt{Name: nameTok.Value, Args: args, Pos: posOf(nameTok)}
	}

	left := p.parseLeftExprTail(nameTok)
	p.expect(token.Assign, "'='")
	right := p.parseExpr()
	p.expect(token.Semi, "';'")
	return &ast.AssignStmt{Left: left, Right: right, Pos: posOf(nameTok)}
}

// parseLeftExprTail finishes a left_expr whose leading identifier has
// already been consumed as nameTok.
func (p *Parser) parseLeftExprTail(nameTok token.Token) ast.Expr {
	id := &ast.Ident{Name: nameTok.Value, Pos: posOf(nameTok)}
	if p.match(token.LBracket) {
		idx := p.parseExpr()
		p.expect(token.RBracket, "']'")
		return &ast.Index{Base: id, Index: idx, Pos: posOf(nameTok)}
	}
	return id
}

func (p *Parser) parseIf() ast.Stmt {
	startTok := p.current
	p.advance()
	cond := p.parseExpr()
	p.expect(token.KwThen, "'then'")
	var then []ast.Stmt
	for !p.check(token.KwElse) && !p.check(token.KwEndif) && !p.check(token.EOF) {
		then = append(then, p.parseStatement())
	}
	var els []ast.Stmt
	if p.match(token.KwElse) {
		for !p.check(token.KwEndif) && !p.check(token.EOF) {
			els = append(els, p.parseStatement())
		}
	}
	p.expect(token.KwEndif, "'endif'")
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Pos: posOf(startTok)}
}

func (p *Parser) parseWhile() ast.Stmt {
	startTok := p.current
	p.advance()
	cond := p.parseExpr()
	p.expect(token.KwDo, "'do'")
	var body []ast.Stmt
	for !p.check(token.KwEndwhile) && !p.check(token.EOF) {
		body = append(body, p.parseStatement())
	}
	p.expect(token.KwEndwhile, "'endwhile'")
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: posOf(startTok)}
}

func (p *Parser) parseRead() ast.Stmt {
	startTok := p.current
	p.advance()
	nameTok := p.expect(token.Ident, "identifier")
	target := p.parseLeftExprTail(nameTok)
	p.expect(token.Semi, "';'")
	return &ast.ReadStmt{Target: target, Pos: posOf(startTok)}
}

func (p *Parser) parseWrite() ast.Stmt {
	startTok := p.current
	p.advance()
	if p.check(token.StringLit) {
		s := p.current.Value
		p.advance()
		p.expect(token.Semi, "';'")
		return &ast.WriteStmt{IsString: true, String: s, Pos: posOf(startTok)}
	}
	expr := p.parseExpr()
	p.expect(token.Semi, "';'")
	return &ast.WriteStmt{Expr: expr, Pos: posOf(startTok)}
}

func (p *Parser) parseReturn() ast.Stmt {
	startTok := p.current
	p.advance()
	if p.match(token.Semi) {
		return &ast.ReturnStmt{Pos: posOf(startTok)}
	}
	expr := p.parseExpr()
	p.expect(token.Semi, "';'")
	return &ast.ReturnStmt{Expr: expr, Pos: posOf(startTok)}
}

// --- Expressions, precedence climbing per the grammar's stated levels:
// unary {+ - not}; * / %; + -; relationals (non-associative); and; or. ---

func (p *Parser) parseExpr() ast.Expr { return p.parseOr() }

func (p *Parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.check(token.KwOr) {
		tok := p.current
		p.advance()
		right := p.parseAnd()
		left = &ast.Binary{Op: ast.OpOr, Left: left, Right: right, Pos: posOf(tok)}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	left := p.parseRel()
	for p.check(token.KwAnd) {
		tok := p.current
		p.advance()
		right := p.parseRel()
		left = &ast.Binary{Op: ast.OpAnd, Left: left, Right: right, Pos: posOf(tok)}
	}
	return left
}

var relOps = map[token.Type]ast.BinaryOp{
	token.Eq:  ast.OpEq,
	token.Neq: ast.OpNeq,
	token.Lt:  ast.OpLt,
	token.Le:  ast.OpLe,
	token.Gt:  ast.OpGt,
	token.Ge:  ast.OpGe,
}

// parseRel implements non-associativity: at most one relational operator
// may appear at this level.
func (p *Parser) parseRel() ast.Expr {
	left := p.parseAdd()
	if op, ok := relOps[p.current.Type]; ok {
		tok := p.current
		p.advance()
		right := p.parseAdd()
		return &ast.Binary{Op: op, Left: left, Right: right, Pos: posOf(tok)}
	}
	return left
}

func (p *Parser) parseAdd() ast.Expr {
	left := p.parseMul()
	for p.check(token.Plus) || p.check(token.Minus) {
		tok := p.current
		op := ast.OpAdd
		if tok.Type == token.Minus {
			op = ast.OpSub
		}
		p.advance()
		right := p.parseMul()
		left = &ast.Binary{Op: op, Left: left, Right: right, Pos: posOf(tok)}
	}
	return left
}

func (p *Parser) parseMul() ast.Expr {
	left := p.parseUnary()
	for p.check(token.Star) || p.check(token.Slash) || p.check(token.Percent) {
		tok := p.current
		var op ast.BinaryOp
		switch tok.Type {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		p.advance()
		right := p.parseUnary()
		left = &ast.Binary{Op: op, Left: left, Right: right, Pos: posOf(tok)}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.current.Type {
	case token.KwNot:
		tok := p.current
		p.advance()
		return &ast.Unary{Op: ast.OpNot, Operand: p.parseUnary(), Pos: posOf(tok)}
	case token.Minus:
		tok := p.current
		p.advance()
		return &ast.Unary{Op: ast.OpNeg, Operand: p.parseUnary(), Pos: posOf(tok)}
	case token.Plus:
		tok := p.current
		p.advance()
		return &ast.Unary{Op: ast.OpPos, Operand: p.parseUnary(), Pos: posOf(tok)}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.current
	switch tok.Type {
	case token.IntLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitInt, Text: tok.Value, Pos: posOf(tok)}
	case token.FloatLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitFloat, Text: tok.Value, Pos: posOf(tok)}
	case token.CharLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitChar, Text: tok.Value, Pos: posOf(tok)}
	case token.KwTrue:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Text: "true", Pos: posOf(tok)}
	case token.KwFalse:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Text: "false", Pos: posOf(tok)}
	case token.LParen:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RParen, "')'")
		return &ast.Paren{Inner: inner, Pos: posOf(tok)}
	case token.Ident:
		p.advance()
		return p.parseIdentTail(tok)
	default:
		p.sink.Add(tok, diag.SyntaxError, "unexpected token %q in expression", tok.String())
		p.advance()
		return &ast.Ident{Name: "<error>", Pos: posOf(tok)}
	}
}

func (p *Parser) parseIdentTail(nameTok token.Token) ast.Expr {
	switch {
	case p.check(token.LBracket):
		p.advance()
		idx := p.parseExpr()
		p.expect(token.RBracket, "']'")
		return &ast.Index{Base: &ast.Ident{Name: nameTok.Value, Pos: posOf(nameTok)}, Index: idx, Pos: posOf(nameTok)}
	case p.check(token.LParen):
		p.advance()
		var args []ast.Expr
		if !p.check(token.RParen) {
			args = append(args, p.parseExpr())
			for p.match(token.Comma) {
				args = append(args, p.parseExpr())
			}
		}
		p.expect(token.RParen, "')'")
		return &ast.Call{Name: nameTok.Value, Args: args, Pos: posOf(nameTok)}
	default:
		return &ast.Ident{Name: nameTok.Value, Pos: posOf(nameTok)}
	}
}

func posOf(t token.Token) ast.Pos {
	return ast.Pos{FileIndex: t.FileIndex, Line: t.Line, Column: t.Column, Len: t.Len}
}
