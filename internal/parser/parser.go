package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexchoi0/blueprint-engine/internal/ast"
	"github.com/alexchoi0/blueprint-engine/internal/lexer"
	"github.com/alexchoi0/blueprint-engine/internal/token"
)

const (
	_ int = iota
	LOWEST
	TERNARY    // a if cond else b
	LOGICAL_OR // or
	LOGICAL_AND
	NOT_PREC   // not x
	COMPARISON // == != < <= > >= in
	SUM        // + -
	PRODUCT    // * / // %
	PREFIX     // -x
	CALL       // f(x), a.b, a[i]
)

var precedences = map[token.TokenType]int{
	token.OR:       LOGICAL_OR,
	token.AND:      LOGICAL_AND,
	token.EQ:       COMPARISON,
	token.NOT_EQ:   COMPARISON,
	token.LT:       COMPARISON,
	token.LT_EQ:    COMPARISON,
	token.GT:       COMPARISON,
	token.GT_EQ:    COMPARISON,
	token.IN:       COMPARISON,
	token.NOT:      COMPARISON, // `not in`
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.FLOORDIV: PRODUCT,
	token.PERCENT:  PRODUCT,
	token.IF:       TERNARY,
	token.PERIOD:   CALL,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	file   string
	errors []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	// yieldStack tracks, per enclosing def, whether a yield was seen.
	yieldStack []bool
}

func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{
		l:      l,
		file:   file,
		errors: []string{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.FSTRING, p.parseFStringLiteral)
	p.registerPrefix(token.BYTES, p.parseBytesLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.NONE, p.parseNoneLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parseNotExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedOrTuple)
	p.registerPrefix(token.LBRACKET, p.parseListOrComprehension)
	p.registerPrefix(token.LBRACE, p.parseBraceExpression)
	p.registerPrefix(token.LAMBDA, p.parseLambda)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.FLOORDIV,
		token.PERCENT, token.EQ, token.NOT_EQ, token.LT, token.LT_EQ,
		token.GT, token.GT_EQ, token.AND, token.OR, token.IN,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.NOT, p.parseNotInExpression)
	p.registerInfix(token.IF, p.parseCondExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.PERIOD, p.parseAttrExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(t token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[t] = fn
}

func (p *Parser) registerInfix(t token.TokenType, fn infixParseFn) {
	p.infixParseFns[t] = fn
}

func (p *Parser) Errors() []string { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	p.addErrorAt(p.peekToken, "expected %s, got %s", t, p.peekToken.Type)
}

func (p *Parser) addErrorAt(tok token.Token, format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	p.errors = append(p.errors, fmt.Sprintf("%s:%d:%d: %s", p.file, tok.Line, tok.Col, msg))
}

// ParseProgram parses a whole module.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.DEF:
		return p.parseDefStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.YIELD:
		return p.parseYieldStatement()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.curToken}
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.curToken}
	case token.PASS:
		return &ast.PassStatement{Token: p.curToken}
	case token.LOAD:
		return p.parseLoadStatement()
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement handles expression statements, assignments and
// augmented assignments, including tuple targets (`a, b = f()`).
func (p *Parser) parseSimpleStatement() ast.Statement {
	tok := p.curToken
	expr := p.parseExpressionList()
	if expr == nil {
		return nil
	}

	switch p.peekToken.Type {
	case token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN,
		token.ASTERISK_ASSIGN, token.SLASH_ASSIGN, token.PERCENT_ASSIGN:
		op := p.peekToken.Literal
		p.nextToken()
		p.nextToken()
		value := p.parseExpressionList()
		if value == nil {
			return nil
		}
		if !validAssignTarget(expr) {
			p.addErrorAt(tok, "cannot assign to %s", expr.String())
			return nil
		}
		if op != "=" {
			if _, ok := expr.(*ast.TupleLiteral); ok {
				p.addErrorAt(tok, "augmented assignment does not support tuple targets")
				return nil
			}
		}
		return &ast.AssignStatement{Token: tok, Target: expr, Op: op, Value: value}
	}

	return &ast.ExpressionStatement{Token: tok, Expression: expr}
}

// parseExpressionList parses expr[, expr]* producing a TupleLiteral for
// multiple elements (bare tuples in statements and assignment targets).
func (p *Parser) parseExpressionList() ast.Expression {
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.COMMA) {
		return first
	}
	tok := p.curToken
	elements := []ast.Expression{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if isExpressionEnd(p.peekToken.Type) {
			break // trailing comma
		}
		p.nextToken()
		e := p.parseExpression(LOWEST)
		if e == nil {
			return nil
		}
		elements = append(elements, e)
	}
	return &ast.TupleLiteral{Token: tok, Elements: elements}
}

func isExpressionEnd(t token.TokenType) bool {
	switch t {
	case token.NEWLINE, token.EOF, token.ASSIGN, token.RPAREN, token.RBRACKET,
		token.RBRACE, token.COLON, token.SEMICOLON, token.DEDENT:
		return true
	}
	return false
}

func validAssignTarget(e ast.Expression) bool {
	switch e := e.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.AttrExpression:
		return true
	case *ast.TupleLiteral:
		for _, el := range e.Elements {
			if _, ok := el.(*ast.Identifier); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if isExpressionEnd(p.peekToken.Type) {
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpressionList()
	return stmt
}

func (p *Parser) parseYieldStatement() *ast.YieldStatement {
	stmt := &ast.YieldStatement{Token: p.curToken}
	if len(p.yieldStack) == 0 {
		p.addErrorAt(p.curToken, "yield outside of a function")
		return nil
	}
	p.yieldStack[len(p.yieldStack)-1] = true
	if isExpressionEnd(p.peekToken.Type) {
		stmt.Value = &ast.NoneLiteral{Token: p.curToken}
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpressionList()
	return stmt
}

func (p *Parser) parseDefStatement() ast.Statement {
	stmt := &ast.DefStatement{Token: p.curToken}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Params = p.parseParameters(token.RPAREN)

	p.yieldStack = append(p.yieldStack, false)
	stmt.Body = p.parseBlock()
	stmt.IsGenerator = p.yieldStack[len(p.yieldStack)-1]
	p.yieldStack = p.yieldStack[:len(p.yieldStack)-1]

	if stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseParameters parses a parameter list up to end (curToken on `(` or after
// `lambda`). Validates that defaults follow required params and that at most
// one *args appears, in last position.
func (p *Parser) parseParameters(end token.TokenType) []*ast.Parameter {
	params := []*ast.Parameter{}
	seenDefault := false
	seenVariadic := false

	for !p.peekTokenIs(end) {
		p.nextToken()
		param := &ast.Parameter{}

		if p.curTokenIs(token.ASTERISK) {
			param.IsVariadic = true
			p.nextToken()
		}
		if !p.curTokenIs(token.IDENT) {
			p.addErrorAt(p.curToken, "expected parameter name, got %s", p.curToken.Type)
			return params
		}
		param.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Default = p.parseExpression(LOWEST)
			seenDefault = true
		} else if seenDefault && !param.IsVariadic {
			p.addErrorAt(p.curToken, "required parameter %s follows a default", param.Name.Value)
		}
		if seenVariadic {
			p.addErrorAt(p.curToken, "parameter after *%s", params[len(params)-1].Name.Value)
		}
		if param.IsVariadic {
			seenVariadic = true
			if param.Default != nil {
				p.addErrorAt(p.curToken, "*%s cannot have a default", param.Name.Value)
			}
		}

		params = append(params, param)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if end == token.RPAREN {
		p.expectPeek(token.RPAREN)
	}
	return params
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	stmt.Branches = append(stmt.Branches, ast.IfBranch{Condition: cond, Body: body})

	for p.peekTokenIs(token.ELIF) {
		p.nextToken()
		p.nextToken()
		cond := p.parseExpression(LOWEST)
		if cond == nil {
			return nil
		}
		body := p.parseBlock()
		if body == nil {
			return nil
		}
		stmt.Branches = append(stmt.Branches, ast.IfBranch{Condition: cond, Body: body})
	}

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		stmt.Else = p.parseBlock()
		if stmt.Else == nil {
			return nil
		}
	}

	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}

	stmt.Targets = p.parseTargetNames()
	if stmt.Targets == nil {
		return nil
	}
	if !p.curTokenIs(token.IN) {
		p.addErrorAt(p.curToken, "expected 'in' in for statement, got %s", p.curToken.Type)
		return nil
	}
	p.nextToken()
	stmt.Iter = p.parseExpression(LOWEST)
	if stmt.Iter == nil {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseTargetNames reads `x` or `x, y, z` and leaves curToken on the token
// following the list (expected to be `in`).
func (p *Parser) parseTargetNames() []*ast.Identifier {
	targets := []*ast.Identifier{}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		targets = append(targets, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		p.nextToken()
		return targets
	}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseLoadStatement() ast.Statement {
	stmt := &ast.LoadStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal

	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		switch p.curToken.Type {
		case token.STRING:
			if p.curToken.Literal == "*" {
				stmt.Wildcard = true
			} else {
				stmt.Symbols = append(stmt.Symbols, ast.LoadSymbol{
					Name:  p.curToken.Literal,
					Alias: p.curToken.Literal,
				})
			}
		case token.IDENT:
			alias := p.curToken.Literal
			if !p.expectPeek(token.ASSIGN) {
				return nil
			}
			if !p.expectPeek(token.STRING) {
				return nil
			}
			stmt.Symbols = append(stmt.Symbols, ast.LoadSymbol{
				Name:  p.curToken.Literal,
				Alias: alias,
			})
		default:
			p.addErrorAt(p.curToken, "load() selector must be a string or alias=\"name\", got %s", p.curToken.Type)
			return nil
		}
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if len(stmt.Symbols) == 0 && !stmt.Wildcard {
		p.addErrorAt(stmt.Token, "load() requires at least one symbol selector")
		return nil
	}
	return stmt
}

// parseBlock parses `: NEWLINE INDENT stmts DEDENT` or an inline suite
// `: stmt [; stmt]*`. curToken is on the last token before the colon.
func (p *Parser) parseBlock() *ast.BlockStatement {
	if !p.expectPeek(token.COLON) {
		return nil
	}
	block := &ast.BlockStatement{Token: p.curToken}

	if !p.peekTokenIs(token.NEWLINE) {
		// inline suite on the same line
		for {
			p.nextToken()
			stmt := p.parseStatement()
			if stmt != nil {
				block.Statements = append(block.Statements, stmt)
			}
			if p.peekTokenIs(token.SEMICOLON) {
				p.nextToken()
				continue
			}
			return block
		}
	}

	p.nextToken() // NEWLINE
	if !p.expectPeek(token.INDENT) {
		return nil
	}

	p.nextToken()
	for !p.curTokenIs(token.DEDENT) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	return block
}

// -------------------------------------------------------------- expressions

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addErrorAt(p.curToken, "unexpected token %s", p.curToken.Type)
		return nil
	}
	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	lit := &ast.IntLiteral{Token: p.curToken}
	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.addErrorAt(p.curToken, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addErrorAt(p.curToken, "could not parse %q as float", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBytesLiteral() ast.Expression {
	return &ast.BytesLiteral{Token: p.curToken, Value: []byte(p.curToken.Literal)}
}

// parseFStringLiteral splits the raw literal on {expr} holes and sub-parses
// each hole as an expression. `{{` and `}}` escape literal braces.
func (p *Parser) parseFStringLiteral() ast.Expression {
	lit := &ast.FStringLiteral{Token: p.curToken}
	raw := p.curToken.Literal

	var text strings.Builder
	i := 0
	for i < len(raw) {
		switch {
		case strings.HasPrefix(raw[i:], "{{"):
			text.WriteByte('{')
			i += 2
		case strings.HasPrefix(raw[i:], "}}"):
			text.WriteByte('}')
			i += 2
		case raw[i] == '{':
			end := matchingBrace(raw, i)
			if end < 0 {
				p.addErrorAt(p.curToken, "unterminated { in f-string")
				return nil
			}
			if text.Len() > 0 {
				lit.Parts = append(lit.Parts, ast.FStringPart{Text: text.String()})
				text.Reset()
			}
			src := raw[i+1 : end]
			expr, errs := ParseExpressionString(src, p.file)
			if len(errs) > 0 {
				p.addErrorAt(p.curToken, "invalid expression in f-string: %s", errs[0])
				return nil
			}
			lit.Parts = append(lit.Parts, ast.FStringPart{Expr: expr})
			i = end + 1
		case raw[i] == '}':
			p.addErrorAt(p.curToken, "single } in f-string")
			return nil
		default:
			text.WriteByte(raw[i])
			i++
		}
	}
	if text.Len() > 0 {
		lit.Parts = append(lit.Parts, ast.FStringPart{Text: text.String()})
	}
	return lit
}

func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseExpressionString parses a standalone expression (used for f-string
// holes and the REPL).
func ParseExpressionString(src, file string) (ast.Expression, []string) {
	sub := New(lexer.New(src), file)
	expr := sub.parseExpression(LOWEST)
	if expr == nil || len(sub.errors) > 0 {
		return nil, sub.errors
	}
	return expr, nil
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.NoneLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseNotExpression() ast.Expression {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: "not"}
	p.nextToken()
	expr.Right = p.parseExpression(NOT_PREC)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parseNotInExpression handles the two-word operator `not in`.
func (p *Parser) parseNotInExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IN) {
		return nil
	}
	expr := &ast.InfixExpression{Token: tok, Left: left, Operator: "not in"}
	p.nextToken()
	expr.Right = p.parseExpression(COMPARISON)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parseCondExpression handles the ternary `then if cond else alt`.
func (p *Parser) parseCondExpression(then ast.Expression) ast.Expression {
	expr := &ast.CondExpression{Token: p.curToken, Then: then}
	p.nextToken()
	expr.Condition = p.parseExpression(TERNARY)
	if expr.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.ELSE) {
		return nil
	}
	p.nextToken()
	expr.Else = p.parseExpression(LOWEST)
	if expr.Else == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseGroupedOrTuple() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return &ast.TupleLiteral{Token: tok}
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if !p.peekTokenIs(token.COMMA) {
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return first
	}

	elements := []ast.Expression{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RPAREN) {
			break
		}
		p.nextToken()
		e := p.parseExpression(LOWEST)
		if e == nil {
			return nil
		}
		elements = append(elements, e)
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.TupleLiteral{Token: tok, Elements: elements}
}

func (p *Parser) parseListOrComprehension() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return &ast.ListLiteral{Token: tok}
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.peekTokenIs(token.FOR) {
		clauses := p.parseCompClauses()
		if clauses == nil {
			return nil
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		return &ast.ListComprehension{Token: tok, Elt: first, Clauses: clauses}
	}

	elements := []ast.Expression{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACKET) {
			break
		}
		p.nextToken()
		e := p.parseExpression(LOWEST)
		if e == nil {
			return nil
		}
		elements = append(elements, e)
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.ListLiteral{Token: tok, Elements: elements}
}

// parseBraceExpression parses dict/set literals and comprehensions.
func (p *Parser) parseBraceExpression() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.DictLiteral{Token: tok}
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		if p.peekTokenIs(token.FOR) {
			clauses := p.parseCompClauses()
			if clauses == nil {
				return nil
			}
			if !p.expectPeek(token.RBRACE) {
				return nil
			}
			return &ast.DictComprehension{Token: tok, Key: first, Value: value, Clauses: clauses}
		}
		dict := &ast.DictLiteral{Token: tok, Keys: []ast.Expression{first}, Values: []ast.Expression{value}}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACE) {
				break
			}
			p.nextToken()
			k := p.parseExpression(LOWEST)
			if k == nil {
				return nil
			}
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			v := p.parseExpression(LOWEST)
			if v == nil {
				return nil
			}
			dict.Keys = append(dict.Keys, k)
			dict.Values = append(dict.Values, v)
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		return dict
	}

	if p.peekTokenIs(token.FOR) {
		clauses := p.parseCompClauses()
		if clauses == nil {
			return nil
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		return &ast.SetComprehension{Token: tok, Elt: first, Clauses: clauses}
	}

	set := &ast.SetLiteral{Token: tok, Elements: []ast.Expression{first}}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(token.RBRACE) {
			break
		}
		p.nextToken()
		e := p.parseExpression(LOWEST)
		if e == nil {
			return nil
		}
		set.Elements = append(set.Elements, e)
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return set
}

// parseCompClauses parses one or more `for targets in iter [if cond]*`
// clauses; curToken is on the token before the first `for`.
func (p *Parser) parseCompClauses() []ast.CompClause {
	var clauses []ast.CompClause
	for p.peekTokenIs(token.FOR) {
		p.nextToken()
		clause := ast.CompClause{}
		clause.Targets = p.parseCompTargets()
		if clause.Targets == nil {
			return nil
		}
		if !p.curTokenIs(token.IN) {
			p.addErrorAt(p.curToken, "expected 'in' in comprehension, got %s", p.curToken.Type)
			return nil
		}
		p.nextToken()
		// comparison precedence keeps a trailing `if` out of the iterable
		clause.Iter = p.parseExpression(NOT_PREC)
		if clause.Iter == nil {
			return nil
		}
		for p.peekTokenIs(token.IF) {
			p.nextToken()
			p.nextToken()
			cond := p.parseExpression(NOT_PREC)
			if cond == nil {
				return nil
			}
			clause.Ifs = append(clause.Ifs, cond)
		}
		clauses = append(clauses, clause)
	}
	return clauses
}

func (p *Parser) parseCompTargets() []*ast.Identifier {
	targets := []*ast.Identifier{}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		targets = append(targets, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		p.nextToken()
		return targets
	}
}

func (p *Parser) parseLambda() ast.Expression {
	expr := &ast.LambdaExpression{Token: p.curToken}
	expr.Params = p.parseParameters(token.COLON)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	expr.Body = p.parseExpression(LOWEST)
	if expr.Body == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Function: function}

	for !p.peekTokenIs(token.RPAREN) {
		p.nextToken()

		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			name := p.curToken.Literal
			p.nextToken()
			p.nextToken()
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil
			}
			call.Kwargs = append(call.Kwargs, ast.Keyword{Name: name, Value: value})
		} else {
			if len(call.Kwargs) > 0 {
				p.addErrorAt(p.curToken, "positional argument after keyword argument")
				return nil
			}
			arg := p.parseExpression(LOWEST)
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
		}

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return call
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	tok := p.curToken

	var start, stop, step ast.Expression
	isSlice := false

	if p.peekTokenIs(token.COLON) {
		isSlice = true
	} else {
		p.nextToken()
		start = p.parseExpression(LOWEST)
		if start == nil {
			return nil
		}
	}

	if p.peekTokenIs(token.COLON) {
		isSlice = true
		p.nextToken()
		if !p.peekTokenIs(token.RBRACKET) && !p.peekTokenIs(token.COLON) {
			p.nextToken()
			stop = p.parseExpression(LOWEST)
			if stop == nil {
				return nil
			}
		}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.peekTokenIs(token.RBRACKET) {
				p.nextToken()
				step = p.parseExpression(LOWEST)
				if step == nil {
					return nil
				}
			}
		}
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}

	if isSlice {
		return &ast.SliceExpression{Token: tok, Left: left, Start: start, Stop: stop, Step: step}
	}
	return &ast.IndexExpression{Token: tok, Left: left, Index: start}
}

func (p *Parser) parseAttrExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.AttrExpression{Token: tok, Left: left, Name: p.curToken.Literal}
}
