// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser because it starts
// from the top grammar rule and works its way down into the nested
// sub-expressions before reaching the leaves of the syntax tree
// (terminal rules). Rhythm's grammar (spec.md section 4.2), lowest to
// highest precedence:
//
//	program     -> declaration* EOF
//	declaration -> funDecl | varDecl | statement
//	statement   -> exprStmt | printStmt | block | ifStmt | whileStmt
//	             | forStmt | returnStmt | breakStmt | continueStmt
//	expression  -> assignment
//	assignment  -> ( call "." IDENTIFIER | call "[" expression "]" | IDENTIFIER ) "=" assignment
//	             | ternary
//	ternary     -> logic_or ( "?" expression ":" expression )?
//	logic_or    -> logic_and ( "or" logic_and )*
//	logic_and   -> equality ( "and" equality )*
//	equality    -> comparison ( ( "!=" | "==" ) comparison )*
//	comparison  -> term ( ( "<" | "<=" | ">" | ">=" ) term )*
//	term        -> factor ( ( "+" | "-" ) factor )*
//	factor      -> unary ( ( "*" | "/" | "%" ) unary )*
//	unary       -> ( "!" | "-" ) unary | call
//	call        -> primary ( "(" arguments? ")" | "[" expression "]" | "." IDENTIFIER )*
//	primary     -> NUMBER | STRING | "true" | "false" | "nil" | IDENTIFIER
//	             | "(" expression ")" | arrayLiteral | mapLiteral | funExpr
package parser

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"rhythm/ast"
	"rhythm/token"
)

var comparisonTokenTypes = []token.TokenType{
	token.GREATER,
	token.GREATER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
}

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
}

var termTokenTypes = []token.TokenType{
	token.MINUS,
	token.PLUS,
}

var factorExpressionTypes = []token.TokenType{
	token.STAR,
	token.SLASH,
	token.PERCENT,
}

// Parser turns a token stream into an AST by recursive descent. It
// recovers from syntax errors at statement boundaries so a single pass
// can report more than one error (spec.md section 4.2's error
// recovery), aggregated with multierror so callers get every error at
// once rather than just the first.
type Parser struct {
	tokens   []token.Token
	position int

	// noLoop rejects "while"/"for" at parse time when set, resolving
	// spec.md's open question about the otherwise-unenforced noLoop
	// flag (the `-n/--no-loop` CLI flag sets this).
	noLoop bool
}

// NOTE: The parser's position is always one unit ahead of the
// current token.

// Make initializes and returns a new Parser over the given tokens.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// SetNoLoop enables or disables rejection of while/for statements.
func (parser *Parser) SetNoLoop(noLoop bool) {
	parser.noLoop = noLoop
}

// Print prints the AST as prettified, colorized JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

func (parser *Parser) isFinished() bool {
	tok := parser.peek()
	return tok.TokenType == token.EOF
}

func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	tok := parser.peek()
	return tok.TokenType == tokenType
}

// isMatch reports whether the current token's type is in tokenTypes,
// consuming it if so.
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for i := range tokenTypes {
		if parser.checkType(tokenTypes[i]) {
			parser.advance()
			return true
		}
	}
	return false
}

// Parse parses the entire token stream into a slice of Stmt nodes,
// recovering at a statement boundary on error so it can keep looking
// for more. Returns the successfully parsed statements and a single
// aggregated error (nil if parsing succeeded throughout).
func (parser *Parser) Parse() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}
	var errs *multierror.Error

	for !parser.isFinished() {
		statement, err := parser.declaration()
		if err != nil {
			errs = multierror.Append(errs, err)
			parser.synchronize()
			continue
		}
		statements = append(statements, statement)
	}

	return statements, errs.ErrorOrNil()
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, so a single syntax error doesn't cascade into spurious
// follow-on errors.
func (parser *Parser) synchronize() {
	if !parser.isFinished() {
		parser.advance()
	}
	for !parser.isFinished() {
		if parser.previous().TokenType == token.SEMICOLON {
			return
		}
		switch parser.peek().TokenType {
		case token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		parser.advance()
	}
}

func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.Token{}, CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}

// declaration parses a top-level declaration: a function, a variable,
// or a fallthrough to a general statement.
func (parser *Parser) declaration() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.FUN}) {
		return parser.functionDeclaration()
	}
	if parser.isMatch([]token.TokenType{token.VAR}) {
		return parser.variableDeclaration()
	}
	return parser.statement()
}

// functionDeclaration parses "fun name(params) { body }".
func (parser *Parser) functionDeclaration() (ast.Stmt, error) {
	name, err := parser.consume(token.IDENTIFIER, "expected a function name")
	if err != nil {
		return nil, err
	}
	params, err := parser.parameterList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "expected '{' before function body"); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}
	return ast.FunctionStmt{Name: name, Params: params, Body: body}, nil
}

// parameterList parses "(a, b, c)", already past the function name.
func (parser *Parser) parameterList() ([]token.Token, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []token.Token
	if !parser.checkType(token.RPA) {
		for {
			p, err := parser.consume(token.IDENTIFIER, "expected a parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, p)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after parameters"); err != nil {
		return nil, err
	}
	return params, nil
}

// variableDeclaration parses "var name (= initializer)? ;".
func (parser *Parser) variableDeclaration() (ast.Stmt, error) {
	tok, err := parser.consume(token.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}

	var initializer ast.Expression
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		initializer, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := parser.consume(token.SEMICOLON, "expected ';' after variable declaration"); err != nil {
		return nil, err
	}

	return ast.VarStmt{Name: tok, Initializer: initializer}, nil
}

// statement parses a single non-declaration statement.
func (parser *Parser) statement() (ast.Stmt, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.PRINT}):
		return parser.printStatement()
	case parser.isMatch([]token.TokenType{token.LBRACE}):
		statements, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.BlockStmt{Statements: statements}, nil
	case parser.isMatch([]token.TokenType{token.IF}):
		return parser.ifStatement()
	case parser.isMatch([]token.TokenType{token.WHILE}):
		if parser.noLoop {
			kw := parser.previous()
			return nil, CreateSyntaxError(kw.Line, kw.Column, "'while' is disabled (-n/--no-loop)")
		}
		return parser.whileStatement()
	case parser.isMatch([]token.TokenType{token.FOR}):
		if parser.noLoop {
			kw := parser.previous()
			return nil, CreateSyntaxError(kw.Line, kw.Column, "'for' is disabled (-n/--no-loop)")
		}
		return parser.forStatement()
	case parser.isMatch([]token.TokenType{token.RETURN}):
		return parser.returnStatement()
	case parser.isMatch([]token.TokenType{token.BREAK}):
		kw := parser.previous()
		if _, err := parser.consume(token.SEMICOLON, "expected ';' after 'break'"); err != nil {
			return nil, err
		}
		return ast.BreakStmt{Keyword: kw}, nil
	case parser.isMatch([]token.TokenType{token.CONTINUE}):
		kw := parser.previous()
		if _, err := parser.consume(token.SEMICOLON, "expected ';' after 'continue'"); err != nil {
			return nil, err
		}
		return ast.ContinueStmt{Keyword: kw}, nil
	}

	return parser.expressionStatement()
}

func (parser *Parser) printStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.SEMICOLON, "expected ';' after value"); err != nil {
		return nil, err
	}
	return ast.PrintStmt{Expression: expression}, nil
}

func (parser *Parser) returnStatement() (ast.Stmt, error) {
	keyword := parser.previous()
	var value ast.Expression
	if !parser.checkType(token.SEMICOLON) {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.SEMICOLON, "expected ';' after return value"); err != nil {
		return nil, err
	}
	return ast.ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (parser *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after while condition"); err != nil {
		return nil, err
	}
	body, err := parser.statement()
	if err != nil {
		return nil, err
	}
	return ast.WhileStmt{Condition: condition, Body: body}, nil
}

// forStatement desugars "for (init; cond; incr) body" into
// "{ init; while (cond) { body; incr; } }" (spec.md section 4.2),
// tracking Increment on the WhileStmt so continue can still reach it.
func (parser *Parser) forStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	switch {
	case parser.isMatch([]token.TokenType{token.SEMICOLON}):
		initializer = nil
	case parser.isMatch([]token.TokenType{token.VAR}):
		var err error
		initializer, err = parser.variableDeclaration()
		if err != nil {
			return nil, err
		}
	default:
		var err error
		initializer, err = parser.expressionStatement()
		if err != nil {
			return nil, err
		}
	}

	var condition ast.Expression
	if !parser.checkType(token.SEMICOLON) {
		var err error
		condition, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.SEMICOLON, "expected ';' after loop condition"); err != nil {
		return nil, err
	}

	var increment ast.Expression
	if !parser.checkType(token.RPA) {
		var err error
		increment, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := parser.statement()
	if err != nil {
		return nil, err
	}

	if condition == nil {
		condition = ast.Literal{Value: true}
	}

	loop := ast.WhileStmt{Condition: condition, Body: body, Increment: increment}

	var result ast.Stmt = loop
	if initializer != nil {
		result = ast.BlockStmt{Statements: []ast.Stmt{initializer, loop}}
	}
	return result, nil
}

func (parser *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := parser.consume(token.LPA, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.RPA, "expected ')' after if condition"); err != nil {
		return nil, err
	}

	thenStmt, err := parser.statement()
	if err != nil {
		return nil, err
	}
	var elseStmt ast.Stmt
	if parser.isMatch([]token.TokenType{token.ELSE}) {
		elseStmt, err = parser.statement()
		if err != nil {
			return nil, err
		}
	}

	return ast.IfStmt{Condition: condition, Then: thenStmt, Else: elseStmt}, nil
}

func (parser *Parser) expressionStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.SEMICOLON, "expected ';' after expression"); err != nil {
		return nil, err
	}
	return ast.ExpressionStmt{Expression: expression}, nil
}

func (parser *Parser) block() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}

	for !parser.checkType(token.RBRACE) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	if _, err := parser.consume(token.RBRACE, "expected '}' after block"); err != nil {
		return nil, err
	}
	return statements, nil
}

// expression is the entry point for parsing expressions.
func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses an assignment target — a bare variable, a
// subscript ("a[i] = v"), or a dotted property ("m.x = v") — falling
// through to ternary when no '=' follows.
func (parser *Parser) assignment() (ast.Expression, error) {
	expression, err := parser.ternary()
	if err != nil {
		return nil, err
	}
	if !parser.isMatch([]token.TokenType{token.ASSIGN}) {
		return expression, nil
	}

	equalsToken := parser.previous()
	value, err := parser.assignment()
	if err != nil {
		return nil, err
	}

	switch target := expression.(type) {
	case ast.Variable:
		return ast.Assign{Name: target.Name, Value: value}, nil
	case ast.Subscript:
		return ast.SubscriptAssignment{Object: target.Object, Index: target.Index, Value: value, Line: target.Line}, nil
	case ast.PropertyAccess:
		return ast.SubscriptAssignment{
			Object: target.Object,
			Index:  ast.Literal{Value: target.Name.Lexeme, Line: target.Name.Line},
			Value:  value,
			Line:   target.Name.Line,
		}, nil
	default:
		return nil, CreateSyntaxError(equalsToken.Line, equalsToken.Column, "invalid assignment target")
	}
}

// ternary parses "cond ? then : else", right-associative.
func (parser *Parser) ternary() (ast.Expression, error) {
	expr, err := parser.or()
	if err != nil {
		return nil, err
	}
	if !parser.isMatch([]token.TokenType{token.QUESTION}) {
		return expr, nil
	}
	questionTok := parser.previous()
	thenExpr, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.COLON, "expected ':' in ternary expression"); err != nil {
		return nil, err
	}
	elseExpr, err := parser.ternary()
	if err != nil {
		return nil, err
	}
	return ast.Ternary{Condition: expr, Then: thenExpr, Else: elseExpr, Line: questionTok.Line}, nil
}

func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.OR}) {
		op := parser.previous()
		right, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}
	for parser.isMatch([]token.TokenType{token.AND}) {
		op := parser.previous()
		right, err := parser.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (parser *Parser) equality() (ast.Expression, error) {
	expr, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes) {
		operator := parser.previous()
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (parser *Parser) comparison() (ast.Expression, error) {
	expr, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		operator := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (parser *Parser) term() (ast.Expression, error) {
	expr, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		operator := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (parser *Parser) factor() (ast.Expression, error) {
	expr, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		expr = ast.Binary{Left: expr, Operator: operator, Right: right}
	}
	return expr, nil
}

func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.BANG, token.MINUS}) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Operator: operator, Right: right}, nil
	}
	return parser.call()
}

// call parses postfix call/subscript/property chains over a primary
// expression: "f(a)(b)[0].x" all build up left-to-right.
func (parser *Parser) call() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case parser.isMatch([]token.TokenType{token.LPA}):
			expr, err = parser.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case parser.isMatch([]token.TokenType{token.LBRACKET}):
			lbracket := parser.previous()
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRACKET, "expected ']' after subscript index"); err != nil {
				return nil, err
			}
			expr = ast.Subscript{Object: expr, Index: index, Line: lbracket.Line}
		case parser.isMatch([]token.TokenType{token.DOT}):
			name, err := parser.consume(token.IDENTIFIER, "expected property name after '.'")
			if err != nil {
				return nil, err
			}
			expr = ast.PropertyAccess{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (parser *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	lpar := parser.previous()
	var args []ast.Expression
	if !parser.checkType(token.RPA) {
		for {
			arg, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "expected ')' after arguments"); err != nil {
		return nil, err
	}
	return ast.Call{Callee: callee, Arguments: args, Line: lpar.Line}, nil
}

// primary parses the grammar's terminal productions: literals,
// grouping, identifiers, array/map literals, and function expressions.
func (parser *Parser) primary() (ast.Expression, error) {
	switch {
	case parser.isMatch([]token.TokenType{token.FALSE}):
		return ast.Literal{Value: false, Line: parser.previous().Line}, nil
	case parser.isMatch([]token.TokenType{token.TRUE}):
		return ast.Literal{Value: true, Line: parser.previous().Line}, nil
	case parser.isMatch([]token.TokenType{token.NIL}):
		return ast.Literal{Value: nil, Line: parser.previous().Line}, nil
	case parser.isMatch([]token.TokenType{token.NUMBER, token.STRING}):
		tok := parser.previous()
		return ast.Literal{Value: tok.Literal, Line: tok.Line}, nil
	case parser.isMatch([]token.TokenType{token.IDENTIFIER}):
		return ast.Variable{Name: parser.previous()}, nil
	case parser.isMatch([]token.TokenType{token.LPA}):
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return ast.Grouping{Expression: expr}, nil
	case parser.isMatch([]token.TokenType{token.LBRACKET}):
		return parser.arrayLiteral()
	case parser.isMatch([]token.TokenType{token.LBRACE}):
		return parser.mapLiteral()
	case parser.isMatch([]token.TokenType{token.FUN}):
		return parser.functionExpr()
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "unrecognised expression")
}

// arrayLiteral parses "[e1, e2, ...]", already past the '['.
func (parser *Parser) arrayLiteral() (ast.Expression, error) {
	lbracket := parser.previous()
	var elements []ast.Expression
	if !parser.checkType(token.RBRACKET) {
		for {
			el, err := parser.expression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RBRACKET, "expected ']' after array elements"); err != nil {
		return nil, err
	}
	return ast.ArrayLiteral{Elements: elements, Line: lbracket.Line}, nil
}

// mapLiteral parses "{k1: v1, k2: v2, ...}", already past the '{'.
func (parser *Parser) mapLiteral() (ast.Expression, error) {
	lbrace := parser.previous()
	var entries []ast.MapEntry
	if !parser.checkType(token.RBRACE) {
		for {
			key, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.COLON, "expected ':' after map key"); err != nil {
				return nil, err
			}
			val, err := parser.expression()
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.MapEntry{Key: key, Value: val})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RBRACE, "expected '}' after map entries"); err != nil {
		return nil, err
	}
	return ast.MapLiteral{Entries: entries, Line: lbrace.Line}, nil
}

// functionExpr parses an anonymous "fun(params) { body }" expression,
// already past the 'fun' keyword.
func (parser *Parser) functionExpr() (ast.Expression, error) {
	funTok := parser.previous()
	params, err := parser.parameterList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.LBRACE, "expected '{' before function body"); err != nil {
		return nil, err
	}
	body, err := parser.block()
	if err != nil {
		return nil, err
	}
	return ast.FunctionExpr{Params: params, Body: body, Line: funTok.Line}, nil
}
