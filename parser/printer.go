package parser

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"rhythm/ast"
)

var astHeaderColor = color.New(color.FgYellow)

// astPrinter implements the Visitor interfaces and builds a
// JSON-friendly representation of the AST using maps and slices.
// Each Visit method returns an object that can be marshaled to JSON.
type astPrinter struct{}

func (p astPrinter) VisitExpressionStmt(exprStmt ast.ExpressionStmt) any {
	return map[string]any{
		"type":       "ExpressionStmt",
		"expression": exprStmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitPrintStmt(printStmt ast.PrintStmt) any {
	return map[string]any{
		"type":       "PrintStmt",
		"expression": printStmt.Expression.Accept(p),
	}
}

func (p astPrinter) VisitVarStmt(varStmt ast.VarStmt) any {
	return map[string]any{
		"type":        "VarStmt",
		"name":        varStmt.Name.Lexeme,
		"initializer": nilOrAccept(varStmt.Initializer, p),
	}
}

func (p astPrinter) VisitBlockStmt(blockStmt ast.BlockStmt) any {
	stmts := make([]any, 0, len(blockStmt.Statements))
	for _, stmt := range blockStmt.Statements {
		stmts = append(stmts, stmt.Accept(p))
	}
	return map[string]any{
		"type":       "BlockStmt",
		"statements": stmts,
	}
}

func (p astPrinter) VisitWhileStmt(stmt ast.WhileStmt) any {
	return map[string]any{
		"type":      "WhileStmt",
		"condition": stmt.Condition.Accept(p),
		"body":      stmt.Body.Accept(p),
		"increment": nilOrAccept(stmt.Increment, p),
	}
}

func (p astPrinter) VisitIfStmt(stmt ast.IfStmt) any {
	var elseVal any
	if stmt.Else != nil {
		elseVal = stmt.Else.Accept(p)
	}
	return map[string]any{
		"type":      "IfStmt",
		"condition": stmt.Condition.Accept(p),
		"then":      stmt.Then.Accept(p),
		"else":      elseVal,
	}
}

func (p astPrinter) VisitFunctionStmt(stmt ast.FunctionStmt) any {
	params := make([]any, 0, len(stmt.Params))
	for _, param := range stmt.Params {
		params = append(params, param.Lexeme)
	}
	body := make([]any, 0, len(stmt.Body))
	for _, s := range stmt.Body {
		body = append(body, s.Accept(p))
	}
	return map[string]any{
		"type":   "FunctionStmt",
		"name":   stmt.Name.Lexeme,
		"params": params,
		"body":   body,
	}
}

func (p astPrinter) VisitReturnStmt(stmt ast.ReturnStmt) any {
	return map[string]any{
		"type":  "ReturnStmt",
		"value": nilOrAccept(stmt.Value, p),
	}
}

func (p astPrinter) VisitBreakStmt(stmt ast.BreakStmt) any {
	return map[string]any{"type": "BreakStmt"}
}

func (p astPrinter) VisitContinueStmt(stmt ast.ContinueStmt) any {
	return map[string]any{"type": "ContinueStmt"}
}

func (p astPrinter) VisitLogical(expr ast.Logical) any {
	return map[string]any{
		"type":     "Logical",
		"operator": expr.Operator.Lexeme,
		"left":     expr.Left.Accept(p),
		"right":    expr.Right.Accept(p),
	}
}

func (p astPrinter) VisitTernary(expr ast.Ternary) any {
	return map[string]any{
		"type":      "Ternary",
		"condition": expr.Condition.Accept(p),
		"then":      expr.Then.Accept(p),
		"else":      expr.Else.Accept(p),
	}
}

func (p astPrinter) VisitAssignExpression(assign ast.Assign) any {
	return map[string]any{
		"type":  "Assign",
		"name":  assign.Name.Lexeme,
		"value": assign.Value.Accept(p),
	}
}

func (p astPrinter) VisitVariableExpression(variable ast.Variable) any {
	return map[string]any{
		"type": "Variable",
		"name": variable.Name.Lexeme,
	}
}

func (p astPrinter) VisitBinary(b ast.Binary) any {
	return map[string]any{
		"type":     "Binary",
		"operator": b.Operator.Lexeme,
		"left":     b.Left.Accept(p),
		"right":    b.Right.Accept(p),
	}
}

func (p astPrinter) VisitUnary(u ast.Unary) any {
	return map[string]any{
		"type":     "Unary",
		"operator": u.Operator.Lexeme,
		"right":    u.Right.Accept(p),
	}
}

func (p astPrinter) VisitLiteral(l ast.Literal) any {
	// literals are terminal values and can be used directly in JSON
	return l.Value
}

func (p astPrinter) VisitGrouping(g ast.Grouping) any {
	return map[string]any{
		"type":       "Grouping",
		"expression": g.Expression.Accept(p),
	}
}

func (p astPrinter) VisitCall(c ast.Call) any {
	args := make([]any, 0, len(c.Arguments))
	for _, a := range c.Arguments {
		args = append(args, a.Accept(p))
	}
	return map[string]any{
		"type":      "Call",
		"callee":    c.Callee.Accept(p),
		"arguments": args,
	}
}

func (p astPrinter) VisitArrayLiteral(a ast.ArrayLiteral) any {
	elements := make([]any, 0, len(a.Elements))
	for _, el := range a.Elements {
		elements = append(elements, el.Accept(p))
	}
	return map[string]any{
		"type":     "ArrayLiteral",
		"elements": elements,
	}
}

func (p astPrinter) VisitMapLiteral(m ast.MapLiteral) any {
	entries := make([]any, 0, len(m.Entries))
	for _, e := range m.Entries {
		entries = append(entries, map[string]any{
			"key":   e.Key.Accept(p),
			"value": e.Value.Accept(p),
		})
	}
	return map[string]any{
		"type":    "MapLiteral",
		"entries": entries,
	}
}

func (p astPrinter) VisitSubscript(s ast.Subscript) any {
	return map[string]any{
		"type":   "Subscript",
		"object": s.Object.Accept(p),
		"index":  s.Index.Accept(p),
	}
}

func (p astPrinter) VisitSubscriptAssignment(s ast.SubscriptAssignment) any {
	return map[string]any{
		"type":   "SubscriptAssignment",
		"object": s.Object.Accept(p),
		"index":  s.Index.Accept(p),
		"value":  s.Value.Accept(p),
	}
}

func (p astPrinter) VisitPropertyAccess(prop ast.PropertyAccess) any {
	return map[string]any{
		"type":   "PropertyAccess",
		"object": prop.Object.Accept(p),
		"name":   prop.Name.Lexeme,
	}
}

func (p astPrinter) VisitFunctionExpr(fn ast.FunctionExpr) any {
	params := make([]any, 0, len(fn.Params))
	for _, param := range fn.Params {
		params = append(params, param.Lexeme)
	}
	body := make([]any, 0, len(fn.Body))
	for _, s := range fn.Body {
		body = append(body, s.Accept(p))
	}
	return map[string]any{
		"type":   "FunctionExpr",
		"params": params,
		"body":   body,
	}
}

// nilOrAccept returns nil if expr is nil, otherwise it continues
// processing the expression and returns the result.
func nilOrAccept(expr ast.Expression, p ast.ExpressionVisitor) any {
	if expr == nil {
		return nil
	}
	return expr.Accept(p)
}

// PrintASTJSON converts a slice of statements into a prettified JSON string.
func PrintASTJSON(statements []ast.Stmt) (string, error) {
	printer := astPrinter{}
	out := make([]any, 0, len(statements))
	for _, s := range statements {
		out = append(out, s.Accept(printer))
	}
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}

	jsonStr := string(bytes)
	astHeaderColor.Println("----- AST JSON -----")
	astHeaderColor.Println(jsonStr)
	astHeaderColor.Println("-----")
	fmt.Println("")
	return jsonStr, nil
}

// WriteASTJSONToFile writes the prettified AST JSON to the given file path.
func WriteASTJSONToFile(statements []ast.Stmt, path string) error {
	s, err := PrintASTJSON(statements)
	if err != nil {
		return err
	}
	fDescriptor, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating AST file: %s", err.Error())
	}
	defer fDescriptor.Close()

	if _, err := fDescriptor.Write([]byte(s)); err != nil {
		return fmt.Errorf("error writing AST to file: %s", err.Error())
	}
	return nil
}
