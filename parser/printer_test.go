package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"rhythm/ast"
	"rhythm/token"
)

func TestPrintASTJSON_PrintLiteral(t *testing.T) {
	stmts := []ast.Stmt{
		ast.PrintStmt{Expression: ast.Literal{Value: 42}},
	}

	jsonString, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonString), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "PrintStmt" {
		t.Fatalf("expected type PrintStmt, got %v", node["type"])
	}

	expr := node["expression"]
	if num, ok := expr.(float64); !ok || num != 42 {
		t.Fatalf("expected expression 42, got %v", expr)
	}
}

func TestPrintASTJSON_VarStmt_NilInitializer(t *testing.T) {
	name := token.CreateLiteralToken(token.IDENTIFIER, nil, "x", 0, 0)
	stmts := []ast.Stmt{
		ast.VarStmt{Name: name, Initializer: nil},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "VarStmt" {
		t.Fatalf("expected type VarStmt, got %v", node["type"])
	}

	if nameVal, ok := node["name"].(string); !ok || nameVal != "x" {
		t.Fatalf("expected name 'x', got %v", node["name"])
	}

	if initVal, exists := node["initializer"]; !exists || initVal != nil {
		t.Fatalf("expected initializer to be nil, got %v", initVal)
	}
}

func TestPrintASTJSON_BinaryExpression(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Binary{
			Left:     ast.Literal{Value: 1},
			Operator: token.CreateToken(token.PLUS, 0, 0),
			Right:    ast.Literal{Value: 2},
		}},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "ExpressionStmt" {
		t.Fatalf("expected type ExpressionStmt, got %v", node["type"])
	}

	expr, ok := node["expression"].(map[string]any)
	if !ok {
		t.Fatalf("expected expression object, got %v", node["expression"])
	}

	if typ, ok := expr["type"].(string); !ok || typ != "Binary" {
		t.Fatalf("expected Binary expression, got %v", expr["type"])
	}

	if op, ok := expr["operator"].(string); !ok || op != "+" {
		t.Fatalf("expected operator '+', got %v", expr["operator"])
	}

	if left, ok := expr["left"].(float64); !ok || left != 1 {
		t.Fatalf("expected left 1, got %v", expr["left"])
	}
	if right, ok := expr["right"].(float64); !ok || right != 2 {
		t.Fatalf("expected right 2, got %v", expr["right"])
	}
}

func TestPrintASTJSON_TernaryExpression(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Ternary{
			Condition: ast.Literal{Value: true},
			Then:      ast.Literal{Value: 1},
			Else:      ast.Literal{Value: 2},
		}},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	expr := out[0]["expression"].(map[string]any)
	if typ, ok := expr["type"].(string); !ok || typ != "Ternary" {
		t.Fatalf("expected Ternary expression, got %v", expr["type"])
	}
	if then, ok := expr["then"].(float64); !ok || then != 1 {
		t.Fatalf("expected then 1, got %v", expr["then"])
	}
	if els, ok := expr["else"].(float64); !ok || els != 2 {
		t.Fatalf("expected else 2, got %v", expr["else"])
	}
}

func TestPrintASTJSON_ArrayAndSubscript(t *testing.T) {
	stmts := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Subscript{
			Object: ast.ArrayLiteral{Elements: []ast.Expression{
				ast.Literal{Value: 1}, ast.Literal{Value: 2},
			}},
			Index: ast.Literal{Value: 0},
		}},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	expr := out[0]["expression"].(map[string]any)
	if typ, ok := expr["type"].(string); !ok || typ != "Subscript" {
		t.Fatalf("expected Subscript expression, got %v", expr["type"])
	}
	obj := expr["object"].(map[string]any)
	if typ, ok := obj["type"].(string); !ok || typ != "ArrayLiteral" {
		t.Fatalf("expected ArrayLiteral object, got %v", obj["type"])
	}
	elements := obj["elements"].([]any)
	if len(elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elements))
	}
}

func TestPrintASTJSON_FunctionStmtAndReturn(t *testing.T) {
	name := token.CreateLiteralToken(token.IDENTIFIER, nil, "add", 1, 0)
	a := token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0)
	b := token.CreateLiteralToken(token.IDENTIFIER, nil, "b", 1, 0)

	stmts := []ast.Stmt{
		ast.FunctionStmt{
			Name:   name,
			Params: []token.Token{a, b},
			Body: []ast.Stmt{
				ast.ReturnStmt{Value: ast.Binary{
					Left:     ast.Variable{Name: a},
					Operator: token.CreateToken(token.PLUS, 1, 0),
					Right:    ast.Variable{Name: b},
				}},
			},
		},
	}

	jsonStr, err := PrintASTJSON(stmts)
	if err != nil {
		t.Fatalf("PrintASTJSON error: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "FunctionStmt" {
		t.Fatalf("expected FunctionStmt, got %v", node["type"])
	}
	params := node["params"].([]any)
	if len(params) != 2 || params[0] != "a" || params[1] != "b" {
		t.Fatalf("expected params [a b], got %v", params)
	}
	body := node["body"].([]any)
	if len(body) != 1 {
		t.Fatalf("expected 1 body statement, got %d", len(body))
	}
}

func TestWriteASTJSONToFile(t *testing.T) {
	stmts := []ast.Stmt{
		ast.PrintStmt{Expression: ast.Literal{Value: "hello rhythm!"}},
	}

	filePath := filepath.Join(os.TempDir(), "rhythm_ast_printer_test.json")
	defer os.Remove(filePath)

	if err := WriteASTJSONToFile(stmts, filePath); err != nil {
		t.Fatalf("WriteASTJSONToFile error: %v", err)
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal(bytes, &out); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(out))
	}

	node := out[0]
	if typ, ok := node["type"].(string); !ok || typ != "PrintStmt" {
		t.Fatalf("expected type PrintStmt, got %v", node["type"])
	}

	if expr, ok := node["expression"].(string); !ok || expr != "hello rhythm!" {
		t.Fatalf("expected expression 'hello rhythm!', got %v", node["expression"])
	}
}
