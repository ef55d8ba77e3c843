package vm

import (
	"strings"
	"testing"

	"rhythm/ast"
	"rhythm/compiler"
	"rhythm/token"
)

func ident(name string) token.Token {
	return token.CreateLiteralToken(token.IDENTIFIER, nil, name, 1, 0)
}

func num(n float64) ast.Literal {
	return ast.Literal{Value: n, Line: 1}
}

func runStatements(t *testing.T, statements []ast.Stmt) (string, error) {
	t.Helper()
	c := compiler.NewASTCompiler(0)
	fn, err := c.CompileAST(statements)
	if err != nil {
		t.Fatalf("compile error: %s", err)
	}
	v := New(nil, 0)
	var out strings.Builder
	v.SetOutput(&out)
	_, runErr := v.Run(fn)
	return out.String(), runErr
}

func TestArithmeticAndPrint(t *testing.T) {
	statements := []ast.Stmt{
		ast.PrintStmt{Expression: ast.Binary{
			Left:     num(5),
			Operator: token.CreateToken(token.PLUS, 1, 0),
			Right:    num(1),
		}},
	}
	out, err := runStatements(t, statements)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "6\n" {
		t.Errorf("got %q, want %q", out, "6\n")
	}
}

func TestGlobalAssignmentAutoDefines(t *testing.T) {
	statements := []ast.Stmt{
		ast.ExpressionStmt{Expression: ast.Assign{Name: ident("x"), Value: num(42)}},
		ast.PrintStmt{Expression: ast.Variable{Name: ident("x")}},
	}
	out, err := runStatements(t, statements)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "42\n" {
		t.Errorf("got %q, want %q", out, "42\n")
	}
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	statements := []ast.Stmt{
		ast.PrintStmt{Expression: ast.Variable{Name: ident("missing")}},
	}
	_, err := runStatements(t, statements)
	if err == nil {
		t.Fatal("expected a runtime error reading an undefined global")
	}
}

func TestWhileLoopWithBreakAndContinue(t *testing.T) {
	// var i = 0; while (i < 5) { i = i + 1; if (i == 3) { continue; } if (i == 4) { break; } print i; }
	statements := []ast.Stmt{
		ast.VarStmt{Name: ident("i"), Initializer: num(0)},
		ast.WhileStmt{
			Condition: ast.Binary{Left: ast.Variable{Name: ident("i")}, Operator: token.CreateToken(token.LESS, 1, 0), Right: num(5)},
			Body: ast.BlockStmt{Statements: []ast.Stmt{
				ast.ExpressionStmt{Expression: ast.Assign{
					Name:  ident("i"),
					Value: ast.Binary{Left: ast.Variable{Name: ident("i")}, Operator: token.CreateToken(token.PLUS, 1, 0), Right: num(1)},
				}},
				ast.IfStmt{
					Condition: ast.Binary{Left: ast.Variable{Name: ident("i")}, Operator: token.CreateToken(token.EQUAL_EQUAL, 1, 0), Right: num(3)},
					Then:      ast.BlockStmt{Statements: []ast.Stmt{ast.ContinueStmt{Keyword: ident("continue")}}},
				},
				ast.IfStmt{
					Condition: ast.Binary{Left: ast.Variable{Name: ident("i")}, Operator: token.CreateToken(token.EQUAL_EQUAL, 1, 0), Right: num(4)},
					Then:      ast.BlockStmt{Statements: []ast.Stmt{ast.BreakStmt{Keyword: ident("break")}}},
				},
				ast.PrintStmt{Expression: ast.Variable{Name: ident("i")}},
			}},
		},
	}
	out, err := runStatements(t, statements)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "1\n2\n" {
		t.Errorf("got %q, want %q", out, "1\n2\n")
	}
}

func TestClosureCapturesByReference(t *testing.T) {
	// fun make_counter() { var n = 0; fun inc() { n = n + 1; return n; } return inc; }
	// var counter = make_counter(); print counter(); print counter();
	inc := ast.FunctionStmt{
		Name: ident("inc"),
		Body: []ast.Stmt{
			ast.ExpressionStmt{Expression: ast.Assign{
				Name:  ident("n"),
				Value: ast.Binary{Left: ast.Variable{Name: ident("n")}, Operator: token.CreateToken(token.PLUS, 1, 0), Right: num(1)},
			}},
			ast.ReturnStmt{Keyword: ident("return"), Value: ast.Variable{Name: ident("n")}},
		},
	}
	makeCounter := ast.FunctionStmt{
		Name: ident("make_counter"),
		Body: []ast.Stmt{
			ast.VarStmt{Name: ident("n"), Initializer: num(0)},
			inc,
			ast.ReturnStmt{Keyword: ident("return"), Value: ast.Variable{Name: ident("inc")}},
		},
	}
	statements := []ast.Stmt{
		makeCounter,
		ast.VarStmt{Name: ident("counter"), Initializer: ast.Call{Callee: ast.Variable{Name: ident("make_counter")}, Line: 1}},
		ast.PrintStmt{Expression: ast.Call{Callee: ast.Variable{Name: ident("counter")}, Line: 1}},
		ast.PrintStmt{Expression: ast.Call{Callee: ast.Variable{Name: ident("counter")}, Line: 1}},
	}
	out, err := runStatements(t, statements)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "1\n2\n" {
		t.Errorf("got %q, want %q (closure did not share its captured local across calls)", out, "1\n2\n")
	}
}

func TestArrayAndMapSubscript(t *testing.T) {
	statements := []ast.Stmt{
		ast.VarStmt{Name: ident("arr"), Initializer: ast.ArrayLiteral{Elements: []ast.Expression{num(10), num(20), num(30)}, Line: 1}},
		ast.PrintStmt{Expression: ast.Subscript{Object: ast.Variable{Name: ident("arr")}, Index: num(1), Line: 1}},
		ast.VarStmt{Name: ident("m"), Initializer: ast.MapLiteral{
			Entries: []ast.MapEntry{{Key: ast.Literal{Value: "x", Line: 1}, Value: num(7)}},
			Line:    1,
		}},
		ast.PrintStmt{Expression: ast.PropertyAccess{Object: ast.Variable{Name: ident("m")}, Name: ident("x")}},
	}
	out, err := runStatements(t, statements)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out != "20\n7\n" {
		t.Errorf("got %q, want %q", out, "20\n7\n")
	}
}
