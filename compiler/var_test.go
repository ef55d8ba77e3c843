package compiler

import (
	"testing"

	"rhythm/ast"
	"rhythm/token"
)

// Globals are dynamically resolved at runtime (undefined-global and
// redefinition are not compile errors); only LOCAL scoping is checked
// statically, so these cases exercise block-scoped locals.
func TestCompilerVariableBehavior(t *testing.T) {
	tests := []struct {
		name       string
		statements []ast.Stmt
		hasError   bool
	}{
		{
			name: "local declared without initializer then read -> success, reads nil",
			statements: []ast.Stmt{
				ast.BlockStmt{Statements: []ast.Stmt{
					ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0)},
					ast.PrintStmt{Expression: ast.Variable{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0)}},
				}},
			},
			hasError: false,
		},
		{
			name: "local reading itself in its own initializer -> error",
			statements: []ast.Stmt{
				ast.BlockStmt{Statements: []ast.Stmt{
					ast.VarStmt{
						Name:        token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0),
						Initializer: ast.Variable{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0)},
					},
				}},
			},
			hasError: true,
		},
		{
			name: "redeclaration of local in same scope -> error",
			statements: []ast.Stmt{
				ast.BlockStmt{Statements: []ast.Stmt{
					ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0), Initializer: ast.Literal{Value: 0.0, Line: 1}},
					ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0), Initializer: ast.Literal{Value: 9.0, Line: 1}},
				}},
			},
			hasError: true,
		},
		{
			name: "same name in a nested scope is allowed (shadowing)",
			statements: []ast.Stmt{
				ast.BlockStmt{Statements: []ast.Stmt{
					ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0), Initializer: ast.Literal{Value: 0.0, Line: 1}},
					ast.BlockStmt{Statements: []ast.Stmt{
						ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0), Initializer: ast.Literal{Value: 1.0, Line: 1}},
					}},
				}},
			},
			hasError: false,
		},
		{
			name: "assignment to existing local -> success",
			statements: []ast.Stmt{
				ast.BlockStmt{Statements: []ast.Stmt{
					ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0)},
					ast.ExpressionStmt{Expression: ast.Assign{
						Name:  token.CreateLiteralToken(token.IDENTIFIER, nil, "a", 1, 0),
						Value: ast.Literal{Value: 1.0, Line: 1},
					}},
				}},
			},
			hasError: false,
		},
		{
			name: "global declaration and use -> success (resolved at runtime, not compile time)",
			statements: []ast.Stmt{
				ast.VarStmt{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "g", 1, 0), Initializer: ast.Literal{Value: 0.0, Line: 1}},
				ast.PrintStmt{Expression: ast.Variable{Name: token.CreateLiteralToken(token.IDENTIFIER, nil, "g", 1, 0)}},
			},
			hasError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewASTCompiler(0)
			_, err := c.CompileAST(tt.statements)
			if tt.hasError && err == nil {
				t.Errorf("expected error but got nil")
			}
			if !tt.hasError && err != nil {
				t.Errorf("unexpected compilation error: %s", err.Error())
			}
		})
	}
}
